package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type wcOutput struct {
	timestamps bool
	wc         io.WriteCloser
}

func (w wcOutput) Write(stamp time.Time, debug bool, msg string) {
	b := strings.Builder{}
	if w.timestamps {
		b.WriteString(stamp.UTC().Format("2006-01-02T15:04:05.000Z "))
	}
	if debug {
		b.WriteString("[debug] ")
	}
	b.WriteString(msg)
	b.WriteRune('\n')
	if _, err := io.WriteString(w.wc, b.String()); err != nil {
		fmt.Fprintf(os.Stderr, "log: write failed: %v\n", err)
	}
}

func (w wcOutput) Close() error { return w.wc.Close() }

// WriteCloserOutput writes formatted lines to wc, closing it on Close.
func WriteCloserOutput(wc io.WriteCloser, timestamps bool) Output {
	return wcOutput{timestamps, wc}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriterOutput writes formatted lines to w without ever closing it.
func WriterOutput(w io.Writer, timestamps bool) Output {
	return wcOutput{timestamps, nopCloser{w}}
}
