// Package log implements the structured logger used in this module: the
// address book manager, the store facade and the transport worker pool each
// carry a Logger value rather than reaching for a package-level global. The
// message facade logs through its Store's Logger; the calendar code has no
// Logger and reports failures as returned errors.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Logger writes formatted, tab-separated structured messages to an Output
// sink. It is a small value type and can be copied freely; the Output it
// wraps is responsible for any necessary synchronization.
type Logger struct {
	Out   Output
	Name  string
	Debug bool

	// Fields is merged into every message emitted through this Logger.
	Fields map[string]interface{}
}

// DefaultLogger is used by the package-level helpers below and by any
// subsystem that is not handed an explicit Logger.
var DefaultLogger = Logger{Out: WriterOutput(os.Stderr, false)}

func (l Logger) Debugf(format string, val ...interface{}) {
	if !l.Debug {
		return
	}
	l.log(true, l.formatMsg(fmt.Sprintf(format, val...), nil))
}

func (l Logger) Printf(format string, val ...interface{}) {
	l.log(false, l.formatMsg(fmt.Sprintf(format, val...), nil))
}

// Msg writes a structured event message:
//
//	name: msg\t{"key":"value"}
//
// fields must alternate key strings and values, as in
// []interface{}{"key", "value", "key2", "value2"}.
func (l Logger) Msg(msg string, fields ...interface{}) {
	m := make(map[string]interface{}, len(fields)/2)
	fieldsToMap(fields, m)
	l.log(false, l.formatMsg(msg, m))
}

// Error writes a structured message about err, pulling in any fields err
// carries via the Fielder interface (see framework/exterrors).
func (l Logger) Error(msg string, err error, fields ...interface{}) {
	if err == nil {
		return
	}

	errFields := fielder(err)
	allFields := make(map[string]interface{}, len(fields)/2+len(errFields)+1)
	for k, v := range errFields {
		allFields[k] = v
	}
	if allFields["reason"] == nil {
		allFields["reason"] = err.Error()
	}
	fieldsToMap(fields, allFields)

	l.log(false, l.formatMsg(msg, allFields))
}

// fielder is overridden by framework/exterrors.Fields at init time via
// RegisterFielder to avoid an import cycle between log and exterrors.
var fielder = func(error) map[string]interface{} { return nil }

// RegisterFielder installs the function used by Error to extract structured
// fields from an error value.
func RegisterFielder(f func(error) map[string]interface{}) { fielder = f }

func fieldsToMap(fields []interface{}, out map[string]interface{}) {
	var lastKey string
	for i, val := range fields {
		if i%2 == 0 {
			key, ok := val.(string)
			if !ok {
				out[fmt.Sprintf("field%d", i)] = val
				continue
			}
			lastKey = key
			continue
		}
		out[lastKey] = val
	}
}

func (l Logger) formatMsg(msg string, fields map[string]interface{}) string {
	b := strings.Builder{}
	b.WriteString(msg)
	b.WriteRune('\t')

	if len(l.Fields)+len(fields) != 0 {
		if fields == nil {
			fields = make(map[string]interface{})
		}
		for k, v := range l.Fields {
			fields[k] = v
		}
		if err := marshalOrderedJSON(&b, fields); err != nil {
			return fmt.Sprintf("[bad log fields: %v] %s %+v", err, msg, fields)
		}
	}

	return b.String()
}

// Write implements io.Writer; every call is emitted as one log line.
func (l Logger) Write(s []byte) (int, error) {
	l.log(false, strings.TrimRight(string(s), "\n"))
	return len(s), nil
}

func (l Logger) log(debug bool, s string) {
	if l.Name != "" {
		s = l.Name + ": " + s
	}
	if l.Out != nil {
		l.Out.Write(time.Now(), debug, s)
		return
	}
	if DefaultLogger.Out != nil {
		DefaultLogger.Out.Write(time.Now(), debug, s)
	}
}

func Debugf(format string, val ...interface{}) { DefaultLogger.Debugf(format, val...) }
func Printf(format string, val ...interface{}) { DefaultLogger.Printf(format, val...) }

var _ io.Writer = Logger{}
