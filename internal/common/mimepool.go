package common

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/textproto"
)

func bufioReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// MIMEPool amortizes the allocation of go-message parsing buffers across
// the transport worker pool's fixed and free context pools (spec §4.4.1
// "Allocate a MIME pool sized (threads_max + free_contexts) * mime_ratio").
// go-message does not expose an arena itself, so the pool here wraps
// bytes.Buffer recycling around message.Read the same way maddy's
// endpoint/smtp code reuses a buffer.Buffer per session.
type MIMEPool struct {
	bufs sync.Pool
}

// NewMIMEPool preallocates capacity buffers; ratio mirrors mime_ratio from
// the worker pool configuration (spec §4.4.1).
func NewMIMEPool(capacity int) *MIMEPool {
	p := &MIMEPool{}
	p.bufs.New = func() interface{} { return new(bytes.Buffer) }
	for i := 0; i < capacity; i++ {
		p.bufs.Put(new(bytes.Buffer))
	}
	return p
}

// Parse reads a full RFC 5322 message from r into a pooled buffer and
// returns the parsed entity. Put must be called with the returned buffer
// once the caller is done with the entity's body.
func (p *MIMEPool) Parse(r io.Reader) (*message.Entity, *bytes.Buffer, error) {
	buf := p.bufs.Get().(*bytes.Buffer)
	buf.Reset()
	if _, err := io.Copy(buf, r); err != nil {
		p.bufs.Put(buf)
		return nil, nil, err
	}
	ent, err := message.Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		p.bufs.Put(buf)
		return nil, nil, err
	}
	return ent, buf, nil
}

// Put returns a buffer obtained from Parse back to the pool.
func (p *MIMEPool) Put(buf *bytes.Buffer) {
	if buf != nil {
		p.bufs.Put(buf)
	}
}

// ReadHeader parses just the header block of a queued message, used by the
// transport dequeue loop to populate the control block before full parsing
// (spec §4.4.4 step 1).
func ReadHeader(r io.Reader) (textproto.Header, error) {
	br := textproto.NewReader(bufioReader(r))
	return br.ReadHeader()
}
