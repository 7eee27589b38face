package transport

import (
	"bytes"
	"sync"

	"github.com/emersion/go-message"

	"github.com/nexmda/groupcore/internal/common"
)

// MessageContext is a control block plus its parsed MIME tree (spec §3.4):
// the unit of work passed through the hook chain.
type MessageContext struct {
	Control ControlBlock
	Mail    *message.Entity

	buf *bytes.Buffer // returned to the MIME pool on Release
}

// Release returns ctx's parsing buffer to the MIME pool that produced it.
// Safe to call on a zero-value MessageContext's buf (no-op).
func (c *MessageContext) Release(mime *common.MIMEPool) {
	if c == nil {
		return
	}
	mime.Put(c.buf)
	c.buf = nil
	c.Mail = nil
}

// ParseContext parses raw as a full RFC 5322 message and builds a
// MessageContext around it (spec §4.4.4 step 1: "parse the raw message
// bytes via mail_retrieve").
func ParseContext(mime *common.MIMEPool, raw []byte, control ControlBlock) (*MessageContext, error) {
	ent, buf, err := mime.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &MessageContext{Control: control, Mail: ent, buf: buf}, nil
}

// ContextPool is the free context pool of spec §3.4. There is no fixed
// per-worker context: worker.go parses each dequeued item into a fresh
// *MessageContext. This type implements
// the shared *free* pool hooks draw from via GetContext/PutContext when
// synthesizing a message to re-inject (spec §4.4.3). Strictly LIFO per spec
// §5 ("ownership of a context is single-threaded between get/put").
type ContextPool struct {
	mime *common.MIMEPool

	mu   sync.Mutex
	free []*MessageContext
	cap  int
}

// NewContextPool preallocates capacity empty contexts backed by mime (spec
// §4.4.1: "Allocate ... free_contexts free contexts").
func NewContextPool(mime *common.MIMEPool, capacity int) *ContextPool {
	p := &ContextPool{mime: mime, cap: capacity}
	for i := 0; i < capacity; i++ {
		p.free = append(p.free, &MessageContext{})
	}
	return p
}

// Get pops a context from the free pool, or returns ok=false if every slot
// is currently checked out (spec §4.4.3 "a hook may synthesize a new
// message by calling get_context()").
func (p *ContextPool) Get() (*MessageContext, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	ctx := p.free[n-1]
	p.free = p.free[:n-1]
	return ctx, true
}

// Put returns ctx to the free pool, LIFO (spec §4.4.3 transporter_put_context).
func (p *ContextPool) Put(ctx *MessageContext) {
	if ctx == nil {
		return
	}
	ctx.Release(p.mime)
	*ctx = MessageContext{}
	p.mu.Lock()
	if len(p.free) < p.cap {
		p.free = append(p.free, ctx)
	}
	p.mu.Unlock()
}

// reinjectQueue is the in-process re-injection queue a hook feeds via
// EnqueueContext (spec §4.4.4 step 4), distinct from the throw-context
// synchronous re-entry of §4.4.3: items pushed here are picked up by a
// worker's own dequeue loop the next time the authoritative dequeue is
// empty, not dispatched immediately on the pushing goroutine.
type reinjectQueue struct {
	mu    sync.Mutex
	items []*MessageContext
	wake  chan struct{}
}

func newReinjectQueue() *reinjectQueue {
	return &reinjectQueue{wake: make(chan struct{}, 1)}
}

// Push enqueues ctx and wakes one waiting worker (spec §5: "a single
// condition variable broadcast from the enqueue side").
func (q *reinjectQueue) Push(ctx *MessageContext) {
	q.mu.Lock()
	q.items = append(q.items, ctx)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest enqueued context, FIFO (message order
// within the re-injection queue, matching the original's SINGLE_LIST queue
// semantics).
func (q *reinjectQueue) Pop() (*MessageContext, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	ctx := q.items[0]
	q.items = q.items[1:]
	return ctx, true
}

func (q *reinjectQueue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}
