package transport

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDequeue is a Dequeue test double backed by a simple slice queue.
type fakeDequeue struct {
	mu      sync.Mutex
	pending []*DequeueItem
	saved   int32
	put     int32
}

func (f *fakeDequeue) HasPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) > 0
}

func (f *fakeDequeue) Get() (*DequeueItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return nil, false
	}
	item := f.pending[0]
	f.pending = f.pending[1:]
	return item, true
}

func (f *fakeDequeue) Save(item *DequeueItem) { atomic.AddInt32(&f.saved, 1) }
func (f *fakeDequeue) Put(item *DequeueItem)  { atomic.AddInt32(&f.put, 1) }

func TestWorkerPoolProcessesQueuedItem(t *testing.T) {
	r := NewRegistry()
	accepted := make(chan struct{}, 1)
	r.RegisterHook("accept", func(d *Dispatcher, ctx *MessageContext) bool {
		accepted <- struct{}{}
		return true
	})

	dq := &fakeDequeue{pending: []*DequeueItem{{
		Raw:          []byte("From: a@example.com\r\nTo: b@example.com\r\nSubject: hi\r\n\r\nbody\r\n"),
		QueueID:      1,
		BoundType:    BoundIn,
		EnvelopeFrom: "a@example.com",
		Rcpts:        []string{"b@example.com"},
	}}}

	pool := NewWorkerPool(PoolConfig{ThreadsMin: 1, ThreadsMax: 2, FreeContexts: 2, MimeRatio: 2}, r, dq, testLogger())
	pool.Start()
	defer pool.Stop()

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for queued item to be dispatched")
	}

	if atomic.LoadInt32(&dq.put) == 0 {
		t.Fatalf("expected dequeue item to be returned to the pool via Put")
	}
}

func TestWorkerPoolSavesUnhandledItem(t *testing.T) {
	r := NewRegistry() // no hooks registered: every item is unhandled

	dq := &fakeDequeue{pending: []*DequeueItem{{
		Raw:          []byte("From: a@example.com\r\nTo: b@example.com\r\nSubject: hi\r\n\r\nbody\r\n"),
		QueueID:      2,
		BoundType:    BoundIn,
		EnvelopeFrom: "a@example.com",
		Rcpts:        []string{"b@example.com"},
	}}}

	pool := NewWorkerPool(PoolConfig{ThreadsMin: 1, ThreadsMax: 1, FreeContexts: 1, MimeRatio: 1}, r, dq, testLogger())
	pool.Start()
	defer pool.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&dq.saved) == 0 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for unhandled item to be saved back")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
