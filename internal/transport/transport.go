// Package transport implements the Transport Pipeline / Message Processing
// Chain (spec §3.4, §4.4): a dequeue-backed worker pool that threads every
// inbound message through a registered hook chain terminated by a mandatory
// local-delivery hook, with anti-loop re-injection via "throw context".
// Grounded on original_source/mda/delivery_app/transporter.cpp for the
// worker-pool grow/shrink thresholds, dequeue loop, and hook-chain dispatch
// order; the goroutine/channel idiom is grounded on maddy's
// internal/target/queue worker/retry loop style (see DESIGN.md).
package transport

// BoundType classifies where a queued message came from (spec §3.4 Control
// block).
type BoundType int

const (
	BoundIn BoundType = iota
	BoundOut
	BoundRelay
	BoundSelf
	BoundUnknown
)

// ControlBlock is the per-message envelope metadata carried alongside the
// parsed MIME tree (spec §3.4).
type ControlBlock struct {
	QueueID     int
	BoundType   BoundType
	IsSpam      bool
	NeedBounce  bool
	EnvelopeFrom string
	Rcpts       []string
}

// DequeueItem is one raw message popped off the authoritative dequeue (spec
// §4.4.4 step 1): the raw RFC 5322 bytes plus the envelope fields the queue
// recorded alongside them.
type DequeueItem struct {
	Raw          []byte
	QueueID      int
	BoundType    BoundType
	IsSpam       bool
	EnvelopeFrom string
	Rcpts        []string
}

// Dequeue is the authoritative, on-disk message queue (spec §1: excluded
// external collaborator — only the RPC contract the worker pool needs is
// specified here). Get never drops a message: a worker that fails to
// process an item must call Save, not merely discard it, and Put is called
// unconditionally once the worker is done with the item (spec §4.4.4 steps
// 2-3: "this is NOT a drop - the dequeue is authoritative").
type Dequeue interface {
	// HasPending reports whether at least one item is waiting, without
	// popping it (spec §4.4.1 scanner: "if the dequeue is non-empty").
	HasPending() bool
	// Get pops the next item, or returns ok=false if the dequeue is empty.
	Get() (item *DequeueItem, ok bool)
	// Save defers item for later redelivery (spec §4.4.4 step 2: no hook
	// accepted it).
	Save(item *DequeueItem)
	// Put releases item back to the queue's own pool once the worker is
	// done with it, regardless of dispatch outcome.
	Put(item *DequeueItem)
}
