package transport

import (
	"sync"
	"sync/atomic"

	"github.com/nexmda/groupcore/framework/exterrors"
)

// Hook is one plugin's message handler: it returns true if it accepted
// (fully handled) the message, terminating the chain (spec §4.4.2). d gives
// the hook access to the calling worker's dispatcher so it can synthesize
// and re-inject a new message (spec §4.4.3 get_context/throw_context,
// §4.4.4 enqueue_context).
type Hook func(d *Dispatcher, ctx *MessageContext) bool

// HookEntry is one registered hook plus its in-flight bookkeeping (spec
// §4.4.2, §4.4.5): Count tracks in-flight invocations so plugin unload can
// be deferred until it reaches zero, and Valid lets a hook be logically
// removed without reshuffling the append-only list.
type HookEntry struct {
	fn    Hook
	valid int32 // atomic bool
	count int32 // atomic in-flight invocation count
	name  string
}

func (h *HookEntry) Valid() bool { return atomic.LoadInt32(&h.valid) != 0 }

// Count returns the number of in-flight invocations of this hook, used by
// plugin unload to defer freeing until it reaches zero (spec §4.4.5).
func (h *HookEntry) Count() int32 { return atomic.LoadInt32(&h.count) }

// Registry is the append-only, epoch-safe hook list (spec §4.4.2): readers
// snapshot head/tail under a short lock and iterate without blocking a
// concurrent append. Exactly one hook may be the terminal local hook (spec
// §4.4.5: "exactly one plugin may call register_local").
type Registry struct {
	mu    sync.Mutex
	hooks []*HookEntry
	local *HookEntry
}

// NewRegistry constructs an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterHook appends fn to the hook chain. Registration is only valid
// during a plugin's PLUGIN_INIT (spec §4.4.2); the registry itself doesn't
// enforce that lifecycle restriction (that's the plugin loader's job, out
// of scope per spec §1), it only guarantees append-order iteration.
func (r *Registry) RegisterHook(name string, fn Hook) *HookEntry {
	e := &HookEntry{fn: fn, valid: 1, name: name}
	r.mu.Lock()
	r.hooks = append(r.hooks, e)
	r.mu.Unlock()
	return e
}

// RegisterLocal designates fn as the terminal local-delivery hook (spec
// §4.4.2, §4.4.5). A second call fails: only one plugin may own it.
func (r *Registry) RegisterLocal(name string, fn Hook) (*HookEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local != nil {
		return nil, exterrors.ErrInvariantViolation
	}
	e := &HookEntry{fn: fn, valid: 1, name: name}
	r.local = e
	return e, nil
}

// Invalidate marks e unavailable for future dispatch without removing it
// from the list (spec §4.4.5 "moved to an unloading list... freed when
// count == 0" — invalidation is the dispatch-visible half of that; actual
// freeing/removal is the plugin loader's concern, out of scope here).
func (e *HookEntry) Invalidate() { atomic.StoreInt32(&e.valid, 0) }

// snapshot returns the hooks currently registered, in append order, plus
// the local hook (spec §4.4.2: "snapshot head/tail under a short lock and
// iterate without blocking").
func (r *Registry) snapshot() ([]*HookEntry, *HookEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hooks := make([]*HookEntry, len(r.hooks))
	copy(hooks, r.hooks)
	return hooks, r.local
}
