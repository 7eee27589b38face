package transport

import (
	"sync/atomic"

	"github.com/nexmda/groupcore/framework/exterrors"
	"github.com/nexmda/groupcore/framework/log"
)

// MaxThrowingNum bounds a single worker's throw-context nesting depth (spec
// §4.4.3, §8 testable property 4).
const MaxThrowingNum = 16

// Dispatcher is the per-worker-thread hook-chain runner (spec §4.4.2) plus
// its anti-loop bookkeeping (spec §4.4.3). It is NOT safe for concurrent
// use: exactly one worker goroutine owns a Dispatcher at a time, mirroring
// the original's thread-local THREAD_DATA.
type Dispatcher struct {
	registry *Registry
	ctxPool  *ContextPool
	reinject *reinjectQueue
	log      log.Logger

	lastHook    *HookEntry
	lastThrower *HookEntry
	throwStack  []*HookEntry
}

// NewDispatcher constructs a Dispatcher bound to one worker.
func NewDispatcher(r *Registry, ctxPool *ContextPool, reinject *reinjectQueue, logger log.Logger) *Dispatcher {
	return &Dispatcher{registry: r, ctxPool: ctxPool, reinject: reinject, log: logger}
}

// Reset clears last-hook/last-thrower at the start of a new top-level
// message, before calling Dispatch (spec §4.4.4 step 2:
// "pthr_data->last_hook = NULL; pthr_data->last_thrower = NULL").
func (d *Dispatcher) Reset() {
	d.lastHook = nil
	d.lastThrower = nil
}

// Dispatch runs ctx through the hook chain in registration order, skipping
// any hook equal to the current thrower, then falls back to the local hook
// if nothing else accepted (spec §4.4.2 transporter_pass_mpc_hooks).
func (d *Dispatcher) Dispatch(ctx *MessageContext) bool {
	hooks, local := d.registry.snapshot()

	accepted := false
	for _, h := range hooks {
		if !h.Valid() || h == d.lastThrower {
			continue
		}
		d.lastHook = h
		atomic.AddInt32(&h.count, 1)
		res := h.fn(d, ctx)
		atomic.AddInt32(&h.count, -1)
		if res {
			accepted = true
			break
		}
	}
	if accepted {
		return true
	}

	if local == nil || d.lastThrower == local {
		return false
	}
	d.lastHook = local
	atomic.AddInt32(&local.count, 1)
	res := local.fn(d, ctx)
	atomic.AddInt32(&local.count, -1)
	return res
}

// GetContext pulls a context from the shared free pool for a hook that
// wants to synthesize a new message (spec §4.4.3).
func (d *Dispatcher) GetContext() (*MessageContext, bool) {
	return d.ctxPool.Get()
}

// EnqueueContext pushes ctx onto the in-process re-injection queue, picked
// up asynchronously by a worker's dequeue loop (spec §4.4.4 step 4), as
// opposed to Throw's synchronous same-thread re-entry.
func (d *Dispatcher) EnqueueContext(ctx *MessageContext) {
	d.reinject.Push(ctx)
}

// Throw re-enters Dispatch on the same goroutine with last_thrower set to
// the hook currently executing (spec §4.4.3). It rejects the throw as a
// loop if that hook is already present on the throw stack, and as overflow
// if the stack is already at MaxThrowingNum. ctx is always released back to
// the free pool before returning, matching the original's
// transporter_put_context call on every exit path.
func (d *Dispatcher) Throw(ctx *MessageContext) (bool, error) {
	current := d.lastHook

	for _, h := range d.throwStack {
		if h == current {
			d.ctxPool.Put(ctx)
			return false, exterrors.ErrLoopDetected
		}
	}
	if len(d.throwStack) >= MaxThrowingNum {
		d.ctxPool.Put(ctx)
		return false, exterrors.ErrResourceExhausted
	}

	savedHook, savedThrower := d.lastHook, d.lastThrower
	d.throwStack = append(d.throwStack, current)
	d.lastThrower = current

	result := d.Dispatch(ctx)

	d.throwStack = d.throwStack[:len(d.throwStack)-1]
	d.ctxPool.Put(ctx)
	d.lastHook, d.lastThrower = savedHook, savedThrower
	return result, nil
}
