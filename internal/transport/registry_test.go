package transport

import "testing"

func TestRegistryDispatchOrderAndLocalFallback(t *testing.T) {
	r := NewRegistry()
	var order []string

	r.RegisterHook("a", func(d *Dispatcher, ctx *MessageContext) bool {
		order = append(order, "a")
		return false
	})
	r.RegisterHook("b", func(d *Dispatcher, ctx *MessageContext) bool {
		order = append(order, "b")
		return false
	})
	if _, err := r.RegisterLocal("local", func(d *Dispatcher, ctx *MessageContext) bool {
		order = append(order, "local")
		return true
	}); err != nil {
		t.Fatalf("RegisterLocal: %v", err)
	}

	d := NewDispatcher(r, NewContextPool(nil, 1), newReinjectQueue(), testLogger())
	ok := d.Dispatch(&MessageContext{})
	if !ok {
		t.Fatalf("expected dispatch to be accepted by local hook")
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "local" {
		t.Fatalf("unexpected dispatch order: %v", order)
	}
}

func TestRegistryAcceptedHookStopsChain(t *testing.T) {
	r := NewRegistry()
	var called []string
	r.RegisterHook("a", func(d *Dispatcher, ctx *MessageContext) bool {
		called = append(called, "a")
		return true
	})
	r.RegisterHook("b", func(d *Dispatcher, ctx *MessageContext) bool {
		called = append(called, "b")
		return true
	})

	d := NewDispatcher(r, NewContextPool(nil, 1), newReinjectQueue(), testLogger())
	if !d.Dispatch(&MessageContext{}) {
		t.Fatalf("expected acceptance")
	}
	if len(called) != 1 || called[0] != "a" {
		t.Fatalf("expected chain to stop after first accepting hook, got %v", called)
	}
}

func TestRegistryNoHooksRejects(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r, NewContextPool(nil, 1), newReinjectQueue(), testLogger())
	if d.Dispatch(&MessageContext{}) {
		t.Fatalf("expected rejection with no hooks registered")
	}
}

func TestRegistrySecondLocalRejected(t *testing.T) {
	r := NewRegistry()
	if _, err := r.RegisterLocal("first", func(d *Dispatcher, ctx *MessageContext) bool { return true }); err != nil {
		t.Fatalf("first RegisterLocal: %v", err)
	}
	if _, err := r.RegisterLocal("second", func(d *Dispatcher, ctx *MessageContext) bool { return true }); err == nil {
		t.Fatalf("expected second RegisterLocal to fail")
	}
}

func TestHookEntryInvalidateSkipsDispatch(t *testing.T) {
	r := NewRegistry()
	called := false
	e := r.RegisterHook("a", func(d *Dispatcher, ctx *MessageContext) bool {
		called = true
		return true
	})
	e.Invalidate()

	d := NewDispatcher(r, NewContextPool(nil, 1), newReinjectQueue(), testLogger())
	if d.Dispatch(&MessageContext{}) {
		t.Fatalf("expected rejection once the only hook is invalidated")
	}
	if called {
		t.Fatalf("invalidated hook must not run")
	}
}
