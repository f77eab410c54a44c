// Package reactive provides the small observer primitives the router
// publishes through.
//
// A Cell is a value holder whose subscribers are called with the current
// value on subscribe and again on every change. A Store composes a value
// Cell with a second Cell[bool] that reports whether the store has any
// subscribers, so owners can start and stop background work as consumers
// come and go:
//
//	s := reactive.NewStore(0, reactive.Immediate{})
//	s.HasSubscribers().Subscribe(func(active bool) {
//	    if active { attach() } else { detach() }
//	})
//	unsub := s.Subscribe(func(v int) { render(v) })
//	s.Set(1, false)
//	unsub()
//
// Deferred work runs on a Scheduler. Queue is a microtask queue drained by
// Flush; Loop is a single-goroutine event loop that drains its Queue after
// every task, the way a browser runs microtasks between events.
package reactive
