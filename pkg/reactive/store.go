package reactive

import "sync"

// Store is a value cell composed with a "has subscribers" cell.
type Store[T any] struct {
	value          *Cell[T]
	hasSubscribers *Cell[bool]
	scheduler      Scheduler
}

// NewStore creates a store holding initial. Deferred publishes run on
// scheduler; a nil scheduler runs them inline.
func NewStore[T any](initial T, scheduler Scheduler) *Store[T] {
	if scheduler == nil {
		scheduler = Immediate{}
	}
	return &Store[T]{
		value:          NewCell(initial),
		hasSubscribers: NewCell(false),
		scheduler:      scheduler,
	}
}

// WithEquals configures the equality used to suppress unchanged publishes.
func (s *Store[T]) WithEquals(fn func(T, T) bool) *Store[T] {
	s.value.WithEquals(fn)
	return s
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	return s.value.Get()
}

// Set publishes value. With deferPublish the publish runs on the store's
// scheduler instead of inline.
func (s *Store[T]) Set(value T, deferPublish bool) {
	if deferPublish {
		s.scheduler.Defer(func() { s.value.Set(value) })
		return
	}
	s.value.Set(value)
}

// Subscribe registers fn and calls it with the current value. The first
// subscriber then flips HasSubscribers to true, so a value set by an
// activation listener reaches fn once, after the initial call. The last
// unsubscribe flips it back.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	id := s.value.add(fn)
	fn(s.value.Get())
	if s.value.SubscriberCount() == 1 {
		s.hasSubscribers.Set(true)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if s.value.remove(id) == 0 {
				s.hasSubscribers.Set(false)
			}
		})
	}
}

// HasSubscribers reports, observably, whether the store has subscribers.
func (s *Store[T]) HasSubscribers() *Cell[bool] {
	return s.hasSubscribers
}

// SubscriberCount returns the number of active subscribers.
func (s *Store[T]) SubscriberCount() int {
	return s.value.SubscriberCount()
}
