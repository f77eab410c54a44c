package reactive

import (
	"reflect"
	"sync"
)

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Cell is an observable value.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T

	// subs are kept in subscription order.
	subs   []subscriber[T]
	nextID uint64
	subMu  sync.Mutex

	// equal decides whether Set is a change. Nil means reflect.DeepEqual.
	equal func(T, T) bool
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// WithEquals configures the equality used by Set.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set updates the value and notifies subscribers if it changed.
// It reports whether subscribers were notified.
func (c *Cell[T]) Set(value T) bool {
	c.mu.Lock()
	if c.equals(c.value, value) {
		c.mu.Unlock()
		return false
	}
	c.value = value
	c.mu.Unlock()

	c.notify(value)
	return true
}

// Subscribe calls fn with the current value, then on every change, until
// the returned function is called. Unsubscribing twice is a no-op.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	id := c.add(fn)
	fn(c.Get())
	return c.remover(id)
}

// SubscriberCount returns the number of active subscribers.
func (c *Cell[T]) SubscriberCount() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subs)
}

func (c *Cell[T]) add(fn func(T)) uint64 {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextID++
	c.subs = append(c.subs, subscriber[T]{id: c.nextID, fn: fn})
	return c.nextID
}

// remover returns an idempotent unsubscribe for id.
func (c *Cell[T]) remover(id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

func (c *Cell[T]) remove(id uint64) int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	return len(c.subs)
}

// notify calls every subscriber with value.
// Uses copy-before-notify so subscribers may unsubscribe while notified.
func (c *Cell[T]) notify(value T) {
	c.subMu.Lock()
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()

	for _, s := range subs {
		if c.isSubscribed(s.id) {
			s.fn(value)
		}
	}
}

func (c *Cell[T]) isSubscribed(id uint64) bool {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, s := range c.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return reflect.DeepEqual(a, b)
}
