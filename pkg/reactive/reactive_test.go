package reactive

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestCellSubscribeCallsImmediately(t *testing.T) {
	c := NewCell(1)
	var got []int
	unsub := c.Subscribe(func(v int) { got = append(got, v) })

	c.Set(2)
	c.Set(2) // unchanged, not published
	c.Set(3)
	unsub()
	c.Set(4)

	if want := []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCellDeepEquality(t *testing.T) {
	c := NewCell(map[string]any{"x": 1})
	calls := 0
	c.Subscribe(func(map[string]any) { calls++ })

	if c.Set(map[string]any{"x": 1}) {
		t.Error("deep-equal Set should not publish")
	}
	if !c.Set(map[string]any{"x": 2}) {
		t.Error("changed Set should publish")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestCellWithEquals(t *testing.T) {
	c := NewCell(0).WithEquals(func(a, b int) bool { return a%10 == b%10 })
	if c.Set(10) {
		t.Error("10 equals 0 under custom equality")
	}
	if !c.Set(11) {
		t.Error("11 differs from 0")
	}
}

func TestCellUnsubscribeDuringNotify(t *testing.T) {
	c := NewCell(0)
	var second []int
	var unsubFirst func()
	unsubFirst = c.Subscribe(func(v int) {
		if v == 1 {
			unsubFirst()
		}
	})
	unsubSecond := c.Subscribe(func(v int) { second = append(second, v) })
	defer unsubSecond()

	c.Set(1)
	c.Set(2)

	if c.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount = %d, want 1", c.SubscriberCount())
	}
	if !reflect.DeepEqual(second, []int{0, 1, 2}) {
		t.Errorf("second = %v", second)
	}
}

func TestStoreHasSubscribers(t *testing.T) {
	s := NewStore("a", nil)
	var transitions []bool
	s.HasSubscribers().Subscribe(func(v bool) { transitions = append(transitions, v) })

	u1 := s.Subscribe(func(string) {})
	u2 := s.Subscribe(func(string) {})
	u1()
	u1() // idempotent
	u2()

	if want := []bool{false, true, false}; !reflect.DeepEqual(transitions, want) {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
	if s.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d", s.SubscriberCount())
	}
}

func TestStoreActivationPublishesOnce(t *testing.T) {
	s := NewStore(0, nil)
	s.HasSubscribers().Subscribe(func(active bool) {
		if active {
			s.Set(1, true)
		}
	})

	var got []int
	s.Subscribe(func(v int) { got = append(got, v) })
	if want := []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// An activation that leaves the value unchanged publishes nothing new.
	other := NewStore(5, nil)
	other.HasSubscribers().Subscribe(func(active bool) {
		if active {
			other.Set(5, false)
		}
	})
	got = nil
	other.Subscribe(func(v int) { got = append(got, v) })
	if want := []int{5}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStoreDeferredSet(t *testing.T) {
	q := NewQueue()
	s := NewStore(0, q)
	var got []int
	s.Subscribe(func(v int) { got = append(got, v) })

	s.Set(1, true)
	if s.Get() != 0 {
		t.Errorf("deferred Set published early: %d", s.Get())
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}

	q.Flush()
	if s.Get() != 1 {
		t.Errorf("Get = %d after flush", s.Get())
	}

	s.Set(2, false)
	if want := []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestQueueFlushRunsNestedTasks(t *testing.T) {
	q := NewQueue()
	var order []int
	q.Defer(func() {
		order = append(order, 1)
		q.Defer(func() { order = append(order, 3) })
	})
	q.Defer(func() { order = append(order, 2) })

	if n := q.Flush(); n != 3 {
		t.Errorf("Flush = %d, want 3", n)
	}
	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Errorf("order = %v", order)
	}
}

func TestImmediate(t *testing.T) {
	ran := false
	Immediate{}.Defer(func() { ran = true })
	if !ran {
		t.Error("Immediate should run inline")
	}
}

func TestLoopDoDrainsMicrotasks(t *testing.T) {
	l := NewLoop(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	var order []string
	err := l.Do(ctx, func() error {
		l.Scheduler().Defer(func() {
			mu.Lock()
			order = append(order, "micro")
			mu.Unlock()
		})
		mu.Lock()
		order = append(order, "task")
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(order, []string{"task", "micro"}) {
		t.Errorf("order = %v", order)
	}
}

func TestLoopClose(t *testing.T) {
	l := NewLoop(1)
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	l.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	if err := l.Post(func() {}); err != ErrLoopClosed {
		t.Errorf("Post after Close = %v, want ErrLoopClosed", err)
	}
}
