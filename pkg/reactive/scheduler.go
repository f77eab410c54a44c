package reactive

import (
	"context"
	"errors"
	"sync"
)

// Scheduler runs deferred work after the current turn.
type Scheduler interface {
	Defer(fn func())
}

// Immediate runs deferred work inline.
type Immediate struct{}

// Defer runs fn immediately.
func (Immediate) Defer(fn func()) { fn() }

// Queue is a FIFO microtask queue. Nothing runs until Flush.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Defer enqueues fn.
func (q *Queue) Defer(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Flush runs pending tasks, including tasks they enqueue, until the queue
// is empty. It returns the number of tasks run.
func (q *Queue) Flush() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return n
		}
		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
		n++
	}
}

// ErrLoopClosed is returned when posting to a stopped loop.
var ErrLoopClosed = errors.New("reactive: loop closed")

// Loop runs tasks one at a time on a single goroutine and drains its
// microtask queue after each task.
type Loop struct {
	tasks     chan func()
	queue     *Queue
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop with room for buffer pending tasks.
func NewLoop(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		queue: NewQueue(),
		done:  make(chan struct{}),
	}
}

// Scheduler returns the loop's microtask queue.
func (l *Loop) Scheduler() Scheduler {
	return l.queue
}

// Post enqueues fn as a task. It blocks while the task buffer is full and
// fails once the loop is closed.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Do runs fn as a task and waits for it and the microtasks it scheduled.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	err := l.Post(func() {
		err := fn()
		l.queue.Flush()
		result <- err
	})
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Run processes tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			fn()
			l.queue.Flush()
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		}
	}
}

// Close stops the loop. Pending tasks are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
