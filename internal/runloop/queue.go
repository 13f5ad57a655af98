// Package runloop provides the main queue: a serial executor that stands in for the
// UI thread. Backend notifications and window updates are posted here so they run one
// at a time in submission order.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrClosed is returned by Sync when the queue no longer accepts work.
var ErrClosed = errors.New("runloop: queue closed")

const defaultCapacity = 64

// Options configures a Queue.
type Options struct {
	Capacity int
	Logger   *slog.Logger
}

// Queue runs posted funcs on a single goroutine.
type Queue struct {
	tasks  chan func()
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
}

// New constructs a Queue. Run must be called to start draining it.
func New(opts Options) *Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		tasks:  make(chan func(), capacity),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post enqueues fn. It blocks while the queue is full and drops fn once the queue is closed.
func (q *Queue) Post(fn func()) {
	if fn == nil || q.closed() {
		return
	}
	select {
	case <-q.done:
		q.logger.Debug("runloop: dropped task after close")
	case q.tasks <- fn:
	}
}

// Sync posts fn and waits for it to finish.
func (q *Queue) Sync(ctx context.Context, fn func()) error {
	if q.closed() {
		return ErrClosed
	}
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.tasks <- wrapped:
	}
	select {
	case <-finished:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is done or Close is called.
// Tasks still buffered at shutdown are discarded.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.Close()
			return nil
		case <-q.done:
			return nil
		case fn := <-q.tasks:
			q.exec(fn)
		}
	}
}

// Close stops accepting tasks. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *Queue) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("runloop: task panicked",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}

// Immediate runs posted funcs inline on the caller's goroutine.
type Immediate struct{}

// Post runs fn immediately.
func (Immediate) Post(fn func()) {
	if fn != nil {
		fn()
	}
}
