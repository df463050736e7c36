// Package platform provides the UI loop that serializes every mutation of
// fixture state, and the clock that feeds timers back into it.
package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-drift/e2e/pkg/errors"
)

// Dispatcher schedules callbacks on the UI loop.
type Dispatcher interface {
	// Dispatch queues callback and reports whether it was accepted.
	Dispatch(callback func()) bool
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(callback func()) bool

// Dispatch calls f(callback).
func (f DispatchFunc) Dispatch(callback func()) bool {
	return f(callback)
}

// Loop is a FIFO callback queue drained by a single goroutine.
//
// Callbacks run one at a time in the order they were dispatched. A panic in a
// callback is reported through errors.ReportPanic and does not stop the loop.
// Tests that do not start Run can execute queued work with Drain.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Dispatch queues callback. It returns false for a nil callback or a closed
// loop.
func (l *Loop) Dispatch(callback func()) bool {
	if callback == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, callback)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run drains the queue until ctx is cancelled. It must be called from a
// single goroutine.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.invoke(fn)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Call runs fn on the loop and waits for it to return. It must not be called
// from a callback already running on the loop.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	ok := l.Dispatch(func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				errors.ReportPanic(&errors.PanicError{
					Op:         "platform.Loop.Call",
					Value:      r,
					StackTrace: errors.CaptureStack(),
				})
				err = fmt.Errorf("panic on UI loop: %v", r)
			}
			done <- err
		}()
		err = fn()
	})
	if !ok {
		return fmt.Errorf("platform: loop closed")
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs queued callbacks on the calling goroutine until the queue is
// empty, including callbacks queued while draining. It returns the number of
// callbacks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.next()
		if !ok {
			return n
		}
		l.invoke(fn)
		n++
	}
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close rejects further dispatches. Queued callbacks are discarded.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) invoke(fn func()) {
	defer errors.Recover("platform.Loop")
	fn()
}
