package platform

import (
	"sync/atomic"
	"time"

	"github.com/go-drift/e2e/pkg/gestures"
)

// SystemClock is a wall-clock gestures.Clock whose timers fire on the UI
// loop through a Dispatcher.
type SystemClock struct {
	Dispatcher Dispatcher
}

// NewSystemClock creates a clock that delivers timers through d.
func NewSystemClock(d Dispatcher) *SystemClock {
	return &SystemClock{Dispatcher: d}
}

// Now returns the current time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn on the loop after d.
func (c *SystemClock) AfterFunc(d time.Duration, fn func()) gestures.Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		c.Dispatcher.Dispatch(func() {
			// Stop may have raced with the dispatch.
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.stopped.Store(true)
	return t.timer.Stop()
}
