package testing

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/platform"
	"github.com/go-drift/e2e/pkg/semantics"
)

// Option customizes the app a Tester mounts.
type Option func(*app.Options)

// WithWindowSize sets the portrait window size.
func WithWindowSize(size geometry.Size) Option {
	return func(o *app.Options) { o.WindowSize = size }
}

// WithOrientation sets the initial orientation.
func WithOrientation(or orientation.Orientation) Option {
	return func(o *app.Options) { o.Orientation = or }
}

// WithLogger sets the app logger. Testers discard logs by default.
func WithLogger(l *logrus.Logger) Option {
	return func(o *app.Options) { o.Logger = l }
}

// WithBundleID sets the bundle identifier.
func WithBundleID(id string) Option {
	return func(o *app.Options) { o.BundleID = id }
}

// Tester runs the app on a fake clock with a manually drained loop. All
// methods must be called from the test goroutine.
type Tester struct {
	app     *app.App
	clock   *FakeClock
	loop    *platform.Loop
	pointer int64
	last    map[int64]geometry.Offset
}

// NewTester launches the app. Call Cleanup when done, or use
// NewTesterWithT instead.
func NewTester(opts ...Option) *Tester {
	clk := NewFakeClock()
	loop := platform.NewLoop()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	options := app.Options{Clock: clk, Dispatcher: loop, Logger: quiet}
	for _, opt := range opts {
		opt(&options)
	}
	t := &Tester{
		app:   app.New(options),
		clock: clk,
		loop:  loop,
		last:  make(map[int64]geometry.Offset),
	}
	t.Pump()
	return t
}

// NewTesterWithT creates a tester that cleans up via t.Cleanup().
func NewTesterWithT(t testing.TB, opts ...Option) *Tester {
	tester := NewTester(opts...)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup disposes the app and closes the loop.
func (t *Tester) Cleanup() {
	t.app.Dispose()
	t.loop.Close()
}

// App returns the app under test.
func (t *Tester) App() *app.App {
	return t.app
}

// Clock returns the fake clock.
func (t *Tester) Clock() *FakeClock {
	return t.clock
}

// Dispatch queues fn on the app's loop.
func (t *Tester) Dispatch(fn func()) bool {
	return t.loop.Dispatch(fn)
}

// Pump runs queued loop work, including work queued while pumping, and
// returns the number of callbacks run.
func (t *Tester) Pump() int {
	return t.loop.Drain()
}

// Advance moves the fake clock forward, firing timers, then pumps.
func (t *Tester) Advance(d time.Duration) {
	t.clock.Advance(d)
	t.Pump()
}

// Tree builds the current accessibility tree.
func (t *Tester) Tree() *semantics.Tree {
	return t.app.Tree()
}

// Find evaluates finder against the current tree.
func (t *Tester) Find(finder Finder) FinderResult {
	tree := t.Tree()
	return FinderResult{nodes: finder.Evaluate(tree), finder: finder, tree: tree}
}

// TypeText sends text to the focused field and pumps.
func (t *Tester) TypeText(text string) error {
	err := t.app.TypeText(text)
	t.Pump()
	return err
}
