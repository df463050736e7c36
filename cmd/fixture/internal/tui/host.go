package tui

import (
	"context"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/platform"
)

// Host runs functions against the app on its UI loop.
type Host interface {
	Do(fn func(a *app.App)) error
}

// LoopHost hosts an app on a platform.Loop driven by the wall clock.
type LoopHost struct {
	loop *platform.Loop
	app  *app.App
}

// NewLoopHost launches an app. Clock and Dispatcher in opts are replaced.
// The loop does not run until Run is called.
func NewLoopHost(opts app.Options) *LoopHost {
	loop := platform.NewLoop()
	opts.Clock = platform.NewSystemClock(loop)
	opts.Dispatcher = loop
	return &LoopHost{loop: loop, app: app.New(opts)}
}

// Run processes loop work until ctx is done.
func (h *LoopHost) Run(ctx context.Context) error {
	return h.loop.Run(ctx)
}

// Do runs fn on the loop and waits for it.
func (h *LoopHost) Do(fn func(a *app.App)) error {
	return h.loop.Call(context.Background(), func() error {
		fn(h.app)
		return nil
	})
}

// Close stops the loop and disposes the app. Call it after Run returns.
func (h *LoopHost) Close() {
	h.loop.Close()
	h.app.Dispose()
}
