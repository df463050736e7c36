package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/go-drift/e2e/cmd/fixture/internal/config"
	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/platform"
)

// appFlagsHelp documents the flags added by newFlagSet.
const appFlagsHelp = `  --bundle-id ID      Application bundle id (default: derived from go.mod)
  --name NAME         Application name
  --scale N           Device pixels per point
  --orientation O     Initial orientation (PORTRAIT, LANDSCAPE, ...)
  --log-level LEVEL   Log level (debug, info, warn, error)
  --log-format FMT    Log format (text or json)`

// newFlagSet returns a flag set with the flags every app-hosting command
// accepts. Their values override fixture.yaml and FIXTURE_* variables.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("bundle-id", "", "application bundle id")
	fs.String("name", "", "application name")
	fs.Float64("scale", 0, "device pixels per point")
	fs.String("orientation", "", "initial orientation")
	fs.String("log-level", "", "log level")
	fs.String("log-format", "", "log format")
	return fs
}

// parse parses args and resolves configuration from the project root.
func parse(fs *pflag.FlagSet, args []string) (*config.Resolved, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", fs.Name(), err)
	}
	root, err := config.FindProjectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(root, fs)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// headless launches an app on a loop the caller drains. It is enough for
// commands that look at a screen without animating it.
func headless(cfg *config.Resolved, log *logrus.Logger, route string) (*app.App, *platform.Loop, error) {
	loop := platform.NewLoop()
	opts := cfg.AppOptions()
	opts.Clock = platform.NewSystemClock(loop)
	opts.Dispatcher = loop
	opts.Logger = log

	a := app.New(opts)
	loop.Drain()
	if route != "" && route != a.Route() {
		if err := a.Navigate(route); err != nil {
			a.Dispose()
			loop.Close()
			return nil, nil, err
		}
		loop.Drain()
	}
	return a, loop, nil
}
