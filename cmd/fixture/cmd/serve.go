package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/automation"
	fixerrors "github.com/go-drift/e2e/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Serve the WebDriverAgent-compatible API",
		Long: `Launch the fixture and serve a WebDriverAgent-compatible HTTP API
for it, so WDA clients can drive the app: find elements, tap, long press,
drag, type, handle alerts, rotate and take screenshots.

The server runs until interrupted.

Flags:
  --addr ADDR         Listen address (default: :8100)
` + appFlagsHelp + `

Configuration is read from fixture.yaml in the project root and FIXTURE_*
environment variables. Flags take precedence.`,
		Usage: "fixture serve [--addr ADDR] [flags]",
		Run:   runServe,
	})
}

func runServe(args []string) error {
	fs := newFlagSet("serve")
	fs.String("addr", "", "listen address")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}

	log := cfg.Logger()
	fixerrors.SetHandler(&fixerrors.LogHandler{Logger: log, Verbose: cfg.Level >= logrus.DebugLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.File != "" {
		log.WithField("file", cfg.File).Debug("loaded config")
	}
	srv := automation.New(cfg.ServerOptions(log))
	return srv.Run(ctx)
}
