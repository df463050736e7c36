package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-drift/e2e/cmd/fixture/internal/tui"
)

func init() {
	RegisterCommand(&Command{
		Name:  "tui",
		Short: "Run the fixture in the terminal",
		Long: `Run the fixture in the terminal and use the mouse as a finger:
click to tap, hold to long press, hold and move to drag. The wheel scrolls.

Keys:
  b   back        r   rotate
  a   accept      d   dismiss the alert
  ?   help        q   quit

While the keyboard is up, typed keys go to the focused text field and
Esc dismisses it.

Flags:
  --log-file FILE     Append logs to FILE (default: discard)
` + appFlagsHelp,
		Usage: "fixture tui [--log-file FILE] [flags]",
		Run:   runTUI,
	})
}

func runTUI(args []string) error {
	fs := newFlagSet("tui")
	logFile := fs.String("log-file", "", "append logs to file")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}

	log := cfg.Logger()
	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	opts := cfg.AppOptions()
	opts.Logger = log
	host := tui.NewLoopHost(opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()

	p := tea.NewProgram(tui.New(host), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()

	cancel()
	<-done
	host.Close()
	return err
}
