package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/cmd/fixture/internal/config"
	"github.com/go-drift/e2e/cmd/fixture/internal/scenario"
	fixerrors "github.com/go-drift/e2e/pkg/errors"
	fixturetest "github.com/go-drift/e2e/pkg/testing"
)

func init() {
	RegisterCommand(&Command{
		Name:  "scenario",
		Short: "Run YAML scenarios against the fixture",
		Long: `Run scenario files against a freshly launched fixture each. A scenario
is a list of steps (tap, long_press, hold_and_drag, type, rotate, expect, ...)
executed on a simulated clock, so holds and waits take no real time.

Arguments are scenario files or directories of .yaml/.yml files.

Flags:
  --run PATTERN       Only run scenarios whose name matches the glob PATTERN
  --watch             Re-run when a scenario file changes
  -v, --verbose       Log every step
` + appFlagsHelp,
		Usage: "fixture scenario [--run PATTERN] [--watch] [-v] <file|dir>...",
		Run:   runScenario,
	})
}

// watchDebounce collapses the burst of events one editor save produces.
const watchDebounce = 200 * time.Millisecond

var resultStyles = struct {
	Pass lipgloss.Style
	Fail lipgloss.Style
	Dim  lipgloss.Style
}{
	Pass: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#73F59F")),
	Fail: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87")),
	Dim:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
}

type scenarioOptions struct {
	paths   []string
	filter  glob.Glob
	watch   bool
	verbose bool
}

func runScenario(args []string) error {
	fs := newFlagSet("scenario")
	pattern := fs.String("run", "", "only run scenarios matching the glob")
	watch := fs.Bool("watch", false, "re-run on change")
	verbose := fs.BoolP("verbose", "v", false, "log every step")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("at least one scenario file or directory is required\n\nUsage: fixture scenario <file|dir>...")
	}

	opts := scenarioOptions{paths: fs.Args(), watch: *watch, verbose: *verbose}
	if *pattern != "" {
		g, err := glob.Compile(*pattern)
		if err != nil {
			return fmt.Errorf("invalid --run pattern %q: %w", *pattern, err)
		}
		opts.filter = g
	}

	log := cfg.Logger()
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetOutput(stderr)
	fixerrors.SetHandler(&fixerrors.LogHandler{Logger: log, Verbose: opts.verbose})

	runner := &scenario.Runner{Log: log, Options: testerOptions(cfg, log)}
	if !opts.watch {
		return runScenarios(stdout, runner, opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rerun := func() {
		if err := runScenarios(stdout, runner, opts); err != nil {
			fmt.Fprintln(stdout, resultStyles.Fail.Render(err.Error()))
		}
		fmt.Fprintln(stdout, resultStyles.Dim.Render("watching for changes (Ctrl+C to stop)..."))
	}
	rerun()
	return watchPaths(ctx, opts.paths, watchDebounce, log, rerun)
}

func testerOptions(cfg *config.Resolved, log *logrus.Logger) []fixturetest.Option {
	app := cfg.AppOptions()
	return []fixturetest.Option{
		fixturetest.WithWindowSize(app.WindowSize),
		fixturetest.WithOrientation(app.Orientation),
		fixturetest.WithBundleID(app.BundleID),
		fixturetest.WithLogger(log),
	}
}

// runScenarios loads and runs every selected scenario and reports a line
// per scenario. It fails when any scenario does.
func runScenarios(w io.Writer, runner *scenario.Runner, opts scenarioOptions) error {
	files, err := scenario.Files(opts.paths)
	if err != nil {
		return err
	}

	var total, failed int
	for _, file := range files {
		sc, err := scenario.Load(file)
		if err != nil {
			total++
			failed++
			fmt.Fprintf(w, "%s %s\n", resultStyles.Fail.Render("FAIL"), err)
			continue
		}
		if opts.filter != nil && !opts.filter.Match(sc.Name) {
			continue
		}
		total++
		res := runner.Run(sc)
		elapsed := resultStyles.Dim.Render(fmt.Sprintf("(%d steps, %s)", len(res.Steps), res.Elapsed.Round(time.Millisecond)))
		if res.Passed() {
			fmt.Fprintf(w, "%s %s %s\n", resultStyles.Pass.Render("PASS"), sc.Name, elapsed)
			continue
		}
		failed++
		fmt.Fprintf(w, "%s %s %s\n    %s\n", resultStyles.Fail.Render("FAIL"), sc.Name, elapsed, res.Err)
	}

	if total == 0 {
		return fmt.Errorf("no scenarios matched")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, total)
	}
	fmt.Fprintf(w, "ok %d scenarios\n", total)
	return nil
}

// watchPaths calls fn after changes to scenario files under paths settle,
// until ctx is done.
func watchPaths(ctx context.Context, paths []string, debounce time.Duration, log *logrus.Logger, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	dirs := make(map[string]bool)
	for _, p := range paths {
		dir := p
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			dir = filepath.Dir(p)
		}
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isScenarioFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				log.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("scenario changed")
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")
		case <-timer.C:
			fn()
		}
	}
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
