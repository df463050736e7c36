package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	fixerrors "github.com/go-drift/e2e/pkg/errors"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/semantics"
	fixturetest "github.com/go-drift/e2e/pkg/testing"
)

// defaultLongPress is the hold of a long_press step without a duration.
const defaultLongPress = time.Second

// Runner executes scenarios, each on a freshly launched app.
type Runner struct {
	// Log receives a line per step. Nil discards.
	Log *logrus.Logger
	// Options customize the app every scenario starts from.
	Options []fixturetest.Option
}

// StepResult records the outcome of one step.
type StepResult struct {
	Index  int
	Line   int
	Action string
	Err    error
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario *Scenario
	Steps    []StepResult
	// Err is the first failure, wrapped as a *errors.FixtureError.
	Err     error
	Elapsed time.Duration
}

// Passed reports whether every step succeeded.
func (r *Result) Passed() bool { return r.Err == nil }

// Run executes sc and stops at the first failing step.
func (r *Runner) Run(sc *Scenario) *Result {
	start := time.Now()
	res := &Result{Scenario: sc}

	opts := append([]fixturetest.Option(nil), r.Options...)
	if sc.Orientation != "" {
		o, ok := orientation.Parse(sc.Orientation)
		if !ok {
			res.Err = r.fail(sc, 0, Step{Action: "setup"}, fmt.Errorf("unknown orientation %q", sc.Orientation))
			return res
		}
		opts = append(opts, fixturetest.WithOrientation(o))
	}

	tester := fixturetest.NewTester(opts...)
	defer tester.Cleanup()

	for i, step := range sc.Steps {
		err := r.step(tester, step)
		res.Steps = append(res.Steps, StepResult{Index: i, Line: step.Line, Action: step.Action, Err: err})
		if r.Log != nil {
			entry := r.Log.WithFields(logrus.Fields{
				"scenario": sc.Name,
				"step":     i + 1,
				"action":   step.Action,
			})
			if err != nil {
				entry.WithError(err).Debug("step failed")
			} else {
				entry.Debug("step passed")
			}
		}
		if err != nil {
			res.Err = r.fail(sc, i, step, err)
			break
		}
	}
	res.Elapsed = time.Since(start)
	return res
}

func (r *Runner) fail(sc *Scenario, i int, step Step, err error) error {
	where := sc.Path
	if step.Line > 0 {
		where = fmt.Sprintf("%s:%d", where, step.Line)
	}
	return &fixerrors.FixtureError{
		Op:        "scenario." + sc.Name,
		Kind:      fixerrors.KindScenario,
		Err:       fmt.Errorf("%s: step %d (%s): %w", where, i+1, step.Action, err),
		Timestamp: time.Now(),
	}
}

// step runs one action and its expectations. Finder panics become errors.
func (r *Runner) step(t *fixturetest.Tester, s Step) (err error) {
	defer fixerrors.RecoverWithCallback("scenario.step", func(v any) {
		err = fmt.Errorf("panic: %v", v)
	})
	if err := r.act(t, s); err != nil {
		return err
	}
	if s.Expect != nil {
		return check(t, s.Expect)
	}
	return nil
}

func (r *Runner) act(t *fixturetest.Tester, s Step) error {
	hold := time.Duration(s.Duration)
	switch s.Action {
	case ActionTap:
		p, err := point(t, s)
		if err != nil {
			return err
		}
		return t.TapAt(p)
	case ActionDoubleTap:
		p, err := point(t, s)
		if err != nil {
			return err
		}
		return t.DoubleTapAt(p)
	case ActionLongPress:
		p, err := point(t, s)
		if err != nil {
			return err
		}
		if hold == 0 {
			hold = defaultLongPress
		}
		return t.LongPressAt(p, hold)
	case ActionDrag, ActionHoldAndDrag:
		from, err := point(t, s)
		if err != nil {
			return err
		}
		to := from
		if s.To != "" {
			if to, err = center(t, s.To); err != nil {
				return err
			}
		}
		to = to.Add(geometry.Offset{X: s.Offset.X, Y: s.Offset.Y})
		if s.Action == ActionDrag {
			hold = 0
		}
		return t.HoldAndDrag(from, to, hold)
	case ActionType:
		return t.TypeText(s.Text)
	case ActionAdvance:
		t.Advance(hold)
		return nil
	case ActionNavigate:
		err := t.App().Navigate(s.Route)
		t.Pump()
		return err
	case ActionBack:
		ok := t.App().Back()
		t.Pump()
		if !ok {
			return fmt.Errorf("nothing to go back from")
		}
		return nil
	case ActionRotate:
		o, ok := orientation.Parse(s.Orientation)
		if !ok {
			return fmt.Errorf("unknown orientation %q", s.Orientation)
		}
		t.App().SetOrientation(o)
		t.Pump()
		return nil
	case ActionAcceptAlert:
		err := t.App().AcceptAlert(s.Button)
		t.Pump()
		return err
	case ActionDismissAlert:
		err := t.App().DismissAlert(s.Button)
		t.Pump()
		return err
	case ActionAlertText:
		err := t.App().SetAlertText(s.Text)
		t.Pump()
		return err
	case ActionExpect:
		if s.Expect == nil {
			return fmt.Errorf("expect step has no expectations")
		}
		return nil
	}
	return fmt.Errorf("unknown action %q", s.Action)
}

// Finder builds the finder a target string names.
func Finder(target string) fixturetest.Finder {
	switch {
	case strings.HasPrefix(target, "glob:"):
		return fixturetest.ByGlob(strings.TrimPrefix(target, "glob:"))
	case strings.HasPrefix(target, "predicate:"):
		return fixturetest.ByPredicate(strings.TrimPrefix(target, "predicate:"))
	case strings.HasPrefix(target, "type:"):
		return fixturetest.ByType(strings.TrimPrefix(target, "type:"))
	}
	return fixturetest.ByText(target)
}

// point is the step's absolute position, or the center of its target.
func point(t *fixturetest.Tester, s Step) (geometry.Offset, error) {
	if s.At != nil {
		return geometry.Offset{X: s.At.X, Y: s.At.Y}, nil
	}
	if s.Target == "" {
		return geometry.Offset{}, fmt.Errorf("%s needs a target or a position", s.Action)
	}
	return center(t, s.Target)
}

func center(t *fixturetest.Tester, target string) (geometry.Offset, error) {
	n, tree, err := resolve(t, target)
	if err != nil {
		return geometry.Offset{}, err
	}
	if !tree.Visible(n) {
		return geometry.Offset{}, fmt.Errorf("%q is not visible", target)
	}
	return tree.VisibleRect(n).Center(), nil
}

func resolve(t *fixturetest.Tester, target string) (*semantics.Node, *semantics.Tree, error) {
	finder := Finder(target)
	res := t.Find(finder)
	if !res.Exists() {
		return nil, nil, fmt.Errorf("no element matches %s", finder.Description())
	}
	return res.First(), res.Tree(), nil
}

func check(t *fixturetest.Tester, e *Expect) error {
	a := t.App()
	if e.Alert != nil {
		got := ""
		if alert := a.Alert(); alert != nil {
			got = alert.Text()
		}
		if got != *e.Alert {
			return fmt.Errorf("expected alert %q, got %q", *e.Alert, got)
		}
	}
	if e.Route != "" && a.Route() != e.Route {
		return fmt.Errorf("expected route %q, got %q", e.Route, a.Route())
	}
	if e.Orientation != "" {
		want, ok := orientation.Parse(e.Orientation)
		if !ok {
			return fmt.Errorf("unknown orientation %q", e.Orientation)
		}
		if got := a.Orientation().Current(); got != want {
			return fmt.Errorf("expected orientation %s, got %s", want, got)
		}
	}
	if e.Target == "" {
		if e.Exists != nil || e.Visible != nil || e.Enabled != nil || e.Selected != nil || e.Text != nil {
			return fmt.Errorf("element expectations need a target")
		}
		return nil
	}

	res := t.Find(Finder(e.Target))
	if e.Exists != nil && res.Exists() != *e.Exists {
		return fmt.Errorf("expected %q exists=%t", e.Target, *e.Exists)
	}
	if !res.Exists() {
		if e.Visible != nil || e.Enabled != nil || e.Selected != nil || e.Text != nil {
			return fmt.Errorf("no element matches %q", e.Target)
		}
		return nil
	}
	n := res.First()
	if e.Visible != nil && res.Tree().Visible(n) != *e.Visible {
		return fmt.Errorf("expected %q visible=%t", e.Target, *e.Visible)
	}
	if e.Enabled != nil && n.Enabled() != *e.Enabled {
		return fmt.Errorf("expected %q enabled=%t", e.Target, *e.Enabled)
	}
	if e.Selected != nil && n.Selected() != *e.Selected {
		return fmt.Errorf("expected %q selected=%t", e.Target, *e.Selected)
	}
	if e.Text != nil && n.Text() != *e.Text {
		return fmt.Errorf("expected %q text %q, got %q", e.Target, *e.Text, n.Text())
	}
	return nil
}
