// Package scenario runs YAML gesture scripts against the fixture app on a
// fake clock.
//
// A scenario is a list of steps. Each step performs one action and may check
// expectations afterwards:
//
//	name: drag handoff
//	steps:
//	  - action: tap
//	    target: DragView
//	  - action: hold_and_drag
//	    target: DRAG_SOURCE
//	    to: DRAG_TARGET
//	    duration: 600ms
//	    expect:
//	      alert: "Success\nYou long-pressed and dragged onto Button B!"
//
// Targets name an element by identifier, label or value. The prefixes
// "glob:", "predicate:" and "type:" select other finders.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	fixerrors "github.com/go-drift/e2e/pkg/errors"
)

// Actions a step can perform.
const (
	ActionTap          = "tap"
	ActionDoubleTap    = "double_tap"
	ActionLongPress    = "long_press"
	ActionDrag         = "drag"
	ActionHoldAndDrag  = "hold_and_drag"
	ActionType         = "type"
	ActionAdvance      = "advance"
	ActionNavigate     = "navigate"
	ActionBack         = "back"
	ActionRotate       = "rotate"
	ActionAcceptAlert  = "accept_alert"
	ActionDismissAlert = "dismiss_alert"
	ActionAlertText    = "set_alert_text"
	ActionExpect       = "expect"
)

var actions = []string{
	ActionTap, ActionDoubleTap, ActionLongPress, ActionDrag, ActionHoldAndDrag,
	ActionType, ActionAdvance, ActionNavigate, ActionBack, ActionRotate,
	ActionAcceptAlert, ActionDismissAlert, ActionAlertText, ActionExpect,
}

// Scenario is one parsed script.
type Scenario struct {
	Name string `yaml:"name"`
	// Orientation is the starting orientation. Empty means portrait.
	Orientation string `yaml:"orientation,omitempty"`
	Steps       []Step `yaml:"steps"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Point is a position or offset in points.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Duration accepts Go durations ("600ms") or plain seconds (0.6).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", n.Line)
	}
	if secs, err := strconv.ParseFloat(n.Value, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", n.Line, n.Value)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Step is one action plus optional expectations.
type Step struct {
	Action string `yaml:"action"`
	// Target is the element acted on.
	Target string `yaml:"target,omitempty"`
	// To is the drop element of hold_and_drag.
	To string `yaml:"to,omitempty"`
	// At is an absolute position used instead of Target.
	At *Point `yaml:"at,omitempty"`
	// Offset moves the drop point of drag and hold_and_drag.
	Offset   Point    `yaml:"offset,omitempty"`
	Duration Duration `yaml:"duration,omitempty"`
	Text     string   `yaml:"text,omitempty"`
	Route    string   `yaml:"route,omitempty"`
	// Orientation is the rotate target, e.g. LANDSCAPE.
	Orientation string `yaml:"orientation,omitempty"`
	// Button names the alert button to press. Empty means the default.
	Button string  `yaml:"button,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`

	// Line is the line the step starts on.
	Line int `yaml:"-"`
}

// Expect is checked after a step's action.
type Expect struct {
	// Target is the element the element checks apply to.
	Target   string  `yaml:"target,omitempty"`
	Exists   *bool   `yaml:"exists,omitempty"`
	Visible  *bool   `yaml:"visible,omitempty"`
	Enabled  *bool   `yaml:"enabled,omitempty"`
	Selected *bool   `yaml:"selected,omitempty"`
	Text     *string `yaml:"text,omitempty"`
	// Alert is the visible alert's text. An empty string asserts that no
	// alert is shown.
	Alert       *string `yaml:"alert,omitempty"`
	Route       string  `yaml:"route,omitempty"`
	Orientation string  `yaml:"orientation,omitempty"`
}

var stepKeys = []string{
	"action", "target", "to", "at", "offset", "duration", "text", "route",
	"orientation", "button", "expect",
}

var expectKeys = []string{
	"target", "exists", "visible", "enabled", "selected", "text", "alert",
	"route", "orientation",
}

// checkKeys rejects mapping keys outside known. Node.Decode does not honor
// the decoder's KnownFields setting, so custom unmarshalers check their own.
func checkKeys(n *yaml.Node, what string, known []string) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping", n.Line, what)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if key := n.Content[i].Value; !slices.Contains(known, key) {
			return fmt.Errorf("line %d: unknown %s field %q", n.Content[i].Line, what, key)
		}
	}
	return nil
}

// UnmarshalYAML rejects unknown keys.
func (e *Expect) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "expect", expectKeys); err != nil {
		return err
	}
	type plain Expect
	return n.Decode((*plain)(e))
}

// UnmarshalYAML records the step's line and rejects unknown keys.
func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	if err := checkKeys(n, "step", stepKeys); err != nil {
		return err
	}
	type plain Step
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Line = n.Line
	if s.Action == "" {
		return fmt.Errorf("line %d: step has no action", n.Line)
	}
	if !slices.Contains(actions, s.Action) {
		return fmt.Errorf("line %d: unknown action %q", n.Line, s.Action)
	}
	return nil
}

// Parse decodes a scenario. source names the data in errors.
func Parse(data []byte, source string) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, &fixerrors.FixtureError{
			Op:        "scenario.Parse",
			Kind:      fixerrors.KindParsing,
			Err:       fmt.Errorf("%s: %w", source, err),
			Timestamp: time.Now(),
		}
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	if len(sc.Steps) == 0 {
		return nil, &fixerrors.FixtureError{
			Op:        "scenario.Parse",
			Kind:      fixerrors.KindParsing,
			Err:       fmt.Errorf("%s: scenario %q has no steps", source, sc.Name),
			Timestamp: time.Now(),
		}
	}
	sc.Path = source
	return &sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data, path)
}

// Files expands directories in paths to the .yaml and .yml files they
// contain, sorted by name. Plain files are returned as given.
func Files(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch filepath.Ext(e.Name()) {
			case ".yaml", ".yml":
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
	}
	return out, nil
}
