package app

import (
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/semantics"
)

// BuildContext carries the layout inputs of one build.
type BuildContext struct {
	// Window is the full window rectangle.
	Window geometry.Rect
	// Content is the area available to the screen.
	Content     geometry.Rect
	Orientation orientation.Orientation
	// Focused is the text field that has keyboard focus, if any.
	Focused *TextField
}

func button(key, identifier, label string, rect geometry.Rect, enabled bool, handlers ...gestures.PointerHandler) *semantics.Node {
	flags := semantics.FlagAccessible.With(semantics.FlagEnabled, enabled)
	n := &semantics.Node{
		Key:        key,
		Type:       semantics.TypeButton,
		Identifier: identifier,
		Label:      label,
		Rect:       rect,
		Flags:      flags,
	}
	if enabled {
		n.Handlers = handlers
	}
	return n
}

func staticText(key, label string, rect geometry.Rect) *semantics.Node {
	return &semantics.Node{
		Key:   key,
		Type:  semantics.TypeStaticText,
		Label: label,
		Value: label,
		Rect:  rect,
		Flags: semantics.FlagEnabled | semantics.FlagAccessible,
	}
}

func textField(key string, field *TextField, label string, rect geometry.Rect, focused bool, handlers ...gestures.PointerHandler) *semantics.Node {
	return &semantics.Node{
		Key:         key,
		Type:        semantics.TypeTextField,
		Label:       label,
		Value:       field.Text,
		Placeholder: field.Placeholder,
		Rect:        rect,
		Flags:       (semantics.FlagEnabled | semantics.FlagAccessible).With(semantics.FlagFocused, focused),
		Handlers:    handlers,
		Actions: semantics.Actions{
			SetValue: field.Set,
		},
	}
}

func group(key string, rect geometry.Rect, children ...*semantics.Node) *semantics.Node {
	return (&semantics.Node{
		Key:   key,
		Type:  semantics.TypeOther,
		Rect:  rect,
		Flags: semantics.FlagEnabled,
	}).Add(children...)
}
