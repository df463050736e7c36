// Package gestures turns raw pointer events into tap, double-tap, long-press
// and drag callbacks.
//
// Recognizers are attached to accessibility nodes and receive every event of
// a pointer that went down inside their node. Unlike an arena-based system,
// all recognizers on a node see the same sequence simultaneously; the drag
// screen relies on this to run a long-press and a drag on the same control.
package gestures

import (
	"time"

	"github.com/go-drift/e2e/pkg/geometry"
)

// PointerPhase describes where an event sits in a pointer's lifetime.
type PointerPhase int

const (
	// PointerPhaseDown is the first contact.
	PointerPhaseDown PointerPhase = iota
	// PointerPhaseMove reports movement while in contact.
	PointerPhaseMove
	// PointerPhaseUp is the release.
	PointerPhaseUp
	// PointerPhaseCancel aborts the sequence without a release.
	PointerPhaseCancel
)

func (p PointerPhase) String() string {
	switch p {
	case PointerPhaseDown:
		return "down"
	case PointerPhaseMove:
		return "move"
	case PointerPhaseUp:
		return "up"
	case PointerPhaseCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// PointerEvent is a single pointer sample in window coordinates.
type PointerEvent struct {
	PointerID int64
	Position  geometry.Offset
	Delta     geometry.Offset
	Phase     PointerPhase
	Time      time.Time
}

// PointerHandler receives pointer events routed by hit testing.
type PointerHandler interface {
	HandlePointer(event PointerEvent)
}

// PointerHandlerFunc adapts a function to PointerHandler.
type PointerHandlerFunc func(event PointerEvent)

// HandlePointer calls f(event).
func (f PointerHandlerFunc) HandlePointer(event PointerEvent) {
	f(event)
}

// Timer is a pending callback scheduled through a Clock.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped the
	// timer before it fired.
	Stop() bool
}

// Clock supplies time to recognizers that depend on durations.
//
// AfterFunc callbacks must be delivered on the same loop that delivers
// pointer events, so recognizer state is never touched concurrently.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// DragStartDetails describes the start of a drag.
type DragStartDetails struct {
	Position geometry.Offset
}

// DragUpdateDetails describes a drag update.
type DragUpdateDetails struct {
	Position geometry.Offset
	Delta    geometry.Offset
}

// DragEndDetails describes the end of a drag.
type DragEndDetails struct {
	// Position is the release point in window coordinates.
	Position geometry.Offset
	// Translation is the total movement since the pointer went down.
	Translation geometry.Offset
}
