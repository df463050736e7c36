// Package handoff recognizes the "long-press on a source, release over a
// target" gesture used by the drag screen.
//
// The recognizer is fed by three collaborators, all on the UI loop:
//
//   - the long-press recognizer on the source calls [Recognizer.LongPressRecognized]
//     once its minimum duration elapses,
//   - the zero-distance drag recognizer on the source calls
//     [Recognizer.DragEnded] with the release point,
//   - the layout pass calls [Recognizer.TargetLayoutMeasured] whenever the
//     target's frame is known or changes.
//
// A successful handoff invokes the notification sink exactly once per
// qualifying release.
package handoff

import (
	"time"

	"github.com/go-drift/e2e/pkg/geometry"
)

// LongPressDuration is the hold time required on the source before a
// release over the target counts as a handoff.
const LongPressDuration = 500 * time.Millisecond

// State is the recognizer's press state.
type State int

const (
	// StateIdle means no long press is engaged.
	StateIdle State = iota
	// StatePressEngaged means the long-press threshold elapsed and no drag
	// has ended since.
	StatePressEngaged
)

func (s State) String() string {
	switch s {
	case StatePressEngaged:
		return "press-engaged"
	default:
		return "idle"
	}
}

// Recognizer tracks the press state and the target rectangle.
// The zero value is ready to use and never notifies.
//
// Recognizer is not safe for concurrent use; every method must be called
// from the UI loop.
type Recognizer struct {
	// OnHandoff is called when a release completes a handoff.
	OnHandoff func()

	engaged bool
	target  geometry.Rect
}

// New returns a recognizer that calls onHandoff on success.
func New(onHandoff func()) *Recognizer {
	return &Recognizer{OnHandoff: onHandoff}
}

// LongPressRecognized records that the long-press threshold elapsed on the
// source control.
func (r *Recognizer) LongPressRecognized() {
	r.engaged = true
}

// DragEnded evaluates a release at p and reports whether it completed a
// handoff. The press state is cleared whatever the outcome.
func (r *Recognizer) DragEnded(p geometry.Offset) bool {
	succeeded := r.engaged && r.target.Contains(p)
	r.engaged = false
	if succeeded && r.OnHandoff != nil {
		r.OnHandoff()
	}
	return succeeded
}

// Cancel clears the press state without evaluating a release. It is used
// when the pointer sequence is aborted.
func (r *Recognizer) Cancel() {
	r.engaged = false
}

// TargetLayoutMeasured replaces the target rectangle. Any rectangle is
// accepted; an empty one simply never matches.
func (r *Recognizer) TargetLayoutMeasured(rect geometry.Rect) {
	r.target = rect
}

// State returns the current press state.
func (r *Recognizer) State() State {
	if r.engaged {
		return StatePressEngaged
	}
	return StateIdle
}

// Target returns the most recently measured target rectangle.
func (r *Recognizer) Target() geometry.Rect {
	return r.target
}
