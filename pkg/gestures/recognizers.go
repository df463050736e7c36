package gestures

import (
	"time"

	"github.com/go-drift/e2e/pkg/geometry"
)

const (
	// TouchSlop is the distance a pointer may travel and still count as a tap.
	TouchSlop = 18.0
	// DoubleTapSlop is the maximum distance between the two taps of a double tap.
	DoubleTapSlop = 100.0
	// DoubleTapTimeout is the maximum time between the first release and the
	// second press of a double tap.
	DoubleTapTimeout = 300 * time.Millisecond
	// LongPressSlop is the distance a pointer may travel before a pending long
	// press is abandoned.
	LongPressSlop = 10.0
)

// pointerTracker follows the first pointer that goes down and ignores others
// until it is released or cancelled.
type pointerTracker struct {
	active  bool
	pointer int64
	origin  geometry.Offset
}

func (p *pointerTracker) begin(event PointerEvent) bool {
	if p.active {
		return false
	}
	p.active = true
	p.pointer = event.PointerID
	p.origin = event.Position
	return true
}

func (p *pointerTracker) owns(event PointerEvent) bool {
	return p.active && p.pointer == event.PointerID
}

func (p *pointerTracker) reset() {
	p.active = false
}

// TapGestureRecognizer fires OnTap when a pointer goes down and up without
// leaving the slop region.
type TapGestureRecognizer struct {
	OnTap func()
	// Slop overrides TouchSlop when positive.
	Slop float64

	tracker pointerTracker
	moved   bool
}

// HandlePointer implements PointerHandler.
func (r *TapGestureRecognizer) HandlePointer(event PointerEvent) {
	switch event.Phase {
	case PointerPhaseDown:
		if r.tracker.begin(event) {
			r.moved = false
		}
	case PointerPhaseMove:
		if r.tracker.owns(event) && event.Position.Sub(r.tracker.origin).Distance() > r.slop() {
			r.moved = true
		}
	case PointerPhaseUp:
		if !r.tracker.owns(event) {
			return
		}
		fire := !r.moved && event.Position.Sub(r.tracker.origin).Distance() <= r.slop()
		r.tracker.reset()
		if fire && r.OnTap != nil {
			r.OnTap()
		}
	case PointerPhaseCancel:
		if r.tracker.owns(event) {
			r.tracker.reset()
		}
	}
}

func (r *TapGestureRecognizer) slop() float64 {
	if r.Slop > 0 {
		return r.Slop
	}
	return TouchSlop
}

// DoubleTapGestureRecognizer fires OnDoubleTap when two taps land close
// together within DoubleTapTimeout. Timing comes from the event timestamps.
type DoubleTapGestureRecognizer struct {
	OnDoubleTap func()

	tap       TapGestureRecognizer
	current   PointerEvent
	firstUp   time.Time
	firstAt   geometry.Offset
	haveFirst bool
}

// HandlePointer implements PointerHandler.
func (r *DoubleTapGestureRecognizer) HandlePointer(event PointerEvent) {
	if event.Phase == PointerPhaseDown && r.haveFirst {
		late := event.Time.Sub(r.firstUp) > DoubleTapTimeout
		far := event.Position.Sub(r.firstAt).Distance() > DoubleTapSlop
		if late || far {
			r.haveFirst = false
		}
	}
	r.current = event
	r.tap.OnTap = r.onTap
	r.tap.HandlePointer(event)
}

// onTap runs from inside the tap recognizer's release handling, so current
// holds the release event.
func (r *DoubleTapGestureRecognizer) onTap() {
	if !r.haveFirst {
		r.haveFirst = true
		r.firstAt = r.current.Position
		r.firstUp = r.current.Time
		return
	}
	r.haveFirst = false
	if r.OnDoubleTap != nil {
		r.OnDoubleTap()
	}
}

// Reset forgets a pending first tap.
func (r *DoubleTapGestureRecognizer) Reset() {
	r.haveFirst = false
}

// LongPressGestureRecognizer fires OnLongPress once a pointer has been held
// for MinimumDuration without drifting more than LongPressSlop.
type LongPressGestureRecognizer struct {
	// OnLongPress runs as soon as the duration elapses, before release.
	OnLongPress func()
	// OnLongPressEnd runs on release after a recognized long press.
	OnLongPressEnd func(position geometry.Offset)
	// MinimumDuration is the required hold time.
	MinimumDuration time.Duration

	clock    Clock
	tracker  pointerTracker
	timer    Timer
	accepted bool
	// generation invalidates timers that fire after the sequence they
	// belonged to has ended.
	generation int
}

// NewLongPressGestureRecognizer creates a recognizer driven by clock.
func NewLongPressGestureRecognizer(clock Clock, minimum time.Duration) *LongPressGestureRecognizer {
	return &LongPressGestureRecognizer{clock: clock, MinimumDuration: minimum}
}

// HandlePointer implements PointerHandler.
func (r *LongPressGestureRecognizer) HandlePointer(event PointerEvent) {
	switch event.Phase {
	case PointerPhaseDown:
		if !r.tracker.begin(event) {
			return
		}
		r.accepted = false
		r.generation++
		gen := r.generation
		r.timer = r.clock.AfterFunc(r.MinimumDuration, func() {
			r.fire(gen)
		})
	case PointerPhaseMove:
		if !r.tracker.owns(event) || r.accepted {
			return
		}
		if event.Position.Sub(r.tracker.origin).Distance() > LongPressSlop {
			r.abandon()
		}
	case PointerPhaseUp:
		if !r.tracker.owns(event) {
			return
		}
		accepted := r.accepted
		r.abandon()
		if accepted && r.OnLongPressEnd != nil {
			r.OnLongPressEnd(event.Position)
		}
	case PointerPhaseCancel:
		if r.tracker.owns(event) {
			r.abandon()
		}
	}
}

func (r *LongPressGestureRecognizer) fire(gen int) {
	if gen != r.generation || !r.tracker.active || r.accepted {
		return
	}
	r.accepted = true
	r.timer = nil
	if r.OnLongPress != nil {
		r.OnLongPress()
	}
}

func (r *LongPressGestureRecognizer) abandon() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.generation++
	r.tracker.reset()
	r.accepted = false
}

// Dispose stops any pending timer.
func (r *LongPressGestureRecognizer) Dispose() {
	r.abandon()
}

// DragGestureRecognizer reports drags in any direction. A drag starts once
// the pointer travels MinimumDistance; with a zero distance it starts on
// contact, so every release ends a drag.
type DragGestureRecognizer struct {
	MinimumDistance float64
	OnStart         func(DragStartDetails)
	OnUpdate        func(DragUpdateDetails)
	OnEnd           func(DragEndDetails)
	OnCancel        func()

	tracker pointerTracker
	started bool
	last    geometry.Offset
}

// HandlePointer implements PointerHandler.
func (r *DragGestureRecognizer) HandlePointer(event PointerEvent) {
	switch event.Phase {
	case PointerPhaseDown:
		if !r.tracker.begin(event) {
			return
		}
		r.started = false
		r.last = event.Position
		if r.MinimumDistance <= 0 {
			r.start(event.Position)
		}
	case PointerPhaseMove:
		if !r.tracker.owns(event) {
			return
		}
		if !r.started {
			if event.Position.Sub(r.tracker.origin).Distance() < r.MinimumDistance {
				return
			}
			r.start(event.Position)
		}
		delta := event.Position.Sub(r.last)
		r.last = event.Position
		if r.OnUpdate != nil {
			r.OnUpdate(DragUpdateDetails{Position: event.Position, Delta: delta})
		}
	case PointerPhaseUp:
		if !r.tracker.owns(event) {
			return
		}
		started := r.started
		origin := r.tracker.origin
		r.tracker.reset()
		r.started = false
		if started && r.OnEnd != nil {
			r.OnEnd(DragEndDetails{
				Position:    event.Position,
				Translation: event.Position.Sub(origin),
			})
		}
	case PointerPhaseCancel:
		if !r.tracker.owns(event) {
			return
		}
		started := r.started
		r.tracker.reset()
		r.started = false
		if started && r.OnCancel != nil {
			r.OnCancel()
		}
	}
}

func (r *DragGestureRecognizer) start(at geometry.Offset) {
	r.started = true
	if r.OnStart != nil {
		r.OnStart(DragStartDetails{Position: at})
	}
}
