package testing

import (
	"fmt"
	"time"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
)

// doubleTapGap is the pause between the taps of DoubleTap.
const doubleTapGap = 100 * time.Millisecond

// dragSteps is the number of move events a drag is split into.
const dragSteps = 10

func (t *Tester) allocPointerID() int64 {
	t.pointer++
	return t.pointer
}

// center returns the on-screen center of the first match.
func (t *Tester) center(op string, finder Finder) (geometry.Offset, error) {
	result := t.Find(finder)
	if !result.Exists() {
		return geometry.Offset{}, fmt.Errorf("%s: finder matched no elements: %s", op, finder.Description())
	}
	tree, n := result.Tree(), result.First()
	if !tree.Visible(n) {
		return geometry.Offset{}, fmt.Errorf("%s: element is not visible: %s", op, finder.Description())
	}
	return tree.VisibleRect(n).Center(), nil
}

// Tap simulates a tap at the center of the first element matched by finder.
func (t *Tester) Tap(finder Finder) error {
	pos, err := t.center("Tap", finder)
	if err != nil {
		return err
	}
	return t.TapAt(pos)
}

// TapAt simulates a tap at the given logical position.
func (t *Tester) TapAt(pos geometry.Offset) error {
	id := t.allocPointerID()
	if err := t.SendPointerDown(pos, id); err != nil {
		return err
	}
	return t.SendPointerUp(pos, id)
}

// DoubleTap taps the first match twice, 100ms apart.
func (t *Tester) DoubleTap(finder Finder) error {
	pos, err := t.center("DoubleTap", finder)
	if err != nil {
		return err
	}
	return t.DoubleTapAt(pos)
}

// DoubleTapAt taps pos twice, 100ms apart.
func (t *Tester) DoubleTapAt(pos geometry.Offset) error {
	if err := t.TapAt(pos); err != nil {
		return err
	}
	t.Advance(doubleTapGap)
	return t.TapAt(pos)
}

// LongPress holds the first match for d, advancing the fake clock, then
// releases.
func (t *Tester) LongPress(finder Finder, d time.Duration) error {
	pos, err := t.center("LongPress", finder)
	if err != nil {
		return err
	}
	return t.LongPressAt(pos, d)
}

// LongPressAt holds pos for d, then releases.
func (t *Tester) LongPressAt(pos geometry.Offset, d time.Duration) error {
	id := t.allocPointerID()
	if err := t.SendPointerDown(pos, id); err != nil {
		return err
	}
	t.Advance(d)
	return t.SendPointerUp(pos, id)
}

// Drag simulates a drag gesture on the first element matched by finder.
func (t *Tester) Drag(finder Finder, delta geometry.Offset) error {
	pos, err := t.center("Drag", finder)
	if err != nil {
		return err
	}
	return t.DragFrom(pos, delta)
}

// DragFrom presses at start, moves by delta in even steps and releases.
func (t *Tester) DragFrom(start, delta geometry.Offset) error {
	return t.HoldAndDrag(start, start.Add(delta), 0)
}

// HoldAndDrag presses at from, holds for hold, moves to to and releases
// there. This is the gesture the drag screen's handoff listens for.
func (t *Tester) HoldAndDrag(from, to geometry.Offset, hold time.Duration) error {
	id := t.allocPointerID()
	if err := t.SendPointerDown(from, id); err != nil {
		return err
	}
	if hold > 0 {
		t.Advance(hold)
	}
	delta := to.Sub(from)
	for i := 1; i <= dragSteps; i++ {
		frac := float64(i) / dragSteps
		pos := geometry.Offset{X: from.X + delta.X*frac, Y: from.Y + delta.Y*frac}
		if err := t.SendPointerMove(pos, id); err != nil {
			return err
		}
	}
	return t.SendPointerUp(to, id)
}

// SendPointerDown sends a pointer-down event at pos with the given pointer ID.
func (t *Tester) SendPointerDown(pos geometry.Offset, pointerID int64) error {
	t.last[pointerID] = pos
	return t.sendPointer(gestures.PointerEvent{
		PointerID: pointerID,
		Position:  pos,
		Phase:     gestures.PointerPhaseDown,
	})
}

// SendPointerMove sends a pointer-move event at pos with the given pointer ID.
func (t *Tester) SendPointerMove(pos geometry.Offset, pointerID int64) error {
	prev, ok := t.last[pointerID]
	if !ok {
		return fmt.Errorf("SendPointerMove: pointer %d is not down", pointerID)
	}
	t.last[pointerID] = pos
	return t.sendPointer(gestures.PointerEvent{
		PointerID: pointerID,
		Position:  pos,
		Delta:     pos.Sub(prev),
		Phase:     gestures.PointerPhaseMove,
	})
}

// SendPointerUp sends a pointer-up event at pos with the given pointer ID.
func (t *Tester) SendPointerUp(pos geometry.Offset, pointerID int64) error {
	prev, ok := t.last[pointerID]
	if !ok {
		return fmt.Errorf("SendPointerUp: pointer %d is not down", pointerID)
	}
	delete(t.last, pointerID)
	return t.sendPointer(gestures.PointerEvent{
		PointerID: pointerID,
		Position:  pos,
		Delta:     pos.Sub(prev),
		Phase:     gestures.PointerPhaseUp,
	})
}

// SendPointerCancel cancels the given pointer.
func (t *Tester) SendPointerCancel(pointerID int64) error {
	pos, ok := t.last[pointerID]
	if !ok {
		return fmt.Errorf("SendPointerCancel: pointer %d is not down", pointerID)
	}
	delete(t.last, pointerID)
	return t.sendPointer(gestures.PointerEvent{
		PointerID: pointerID,
		Position:  pos,
		Phase:     gestures.PointerPhaseCancel,
	})
}

// sendPointer delivers event on the loop and pumps the work it queued.
func (t *Tester) sendPointer(event gestures.PointerEvent) error {
	if !t.loop.Dispatch(func() { t.app.HandlePointer(event) }) {
		return fmt.Errorf("pointer %d %s: loop is closed", event.PointerID, event.Phase)
	}
	t.Pump()
	return nil
}
