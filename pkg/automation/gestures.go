package automation

import (
	"context"
	"time"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/semantics"
)

const (
	// doubleTapGap separates the two taps of a double tap.
	doubleTapGap = 100 * time.Millisecond
	// defaultHold is the touch-and-hold duration when none is given.
	defaultHold = time.Second
	// dragSteps is the number of move events in a drag.
	dragSteps = 10
	// swipeFraction is the share of the element a swipe travels.
	swipeFraction = 0.4
)

// stroke presses at from, holds for hold, moves to to in even steps and
// releases there. Each event runs in its own loop turn so timers due during
// the hold fire between them. If any step after the press fails the pointer
// is cancelled, so recognizers never see a pointer that stays down.
func (s *Server) stroke(ctx context.Context, from, to geometry.Offset, hold time.Duration) (err error) {
	id := s.pointers.Add(1)
	send := func(phase gestures.PointerPhase, pos, prev geometry.Offset) error {
		return s.ui(ctx, func() error {
			s.app.HandlePointer(gestures.PointerEvent{
				PointerID: id,
				Position:  pos,
				Delta:     pos.Sub(prev),
				Phase:     phase,
			})
			return nil
		})
	}
	if err := send(gestures.PointerPhaseDown, from, from); err != nil {
		s.cancelPointer(id, from)
		return err
	}
	prev := from
	defer func() {
		if err != nil {
			s.cancelPointer(id, prev)
		}
	}()
	if err := s.sleep(ctx, hold); err != nil {
		return err
	}
	if to != from {
		delta := to.Sub(from)
		for i := 1; i <= dragSteps; i++ {
			frac := float64(i) / dragSteps
			pos := geometry.Offset{X: from.X + delta.X*frac, Y: from.Y + delta.Y*frac}
			if err := send(gestures.PointerPhaseMove, pos, prev); err != nil {
				return err
			}
			prev = pos
		}
	}
	return send(gestures.PointerPhaseUp, to, prev)
}

// cancelPointer releases a pointer left down by an interrupted gesture. It
// is queued behind any event still pending for the pointer; the app ignores
// a cancel for a pointer that was already released.
func (s *Server) cancelPointer(id int64, pos geometry.Offset) {
	s.loop.Dispatch(func() {
		s.app.HandlePointer(gestures.PointerEvent{PointerID: id, Position: pos, Phase: gestures.PointerPhaseCancel})
	})
}

func (s *Server) tapAt(ctx context.Context, p geometry.Offset) error {
	return s.stroke(ctx, p, p, 0)
}

func (s *Server) doubleTapAt(ctx context.Context, p geometry.Offset) error {
	if err := s.tapAt(ctx, p); err != nil {
		return err
	}
	if err := s.sleep(ctx, doubleTapGap); err != nil {
		return err
	}
	return s.tapAt(ctx, p)
}

// elementFrame returns the visible frame of the request's element. Hidden
// or off-screen elements cannot be touched.
func (s *Server) elementFrame(r *request) (geometry.Rect, error) {
	var frame geometry.Rect
	err := s.ui(r.Context(), func() error {
		tree := s.app.Tree()
		n, err := s.elements.resolve(tree, r.elementID())
		if err != nil {
			return err
		}
		if !tree.Visible(n) {
			return ErrNotInteractable.with("element %s is not visible on the screen", describe(n))
		}
		frame = tree.VisibleRect(n)
		return nil
	})
	return frame, err
}

func describe(n *semantics.Node) string {
	if name := n.Name(); name != "" {
		return "'" + name + "'"
	}
	return n.Type.ShortName()
}

// point reads an x/y pair from the body.
func (r *request) point(xKey, yKey string) (geometry.Offset, error) {
	x, err := r.num(xKey)
	if err != nil {
		return geometry.Offset{}, err
	}
	y, err := r.num(yKey)
	if err != nil {
		return geometry.Offset{}, err
	}
	return geometry.Offset{X: x, Y: y}, nil
}

func (s *Server) click(r *request) (any, error) {
	frame, err := s.elementFrame(r)
	if err != nil {
		return nil, err
	}
	return nil, s.tapAt(r.Context(), frame.Center())
}

// tapElement taps at x/y relative to the element, or at its center when no
// coordinates are given.
func (s *Server) tapElement(r *request) (any, error) {
	frame, err := s.elementFrame(r)
	if err != nil {
		return nil, err
	}
	p := frame.Center()
	if _, ok := r.body["x"]; ok {
		rel, err := r.point("x", "y")
		if err != nil {
			return nil, err
		}
		p = frame.TopLeft().Add(rel)
	}
	return nil, s.tapAt(r.Context(), p)
}

func (s *Server) doubleTapElement(r *request) (any, error) {
	frame, err := s.elementFrame(r)
	if err != nil {
		return nil, err
	}
	return nil, s.doubleTapAt(r.Context(), frame.Center())
}

func (s *Server) touchAndHoldElement(r *request) (any, error) {
	hold, err := r.seconds("duration", defaultHold)
	if err != nil {
		return nil, err
	}
	frame, err := s.elementFrame(r)
	if err != nil {
		return nil, err
	}
	c := frame.Center()
	return nil, s.stroke(r.Context(), c, c, hold)
}

// swipeElement drags across the element's center in the given direction.
func (s *Server) swipeElement(r *request) (any, error) {
	dir, err := r.requiredStr("direction")
	if err != nil {
		return nil, err
	}
	frame, err := s.elementFrame(r)
	if err != nil {
		return nil, err
	}
	dx := frame.Width() * swipeFraction
	dy := frame.Height() * swipeFraction
	var delta geometry.Offset
	switch dir {
	case "up":
		delta = geometry.Offset{Y: -dy}
	case "down":
		delta = geometry.Offset{Y: dy}
	case "left":
		delta = geometry.Offset{X: -dx}
	case "right":
		delta = geometry.Offset{X: dx}
	default:
		return nil, ErrInvalidArgument.with("unsupported swipe direction %q", dir)
	}
	c := frame.Center()
	return nil, s.stroke(r.Context(), c, c.Add(delta), 0)
}

// dragElement drags between two points relative to the element.
func (s *Server) dragElement(r *request) (any, error) {
	from, to, hold, err := r.dragArgs()
	if err != nil {
		return nil, err
	}
	frame, err := s.elementFrame(r)
	if err != nil {
		return nil, err
	}
	origin := frame.TopLeft()
	return nil, s.stroke(r.Context(), origin.Add(from), origin.Add(to), hold)
}

func (r *request) dragArgs() (from, to geometry.Offset, hold time.Duration, err error) {
	if from, err = r.point("fromX", "fromY"); err != nil {
		return
	}
	if to, err = r.point("toX", "toY"); err != nil {
		return
	}
	hold, err = r.seconds("duration", 0)
	return
}

func (s *Server) tapCoordinate(r *request) (any, error) {
	p, err := r.point("x", "y")
	if err != nil {
		return nil, err
	}
	// A non-zero element id makes the coordinates relative to it.
	if id := r.elementID(); id != "" && id != "0" {
		frame, err := s.elementFrame(r)
		if err != nil {
			return nil, err
		}
		p = frame.TopLeft().Add(p)
	}
	return nil, s.tapAt(r.Context(), p)
}

func (s *Server) doubleTapCoordinate(r *request) (any, error) {
	p, err := r.point("x", "y")
	if err != nil {
		return nil, err
	}
	return nil, s.doubleTapAt(r.Context(), p)
}

func (s *Server) touchAndHoldCoordinate(r *request) (any, error) {
	p, err := r.point("x", "y")
	if err != nil {
		return nil, err
	}
	hold, err := r.seconds("duration", defaultHold)
	if err != nil {
		return nil, err
	}
	return nil, s.stroke(r.Context(), p, p, hold)
}

// dragCoordinate presses at from for duration seconds, then drags to to.
func (s *Server) dragCoordinate(r *request) (any, error) {
	from, to, hold, err := r.dragArgs()
	if err != nil {
		return nil, err
	}
	return nil, s.stroke(r.Context(), from, to, hold)
}

// keys types into the focused field.
func (s *Server) keys(r *request) (any, error) {
	text, err := r.text()
	if err != nil {
		return nil, err
	}
	return nil, s.ui(r.Context(), func() error {
		if err := s.app.TypeText(text); err != nil {
			return ErrInvalidElementState.with("%v", err)
		}
		return nil
	})
}
