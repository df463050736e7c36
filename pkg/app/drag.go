package app

import (
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/handoff"
	"github.com/go-drift/e2e/pkg/semantics"
)

// Drag screen identifiers and labels.
const (
	IDDragSource    = "DRAG_SOURCE"
	IDDragTarget    = "DRAG_TARGET"
	DragSourceLabel = "Button A (long press and drag to B)"
	DragTargetLabel = "Button B"
	dragSpacer      = 50.0
)

// DragScreen hosts the long-press-and-drag handoff between two buttons.
type DragScreen struct {
	handoff   *handoff.Recognizer
	longPress *gestures.LongPressGestureRecognizer
	drag      *gestures.DragGestureRecognizer
}

func newDragScreen(a *App) *DragScreen {
	d := &DragScreen{}
	d.handoff = handoff.New(func() {
		a.log.Info("handoff succeeded")
		a.alerts.Present(&Alert{
			Title:   "Success",
			Message: "You long-pressed and dragged onto Button B!",
			Buttons: []AlertButton{{Label: "OK"}},
		})
	})
	d.longPress = gestures.NewLongPressGestureRecognizer(a.clock, handoff.LongPressDuration)
	d.longPress.OnLongPress = d.handoff.LongPressRecognized
	d.drag = &gestures.DragGestureRecognizer{
		OnEnd: func(e gestures.DragEndDetails) {
			d.handoff.DragEnded(e.Position)
		},
		OnCancel: d.handoff.Cancel,
	}
	return d
}

// Handoff exposes the recognizer for inspection.
func (d *DragScreen) Handoff() *handoff.Recognizer {
	return d.handoff
}

// Title implements Screen.
func (d *DragScreen) Title() string { return "" }

// Build implements Screen. Every build reports the target frame to the
// handoff recognizer.
func (d *DragScreen) Build(b *BuildContext) []*semantics.Node {
	col := newColumn(b.Content, 20)
	src := col.row(buttonSize(DragSourceLabel))[0]
	col.gap(dragSpacer - rowSpacing)
	dst := col.row(buttonSize(DragTargetLabel))[0]

	d.handoff.TargetLayoutMeasured(dst)

	return []*semantics.Node{
		button("drag/source", IDDragSource, DragSourceLabel, src, true, d.longPress, d.drag),
		button("drag/target", IDDragTarget, DragTargetLabel, dst, true),
	}
}

// Dispose implements Screen.
func (d *DragScreen) Dispose() {
	d.longPress.Dispose()
}
