package app

import (
	"fmt"
	"math"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/semantics"
)

// List screen identifiers.
const (
	IDListContainer = "LIST_CONTAINER"
	ListRowCount    = 100
)

// ListScreen shows Row1..Row100 in a scrollable table. Only rows inside the
// viewport are materialized.
type ListScreen struct {
	offset   float64
	viewport float64
	drag     *gestures.DragGestureRecognizer
}

func newListScreen() *ListScreen {
	l := &ListScreen{}
	l.drag = &gestures.DragGestureRecognizer{
		MinimumDistance: gestures.TouchSlop,
		OnUpdate: func(d gestures.DragUpdateDetails) {
			l.ScrollBy(-d.Delta.Y)
		},
	}
	return l
}

// Offset returns the scroll offset in points.
func (l *ListScreen) Offset() float64 {
	return l.offset
}

// ScrollBy moves the content by dy points, clamped to the scroll range.
func (l *ListScreen) ScrollBy(dy float64) {
	l.offset = math.Max(0, math.Min(l.maxOffset(), l.offset+dy))
}

func (l *ListScreen) maxOffset() float64 {
	return math.Max(0, ListRowCount*listRowHeight-l.viewport)
}

// Title implements Screen.
func (l *ListScreen) Title() string { return "Numbers List" }

// Build implements Screen.
func (l *ListScreen) Build(b *BuildContext) []*semantics.Node {
	view := b.Content
	l.viewport = view.Height()
	l.offset = math.Min(l.offset, l.maxOffset())

	table := &semantics.Node{
		Key:      "list/table",
		Type:     semantics.TypeTable,
		Label:    IDListContainer,
		Rect:     view,
		Flags:    semantics.FlagEnabled | semantics.FlagAccessible | semantics.FlagClipsChildren | semantics.FlagContainer,
		Handlers: []gestures.PointerHandler{l.drag},
	}
	first := int(l.offset / listRowHeight)
	for i := first; i < ListRowCount; i++ {
		top := view.Top + float64(i)*listRowHeight - l.offset
		if top >= view.Bottom {
			break
		}
		rect := geometry.RectFromLTWH(view.Left, top, view.Width(), listRowHeight)
		label := fmt.Sprintf("Row%d", i+1)
		cell := &semantics.Node{
			Key:   "list/cell/" + label,
			Type:  semantics.TypeCell,
			Rect:  rect,
			Flags: semantics.FlagEnabled,
		}
		text := staticText("list/text/"+label, label, geometry.RectFromLTWH(rect.Left+20, rect.Top+11, textWidth(label), lineHeight))
		table.Add(cell.Add(text))
	}
	return []*semantics.Node{table}
}

// Dispose implements Screen.
func (l *ListScreen) Dispose() {}
