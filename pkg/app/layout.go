package app

import (
	"math"
	"unicode/utf8"

	"github.com/go-drift/e2e/pkg/geometry"
)

// Layout metrics in logical points. Text is measured with a fixed advance so
// frames stay whole numbers.
const (
	StatusBarHeight = 24.0
	NavBarHeight    = 50.0
	KeyboardHeight  = 260.0

	charWidth     = 9.0
	lineHeight    = 22.0
	buttonPadding = 16.0
	buttonHeight  = 44.0
	rowSpacing    = 12.0
	itemSpacing   = 16.0
	listRowHeight = 44.0
)

func textWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * charWidth
}

func textSize(s string) geometry.Size {
	return geometry.Size{Width: textWidth(s), Height: lineHeight}
}

func buttonSize(label string) geometry.Size {
	return geometry.Size{Width: textWidth(label) + 2*buttonPadding, Height: buttonHeight}
}

// rowLayout places sizes left to right, centred horizontally in bounds and
// vertically within the row. It returns one rect per size and the row height.
func rowLayout(bounds geometry.Rect, top float64, sizes []geometry.Size) ([]geometry.Rect, float64) {
	total := 0.0
	height := 0.0
	for i, s := range sizes {
		total += s.Width
		if i > 0 {
			total += itemSpacing
		}
		height = math.Max(height, s.Height)
	}
	x := bounds.Left + math.Floor((bounds.Width()-total)/2)
	rects := make([]geometry.Rect, len(sizes))
	for i, s := range sizes {
		y := top + math.Floor((height-s.Height)/2)
		rects[i] = geometry.RectFromLTWH(x, y, s.Width, s.Height)
		x += s.Width + itemSpacing
	}
	return rects, height
}

// column stacks rows from the top of bounds.
type column struct {
	bounds geometry.Rect
	y      float64
}

func newColumn(bounds geometry.Rect, padding float64) *column {
	return &column{bounds: bounds, y: bounds.Top + padding}
}

// row lays out one row and advances the cursor.
func (c *column) row(sizes ...geometry.Size) []geometry.Rect {
	rects, h := rowLayout(c.bounds, c.y, sizes)
	c.y += h + rowSpacing
	return rects
}

// gap advances the cursor by h.
func (c *column) gap(h float64) {
	c.y += h
}
