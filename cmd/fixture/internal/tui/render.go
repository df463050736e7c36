package tui

import (
	"math"
	"strings"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/semantics"
)

// viewport maps between terminal cells and window points.
type viewport struct {
	cols, rows int
	size       geometry.Size
}

// point returns the window position at the center of a cell.
func (v viewport) point(col, row int) geometry.Offset {
	return geometry.Offset{
		X: (float64(col) + 0.5) * v.size.Width / float64(v.cols),
		Y: (float64(row) + 0.5) * v.size.Height / float64(v.rows),
	}
}

// cell returns the cell holding a window position.
func (v viewport) cell(p geometry.Offset) (col, row int) {
	col = int(math.Floor(p.X / v.size.Width * float64(v.cols)))
	row = int(math.Floor(p.Y / v.size.Height * float64(v.rows)))
	return col, row
}

func (v viewport) valid() bool {
	return v.cols > 0 && v.rows > 0 && !v.size.IsZero()
}

// canvas is a grid of runes the tree is drawn into.
type canvas struct {
	cols, rows int
	cells      [][]rune
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows, cells: make([][]rune, rows)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", cols))
	}
	return c
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.cols && y >= 0 && y < c.rows {
		c.cells[y][x] = r
	}
}

// text writes s from (x, y), stopping before column limit.
func (c *canvas) text(x, y, limit int, s string) {
	for _, r := range s {
		if x >= limit {
			return
		}
		c.set(x, y, r)
		x++
	}
}

func (c *canvas) box(x0, y0, x1, y1 int) {
	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, '─')
		c.set(x, y1, '─')
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, '│')
		c.set(x1, y, '│')
	}
	c.set(x0, y0, '┌')
	c.set(x1, y0, '┐')
	c.set(x0, y1, '└')
	c.set(x1, y1, '┘')
}

func (c *canvas) clear(x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c.set(x, y, ' ')
		}
	}
}

func (c *canvas) String() string {
	lines := make([]string, c.rows)
	for i, row := range c.cells {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

// boxed types are drawn with an outline.
var boxed = map[semantics.ElementType]bool{
	semantics.TypeButton:    true,
	semantics.TypeTextField: true,
	semantics.TypeCell:      true,
	semantics.TypeAlert:     true,
	semantics.TypeKeyboard:  true,
	semantics.TypeImage:     true,
}

// draw renders the visible nodes of tree in pre-order, so later siblings
// paint over earlier ones like they do on screen.
func draw(tree *semantics.Tree, v viewport) *canvas {
	c := newCanvas(v.cols, v.rows)
	if tree == nil || !v.valid() {
		return c
	}
	tree.Walk(func(n *semantics.Node, depth int) bool {
		if n.Flags.Has(semantics.FlagHidden) {
			return false
		}
		if depth == 0 || !tree.Visible(n) {
			return true
		}
		r := tree.VisibleRect(n)
		x0, y0 := v.cell(geometry.Offset{X: r.Left, Y: r.Top})
		x1, y1 := v.cell(geometry.Offset{X: r.Right, Y: r.Bottom})
		x1, y1 = max(x0, x1-1), max(y0, y1-1)

		label := caption(n)
		switch {
		case n.Flags.Has(semantics.FlagModal) || boxed[n.Type] && x1-x0 >= 2 && y1-y0 >= 2:
			c.clear(x0, y0, x1, y1)
			c.box(x0, y0, x1, y1)
			c.text(x0+1, y0+(y1-y0)/2, x1, label)
		case boxed[n.Type]:
			c.text(x0, y0, x1+1, "["+label+"]")
		case label != "" && len(n.Children) == 0:
			c.text(x0, y0, v.cols, label)
		}
		return true
	})
	return c
}

func caption(n *semantics.Node) string {
	switch n.Type {
	case semantics.TypeKeyboard:
		return "keyboard"
	case semantics.TypeTextField:
		if n.Value != "" {
			return n.Value
		}
		if n.Placeholder != "" {
			return n.Placeholder
		}
	}
	if t := n.Text(); t != "" {
		return t
	}
	return n.Name()
}
