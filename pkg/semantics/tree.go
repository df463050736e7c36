package semantics

import (
	"github.com/go-drift/e2e/pkg/geometry"
)

// Tree is a built accessibility tree with lookup indexes.
type Tree struct {
	Root *Node
	// Window is the visible area in window coordinates.
	Window geometry.Rect

	parents map[*Node]*Node
	byID    map[int64]*Node
	byKey   map[string]*Node
	order   []*Node
}

// NewTree indexes root and assigns pre-order IDs starting at 1.
func NewTree(root *Node, window geometry.Rect) *Tree {
	t := &Tree{
		Root:    root,
		Window:  window,
		parents: make(map[*Node]*Node),
		byID:    make(map[int64]*Node),
		byKey:   make(map[string]*Node),
	}
	var next int64
	var index func(n, parent *Node)
	index = func(n, parent *Node) {
		next++
		n.ID = next
		t.order = append(t.order, n)
		t.byID[n.ID] = n
		if n.Key != "" {
			t.byKey[n.Key] = n
		}
		if parent != nil {
			t.parents[n] = parent
		}
		for _, c := range n.Children {
			index(c, n)
		}
	}
	if root != nil {
		index(root, nil)
	}
	return t
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.order)
}

// Walk visits nodes in pre-order. Returning false from fn skips the node's
// children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if t.Root != nil {
		walk(t.Root, 0)
	}
}

// Find returns every node matching pred in pre-order.
func (t *Tree) Find(pred func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range t.order {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// First returns the first node matching pred, or nil.
func (t *Tree) First(pred func(*Node) bool) *Node {
	for _, n := range t.order {
		if pred(n) {
			return n
		}
	}
	return nil
}

// Descendants returns nodes under root (excluding root) matching pred.
func (t *Tree) Descendants(root *Node, pred func(*Node) bool) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// ByID returns the node with the given ID.
func (t *Tree) ByID(id int64) *Node {
	return t.byID[id]
}

// ByKey returns the node with the given key.
func (t *Tree) ByKey(key string) *Node {
	return t.byKey[key]
}

// Parent returns the parent of n, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	return t.parents[n]
}

// Container returns the nearest ancestor flagged as a container.
func (t *Tree) Container(n *Node) *Node {
	for p := t.parents[n]; p != nil; p = t.parents[p] {
		if p.Flags.Has(FlagContainer) {
			return p
		}
	}
	return nil
}

// Hidden reports whether n or any ancestor is hidden.
func (t *Tree) Hidden(n *Node) bool {
	for ; n != nil; n = t.parents[n] {
		if n.Flags.Has(FlagHidden) {
			return true
		}
	}
	return false
}

// VisibleRect returns the part of n's frame that is inside the window and
// every clipping ancestor.
func (t *Tree) VisibleRect(n *Node) geometry.Rect {
	r := n.Rect.Intersect(t.Window)
	for p := t.parents[n]; p != nil; p = t.parents[p] {
		if p.Flags.Has(FlagClipsChildren) {
			r = r.Intersect(p.Rect)
		}
	}
	return r
}

// Visible reports whether n is on screen: not hidden, non-empty, and at
// least partly inside the window and its clipping ancestors.
func (t *Tree) Visible(n *Node) bool {
	if n == nil || t.Hidden(n) || n.Rect.IsEmpty() {
		return false
	}
	return !t.VisibleRect(n).IsEmpty()
}

// HitTest returns the nodes under p, deepest first. Later children are
// tested before earlier ones. A visible modal child ends the search: a point
// outside the modal hits nothing beneath it.
func (t *Tree) HitTest(p geometry.Offset) []*Node {
	if t.Root == nil {
		return nil
	}
	var path []*Node
	if t.hitTest(t.Root, p, &path) != hitFound {
		return nil
	}
	return path
}

type hitResult int

const (
	hitMiss hitResult = iota
	hitFound
	hitBlocked
)

func (t *Tree) hitTest(n *Node, p geometry.Offset, path *[]*Node) hitResult {
	if n.Flags.Has(FlagHidden) {
		return hitMiss
	}
	inside := n.Rect.Contains(p)
	if inside || !n.Flags.Has(FlagClipsChildren) {
		for i := len(n.Children) - 1; i >= 0; i-- {
			c := n.Children[i]
			switch t.hitTest(c, p, path) {
			case hitFound:
				*path = append(*path, n)
				return hitFound
			case hitBlocked:
				return hitBlocked
			}
			if c.Flags.Has(FlagModal) && !c.Flags.Has(FlagHidden) {
				return hitBlocked
			}
		}
	}
	if inside {
		*path = append(*path, n)
		return hitFound
	}
	return hitMiss
}

// Modal returns the topmost visible modal node, or nil.
func (t *Tree) Modal() *Node {
	var modal *Node
	for _, n := range t.order {
		if n.Flags.Has(FlagModal) && !t.Hidden(n) {
			modal = n
		}
	}
	return modal
}
