package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/e2e/pkg/semantics"
)

// Finder locates nodes in the accessibility tree.
type Finder interface {
	// Evaluate returns all matching nodes in pre-order.
	Evaluate(tree *semantics.Tree) []*semantics.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*semantics.Node
	finder Finder
	tree   *semantics.Tree
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *semantics.Node {
	if len(r.nodes) == 0 {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder found no nodes: %s", desc))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *semantics.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *semantics.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.finder.Description()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*semantics.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Visible reports whether the first match is on screen.
func (r FinderResult) Visible() bool {
	n := r.FirstOrNil()
	return n != nil && r.tree.Visible(n)
}

// Tree returns the tree the finder ran against.
func (r FinderResult) Tree() *semantics.Tree {
	return r.tree
}

// --- Concrete finders ---

type funcFinder struct {
	match func(*semantics.Tree, *semantics.Node) bool
	desc  string
}

func (f *funcFinder) Evaluate(tree *semantics.Tree) []*semantics.Node {
	return tree.Find(func(n *semantics.Node) bool { return f.match(tree, n) })
}

func (f *funcFinder) Description() string {
	return f.desc
}

// ByIdentifier matches nodes by accessibility identifier.
func ByIdentifier(id string) Finder {
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool { return n.Identifier == id },
		desc:  fmt.Sprintf("ByIdentifier(%q)", id),
	}
}

// ByLabel matches nodes by accessibility label.
func ByLabel(label string) Finder {
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool { return n.Label == label },
		desc:  fmt.Sprintf("ByLabel(%q)", label),
	}
}

// ByText matches nodes whose name, label or value equals text.
func ByText(text string) Finder {
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool {
			return n.Name() == text || n.Label == text || (n.Value != "" && n.Value == text)
		},
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining matches nodes whose label or value contains substring.
func ByTextContaining(substring string) Finder {
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool {
			return strings.Contains(n.Label, substring) || strings.Contains(n.Value, substring)
		},
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

// ByType matches nodes of an element type. Short names like "Button" are
// accepted.
func ByType(t string) Finder {
	want := semantics.ParseElementType(t)
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool { return n.Type == want },
		desc:  fmt.Sprintf("ByType(%s)", want.ShortName()),
	}
}

// ByKey matches the node with a stable key.
func ByKey(key string) Finder {
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool { return n.Key == key },
		desc:  fmt.Sprintf("ByKey(%q)", key),
	}
}

// ByGlob matches nodes whose name, label or value matches a glob pattern.
// An invalid pattern matches nothing and is reported in Description.
func ByGlob(pattern string) Finder {
	pred, err := semantics.GlobMatcher(pattern)
	if err != nil {
		return &funcFinder{
			match: func(*semantics.Tree, *semantics.Node) bool { return false },
			desc:  fmt.Sprintf("ByGlob(%q): %v", pattern, err),
		}
	}
	return &funcFinder{match: pred, desc: fmt.Sprintf("ByGlob(%q)", pattern)}
}

// ByPredicate matches nodes with an NSPredicate-style expression. An invalid
// expression matches nothing and is reported in Description.
func ByPredicate(expr string) Finder {
	pred, err := semantics.ParsePredicate(expr)
	if err != nil {
		return &funcFinder{
			match: func(*semantics.Tree, *semantics.Node) bool { return false },
			desc:  fmt.Sprintf("ByPredicate(%q): %v", expr, err),
		}
	}
	return &funcFinder{match: pred, desc: fmt.Sprintf("ByPredicate(%q)", expr)}
}

// ByFunc matches nodes with an arbitrary function.
func ByFunc(fn func(*semantics.Node) bool) Finder {
	return &funcFinder{
		match: func(_ *semantics.Tree, n *semantics.Node) bool { return fn(n) },
		desc:  "ByFunc(...)",
	}
}

type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(tree *semantics.Tree) []*semantics.Node {
	matches := f.matching.Evaluate(tree)
	if len(matches) == 0 {
		return nil
	}
	wanted := make(map[*semantics.Node]bool, len(matches))
	for _, m := range matches {
		wanted[m] = true
	}
	seen := make(map[*semantics.Node]bool)
	var out []*semantics.Node
	for _, ancestor := range f.of.Evaluate(tree) {
		for _, n := range tree.Descendants(ancestor, func(n *semantics.Node) bool { return wanted[n] }) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant finds nodes matching `matching` that are descendants of nodes
// matching `of`.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}
