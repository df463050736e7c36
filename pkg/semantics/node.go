// Package semantics provides the accessibility tree that automation clients
// query and act on.
//
// The tree is rebuilt from screen state on demand. Nodes carry the
// XCUIElementType-style type names, identifiers and flags reported by the
// automation server, plus the pointer handlers that hit testing routes
// events to.
package semantics

import (
	"strings"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
)

// ElementType is an XCUIElementType name.
type ElementType string

const (
	TypeApplication   ElementType = "XCUIElementTypeApplication"
	TypeWindow        ElementType = "XCUIElementTypeWindow"
	TypeOther         ElementType = "XCUIElementTypeOther"
	TypeButton        ElementType = "XCUIElementTypeButton"
	TypeStaticText    ElementType = "XCUIElementTypeStaticText"
	TypeTextField     ElementType = "XCUIElementTypeTextField"
	TypeImage         ElementType = "XCUIElementTypeImage"
	TypeTable         ElementType = "XCUIElementTypeTable"
	TypeCell          ElementType = "XCUIElementTypeCell"
	TypeNavigationBar ElementType = "XCUIElementTypeNavigationBar"
	TypeAlert         ElementType = "XCUIElementTypeAlert"
	TypeScrollView    ElementType = "XCUIElementTypeScrollView"
	TypeKeyboard      ElementType = "XCUIElementTypeKeyboard"
)

const typePrefix = "XCUIElementType"

// ShortName returns the type without the XCUIElementType prefix.
func (t ElementType) ShortName() string {
	return strings.TrimPrefix(string(t), typePrefix)
}

// ParseElementType accepts both the full and the short form ("Button").
func ParseElementType(s string) ElementType {
	if strings.HasPrefix(s, typePrefix) {
		return ElementType(s)
	}
	return ElementType(typePrefix + s)
}

// Flags is a bitmask of node states.
type Flags uint32

const (
	// FlagEnabled marks a control that accepts input.
	FlagEnabled Flags = 1 << iota
	// FlagHidden removes the node and its subtree from hit testing and
	// visibility.
	FlagHidden
	// FlagSelected marks a selected control.
	FlagSelected
	// FlagFocused marks the node with keyboard focus.
	FlagFocused
	// FlagAccessible marks an element exposed to assistive technologies.
	FlagAccessible
	// FlagModal blocks hit testing of earlier siblings and their subtrees.
	FlagModal
	// FlagClipsChildren limits child visibility to the node's rect.
	FlagClipsChildren
	// FlagContainer marks an accessibility container.
	FlagContainer
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// Set returns f with flag set.
func (f Flags) Set(flag Flags) Flags {
	return f | flag
}

// Clear returns f with flag cleared.
func (f Flags) Clear(flag Flags) Flags {
	return f &^ flag
}

// With returns f with flag set when cond is true.
func (f Flags) With(flag Flags, cond bool) Flags {
	if cond {
		return f | flag
	}
	return f
}

// Actions are the non-pointer operations a node supports.
type Actions struct {
	// SetValue replaces the text of an editable node.
	SetValue func(value string)
	// Focus moves keyboard focus to the node.
	Focus func()
}

// Node is one element of the accessibility tree.
type Node struct {
	// ID is assigned in pre-order when the tree is built and changes between
	// builds. Use Key to refer to a node across rebuilds.
	ID int64
	// Key is stable for as long as the element it describes exists.
	Key string

	Type        ElementType
	Identifier  string
	Label       string
	Value       string
	Placeholder string

	// Rect is the frame in window coordinates.
	Rect  geometry.Rect
	Flags Flags

	// Handlers receive pointer events that hit this node.
	Handlers []gestures.PointerHandler
	Actions  Actions

	Children []*Node
}

// Name is the identifier, or the label when no identifier is set.
func (n *Node) Name() string {
	if n.Identifier != "" {
		return n.Identifier
	}
	return n.Label
}

// Text is the value, or the label when the value is empty.
func (n *Node) Text() string {
	if n.Value != "" {
		return n.Value
	}
	return n.Label
}

// Enabled reports FlagEnabled.
func (n *Node) Enabled() bool { return n.Flags.Has(FlagEnabled) }

// Selected reports FlagSelected.
func (n *Node) Selected() bool { return n.Flags.Has(FlagSelected) }

// Accessible reports FlagAccessible.
func (n *Node) Accessible() bool { return n.Flags.Has(FlagAccessible) }

// Add appends children and returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}
