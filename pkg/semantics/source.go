package semantics

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ElementRect is the JSON shape of an element frame.
type ElementRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectOf returns n's frame in JSON shape.
func RectOf(n *Node) ElementRect {
	return ElementRect{X: n.Rect.Left, Y: n.Rect.Top, Width: n.Rect.Width(), Height: n.Rect.Height()}
}

// SourceNode is the JSON page-source representation of a node.
type SourceNode struct {
	Type          string        `json:"type"`
	RawIdentifier *string       `json:"rawIdentifier"`
	Name          *string       `json:"name"`
	Value         *string       `json:"value"`
	Label         *string       `json:"label"`
	Rect          ElementRect   `json:"rect"`
	Frame         string        `json:"frame"`
	IsEnabled     string        `json:"isEnabled"`
	IsVisible     string        `json:"isVisible"`
	IsAccessible  string        `json:"isAccessible"`
	Children      []*SourceNode `json:"children,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func flag01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// JSONSource converts the tree to its JSON page-source form.
func (t *Tree) JSONSource() *SourceNode {
	if t.Root == nil {
		return nil
	}
	var convert func(n *Node) *SourceNode
	convert = func(n *Node) *SourceNode {
		r := RectOf(n)
		out := &SourceNode{
			Type:          n.Type.ShortName(),
			RawIdentifier: optional(n.Identifier),
			Name:          optional(n.Name()),
			Value:         optional(n.Value),
			Label:         optional(n.Label),
			Rect:          r,
			Frame:         fmt.Sprintf("{{%s, %s}, {%s, %s}}", num(r.X), num(r.Y), num(r.Width), num(r.Height)),
			IsEnabled:     flag01(n.Enabled()),
			IsVisible:     flag01(t.Visible(n)),
			IsAccessible:  flag01(n.Accessible()),
		}
		for _, c := range n.Children {
			out.Children = append(out.Children, convert(c))
		}
		return out
	}
	return convert(t.Root)
}

// XMLSource renders the tree as the XML page source, one element per node
// named after its type.
func (t *Tree) XMLSource() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	var encode func(n *Node, index int) error
	encode = func(n *Node, index int) error {
		start := xml.StartElement{Name: xml.Name{Local: string(n.Type)}, Attr: t.xmlAttrs(n, index)}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for i, c := range n.Children {
			if err := encode(c, i); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	}
	if t.Root != nil {
		if err := encode(t.Root, 0); err != nil {
			return "", fmt.Errorf("encode source: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("encode source: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func (t *Tree) xmlAttrs(n *Node, index int) []xml.Attr {
	attr := func(name, value string) xml.Attr {
		return xml.Attr{Name: xml.Name{Local: name}, Value: value}
	}
	attrs := []xml.Attr{attr("type", string(n.Type))}
	if n.Value != "" {
		attrs = append(attrs, attr("value", n.Value))
	}
	if name := n.Name(); name != "" {
		attrs = append(attrs, attr("name", name))
	}
	if n.Label != "" {
		attrs = append(attrs, attr("label", n.Label))
	}
	if n.Placeholder != "" {
		attrs = append(attrs, attr("placeholderValue", n.Placeholder))
	}
	r := RectOf(n)
	return append(attrs,
		attr("enabled", strconv.FormatBool(n.Enabled())),
		attr("visible", strconv.FormatBool(t.Visible(n))),
		attr("accessible", strconv.FormatBool(n.Accessible())),
		attr("x", num(r.X)),
		attr("y", num(r.Y)),
		attr("width", num(r.Width)),
		attr("height", num(r.Height)),
		attr("index", strconv.Itoa(index)),
	)
}

// num formats coordinates without a trailing ".0" for whole numbers.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Attribute returns a named element attribute. Names follow the automation
// protocol ("name", "label", "value", "type", "enabled", "visible",
// "accessible", "selected", "focused", "hittable", "rect",
// "placeholderValue", "identifier", "accessibilityContainer"). The second
// result is false for unknown attributes.
func (t *Tree) Attribute(n *Node, name string) (any, bool) {
	switch strings.TrimPrefix(name, "wd") {
	case "name", "Name":
		return nilIfEmpty(n.Name()), true
	case "label", "Label":
		return nilIfEmpty(n.Label), true
	case "value", "Value":
		return nilIfEmpty(n.Value), true
	case "type", "Type":
		return string(n.Type), true
	case "identifier", "UID", "uid":
		return n.Identifier, true
	case "placeholderValue", "PlaceholderValue":
		return nilIfEmpty(n.Placeholder), true
	case "enabled", "Enabled":
		return n.Enabled(), true
	case "visible", "Visible", "displayed":
		return t.Visible(n), true
	case "accessible", "Accessible":
		return n.Accessible(), true
	case "selected", "Selected":
		return n.Selected(), true
	case "focused", "Focused":
		return n.Flags.Has(FlagFocused), true
	case "hittable", "Hittable":
		return t.Hittable(n), true
	case "accessibilityContainer", "AccessibilityContainer":
		return n.Flags.Has(FlagContainer), true
	case "rect", "Rect":
		return RectOf(n), true
	}
	return nil, false
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Hittable reports whether a tap at n's center would reach n.
func (t *Tree) Hittable(n *Node) bool {
	if !t.Visible(n) {
		return false
	}
	for _, hit := range t.HitTest(t.VisibleRect(n).Center()) {
		if hit == n {
			return true
		}
	}
	return false
}
