package automation

import (
	"bytes"
	"encoding/base64"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/go-drift/e2e/pkg/rendering"
	"github.com/go-drift/e2e/pkg/semantics"
)

// locator reads the "using" and "value" parameters of a find command.
func (r *request) locator() (using, value string, err error) {
	if using, err = r.requiredStr("using"); err != nil {
		return "", "", err
	}
	if value, err = r.str("value"); err != nil {
		return "", "", err
	}
	return using, value, nil
}

// find runs a locator below the element with the given id, or below the
// application root when id is empty.
func (s *Server) find(r *request, id string, all bool) (any, error) {
	using, value, err := r.locator()
	if err != nil {
		return nil, err
	}
	var out any
	err = s.ui(r.Context(), func() error {
		tree := s.app.Tree()
		root := tree.Root
		if id != "" {
			parent, err := s.elements.resolve(tree, id)
			if err != nil {
				return err
			}
			root = parent
		}
		nodes, err := findElements(tree, root, using, value)
		if err != nil {
			return err
		}
		if all {
			out = s.elements.refs(nodes)
			return nil
		}
		if len(nodes) == 0 {
			return notFound(tree, using, value)
		}
		out = newElementRef(s.elements.register(nodes[0]))
		return nil
	})
	return out, err
}

func (s *Server) findElement(r *request) (any, error) {
	return s.find(r, "", false)
}

func (s *Server) findElements(r *request) (any, error) {
	return s.find(r, "", true)
}

func (s *Server) findChildElement(r *request) (any, error) {
	return s.find(r, r.elementID(), false)
}

func (s *Server) findChildElements(r *request) (any, error) {
	return s.find(r, r.elementID(), true)
}

func (s *Server) activeElement(r *request) (any, error) {
	var out any
	err := s.ui(r.Context(), func() error {
		tree := s.app.Tree()
		n := tree.First(func(n *semantics.Node) bool { return n.Flags.Has(semantics.FlagFocused) })
		if n == nil {
			return ErrNoSuchElement.with("No element has keyboard focus")
		}
		out = newElementRef(s.elements.register(n))
		return nil
	})
	return out, err
}

// inspect resolves the request's element on the loop and passes it to fn.
func (s *Server) inspect(r *request, fn func(tree *semantics.Tree, n *semantics.Node) (any, error)) (any, error) {
	var out any
	err := s.ui(r.Context(), func() error {
		tree := s.app.Tree()
		n, err := s.elements.resolve(tree, r.elementID())
		if err != nil {
			return err
		}
		out, err = fn(tree, n)
		return err
	})
	return out, err
}

// intRect is the element rect with whole-point coordinates.
type intRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func rectOf(n *semantics.Node) intRect {
	r := semantics.RectOf(n)
	return intRect{
		X:      int(math.Round(r.X)),
		Y:      int(math.Round(r.Y)),
		Width:  int(math.Round(r.Width)),
		Height: int(math.Round(r.Height)),
	}
}

func (s *Server) elementRect(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return rectOf(n), nil
	})
}

func (s *Server) elementEnabled(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return n.Enabled(), nil
	})
}

func (s *Server) elementDisplayed(r *request) (any, error) {
	return s.inspect(r, func(t *semantics.Tree, n *semantics.Node) (any, error) {
		return t.Visible(n), nil
	})
}

func (s *Server) elementSelected(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return n.Selected(), nil
	})
}

// elementName returns the element type, as WebDriverAgent does.
func (s *Server) elementName(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return string(n.Type), nil
	})
}

func (s *Server) elementText(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return n.Text(), nil
	})
}

func (s *Server) elementAttribute(r *request) (any, error) {
	name := r.PathValue("name")
	return s.inspect(r, func(t *semantics.Tree, n *semantics.Node) (any, error) {
		v, ok := t.Attribute(n, name)
		if !ok {
			return nil, ErrInvalidArgument.with("The attribute '%s' is unknown", name)
		}
		if _, isRect := v.(semantics.ElementRect); isRect {
			return rectOf(n), nil
		}
		return v, nil
	})
}

func (s *Server) elementAccessible(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return n.Accessible(), nil
	})
}

func (s *Server) elementContainer(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		return n.Flags.Has(semantics.FlagContainer), nil
	})
}

func (s *Server) visibleCells(r *request) (any, error) {
	return s.inspect(r, func(t *semantics.Tree, n *semantics.Node) (any, error) {
		cells := t.Descendants(n, func(c *semantics.Node) bool {
			return c.Type == semantics.TypeCell && t.Visible(c)
		})
		return s.elements.refs(cells), nil
	})
}

// elementScreenshot crops a full screenshot to the element's visible frame.
func (s *Server) elementScreenshot(r *request) (any, error) {
	out, err := s.inspect(r, func(t *semantics.Tree, n *semantics.Node) (any, error) {
		if !t.Visible(n) {
			return nil, ErrNotInteractable.with("element %s is not visible", n.Name())
		}
		scale := s.app.Window().Scale()
		full := rendering.NewRenderer().Render(t, scale)
		vr := t.VisibleRect(n)
		crop := image.Rect(
			int(math.Floor(vr.Left*scale)), int(math.Floor(vr.Top*scale)),
			int(math.Ceil(vr.Right*scale)), int(math.Ceil(vr.Bottom*scale)),
		).Intersect(full.Bounds())
		dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
		draw.Draw(dst, dst.Bounds(), full, crop.Min, draw.Src)
		var buf bytes.Buffer
		if err := rendering.EncodePNG(&buf, dst); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString(out.([]byte)), nil
}

// setValue focuses a text element and types into it. Text is appended to
// the current value.
func (s *Server) setValue(r *request) (any, error) {
	text, err := r.text()
	if err != nil {
		return nil, err
	}
	return s.inspect(r, func(t *semantics.Tree, n *semantics.Node) (any, error) {
		if n.Actions.Focus == nil {
			return nil, ErrInvalidElementState.with("element %s does not accept text input", n.Name())
		}
		if !n.Enabled() {
			return nil, ErrInvalidElementState.with("element %s is disabled", n.Name())
		}
		n.Actions.Focus()
		if err := s.app.TypeText(text); err != nil {
			return nil, ErrInvalidElementState.with("%v", err)
		}
		return nil, nil
	})
}

func (s *Server) clear(r *request) (any, error) {
	return s.inspect(r, func(_ *semantics.Tree, n *semantics.Node) (any, error) {
		if n.Actions.SetValue == nil {
			return nil, ErrInvalidElementState.with("element %s cannot be cleared", n.Name())
		}
		n.Actions.SetValue("")
		return nil, nil
	})
}
