// Package rendering paints an accessibility tree into an image for
// screenshots. Elements are drawn as flat boxes with a bitmap font; the
// result is meant for humans checking layout, not for pixel-exact tests.
package rendering

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-drift/e2e/pkg/errors"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/semantics"
)

// Renderer paints trees with a palette.
type Renderer struct {
	Palette Palette
	// Face defaults to basicfont.Face7x13.
	Face font.Face
}

// NewRenderer returns a renderer with the default palette and font.
func NewRenderer() *Renderer {
	return &Renderer{Palette: DefaultPalette, Face: basicfont.Face7x13}
}

// Render paints tree at one pixel per point, then scales the result to
// device pixels.
func (r *Renderer) Render(tree *semantics.Tree, scale float64) *image.RGBA {
	win := tree.Window
	w, h := int(math.Ceil(win.Width())), int(math.Ceil(win.Height()))
	canvas := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(r.Palette.Background.NRGBA()), image.Point{}, draw.Src)

	tree.Walk(func(n *semantics.Node, _ int) bool {
		if n.Flags.Has(semantics.FlagHidden) {
			return false
		}
		r.paint(canvas, tree, n)
		return true
	})

	if scale <= 0 || scale == 1 {
		return canvas
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(canvas.Bounds().Dx())*scale), int(float64(canvas.Bounds().Dy())*scale)))
	draw.BiLinear.Scale(dst, dst.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return dst
}

func (r *Renderer) paint(dst *image.RGBA, tree *semantics.Tree, n *semantics.Node) {
	clip := pixelRect(tree.VisibleRect(n))
	if clip.Empty() {
		return
	}
	if fill := r.Palette.fill(n); fill != ColorTransparent {
		draw.Draw(dst, clip, image.NewUniform(fill.NRGBA()), image.Point{}, draw.Over)
	}
	switch n.Type {
	case semantics.TypeTextField:
		border := r.Palette.Border
		if n.Flags.Has(semantics.FlagFocused) {
			border = r.Palette.Focus
		}
		strokeRect(dst, pixelRect(n.Rect).Intersect(clip), border)
	case semantics.TypeCell:
		bottom := pixelRect(n.Rect)
		bottom.Min.Y = bottom.Max.Y - 1
		draw.Draw(dst, bottom.Intersect(clip), image.NewUniform(r.Palette.Border.NRGBA()), image.Point{}, draw.Src)
	}
	if text := r.caption(n); text != "" {
		r.drawText(dst, clip, n.Rect, text, r.Palette.ink(n))
	}
}

// caption is the text drawn inside n. Containers with children leave the
// text to them.
func (r *Renderer) caption(n *semantics.Node) string {
	switch n.Type {
	case semantics.TypeButton, semantics.TypeStaticText, semantics.TypeImage:
		if n.Label != "" {
			return n.Label
		}
		return n.Identifier
	case semantics.TypeTextField:
		if n.Value != "" {
			return n.Value
		}
		return n.Placeholder
	case semantics.TypeOther:
		if len(n.Children) == 0 {
			return n.Label
		}
	}
	return ""
}

// drawText centres a single line of text vertically in rect, starting at
// its left edge for fields and centred otherwise. Text is clipped to clip.
func (r *Renderer) drawText(dst *image.RGBA, clip image.Rectangle, rect geometry.Rect, text string, ink Color) {
	face := r.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	sub, ok := dst.SubImage(clip).(*image.RGBA)
	if !ok {
		return
	}
	d := &font.Drawer{Dst: sub, Src: image.NewUniform(ink.NRGBA()), Face: face}
	width := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := int(rect.Left) + max((int(rect.Width())-width)/2, 2)
	y := int(rect.Top) + (int(rect.Height())-textHeight)/2 + metrics.Ascent.Ceil()
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func pixelRect(r geometry.Rect) image.Rectangle {
	return image.Rect(int(math.Floor(r.Left)), int(math.Floor(r.Top)), int(math.Ceil(r.Right)), int(math.Ceil(r.Bottom)))
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c Color) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c.NRGBA())
	for _, edge := range []image.Rectangle{
		{Min: r.Min, Max: image.Pt(r.Max.X, r.Min.Y+1)},
		{Min: image.Pt(r.Min.X, r.Max.Y-1), Max: r.Max},
		{Min: r.Min, Max: image.Pt(r.Min.X+1, r.Max.Y)},
		{Min: image.Pt(r.Max.X-1, r.Min.Y), Max: r.Max},
	} {
		draw.Draw(dst, edge, src, image.Point{}, draw.Src)
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return renderError("rendering.EncodePNG", err)
	}
	return nil
}

// Screenshot renders tree at scale and returns PNG bytes. scale must be a
// positive finite number.
func Screenshot(tree *semantics.Tree, scale float64) ([]byte, error) {
	if !(scale > 0) || math.IsInf(scale, 1) {
		return nil, renderError("rendering.Screenshot", fmt.Errorf("invalid scale %g", scale))
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, NewRenderer().Render(tree, scale)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderError(op string, err error) *errors.FixtureError {
	return &errors.FixtureError{Op: op, Kind: errors.KindRender, Err: err, Timestamp: time.Now()}
}
