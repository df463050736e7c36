package rendering

import (
	"image/color"

	"github.com/go-drift/e2e/pkg/semantics"
)

// Color is stored as ARGB (0xAARRGGBB).
type Color uint32

// RGBA constructs a Color from red, green, blue, alpha bytes.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGB constructs an opaque Color from red, green, blue bytes.
func RGB(r, g, b uint8) Color {
	return RGBA(r, g, b, 0xFF)
}

// WithAlpha returns a copy of the color with the given alpha (0-255).
func (c Color) WithAlpha(a uint8) Color {
	return Color(uint32(a)<<24 | uint32(c)&0x00FFFFFF)
}

// NRGBA converts to the image/color representation.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
}

// Common colors.
var (
	ColorTransparent = Color(0x00000000)
	ColorBlack       = Color(0xFF000000)
	ColorWhite       = Color(0xFFFFFFFF)
)

// Palette holds the colors used to paint each kind of element.
type Palette struct {
	Background Color
	Bar        Color
	Text       Color
	Button     Color
	ButtonText Color
	Disabled   Color
	Selected   Color
	Field      Color
	FieldText  Color
	Border     Color
	Image      Color
	Keyboard   Color
	Scrim      Color
	Alert      Color
	Focus      Color
}

// DefaultPalette is a light system-like theme.
var DefaultPalette = Palette{
	Background: RGB(0xF2, 0xF2, 0xF7),
	Bar:        RGB(0xF9, 0xF9, 0xF9),
	Text:       RGB(0x1C, 0x1C, 0x1E),
	Button:     RGB(0x00, 0x7A, 0xFF),
	ButtonText: ColorWhite,
	Disabled:   RGB(0xAE, 0xAE, 0xB2),
	Selected:   RGB(0x34, 0xC7, 0x59),
	Field:      ColorWhite,
	FieldText:  RGB(0x1C, 0x1C, 0x1E),
	Border:     RGB(0xC7, 0xC7, 0xCC),
	Image:      RGB(0xFF, 0x95, 0x00),
	Keyboard:   RGB(0xD1, 0xD3, 0xD9),
	Scrim:      ColorBlack.WithAlpha(0x66),
	Alert:      RGB(0xF8, 0xF8, 0xF8),
	Focus:      RGB(0x00, 0x7A, 0xFF),
}

// fill returns the fill color of n, or ColorTransparent for nodes that are
// not painted.
func (p Palette) fill(n *semantics.Node) Color {
	switch n.Type {
	case semantics.TypeWindow:
		return p.Background
	case semantics.TypeNavigationBar:
		return p.Bar
	case semantics.TypeButton:
		switch {
		case !n.Enabled():
			return p.Disabled
		case n.Selected():
			return p.Selected
		}
		return p.Button
	case semantics.TypeTextField:
		return p.Field
	case semantics.TypeImage:
		return p.Image
	case semantics.TypeKeyboard:
		return p.Keyboard
	case semantics.TypeAlert:
		return p.Alert
	case semantics.TypeCell:
		return p.Field
	case semantics.TypeOther:
		if n.Flags.Has(semantics.FlagModal) {
			return p.Scrim
		}
	}
	return ColorTransparent
}

// ink returns the text color of n.
func (p Palette) ink(n *semantics.Node) Color {
	switch n.Type {
	case semantics.TypeButton:
		return p.ButtonText
	case semantics.TypeTextField:
		return p.FieldText
	}
	return p.Text
}
