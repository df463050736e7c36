package app

import (
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/orientation"
)

// Default device metrics: a 820x1180 point tablet at 2x.
var (
	DefaultWindowSize = geometry.Size{Width: 820, Height: 1180}
	DefaultScale      = 2.0
)

// Window is the device screen the app is laid out in.
type Window struct {
	// portrait is the size in portrait orientation.
	portrait    geometry.Size
	scale       float64
	orientation *orientation.Notifier
}

func newWindow(portrait geometry.Size, scale float64, n *orientation.Notifier) *Window {
	if portrait.Width > portrait.Height {
		portrait.Width, portrait.Height = portrait.Height, portrait.Width
	}
	return &Window{portrait: portrait, scale: scale, orientation: n}
}

// Size returns the logical size for the current orientation.
func (w *Window) Size() geometry.Size {
	if w.orientation.Current().IsLandscape() {
		return geometry.Size{Width: w.portrait.Height, Height: w.portrait.Width}
	}
	return w.portrait
}

// Bounds returns the window rectangle at the origin.
func (w *Window) Bounds() geometry.Rect {
	return geometry.RectFromOffsetSize(geometry.Offset{}, w.Size())
}

// Scale is the number of device pixels per logical point.
func (w *Window) Scale() float64 {
	return w.scale
}

// PixelSize returns the size in device pixels.
func (w *Window) PixelSize() (int, int) {
	s := w.Size()
	return int(s.Width * w.scale), int(s.Height * w.scale)
}

// Content is the area below the status and navigation bars.
func (w *Window) Content() geometry.Rect {
	s := w.Size()
	top := StatusBarHeight + NavBarHeight
	return geometry.RectFromLTWH(0, top, s.Width, s.Height-top)
}
