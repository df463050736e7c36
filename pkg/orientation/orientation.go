// Package orientation models the device orientation and the notifier that
// screens subscribe to for changes.
package orientation

import (
	"strings"
	"sync"
)

// Orientation is the physical orientation of the device.
type Orientation int

const (
	Unknown Orientation = iota
	Portrait
	PortraitUpsideDown
	LandscapeLeft
	LandscapeRight
	FaceUp
	FaceDown
)

var names = map[Orientation]string{
	Unknown:            "unknown",
	Portrait:           "portrait",
	PortraitUpsideDown: "portraitUpsideDown",
	LandscapeLeft:      "landscapeLeft",
	LandscapeRight:     "landscapeRight",
	FaceUp:             "faceUp",
	FaceDown:           "faceDown",
}

func (o Orientation) String() string {
	if name, ok := names[o]; ok {
		return name
	}
	return "unknown"
}

// Text is the label shown by the orientation readout on the home screen.
// "UNKNOW" is part of the automation contract and is spelled that way on
// purpose.
func (o Orientation) Text() string {
	switch o {
	case LandscapeLeft, LandscapeRight:
		return "LANDSCAPE"
	case Portrait, PortraitUpsideDown:
		return "PORTRAIT"
	default:
		return "UNKNOW"
	}
}

// IsLandscape reports whether the window is wider than it is tall in this
// orientation.
func (o Orientation) IsLandscape() bool {
	return o == LandscapeLeft || o == LandscapeRight
}

// WDAName returns the UIA_DEVICE_ORIENTATION_* constant for o.
func (o Orientation) WDAName() string {
	switch o {
	case Portrait:
		return "UIA_DEVICE_ORIENTATION_PORTRAIT"
	case PortraitUpsideDown:
		return "UIA_DEVICE_ORIENTATION_PORTRAIT_UPSIDEDOWN"
	case LandscapeLeft:
		return "UIA_DEVICE_ORIENTATION_LANDSCAPELEFT"
	case LandscapeRight:
		return "UIA_DEVICE_ORIENTATION_LANDSCAPERIGHT"
	case FaceUp:
		return "UIA_DEVICE_ORIENTATION_FACEUP"
	case FaceDown:
		return "UIA_DEVICE_ORIENTATION_FACEDOWN"
	default:
		return "UIA_DEVICE_ORIENTATION_UNKNOWN"
	}
}

// Parse accepts the W3C values (PORTRAIT, LANDSCAPE), the
// UIA_DEVICE_ORIENTATION_* names and the camel-case names returned by
// String. Matching is case-insensitive. The second result is false for
// unrecognized input.
func Parse(s string) (Orientation, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "UIA_DEVICE_ORIENTATION_")
	switch key {
	case "PORTRAIT":
		return Portrait, true
	case "PORTRAIT_UPSIDEDOWN", "PORTRAITUPSIDEDOWN":
		return PortraitUpsideDown, true
	case "LANDSCAPE", "LANDSCAPELEFT", "LANDSCAPE_LEFT":
		return LandscapeLeft, true
	case "LANDSCAPERIGHT", "LANDSCAPE_RIGHT":
		return LandscapeRight, true
	case "FACEUP", "FACE_UP":
		return FaceUp, true
	case "FACEDOWN", "FACE_DOWN":
		return FaceDown, true
	case "UNKNOWN":
		return Unknown, true
	}
	return Unknown, false
}

// Handler is called when the orientation changes.
type Handler func(Orientation)

// Notifier holds the current orientation and fans changes out to
// subscribers. It is safe for concurrent use; handlers run on the goroutine
// that calls Set, outside the lock.
type Notifier struct {
	mu       sync.RWMutex
	current  Orientation
	handlers map[int]Handler
	nextID   int
}

// NewNotifier creates a notifier starting at initial.
func NewNotifier(initial Orientation) *Notifier {
	return &Notifier{current: initial, handlers: make(map[int]Handler)}
}

// Current returns the current orientation.
func (n *Notifier) Current() Orientation {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Set updates the orientation and notifies subscribers. Setting the same
// value again is a no-op.
func (n *Notifier) Set(o Orientation) {
	n.mu.Lock()
	if n.current == o {
		n.mu.Unlock()
		return
	}
	n.current = o
	handlers := make([]Handler, 0, len(n.handlers))
	for id := 0; id < n.nextID; id++ {
		if h, ok := n.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(o)
	}
}

// Subscribe registers handler and returns a function that removes it.
// Handlers are notified in subscription order. The returned function is
// idempotent.
func (n *Notifier) Subscribe(handler Handler) func() {
	n.mu.Lock()
	if n.handlers == nil {
		n.handlers = make(map[int]Handler)
	}
	id := n.nextID
	n.nextID++
	n.handlers[id] = handler
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.handlers, id)
		n.mu.Unlock()
	}
}

// Subscribers returns the number of registered handlers.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.handlers)
}
