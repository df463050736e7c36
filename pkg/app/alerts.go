package app

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/platform"
	"github.com/go-drift/e2e/pkg/semantics"
)

// Alert errors.
var (
	ErrNoAlert        = errors.New("no alert is open")
	ErrNoAlertButton  = errors.New("alert has no such button")
	ErrNoAlertTextBox = errors.New("alert has no text field")
)

// ButtonRole decides which button accept and dismiss press.
type ButtonRole int

const (
	// RoleDefault is pressed by accept.
	RoleDefault ButtonRole = iota
	// RoleCancel is pressed by dismiss.
	RoleCancel
)

// AlertButton is one action of an alert.
type AlertButton struct {
	Label  string
	Role   ButtonRole
	Action func()
}

// Alert is a system alert. Buttons are listed in display order.
type Alert struct {
	Title   string
	Message string
	Buttons []AlertButton

	taps []*gestures.TapGestureRecognizer
}

// Text returns the title and message separated by a newline.
func (a *Alert) Text() string {
	var parts []string
	if a.Title != "" {
		parts = append(parts, a.Title)
	}
	if a.Message != "" {
		parts = append(parts, a.Message)
	}
	return strings.Join(parts, "\n")
}

// ButtonLabels returns the button labels in display order.
func (a *Alert) ButtonLabels() []string {
	out := make([]string, len(a.Buttons))
	for i, b := range a.Buttons {
		out[i] = b.Label
	}
	return out
}

func (a *Alert) find(label string) (int, bool) {
	for i, b := range a.Buttons {
		if b.Label == label {
			return i, true
		}
	}
	return -1, false
}

// acceptIndex is the last default button, falling back to the last button.
func (a *Alert) acceptIndex() int {
	for i := len(a.Buttons) - 1; i >= 0; i-- {
		if a.Buttons[i].Role == RoleDefault {
			return i
		}
	}
	return len(a.Buttons) - 1
}

// dismissIndex is the cancel button, falling back to the last button.
func (a *Alert) dismissIndex() int {
	for i, b := range a.Buttons {
		if b.Role == RoleCancel {
			return i
		}
	}
	return len(a.Buttons) - 1
}

// AlertPresenter shows alerts one at a time. Presentation is deferred to the
// next loop turn, and alerts queue in the order they were presented.
type AlertPresenter struct {
	dispatcher platform.Dispatcher
	log        *logrus.Entry
	queue      []*Alert
}

func newAlertPresenter(d platform.Dispatcher, log *logrus.Entry) *AlertPresenter {
	return &AlertPresenter{dispatcher: d, log: log}
}

// Present queues a for display on the next loop turn.
func (p *AlertPresenter) Present(a *Alert) {
	enqueue := func() {
		p.log.WithField("title", a.Title).Debug("alert presented")
		p.queue = append(p.queue, a)
	}
	if p.dispatcher == nil || !p.dispatcher.Dispatch(enqueue) {
		enqueue()
	}
}

// Current returns the visible alert, or nil.
func (p *AlertPresenter) Current() *Alert {
	if len(p.queue) == 0 {
		return nil
	}
	return p.queue[0]
}

// Queued returns the number of alerts waiting, including the visible one.
func (p *AlertPresenter) Queued() int {
	return len(p.queue)
}

// Accept presses the named button, or the default button when label is empty.
func (p *AlertPresenter) Accept(label string) error {
	a := p.Current()
	if a == nil {
		return ErrNoAlert
	}
	if label == "" {
		return p.press(a.acceptIndex())
	}
	return p.pressLabel(a, label)
}

// Dismiss presses the named button, or the cancel button when label is empty.
func (p *AlertPresenter) Dismiss(label string) error {
	a := p.Current()
	if a == nil {
		return ErrNoAlert
	}
	if label == "" {
		return p.press(a.dismissIndex())
	}
	return p.pressLabel(a, label)
}

// SetText types into the alert's text field. System alerts in this app have
// none.
func (p *AlertPresenter) SetText(string) error {
	if p.Current() == nil {
		return ErrNoAlert
	}
	return ErrNoAlertTextBox
}

// Clear drops every queued alert without running actions.
func (p *AlertPresenter) Clear() {
	p.queue = nil
}

func (p *AlertPresenter) pressLabel(a *Alert, label string) error {
	i, ok := a.find(label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoAlertButton, label)
	}
	return p.press(i)
}

func (p *AlertPresenter) press(i int) error {
	a := p.Current()
	if a == nil {
		return ErrNoAlert
	}
	if i < 0 || i >= len(a.Buttons) {
		return ErrNoAlertButton
	}
	p.queue = p.queue[1:]
	b := a.Buttons[i]
	p.log.WithFields(logrus.Fields{"title": a.Title, "button": b.Label}).Debug("alert closed")
	if b.Action != nil {
		b.Action()
	}
	return nil
}

const alertWidth = 270.0

// node builds the modal layer for the visible alert, or returns nil.
func (p *AlertPresenter) node(window geometry.Rect) *semantics.Node {
	a := p.Current()
	if a == nil {
		return nil
	}
	if len(a.taps) != len(a.Buttons) {
		a.taps = make([]*gestures.TapGestureRecognizer, len(a.Buttons))
		for i := range a.Buttons {
			i := i
			a.taps[i] = &gestures.TapGestureRecognizer{OnTap: func() {
				if p.Current() == a {
					_ = p.press(i)
				}
			}}
		}
	}

	width := math.Min(alertWidth, window.Width()-40)
	height := 20.0 + lineHeight + 4 + lineHeight + 20 + buttonHeight
	left := window.Left + math.Floor((window.Width()-width)/2)
	top := window.Top + math.Floor((window.Height()-height)/2)
	box := geometry.RectFromLTWH(left, top, width, height)

	alert := &semantics.Node{
		Key:        "alert",
		Type:       semantics.TypeAlert,
		Identifier: a.Title,
		Label:      a.Title,
		Rect:       box,
		Flags:      semantics.FlagEnabled | semantics.FlagAccessible,
	}
	y := top + 20
	if a.Title != "" {
		alert.Add(staticText("alert/title", a.Title, geometry.RectFromLTWH(left+16, y, width-32, lineHeight)))
	}
	y += lineHeight + 4
	if a.Message != "" {
		alert.Add(staticText("alert/message", a.Message, geometry.RectFromLTWH(left+16, y, width-32, lineHeight)))
	}
	y += lineHeight + 20

	bw := math.Floor(width / float64(max(len(a.Buttons), 1)))
	for i, b := range a.Buttons {
		rect := geometry.RectFromLTWH(left+float64(i)*bw, y, bw, buttonHeight)
		alert.Add(button("alert/button/"+b.Label, "", b.Label, rect, true, a.taps[i]))
	}

	scrim := &semantics.Node{
		Key:   "alert/scrim",
		Type:  semantics.TypeOther,
		Rect:  window,
		Flags: semantics.FlagEnabled | semantics.FlagModal,
	}
	return scrim.Add(alert)
}
