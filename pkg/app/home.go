package app

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/semantics"
)

// Home screen identifiers.
const (
	IDAcceptOrRejectAlert = "ACCEPT_OR_REJECT_ALERT"
	IDInputAlert          = "INPUT_ALERT"
	IDEnabledButton       = "ENABLED_BTN"
	IDDisabledButton      = "DISABLED_BTN"
	IDImageButton         = "IMG_BTN"
	IDHiddenButton        = "HIDDEN_BTN"
	IDCheckedButton       = "CHECKED_BTN"
	IDUncheckedButton     = "UNCHECKED_BTN"
	IDInputField          = "INPUT_FIELD"
	IDClearInputButton    = "CLEAR_INPUT_BTN"
	IDCombinedText        = "COMBINED_TEXT_CONTAINER"
	IDLongTapAlert        = "LONG_TAP_ALERT"
	IDLongTapAlertOK      = "LONG_TAP_ALERT_OK"
	IDDoubleTapAlert      = "DOUBLE_TAP_ALERT"
	IDDoubleTapAlertOK    = "DOUBLE_TAP_ALERT_OK"
	IDOrientationText     = "ORIGATATION_TEXT"
	LinkListView          = "ListView"
	LinkDragView          = "DragView"
)

// LongTapDuration is the hold time of the LONG_TAP_ALERT control.
const LongTapDuration = time.Second

// combinedLines are merged into one COMBINED_TEXT_CONTAINER element.
var combinedLines = []string{"First line of text", "Second line of text", "Third line of text"}

// HomeState is the mutable state of the home screen.
type HomeState struct {
	InputAlertShown bool
	// UserInput backs the text field of the input overlay.
	UserInput TextField
	// ButtonHidden hides HIDDEN_BTN.
	ButtonHidden bool
	// Checked is the shared state of the two check buttons.
	Checked     bool
	Input       TextField
	Orientation orientation.Orientation
}

// HomeScreen is the root screen with the automation controls.
type HomeScreen struct {
	app   *App
	state HomeState
	// OnInputAccepted receives the text of an accepted input overlay.
	OnInputAccepted func(text string)

	cancelOrientation func()

	confirm, inputAlert, enabled, checked, unchecked *gestures.TapGestureRecognizer
	inputField, clearInput, listLink, dragLink      *gestures.TapGestureRecognizer
	overlayField, overlayCancel, overlayAccept      *gestures.TapGestureRecognizer
	longTap                                         *gestures.LongPressGestureRecognizer
	doubleTap                                       *gestures.DoubleTapGestureRecognizer
}

func newHomeScreen(a *App) *HomeScreen {
	h := &HomeScreen{
		app: a,
		state: HomeState{
			UserInput:    TextField{Text: "this value", Placeholder: "Enter text"},
			ButtonHidden: true,
			Input:        TextField{Placeholder: IDInputField},
			Orientation:  a.orientation.Current(),
		},
	}
	h.OnInputAccepted = func(text string) {
		a.log.WithField("text", text).Info("input accepted")
	}
	h.cancelOrientation = a.orientation.Subscribe(func(o orientation.Orientation) {
		h.state.Orientation = o
	})

	tap := func(fn func()) *gestures.TapGestureRecognizer {
		return &gestures.TapGestureRecognizer{OnTap: fn}
	}
	h.confirm = tap(h.presentConfirmation)
	h.inputAlert = tap(func() { h.SetInputAlertShown(true) })
	h.enabled = tap(func() { a.log.Info("enabled button tapped") })
	h.checked = tap(func() { h.SetChecked(false) })
	h.unchecked = tap(func() { h.SetChecked(true) })
	h.inputField = tap(func() { a.keyboard.Focus(&h.state.Input) })
	h.clearInput = tap(func() { h.state.Input.Set("") })
	h.listLink = tap(func() { _ = a.Navigate(RouteList) })
	h.dragLink = tap(func() { _ = a.Navigate(RouteDrag) })
	h.overlayField = tap(func() { a.keyboard.Focus(&h.state.UserInput) })
	h.overlayCancel = tap(func() { h.SetInputAlertShown(false) })
	h.overlayAccept = tap(h.acceptInput)

	h.longTap = gestures.NewLongPressGestureRecognizer(a.clock, LongTapDuration)
	h.longTap.OnLongPress = func() {
		a.alerts.Present(&Alert{
			Title:   "Long Tap Alert",
			Message: "Long Tap Alert",
			Buttons: []AlertButton{{Label: IDLongTapAlertOK}},
		})
	}
	h.doubleTap = &gestures.DoubleTapGestureRecognizer{OnDoubleTap: func() {
		a.alerts.Present(&Alert{
			Title:   "DOUBLE Tap Alert",
			Message: "DOUBLE Tap Alert",
			Buttons: []AlertButton{{Label: IDDoubleTapAlertOK}},
		})
	}}
	return h
}

// State returns a copy of the screen state.
func (h *HomeScreen) State() HomeState {
	return h.state
}

// SetChecked updates the check buttons.
func (h *HomeScreen) SetChecked(checked bool) {
	h.state.Checked = checked
}

// SetButtonHidden shows or hides HIDDEN_BTN.
func (h *HomeScreen) SetButtonHidden(hidden bool) {
	h.state.ButtonHidden = hidden
}

// SetInputAlertShown shows or hides the input overlay.
func (h *HomeScreen) SetInputAlertShown(shown bool) {
	h.state.InputAlertShown = shown
	if !shown {
		h.app.keyboard.Release(&h.state.UserInput)
	}
}

// SetInput replaces the INPUT_FIELD text.
func (h *HomeScreen) SetInput(text string) {
	h.state.Input.Set(text)
}

// OrientationText is the label of ORIGATATION_TEXT.
func (h *HomeScreen) OrientationText() string {
	return h.state.Orientation.Text()
}

func (h *HomeScreen) presentConfirmation() {
	log := h.app.log
	h.app.alerts.Present(&Alert{
		Title:   "Confirmation",
		Message: "Do you accept?",
		Buttons: []AlertButton{
			{Label: "Reject", Role: RoleCancel, Action: func() { log.Info("rejected") }},
			{Label: "Accept", Role: RoleDefault, Action: func() { log.Info("accepted") }},
		},
	})
}

func (h *HomeScreen) acceptInput() {
	h.SetInputAlertShown(false)
	if h.OnInputAccepted != nil {
		h.OnInputAccepted(h.state.UserInput.Text)
	}
}

// Title implements Screen.
func (h *HomeScreen) Title() string { return "Home" }

// Build implements Screen.
func (h *HomeScreen) Build(b *BuildContext) []*semantics.Node {
	s := &h.state
	col := newColumn(b.Content, 10)
	var nodes []*semantics.Node

	r := col.row(buttonSize(IDAcceptOrRejectAlert), buttonSize(IDInputAlert))
	nodes = append(nodes,
		button("home/confirm", IDAcceptOrRejectAlert, IDAcceptOrRejectAlert, r[0], true, h.confirm),
		button("home/inputAlert", IDInputAlert, IDInputAlert, r[1], true, h.inputAlert),
	)

	r = col.row(buttonSize(IDEnabledButton), buttonSize(IDDisabledButton),
		geometry.Size{Width: 100, Height: 50}, buttonSize(IDHiddenButton))
	hidden := button("home/hidden", "", IDHiddenButton, r[3], true)
	hidden.Flags = hidden.Flags.With(semantics.FlagHidden, s.ButtonHidden)
	if s.ButtonHidden {
		hidden.Flags = hidden.Flags.Clear(semantics.FlagAccessible)
	}
	nodes = append(nodes,
		button("home/enabled", IDEnabledButton, IDEnabledButton, r[0], true, h.enabled),
		button("home/disabled", IDDisabledButton, IDDisabledButton, r[1], false),
		&semantics.Node{
			Key:        "home/image",
			Type:       semantics.TypeImage,
			Identifier: IDImageButton,
			Label:      "applogo",
			Rect:       r[2],
			Flags:      semantics.FlagEnabled | semantics.FlagAccessible,
		},
		hidden,
	)

	check := geometry.Size{Width: buttonHeight, Height: buttonHeight}
	r = col.row(check, check)
	checkedBtn := button("home/checked", IDCheckedButton, "", r[0], true, h.checked)
	checkedBtn.Flags = checkedBtn.Flags.With(semantics.FlagSelected, !s.Checked)
	uncheckedBtn := button("home/unchecked", IDUncheckedButton, "", r[1], true, h.unchecked)
	uncheckedBtn.Flags = uncheckedBtn.Flags.With(semantics.FlagSelected, s.Checked)
	nodes = append(nodes, checkedBtn, uncheckedBtn)

	r = col.row(geometry.Size{Width: 300, Height: 40}, buttonSize("CLEAR INPUT"))
	field := textField("home/input", &s.Input, IDInputField, r[0], b.Focused == &s.Input, h.inputField)
	field.Actions.Focus = func() { h.app.keyboard.Focus(&s.Input) }
	clear := button("home/clear", "", IDClearInputButton, r[1], true, h.clearInput)
	nodes = append(nodes, field, clear)

	r = col.row(geometry.Size{Width: 220, Height: lineHeight * float64(len(combinedLines))})
	combined := &semantics.Node{
		Key:        "home/combined",
		Type:       semantics.TypeOther,
		Identifier: IDCombinedText,
		Label:      strings.Join(combinedLines, ", "),
		Rect:       r[0],
		Flags:      semantics.FlagEnabled | semantics.FlagAccessible,
	}
	nodes = append(nodes, combined)

	r = col.row(buttonSize(IDLongTapAlert), buttonSize(IDDoubleTapAlert))
	nodes = append(nodes,
		withHandlers(staticText("home/longTap", IDLongTapAlert, r[0]), h.longTap),
		withHandlers(staticText("home/doubleTap", IDDoubleTapAlert, r[1]), h.doubleTap),
	)

	text := h.OrientationText()
	r = col.row(textSize(text))
	orient := staticText("home/orientation", text, r[0])
	orient.Identifier = IDOrientationText
	nodes = append(nodes, orient)

	r = col.row(buttonSize(LinkListView), buttonSize(LinkDragView))
	nodes = append(nodes,
		button("home/listLink", "", LinkListView, r[0], true, h.listLink),
		button("home/dragLink", "", LinkDragView, r[1], true, h.dragLink),
	)

	if s.InputAlertShown {
		nodes = append(nodes, h.inputOverlay(b))
	}
	return nodes
}

func (h *HomeScreen) inputOverlay(b *BuildContext) *semantics.Node {
	s := &h.state
	width := 300.0
	if b.Content.Width()-40 < width {
		width = b.Content.Width() - 40
	}
	height := 16 + lineHeight + 20 + 40 + 20 + buttonHeight + 16
	left := b.Content.Left + float64(int((b.Content.Width()-width)/2))
	top := b.Content.Top + float64(int((b.Content.Height()-height)/2))
	box := geometry.RectFromLTWH(left, top, width, height)
	inner := geometry.Rect{Left: box.Left + 16, Top: box.Top + 16, Right: box.Right - 16, Bottom: box.Bottom - 16}

	col := newColumn(inner, 0)
	title := col.row(textSize("Enter your input"))
	col.gap(20 - rowSpacing)
	fieldRect := col.row(geometry.Size{Width: inner.Width(), Height: 40})
	col.gap(20 - rowSpacing)
	btns := col.row(buttonSize("Cancel"), buttonSize("Accept"))

	field := textField("home/overlay/field", &s.UserInput, "", fieldRect[0], b.Focused == &s.UserInput, h.overlayField)
	field.Actions.Focus = func() { h.app.keyboard.Focus(&s.UserInput) }
	return group("home/overlay", box,
		staticText("home/overlay/title", "Enter your input", title[0]),
		field,
		button("home/overlay/cancel", "", "Cancel", btns[0], true, h.overlayCancel),
		button("home/overlay/accept", "", "Accept", btns[1], true, h.overlayAccept),
	)
}

// Dispose implements Screen.
func (h *HomeScreen) Dispose() {
	if h.cancelOrientation != nil {
		h.cancelOrientation()
		h.cancelOrientation = nil
	}
	h.longTap.Dispose()
	h.app.keyboard.Release(&h.state.Input)
	h.app.keyboard.Release(&h.state.UserInput)
	h.app.log.WithFields(logrus.Fields{"screen": "home"}).Debug("disposed")
}

func withHandlers(n *semantics.Node, handlers ...gestures.PointerHandler) *semantics.Node {
	n.Handlers = append(n.Handlers, handlers...)
	return n
}
