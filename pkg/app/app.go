// Package app implements the fixture app: a home screen of automation
// controls, a scrolling list, and a drag screen, presented through an
// accessibility tree.
//
// An App is not safe for concurrent use. Every method must run on the UI loop
// that its Dispatcher feeds, which is also where its Clock delivers timers.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/platform"
	"github.com/go-drift/e2e/pkg/semantics"
)

// DefaultBundleID identifies the app when no bundle id is configured.
const DefaultBundleID = "com.drift.e2e.fixture"

// State is the application run state, numbered like XCUIApplicationState.
type State int

const (
	StateUnknown           State = 0
	StateNotRunning        State = 1
	StateRunningBackground State = 3
	StateRunningForeground State = 4
)

func (s State) String() string {
	switch s {
	case StateNotRunning:
		return "not-running"
	case StateRunningBackground:
		return "background"
	case StateRunningForeground:
		return "foreground"
	default:
		return "unknown"
	}
}

// Options configures an App.
type Options struct {
	// Clock drives gesture timers. Required.
	Clock gestures.Clock
	// Dispatcher defers work to the next loop turn. Required.
	Dispatcher platform.Dispatcher
	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
	// WindowSize is the portrait window size. Defaults to DefaultWindowSize.
	WindowSize geometry.Size
	// Scale defaults to DefaultScale.
	Scale float64
	// Orientation is the initial orientation. Defaults to portrait.
	Orientation orientation.Orientation
	// BundleID defaults to DefaultBundleID.
	BundleID string
	// Name is the application label. Defaults to "Fixture".
	Name string
}

// App is the running fixture.
type App struct {
	opts        Options
	clock       gestures.Clock
	log         *logrus.Entry
	orientation *orientation.Notifier
	window      *Window
	nav         *Navigator
	alerts      *AlertPresenter
	keyboard    *Keyboard
	pointers    map[int64][]gestures.PointerHandler
	state       State
	back        *gestures.TapGestureRecognizer
}

// New creates and launches the app on its home screen.
func New(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.WindowSize.IsZero() {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.Orientation == orientation.Unknown {
		opts.Orientation = orientation.Portrait
	}
	if opts.BundleID == "" {
		opts.BundleID = DefaultBundleID
	}
	if opts.Name == "" {
		opts.Name = "Fixture"
	}
	log := opts.Logger.WithField("bundle", opts.BundleID)
	a := &App{
		opts:        opts,
		clock:       opts.Clock,
		log:         log,
		orientation: orientation.NewNotifier(opts.Orientation),
		alerts:      newAlertPresenter(opts.Dispatcher, log),
		keyboard:    &Keyboard{},
		pointers:    make(map[int64][]gestures.PointerHandler),
		state:       StateNotRunning,
	}
	a.window = newWindow(opts.WindowSize, opts.Scale, a.orientation)
	a.Launch()
	return a
}

// BundleID returns the app's bundle identifier.
func (a *App) BundleID() string { return a.opts.BundleID }

// Name returns the application label.
func (a *App) Name() string { return a.opts.Name }

// Clock returns the clock driving gesture timers.
func (a *App) Clock() gestures.Clock { return a.clock }

// Window returns the device window.
func (a *App) Window() *Window { return a.window }

// Orientation returns the orientation notifier.
func (a *App) Orientation() *orientation.Notifier { return a.orientation }

// Keyboard returns the keyboard focus tracker.
func (a *App) Keyboard() *Keyboard { return a.keyboard }

// Alerts returns the alert presenter.
func (a *App) Alerts() *AlertPresenter { return a.alerts }

// State returns the run state.
func (a *App) State() State { return a.state }

// Launch starts the app on a fresh home screen. Launching a running app only
// brings it to the foreground.
func (a *App) Launch() {
	if a.state != StateNotRunning {
		a.state = StateRunningForeground
		return
	}
	a.nav = &Navigator{
		OnGenerateRoute: a.generateRoute,
		OnChange: func(current string) {
			a.log.WithField("route", current).Debug("navigated")
		},
	}
	_ = a.nav.PushNamed(RouteHome, nil)
	a.state = StateRunningForeground
	a.log.Info("app launched")
}

// Activate brings the app to the foreground, launching it if needed.
func (a *App) Activate() {
	a.Launch()
}

// Background moves the app off screen without discarding state.
func (a *App) Background() {
	if a.state == StateRunningForeground {
		a.state = StateRunningBackground
		a.cancelPointers()
	}
}

// Terminate discards all screen state.
func (a *App) Terminate() {
	if a.state == StateNotRunning {
		return
	}
	a.cancelPointers()
	a.alerts.Clear()
	_ = a.keyboard.Dismiss()
	a.nav.Reset()
	a.state = StateNotRunning
	a.log.Info("app terminated")
}

// Dispose terminates the app. The App must not be used afterwards.
func (a *App) Dispose() {
	a.Terminate()
}

func (a *App) generateRoute(settings RouteSettings) Screen {
	switch settings.Name {
	case RouteHome:
		return newHomeScreen(a)
	case RouteList:
		return newListScreen()
	case RouteDrag:
		return newDragScreen(a)
	}
	return nil
}

// Route returns the current route name.
func (a *App) Route() string {
	if a.nav == nil {
		return ""
	}
	return a.nav.Current()
}

// Screen returns the top screen, or nil when the app is not running.
func (a *App) Screen() Screen {
	if a.state == StateNotRunning {
		return nil
	}
	return a.nav.Top()
}

// Home returns the root screen, or nil when the app is not running.
func (a *App) Home() *HomeScreen {
	if a.state == StateNotRunning || len(a.nav.stack) == 0 {
		return nil
	}
	h, _ := a.nav.stack[0].screen.(*HomeScreen)
	return h
}

// Navigate shows route, popping back to it when it is already on the stack.
func (a *App) Navigate(route string) error {
	if a.state == StateNotRunning {
		return fmt.Errorf("app is not running")
	}
	for _, r := range a.nav.Routes() {
		if r == route {
			a.nav.PopUntil(route)
			return nil
		}
	}
	return a.nav.PushNamed(route, nil)
}

// Back pops the top screen and reports whether it did.
func (a *App) Back() bool {
	if a.state == StateNotRunning {
		return false
	}
	return a.nav.Pop()
}

// SetOrientation rotates the device.
func (a *App) SetOrientation(o orientation.Orientation) {
	a.orientation.Set(o)
}

// Alert returns the visible alert, or nil.
func (a *App) Alert() *Alert {
	return a.alerts.Current()
}

// AcceptAlert presses the named alert button, or the default one when name
// is empty.
func (a *App) AcceptAlert(name string) error {
	return a.alerts.Accept(name)
}

// DismissAlert presses the named alert button, or the cancel one when name
// is empty.
func (a *App) DismissAlert(name string) error {
	return a.alerts.Dismiss(name)
}

// SetAlertText types into the visible alert's text field.
func (a *App) SetAlertText(text string) error {
	return a.alerts.SetText(text)
}

// TypeText sends text to the focused field.
func (a *App) TypeText(text string) error {
	return a.keyboard.Type(text)
}

// HandlePointer routes a pointer event. Down events are hit tested against a
// fresh tree; the handlers found receive every later event of that pointer.
func (a *App) HandlePointer(event gestures.PointerEvent) {
	if event.Time.IsZero() {
		event.Time = a.clock.Now()
	}
	var handlers []gestures.PointerHandler
	switch event.Phase {
	case gestures.PointerPhaseDown:
		if a.state != StateRunningForeground {
			return
		}
		for _, n := range a.Tree().HitTest(event.Position) {
			handlers = append(handlers, n.Handlers...)
		}
		a.pointers[event.PointerID] = handlers
	default:
		var ok bool
		handlers, ok = a.pointers[event.PointerID]
		if !ok {
			return
		}
		if event.Phase == gestures.PointerPhaseUp || event.Phase == gestures.PointerPhaseCancel {
			delete(a.pointers, event.PointerID)
		}
	}
	for _, h := range handlers {
		h.HandlePointer(event)
	}
}

// ActivePointers returns the number of pointers currently down.
func (a *App) ActivePointers() int {
	return len(a.pointers)
}

func (a *App) cancelPointers() {
	for id, handlers := range a.pointers {
		ev := gestures.PointerEvent{PointerID: id, Phase: gestures.PointerPhaseCancel, Time: a.clock.Now()}
		for _, h := range handlers {
			h.HandlePointer(ev)
		}
		delete(a.pointers, id)
	}
}

// Tree builds the accessibility tree for the current state.
func (a *App) Tree() *semantics.Tree {
	bounds := a.window.Bounds()
	root := &semantics.Node{
		Key:   "app",
		Type:  semantics.TypeApplication,
		Label: a.opts.Name,
		Rect:  bounds,
		Flags: semantics.FlagEnabled,
	}
	if a.state != StateRunningForeground {
		return semantics.NewTree(root, bounds)
	}

	win := &semantics.Node{Key: "window", Type: semantics.TypeWindow, Rect: bounds, Flags: semantics.FlagEnabled}
	root.Add(win)

	screen := a.nav.Top()
	win.Add(a.navBar(screen, bounds))

	ctx := &BuildContext{
		Window:      bounds,
		Content:     a.window.Content(),
		Orientation: a.orientation.Current(),
		Focused:     a.keyboard.Focused(),
	}
	content := group("content", ctx.Content)
	content.Add(screen.Build(ctx)...)
	win.Add(content)

	if a.keyboard.Visible() {
		win.Add(&semantics.Node{
			Key:   "keyboard",
			Type:  semantics.TypeKeyboard,
			Rect:  geometry.RectFromLTWH(0, bounds.Bottom-KeyboardHeight, bounds.Width(), KeyboardHeight),
			Flags: semantics.FlagEnabled | semantics.FlagAccessible,
		})
	}
	if alert := a.alerts.node(bounds); alert != nil {
		win.Add(alert)
	}
	return semantics.NewTree(root, bounds)
}

func (a *App) navBar(screen Screen, bounds geometry.Rect) *semantics.Node {
	title := screen.Title()
	rect := geometry.RectFromLTWH(0, StatusBarHeight, bounds.Width(), NavBarHeight)
	bar := &semantics.Node{
		Key:        "navbar",
		Type:       semantics.TypeNavigationBar,
		Identifier: title,
		Rect:       rect,
		Flags:      semantics.FlagEnabled | semantics.FlagAccessible,
	}
	if prev := a.nav.Previous(); prev != nil {
		label := prev.Title()
		if label == "" {
			label = "Back"
		}
		size := buttonSize(label)
		back := button("navbar/back", "BackButton", label,
			geometry.RectFromLTWH(8, rect.Top+(NavBarHeight-size.Height)/2, size.Width, size.Height), true,
			a.backTap())
		bar.Add(back)
	}
	if title != "" {
		size := textSize(title)
		bar.Add(staticText("navbar/title", title, geometry.RectFromLTWH(
			float64(int((bounds.Width()-size.Width)/2)), rect.Top+(NavBarHeight-size.Height)/2, size.Width, size.Height)))
	}
	return bar
}

// backTap returns the recognizer for the navigation bar's back button. It
// is shared across builds so a tap survives a rebuild between down and up.
func (a *App) backTap() *gestures.TapGestureRecognizer {
	if a.back == nil {
		a.back = &gestures.TapGestureRecognizer{OnTap: func() { a.Back() }}
	}
	return a.back
}
