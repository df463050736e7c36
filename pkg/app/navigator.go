package app

import (
	"fmt"

	"github.com/go-drift/e2e/pkg/semantics"
)

// Route names.
const (
	RouteHome = "/"
	RouteList = "/list"
	RouteDrag = "/drag"
)

// Screen is one page of the app. Screens keep their own state and gesture
// recognizers across builds; Build derives accessibility nodes from that
// state.
type Screen interface {
	// Title is shown in the navigation bar.
	Title() string
	// Build returns the screen content laid out inside b.Content.
	Build(b *BuildContext) []*semantics.Node
	// Dispose releases timers and subscriptions.
	Dispose()
}

// RouteSettings describes a navigation request.
type RouteSettings struct {
	Name      string
	Arguments any
}

type routeEntry struct {
	settings RouteSettings
	screen   Screen
}

// Navigator is a stack of screens.
type Navigator struct {
	// OnGenerateRoute creates the screen for a route, or returns nil for an
	// unknown name.
	OnGenerateRoute func(settings RouteSettings) Screen
	// OnChange is called after every push or pop.
	OnChange func(current string)

	stack []routeEntry
}

// PushNamed creates and pushes the screen for name.
func (n *Navigator) PushNamed(name string, args any) error {
	settings := RouteSettings{Name: name, Arguments: args}
	screen := n.OnGenerateRoute(settings)
	if screen == nil {
		return fmt.Errorf("unknown route %q", name)
	}
	n.stack = append(n.stack, routeEntry{settings: settings, screen: screen})
	n.changed()
	return nil
}

// Pop removes the top screen. The root screen is never popped.
func (n *Navigator) Pop() bool {
	if !n.CanPop() {
		return false
	}
	top := n.stack[len(n.stack)-1]
	n.stack = n.stack[:len(n.stack)-1]
	top.screen.Dispose()
	n.changed()
	return true
}

// PopUntil pops screens until the top route is name or only the root is
// left.
func (n *Navigator) PopUntil(name string) {
	for n.CanPop() && n.Current() != name {
		n.Pop()
	}
}

// CanPop reports whether there is a screen below the top one.
func (n *Navigator) CanPop() bool {
	return len(n.stack) > 1
}

// Current returns the name of the top route, or "" when empty.
func (n *Navigator) Current() string {
	if len(n.stack) == 0 {
		return ""
	}
	return n.stack[len(n.stack)-1].settings.Name
}

// Top returns the top screen, or nil.
func (n *Navigator) Top() Screen {
	if len(n.stack) == 0 {
		return nil
	}
	return n.stack[len(n.stack)-1].screen
}

// Previous returns the screen below the top one, or nil.
func (n *Navigator) Previous() Screen {
	if len(n.stack) < 2 {
		return nil
	}
	return n.stack[len(n.stack)-2].screen
}

// Routes returns the route names from bottom to top.
func (n *Navigator) Routes() []string {
	out := make([]string, len(n.stack))
	for i, e := range n.stack {
		out[i] = e.settings.Name
	}
	return out
}

// Reset disposes every screen.
func (n *Navigator) Reset() {
	for i := len(n.stack) - 1; i >= 0; i-- {
		n.stack[i].screen.Dispose()
	}
	n.stack = nil
}

func (n *Navigator) changed() {
	if n.OnChange != nil {
		n.OnChange(n.Current())
	}
}
