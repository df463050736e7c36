package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/e2e/pkg/semantics"
)

type stubScreen struct {
	title    string
	disposed bool
}

func (s *stubScreen) Title() string                        { return s.title }
func (s *stubScreen) Build(*BuildContext) []*semantics.Node { return nil }
func (s *stubScreen) Dispose()                             { s.disposed = true }

func newStubNavigator(screens map[string]*stubScreen) (*Navigator, *[]string) {
	var changes []string
	nav := &Navigator{
		OnGenerateRoute: func(settings RouteSettings) Screen {
			if s, ok := screens[settings.Name]; ok {
				return s
			}
			return nil
		},
		OnChange: func(current string) { changes = append(changes, current) },
	}
	return nav, &changes
}

func TestNavigator_PushPop(t *testing.T) {
	home, list := &stubScreen{title: "Home"}, &stubScreen{title: "List"}
	nav, changes := newStubNavigator(map[string]*stubScreen{RouteHome: home, RouteList: list})

	require.NoError(t, nav.PushNamed(RouteHome, nil))
	require.NoError(t, nav.PushNamed(RouteList, nil))
	assert.Equal(t, RouteList, nav.Current())
	assert.Equal(t, []string{RouteHome, RouteList}, nav.Routes())
	assert.Same(t, list, nav.Top())
	assert.Same(t, home, nav.Previous())
	assert.True(t, nav.CanPop())

	assert.True(t, nav.Pop())
	assert.True(t, list.disposed)
	assert.Equal(t, RouteHome, nav.Current())
	assert.Nil(t, nav.Previous())

	assert.False(t, nav.Pop(), "the root is never popped")
	assert.False(t, home.disposed)
	assert.Equal(t, []string{RouteHome, RouteList, RouteHome}, *changes)
}

func TestNavigator_UnknownRoute(t *testing.T) {
	nav, _ := newStubNavigator(map[string]*stubScreen{RouteHome: {title: "Home"}})

	err := nav.PushNamed("/settings", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/settings")
	assert.Empty(t, nav.Routes())
}

func TestNavigator_PopUntilAndReset(t *testing.T) {
	home, list, drag := &stubScreen{}, &stubScreen{}, &stubScreen{}
	nav, _ := newStubNavigator(map[string]*stubScreen{RouteHome: home, RouteList: list, RouteDrag: drag})

	require.NoError(t, nav.PushNamed(RouteHome, nil))
	require.NoError(t, nav.PushNamed(RouteList, nil))
	require.NoError(t, nav.PushNamed(RouteDrag, nil))

	nav.PopUntil(RouteHome)
	assert.Equal(t, RouteHome, nav.Current())
	assert.True(t, list.disposed)
	assert.True(t, drag.disposed)

	nav.Reset()
	assert.True(t, home.disposed)
	assert.Empty(t, nav.Routes())
	assert.Equal(t, "", nav.Current())
}
