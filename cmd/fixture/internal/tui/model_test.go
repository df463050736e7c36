package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/orientation"
	fixturetest "github.com/go-drift/e2e/pkg/testing"
)

// testerHost runs the app on a fake clock, pumping after every call.
type testerHost struct {
	t *fixturetest.Tester
}

func (h testerHost) Do(fn func(a *app.App)) error {
	fn(h.t.App())
	h.t.Pump()
	return nil
}

func newModel(t *testing.T) (Model, *fixturetest.Tester) {
	t.Helper()
	tester := fixturetest.NewTesterWithT(t)
	m := New(testerHost{tester})
	m = update(t, m, tea.WindowSizeMsg{Width: 166, Height: 125})
	return m, tester
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// at returns the terminal cell over the center of the element id.
func at(t *testing.T, m Model, tester *fixturetest.Tester, id string) (int, int) {
	t.Helper()
	res := tester.Find(fixturetest.ByText(id))
	require.True(t, res.Exists(), id)
	return m.terminalCell(res.Tree().VisibleRect(res.First()).Center())
}

func mouse(x, y int, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewportRoundTrip(t *testing.T) {
	v := viewport{cols: 82, rows: 60, size: geometry.Size{Width: 820, Height: 1180}}

	p := v.point(10, 20)
	assert.InDelta(t, 105, p.X, 1e-9)
	assert.InDelta(t, 403.1666, p.Y, 1e-3)

	col, row := v.cell(p)
	assert.Equal(t, 10, col)
	assert.Equal(t, 20, row)

	assert.False(t, viewport{}.valid())
}

func TestScreenPointOutsideScreen(t *testing.T) {
	m, _ := newModel(t)

	_, ok := m.screenPoint(0, 0)
	assert.False(t, ok, "header and border are not part of the screen")
	_, ok = m.screenPoint(165, 30)
	assert.False(t, ok)

	p, ok := m.screenPoint(1, 2)
	require.True(t, ok)
	x, y := m.terminalCell(p)
	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)
}

func TestTapSelectsButton(t *testing.T) {
	m, tester := newModel(t)

	x, y := at(t, m, tester, app.IDUncheckedButton)
	m = update(t, m, mouse(x, y, tea.MouseActionPress))
	assert.True(t, m.pressed)
	m = update(t, m, mouse(x, y, tea.MouseActionRelease))
	assert.False(t, m.pressed)

	assert.True(t, tester.Find(fixturetest.ByIdentifier(app.IDUncheckedButton)).First().Selected())
	assert.Equal(t, 0, tester.App().ActivePointers())
}

func TestHoldShowsAlertAndAcceptKey(t *testing.T) {
	m, tester := newModel(t)

	x, y := at(t, m, tester, app.IDLongTapAlert)
	m = update(t, m, mouse(x, y, tea.MouseActionPress))
	tester.Advance(app.LongTapDuration)
	m = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, "Long Tap Alert\nLong Tap Alert", m.snap.alert)
	assert.Contains(t, m.View(), "alert: Long Tap Alert")

	m = update(t, m, mouse(x, y, tea.MouseActionRelease))
	m = update(t, m, runes("a"))
	assert.Nil(t, tester.App().Alert())
	assert.Empty(t, m.snap.alert)
}

func TestDragHandoffWithMouse(t *testing.T) {
	m, tester := newModel(t)
	require.NoError(t, tester.App().Navigate(app.RouteDrag))
	m = update(t, m, tickMsg(time.Now()))

	sx, sy := at(t, m, tester, app.IDDragSource)
	tx, ty := at(t, m, tester, app.IDDragTarget)

	m = update(t, m, mouse(sx, sy, tea.MouseActionPress))
	tester.Advance(600 * time.Millisecond)
	steps := 5
	for i := 1; i <= steps; i++ {
		m = update(t, m, mouse(sx+(tx-sx)*i/steps, sy+(ty-sy)*i/steps, tea.MouseActionMotion))
	}
	m = update(t, m, mouse(tx, ty, tea.MouseActionRelease))

	assert.Equal(t, "Success\nYou long-pressed and dragged onto Button B!", m.snap.alert)
}

func TestTypingGoesToFocusedField(t *testing.T) {
	m, tester := newModel(t)

	x, y := at(t, m, tester, app.IDInputField)
	m = update(t, m, mouse(x, y, tea.MouseActionPress))
	m = update(t, m, mouse(x, y, tea.MouseActionRelease))
	require.True(t, m.snap.keyboard)

	m = update(t, m, runes("hi"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = update(t, m, runes("q"))
	assert.Equal(t, "hi q", tester.Find(fixturetest.ByLabel(app.IDInputField)).First().Value,
		"bound keys are typed while the keyboard is up")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.snap.keyboard)
}

func TestRotateAndBackKeys(t *testing.T) {
	m, tester := newModel(t)

	m = update(t, m, runes("r"))
	assert.Equal(t, orientation.LandscapeRight, tester.App().Orientation().Current())
	assert.Equal(t, orientation.LandscapeRight, m.snap.orient)
	assert.Equal(t, geometry.Size{Width: 1180, Height: 820}, m.snap.size)

	m = update(t, m, runes("b"))
	assert.Equal(t, "nothing to go back from", m.status)

	require.NoError(t, tester.App().Navigate(app.RouteList))
	m = update(t, m, runes("b"))
	assert.Equal(t, app.RouteHome, m.snap.route)
}

func TestWheelScrollsList(t *testing.T) {
	m, tester := newModel(t)
	require.NoError(t, tester.App().Navigate(app.RouteList))
	m = update(t, m, tickMsg(time.Now()))

	x, y := at(t, m, tester, "Row5")
	for i := 0; i < 5; i++ {
		m = update(t, m, tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	}
	assert.False(t, tester.Find(fixturetest.ByText("Row1")).Visible(), "the list scrolled")
}

func TestQuitKey(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewDrawsScreen(t *testing.T) {
	m, _ := newModel(t)
	view := m.View()

	assert.Contains(t, view, "fixture /")
	assert.Contains(t, view, app.IDEnabledButton)
	assert.Contains(t, view, app.LinkDragView)
	assert.NotContains(t, view, app.IDHiddenButton, "hidden elements are not drawn")
	assert.GreaterOrEqual(t, len(strings.Split(view, "\n")), 120)

	assert.Equal(t, "starting...", New(testerHost{fixturetest.NewTesterWithT(t)}).View())
}
