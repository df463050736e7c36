// Package tui hosts the fixture app in a terminal. Mouse presses, holds and
// drags become pointer events in window coordinates, so the long-press and
// drag-handoff gestures can be tried by hand.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-drift/e2e/pkg/app"
	"github.com/go-drift/e2e/pkg/geometry"
	"github.com/go-drift/e2e/pkg/gestures"
	"github.com/go-drift/e2e/pkg/orientation"
	"github.com/go-drift/e2e/pkg/semantics"
)

// refreshInterval is how often the screen is rebuilt so that timer-driven
// changes, like a long-press alert, show up without input.
const refreshInterval = 100 * time.Millisecond

// Rows taken by the header, the screen border, the status line and help.
const (
	headerRows = 1
	chromeRows = headerRows + 2 + 2
	chromeCols = 2
)

// wheelStep is the drag distance of one mouse wheel notch, in points.
const wheelStep = 120.0

// rotations is the order the rotate key steps through.
var rotations = []orientation.Orientation{
	orientation.Portrait,
	orientation.LandscapeRight,
	orientation.PortraitUpsideDown,
	orientation.LandscapeLeft,
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// snapshot is the app state the view draws.
type snapshot struct {
	tree     *semantics.Tree
	size     geometry.Size
	route    string
	orient   orientation.Orientation
	alert    string
	keyboard bool
}

// Model is the bubbletea model of the terminal host.
type Model struct {
	host Host
	keys keyMap
	help help.Model

	width, height int
	snap          snapshot

	pointer     int64
	nextPointer int64
	pressed     bool
	last        geometry.Offset

	status string
	err    error
}

// New creates a model driving host.
func New(host Host) Model {
	m := Model{host: host, keys: defaultKeyMap(), help: help.New()}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) do(fn func(a *app.App)) {
	if err := m.host.Do(fn); err != nil {
		m.err = err
	}
}

func (m *Model) refresh() {
	m.do(func(a *app.App) {
		s := snapshot{
			tree:     a.Tree(),
			size:     a.Window().Size(),
			route:    a.Route(),
			orient:   a.Orientation().Current(),
			keyboard: a.Keyboard().Visible(),
		}
		if alert := a.Alert(); alert != nil {
			s.alert = alert.Text()
		}
		m.snap = s
	})
}

func (m Model) viewport() viewport {
	return viewport{
		cols: m.width - chromeCols,
		rows: m.height - chromeRows,
		size: m.snap.size,
	}
}

// screenPoint maps a terminal position to a window point. ok is false
// outside the drawn screen.
func (m Model) screenPoint(x, y int) (geometry.Offset, bool) {
	v := m.viewport()
	col, row := x-1, y-headerRows-1
	if !v.valid() || col < 0 || row < 0 || col >= v.cols || row >= v.rows {
		return geometry.Offset{}, false
	}
	return v.point(col, row), true
}

// terminalCell is the inverse of screenPoint.
func (m Model) terminalCell(p geometry.Offset) (x, y int) {
	col, row := m.viewport().cell(p)
	return col + 1, row + headerRows + 1
}

func (m *Model) send(phase gestures.PointerPhase, pos geometry.Offset) {
	ev := gestures.PointerEvent{
		PointerID: m.pointer,
		Position:  pos,
		Delta:     pos.Sub(m.last),
		Phase:     phase,
	}
	m.last = pos
	m.do(func(a *app.App) { a.HandlePointer(ev) })
}

func (m *Model) mouse(msg tea.MouseMsg) {
	pos, inside := m.screenPoint(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		if !inside || m.pressed {
			return
		}
		dy := wheelStep
		if msg.Button == tea.MouseButtonWheelDown {
			dy = -wheelStep
		}
		m.scroll(pos, dy)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inside {
			return
		}
		m.nextPointer++
		m.pointer = m.nextPointer
		m.pressed = true
		m.last = pos
		m.send(gestures.PointerPhaseDown, pos)
		m.status = fmt.Sprintf("down at (%.0f, %.0f)", pos.X, pos.Y)
	case msg.Action == tea.MouseActionMotion && m.pressed:
		if !inside {
			return
		}
		m.send(gestures.PointerPhaseMove, pos)
	case msg.Action == tea.MouseActionRelease && m.pressed:
		if !inside {
			pos = m.last
		}
		m.send(gestures.PointerPhaseUp, pos)
		m.pressed = false
		m.status = fmt.Sprintf("up at (%.0f, %.0f)", pos.X, pos.Y)
	}
}

// scroll drags vertically from pos by dy points.
func (m *Model) scroll(pos geometry.Offset, dy float64) {
	m.nextPointer++
	m.pointer = m.nextPointer
	m.last = pos
	m.send(gestures.PointerPhaseDown, pos)
	const steps = 4
	for i := 1; i <= steps; i++ {
		m.send(gestures.PointerPhaseMove, geometry.Offset{X: pos.X, Y: pos.Y + dy*float64(i)/steps})
	}
	m.send(gestures.PointerPhaseUp, m.last)
}

func (m *Model) typing(msg tea.KeyMsg) bool {
	if !m.snap.keyboard {
		return false
	}
	var text string
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		text = string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
	case tea.KeyEnter:
		text = "\n"
	case tea.KeyEsc:
		m.do(func(a *app.App) { _ = a.Keyboard().Dismiss() })
		return true
	default:
		return false
	}
	m.do(func(a *app.App) {
		if err := a.TypeText(text); err != nil {
			m.err = err
		}
	})
	return true
}

func (m *Model) command(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Back):
		m.do(func(a *app.App) {
			if !a.Back() {
				m.status = "nothing to go back from"
			}
		})
	case key.Matches(msg, m.keys.Rotate):
		next := rotations[0]
		for i, o := range rotations {
			if o == m.snap.orient {
				next = rotations[(i+1)%len(rotations)]
			}
		}
		m.do(func(a *app.App) { a.SetOrientation(next) })
		m.status = "rotated to " + next.String()
	case key.Matches(msg, m.keys.Accept):
		m.do(func(a *app.App) { m.err = a.AcceptAlert("") })
	case key.Matches(msg, m.keys.Dismiss):
		m.do(func(a *app.App) { m.err = a.DismissAlert("") })
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case tickMsg:
		cmd = tick()
	case tea.MouseMsg:
		m.err = nil
		m.mouse(msg)
	case tea.KeyMsg:
		m.err = nil
		if !m.typing(msg) {
			cmd = m.command(msg)
		}
	}
	m.refresh()
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	v := m.viewport()
	if !v.valid() {
		return "starting..."
	}
	header := Theme.Title.Render(fmt.Sprintf("fixture %s", m.snap.route)) +
		Theme.Status.Render(fmt.Sprintf("  %s  %.0fx%.0f", m.snap.orient, m.snap.size.Width, m.snap.size.Height))

	screen := draw(m.snap.tree, v)
	if m.pressed {
		x, y := v.cell(m.last)
		screen.set(x, y, '●')
	}

	var status string
	switch {
	case m.err != nil:
		status = Theme.Error.Render(m.err.Error())
	case m.snap.alert != "":
		status = Theme.Alert.Render("alert: " + m.snap.alert)
	default:
		status = Theme.Status.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		Theme.Screen.Render(screen.String()),
		status,
		m.help.View(m.keys),
	)
}
