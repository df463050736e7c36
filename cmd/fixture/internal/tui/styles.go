package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the terminal host's styles.
var Theme = struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Screen  lipgloss.Style
	Alert   lipgloss.Style
	Pressed lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7B61FF")),
	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5A9")),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F87")),
	Screen: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#666666")),
	Alert: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFD75F")),
	Pressed: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F")),
}
