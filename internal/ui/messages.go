// Package ui provides the Bubble Tea TUI for artscroll.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameInterval is the scroll animation frame period.
var frameInterval = time.Second / 60

// frameMsg advances the scroll animation by one frame.
type frameMsg struct{}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}
