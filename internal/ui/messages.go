package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

// trackLoadedMsg reports that audio for a load request is on disk. gen ties
// the message to the request; completions for superseded requests are
// dropped in Update.
type trackLoadedMsg struct {
	gen  int
	path string
}

type loadFailedMsg struct {
	gen int
	err error
}

type playbackEndedMsg struct {
	gen int
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
