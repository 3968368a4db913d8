package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText() string {
	return "space pause  n/p track  ←/→ seek  +/- volume  m mute  h heard  s skip-heard  r reshuffle  x close  q quit"
}
