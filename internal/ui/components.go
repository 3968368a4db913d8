package ui

import (
	"fmt"
	"strings"
)

func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2

	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderVolume(vol float64, muted bool) string {
	if muted {
		return "vol muted"
	}
	return fmt.Sprintf("vol %d%%", int(vol*100))
}

func renderQueueSlot(index, length int) string {
	if length == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", index+1, length)
}
