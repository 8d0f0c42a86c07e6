// Package tui provides the Bubble Tea game interface.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	gridSide  = 3
	cellWidth = 7
)

// renderGrid draws the 3x3 stimulus grid with the active position lit.
// active is -1 when no stimulus is on display.
func renderGrid(active int) string {
	rows := make([]string, 0, gridSide)
	for r := 0; r < gridSide; r++ {
		cells := make([]string, 0, gridSide)
		for c := 0; c < gridSide; c++ {
			idx := r*gridSide + c
			style := cellStyle
			content := ""
			if idx == active {
				style = activeCellStyle
				content = "●"
			}
			cells = append(cells, style.Render(centerText(content, cellWidth-2)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// centerText pads the text to the given display width, splitting the
// slack evenly. Wide runes are measured, not counted.
func centerText(text string, width int) string {
	w := runewidth.StringWidth(text)
	if w >= width {
		return text
	}
	left := (width - w) / 2
	right := width - w - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}
