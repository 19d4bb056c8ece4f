// Package views provides the rendering pieces of the training screen.
package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/nback/internal/nback"
	"github.com/berth-dev/nback/internal/tui"
)

// centre is the unused middle cell of the 3x3 grid.
const centre nback.Position = 5

// RenderGrid draws the 3x3 grid with the stimulus (if any) in its cell and
// the frame colored by the current feedback.
func RenderGrid(s *nback.Stimulus, flash tui.Flash) string {
	var cells [3][3]string
	for p := nback.Position(1); p <= 9; p++ {
		cells[p.Row()][p.Col()] = renderCell(p, s)
	}
	rows := make([]string, 0, 3)
	for _, row := range cells {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row[:]...))
	}
	grid := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return tui.GridStyle(flash).Render(grid)
}

func renderCell(p nback.Position, s *nback.Stimulus) string {
	switch {
	case p == centre:
		return tui.CenterCellStyle.Render(" ")
	case s != nil && s.Position == p:
		return tui.ActiveCellStyle.Render(string(s.Value))
	default:
		return tui.CellStyle.Render(" ")
	}
}
