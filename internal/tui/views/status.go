package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/nback/internal/nback"
	"github.com/berth-dev/nback/internal/tui"
)

// Counters is what the status bar shows.
type Counters struct {
	N      int
	Game   int
	Games  int
	Trial  int
	Trials int
}

// RenderStatus renders the N / game / trial bar.
func RenderStatus(c Counters) string {
	if c.Game == 0 {
		return tui.StatusBarStyle.Render(fmt.Sprintf("N = %d", max(c.N, 1)))
	}
	return tui.StatusBarStyle.Render(fmt.Sprintf("N = %d   Game %d/%d   Trial %d/%d",
		c.N, c.Game, c.Games, c.Trial, c.Trials))
}

// RenderFeedback renders the correctness label shown under the grid.
func RenderFeedback(f tui.Flash) string {
	switch f {
	case tui.FlashCorrect:
		return tui.SuccessStyle.Render("✓ correct")
	case tui.FlashIncorrect:
		return tui.ErrorStyle.Render("✗ incorrect")
	default:
		return " "
	}
}

// RenderReport renders the end-of-session report in a box.
func RenderReport(r nback.Report) string {
	body := strings.TrimRight(r.Format(), "\n")
	return tui.BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		tui.TitleStyle.Render("Session Report"),
		"",
		body,
	))
}
