package views

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/nback/internal/nback"
	"github.com/berth-dev/nback/internal/tui"
)

func TestRenderGrid_ShowsStimulus(t *testing.T) {
	s := &nback.Stimulus{Value: "Z", Position: 3}
	out := RenderGrid(s, tui.FlashNone)

	if n := strings.Count(out, "Z"); n != 1 {
		t.Errorf("grid contains %d Z, want 1:\n%s", n, out)
	}
}

func TestRenderGrid_Empty(t *testing.T) {
	out := RenderGrid(nil, tui.FlashNone)
	if strings.Contains(out, "Z") {
		t.Errorf("empty grid contains a stimulus:\n%s", out)
	}
}

func TestRenderGrid_StableLayout(t *testing.T) {
	empty := RenderGrid(nil, tui.FlashNone)
	for _, p := range nback.Positions {
		out := RenderGrid(&nback.Stimulus{Value: "Z", Position: p}, tui.FlashCorrect)
		if lipgloss.Width(out) != lipgloss.Width(empty) || lipgloss.Height(out) != lipgloss.Height(empty) {
			t.Errorf("position %d: size %dx%d, want %dx%d", p,
				lipgloss.Width(out), lipgloss.Height(out), lipgloss.Width(empty), lipgloss.Height(empty))
		}
	}
}

func TestRenderGrid_StimulusRowFollowsPosition(t *testing.T) {
	top := RenderGrid(&nback.Stimulus{Value: "Z", Position: 1}, tui.FlashNone)
	bottom := RenderGrid(&nback.Stimulus{Value: "Z", Position: 9}, tui.FlashNone)

	lineOf := func(s string) int {
		for i, l := range strings.Split(s, "\n") {
			if strings.Contains(l, "Z") {
				return i
			}
		}
		return -1
	}
	if lineOf(top) >= lineOf(bottom) {
		t.Errorf("position 1 on line %d, position 9 on line %d", lineOf(top), lineOf(bottom))
	}
}

func TestRenderGrid_StimulusColumnFollowsPosition(t *testing.T) {
	cell := func(p nback.Position) (line, col int) {
		for i, l := range strings.Split(RenderGrid(&nback.Stimulus{Value: "Z", Position: p}, tui.FlashNone), "\n") {
			if j := strings.Index(l, "Z"); j >= 0 {
				return i, j
			}
		}
		return -1, -1
	}
	leftLine, leftCol := cell(4)
	rightLine, rightCol := cell(6)
	if leftLine != rightLine {
		t.Errorf("positions 4 and 6 on lines %d and %d, want the same row", leftLine, rightLine)
	}
	if leftCol >= rightCol {
		t.Errorf("position 4 at column %d, position 6 at column %d", leftCol, rightCol)
	}
}

func TestRenderStatus(t *testing.T) {
	idle := RenderStatus(Counters{N: 2})
	if !strings.Contains(idle, "N = 2") || strings.Contains(idle, "Game") {
		t.Errorf("idle status = %q", idle)
	}

	running := RenderStatus(Counters{N: 3, Game: 4, Games: 10, Trial: 7, Trials: 20})
	for _, want := range []string{"N = 3", "Game 4/10", "Trial 7/20"} {
		if !strings.Contains(running, want) {
			t.Errorf("status %q missing %q", running, want)
		}
	}
}

func TestRenderReport(t *testing.T) {
	r := nback.BuildReport([]nback.GameRecord{{GameNumber: 1, N: 1, TotalTrials: 20, CorrectCount: 18, AccuracyPct: 90}}, 1, 85, 65)
	out := RenderReport(r)

	for _, want := range []string{"Session Report", "Average Accuracy", "Excellent accuracy!"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
