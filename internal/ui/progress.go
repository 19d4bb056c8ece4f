// Package ui provides plain-terminal output for nback.
// This file implements the per-game progress display used by headless runs.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/berth-dev/nback/internal/nback"
)

// GameStatus represents the progress of a single game.
type GameStatus int

const (
	StatusPending   GameStatus = iota // Not started
	StatusPlaying                     // Trials running
	StatusCompleted                   // Summary shown
)

// GameState holds the display state of a single game.
type GameState struct {
	Number  int
	N       int
	Status  GameStatus
	Trial   int
	Summary string
}

// ProgressDisplay is an nback.Surface that prints one line per game. On a
// terminal it redraws in place; otherwise it prints status transitions only.
type ProgressDisplay struct {
	mu          sync.Mutex
	out         io.Writer
	trials      int
	games       []*GameState
	current     int
	notice      string
	isTTY       bool
	linesDrawn  int
	lastPrinted map[int]GameStatus // tracks last printed status per game (non-TTY)
}

var _ nback.Surface = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display for a session of the given shape.
func NewProgressDisplay(out io.Writer, isTTY bool, s nback.Settings) *ProgressDisplay {
	p := &ProgressDisplay{
		out:         out,
		trials:      s.TrialsPerGame,
		isTTY:       isTTY,
		lastPrinted: make(map[int]GameStatus),
	}
	for i := 1; i <= s.GamesPerSession; i++ {
		p.games = append(p.games, &GameState{Number: i})
	}
	return p
}

// UpdateCounters marks the current game as playing.
func (p *ProgressDisplay) UpdateCounters(n, game, trial int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if game == 0 {
		for _, g := range p.games {
			*g = GameState{Number: g.Number}
		}
		p.current = 0
		p.lastPrinted = make(map[int]GameStatus)
		return
	}
	if game > len(p.games) {
		return
	}

	p.current = game
	g := p.games[game-1]
	if g.Status == StatusPending {
		g.Status = StatusPlaying
	}
	if g.Status == StatusPlaying {
		g.N = n
		g.Trial = trial
	}
	p.render()
}

// ShowGameSummary completes the current game.
func (p *ProgressDisplay) ShowGameSummary(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if text == "" || p.current == 0 {
		return
	}
	g := p.games[p.current-1]
	g.Status = StatusCompleted
	g.Trial = p.trials
	g.Summary = text
	p.render()
}

// Notify shows the latest engine notification.
func (p *ProgressDisplay) Notify(msg string, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.notice = msg
	if p.isTTY {
		p.renderTTY()
		return
	}
	fmt.Fprintf(p.out, "  » %s\n", msg)
}

// ShowSessionSummary finalizes the display by moving the cursor below all
// output and printing a summary line.
func (p *ProgressDisplay) ShowSessionSummary(r nback.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isTTY && p.linesDrawn > 0 {
		// Move cursor to end
		fmt.Fprint(p.out, "\n")
	}

	completed := 0
	for _, g := range p.games {
		if g.Status == StatusCompleted {
			completed++
		}
	}
	fmt.Fprintf(p.out, "\nDone: %d/%d games, average %.1f%%, final N = %d\n",
		completed, len(p.games), r.AverageAccuracy, r.FinalN)
}

func (p *ProgressDisplay) Render(*nback.Stimulus) {}
func (p *ProgressDisplay) SetInputEnabled(bool) {}
func (p *ProgressDisplay) Flash(bool) {}
func (p *ProgressDisplay) ClearFlash() {}

// render draws or redraws the progress display.
func (p *ProgressDisplay) render() {
	if !p.isTTY {
		p.renderPlain()
		return
	}
	p.renderTTY()
}

// renderTTY draws the progress display using ANSI escape codes for in-place updates.
func (p *ProgressDisplay) renderTTY() {
	// Move cursor up to overwrite previous output.
	if p.linesDrawn > 0 {
		fmt.Fprintf(p.out, "\033[%dA", p.linesDrawn)
	}

	var buf strings.Builder

	buf.WriteString("\033[2K\033[1mDual N-Back\033[0m\n")
	buf.WriteString("\033[2K\n")

	for _, g := range p.games {
		buf.WriteString("\033[2K")
		buf.WriteString(formatGameLine(g, p.trials))
		buf.WriteString("\n")
	}

	buf.WriteString("\033[2K\n")
	buf.WriteString(fmt.Sprintf("\033[2K\033[33m%s\033[0m\n", p.notice))

	fmt.Fprint(p.out, buf.String())
	p.linesDrawn = len(p.games) + 4 // header + blank + games + blank + notice
}

// renderPlain writes non-TTY output (for CI/piping).
// Only prints on status transitions to avoid duplicate lines.
func (p *ProgressDisplay) renderPlain() {
	for _, g := range p.games {
		if g.Status == StatusPending {
			continue
		}
		if prev, seen := p.lastPrinted[g.Number]; seen && prev == g.Status {
			continue
		}
		fmt.Fprintln(p.out, formatGameLinePlain(g))
		p.lastPrinted[g.Number] = g.Status
	}
}

// formatGameLine formats a single game line with ANSI colors and status icons.
func formatGameLine(g *GameState, trials int) string {
	switch g.Status {
	case StatusCompleted:
		return fmt.Sprintf("  \033[32m✓\033[0m %s \033[90m[N=%d]\033[0m", g.Summary, g.N)
	case StatusPlaying:
		return fmt.Sprintf("  \033[33m▸\033[0m Game %d \033[33m[N=%d, trial %d/%d]\033[0m", g.Number, g.N, g.Trial, trials)
	default:
		return fmt.Sprintf("  \033[90m○ Game %d [pending]\033[0m", g.Number)
	}
}

// formatGameLinePlain formats a game line for non-TTY output.
func formatGameLinePlain(g *GameState) string {
	switch g.Status {
	case StatusCompleted:
		return fmt.Sprintf("[DONE] %s (N=%d)", g.Summary, g.N)
	case StatusPlaying:
		return fmt.Sprintf("[PLAYING] Game %d (N=%d)", g.Number, g.N)
	default:
		return fmt.Sprintf("[PENDING] Game %d", g.Number)
	}
}
