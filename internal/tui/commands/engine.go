// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/nback/internal/tui"
)

// Controller is the input side of the training engine.
type Controller interface {
	Start()
	Reset()
	Match()
	NoMatch()
}

// ListenCmd waits for the next message the engine pushed through the bridge.
// The app re-issues it after handling every surface message.
func ListenCmd(b *tui.Bridge) tea.Cmd {
	return b.Listen()
}

// StartCmd starts a session off the event loop.
func StartCmd(c Controller) tea.Cmd {
	return func() tea.Msg {
		c.Start()
		return nil
	}
}

// ResetCmd aborts the running session.
func ResetCmd(c Controller) tea.Cmd {
	return func() tea.Msg {
		c.Reset()
		return nil
	}
}

// MatchCmd submits a match response.
func MatchCmd(c Controller) tea.Cmd {
	return func() tea.Msg {
		c.Match()
		return nil
	}
}

// NoMatchCmd submits a no-match response.
func NoMatchCmd(c Controller) tea.Cmd {
	return func() tea.Msg {
		c.NoMatch()
		return nil
	}
}

// ExpireNoticeCmd clears notification seq once d has elapsed.
func ExpireNoticeCmd(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tui.NoticeExpiredMsg{Seq: seq}
	})
}

// QuitResetCmd ends the quit confirmation window after d.
func QuitResetCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tui.QuitResetMsg{}
	})
}
