// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"time"

	"github.com/berth-dev/nback/internal/nback"
)

// ============================================================================
// Surface Messages
// ============================================================================

// RenderMsg shows a stimulus on the grid, or clears it when Stimulus is nil.
type RenderMsg struct {
	Stimulus *nback.Stimulus
}

// InputMsg enables or disables the match / no-match keys.
type InputMsg struct {
	Enabled bool
}

// FlashMsg colors the grid with the correctness of the resolved trial.
type FlashMsg struct {
	Correct bool
}

// ClearFlashMsg removes the feedback color.
type ClearFlashMsg struct{}

// NotifyMsg shows a transient message. A zero Duration keeps it until the
// next notification.
type NotifyMsg struct {
	Text     string
	Duration time.Duration
}

// CountersMsg updates the N / game / trial display.
type CountersMsg struct {
	N     int
	Game  int
	Trial int
}

// GameSummaryMsg shows the summary line of the last game. Empty text clears it.
type GameSummaryMsg struct {
	Text string
}

// SessionSummaryMsg carries the end-of-session report.
type SessionSummaryMsg struct {
	Report nback.Report
}

// ============================================================================
// Utility Messages
// ============================================================================

// NoticeExpiredMsg clears the notification with the matching sequence number.
type NoticeExpiredMsg struct {
	Seq int
}

// QuitResetMsg ends the window in which a second quit key press exits.
type QuitResetMsg struct{}

// BridgeClosedMsg is returned by the listener once the bridge is closed.
type BridgeClosedMsg struct{}

// Flash is the feedback color currently shown on the grid.
type Flash int

const (
	FlashNone Flash = iota
	FlashCorrect
	FlashIncorrect
)
