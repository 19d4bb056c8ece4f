// Package log provides structured event logging.
// This file appends JSON session events to an events.jsonl trace.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventSessionStarted   = "session_started"
	EventGameStarted      = "game_started"
	EventTrialPresented   = "trial_presented"
	EventTrialResolved    = "trial_resolved"
	EventNAdjusted        = "n_adjusted"
	EventGameCompleted    = "game_completed"
	EventSessionCompleted = "session_completed"
	EventSessionReset     = "session_reset"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time          time.Time              `json:"time"`
	Event         string                 `json:"event"`
	SessionID     string                 `json:"session,omitempty"`
	Game          int                    `json:"game,omitempty"`
	Trial         int                    `json:"trial,omitempty"`
	N             int                    `json:"n,omitempty"`
	FromN         int                    `json:"from_n,omitempty"`
	Stimulus      string                 `json:"stimulus,omitempty"`
	ExpectedMatch bool                   `json:"expected_match,omitempty"`
	Action        string                 `json:"action,omitempty"`
	Correct       *bool                  `json:"correct,omitempty"`
	AccuracyPct   int                    `json:"accuracy_pct,omitempty"`
	Average       float64                `json:"average,omitempty"`
	Scores        []int                  `json:"scores,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
}

// Logger writes append-only JSONL events to a log file.
// A nil *Logger discards everything.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to path.
// Creates the parent directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &Logger{path: path}, nil
}

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// The file is opened in append mode, written to, and then closed.
// Thread-safe via mutex.
func (l *Logger) Append(event LogEvent) error {
	if l == nil {
		return nil
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	if l == nil {
		return []LogEvent{}, nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
