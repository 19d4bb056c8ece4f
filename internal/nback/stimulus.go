// Package nback implements the adaptive dual N-back exercise: stimulus
// generation, response scoring, the per-trial timing state machine, the
// difficulty controller and the session controller that ties them together.
//
// The package never renders anything. Every transition produces a list of
// presentation commands that are delivered to a Surface once the engine lock
// is released.
package nback

import "fmt"

// Symbol is one glyph of the stimulus alphabet.
type Symbol string

// Position is a grid slot, numbered 1-9 row by row. The centre slot (5) is
// never used.
type Position int

// Positions lists the eight active grid slots of the 3x3 grid.
var Positions = []Position{1, 2, 3, 4, 6, 7, 8, 9}

// DefaultAlphabet is eight letters followed by eight digits.
var DefaultAlphabet = []Symbol{
	"A", "B", "C", "D", "E", "F", "G", "H",
	"1", "2", "3", "4", "5", "6", "7", "8",
}

// Row returns the zero-based grid row of the position.
func (p Position) Row() int { return (int(p) - 1) / 3 }

// Col returns the zero-based grid column of the position.
func (p Position) Col() int { return (int(p) - 1) % 3 }

// Stimulus is one presented (symbol, position) pair. TrialIndex counts trials
// across the whole session and is never reset between games.
type Stimulus struct {
	Value      Symbol   `json:"value"`
	Position   Position `json:"position"`
	TrialIndex int      `json:"trial_index"`
}

// SameAs reports whether both stimuli show the same symbol at the same slot.
func (s Stimulus) SameAs(o Stimulus) bool {
	return s.Value == o.Value && s.Position == o.Position
}

func (s Stimulus) String() string {
	return fmt.Sprintf("%s@%d", s.Value, s.Position)
}

// History is the append-only sequence of stimuli presented in a session.
// It survives game boundaries so an N-back target may come from the
// previous game.
type History struct {
	events []Stimulus
}

// Len returns the number of recorded stimuli.
func (h *History) Len() int {
	return len(h.events)
}

// Append records s. TrialIndex values must be strictly increasing; an
// out-of-order stimulus is rejected.
func (h *History) Append(s Stimulus) error {
	if n := len(h.events); n > 0 && s.TrialIndex <= h.events[n-1].TrialIndex {
		return fmt.Errorf("trial index %d does not follow %d", s.TrialIndex, h.events[n-1].TrialIndex)
	}
	h.events = append(h.events, s)
	return nil
}

// Back returns the stimulus n positions before the end of the history, which
// is the N-back target for the next trial.
func (h *History) Back(n int) (Stimulus, bool) {
	if n < 1 || len(h.events) < n {
		return Stimulus{}, false
	}
	return h.events[len(h.events)-n], true
}

// At returns the i-th recorded stimulus.
func (h *History) At(i int) Stimulus {
	return h.events[i]
}

// Events returns a copy of the recorded stimuli.
func (h *History) Events() []Stimulus {
	out := make([]Stimulus, len(h.events))
	copy(out, h.events)
	return out
}

// Reset discards all stimuli.
func (h *History) Reset() {
	h.events = nil
}
