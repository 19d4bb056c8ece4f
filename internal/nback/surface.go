package nback

import (
	"sync"
	"time"
)

// Surface is the presentation side of the exercise. Implementations render
// the grid and status texts; they never mutate engine state.
type Surface interface {
	// Render shows s on the grid, or clears the grid when s is nil.
	Render(s *Stimulus)
	SetInputEnabled(enabled bool)
	// Flash gives transient correctness feedback until ClearFlash.
	Flash(correct bool)
	ClearFlash()
	// Notify shows a status message for d; d == 0 keeps it until replaced.
	Notify(message string, d time.Duration)
	UpdateCounters(n, game, trial int)
	ShowGameSummary(text string)
	ShowSessionSummary(r Report)
}

// CommandKind identifies a presentation command.
type CommandKind int

const (
	CmdRender CommandKind = iota
	CmdSetInput
	CmdFlash
	CmdClearFlash
	CmdNotify
	CmdCounters
	CmdGameSummary
	CmdSessionSummary
)

var commandNames = map[CommandKind]string{
	CmdRender:         "render",
	CmdSetInput:       "set_input",
	CmdFlash:          "flash",
	CmdClearFlash:     "clear_flash",
	CmdNotify:         "notify",
	CmdCounters:       "counters",
	CmdGameSummary:    "game_summary",
	CmdSessionSummary: "session_summary",
}

func (k CommandKind) String() string {
	return commandNames[k]
}

// Command is one presentation side effect produced by a state transition.
// Only the fields relevant to Kind are set.
type Command struct {
	Kind     CommandKind
	Stimulus *Stimulus
	Enabled  bool
	Correct  bool
	Message  string
	Duration time.Duration
	N        int
	Game     int
	Trial    int
	Report   *Report
}

// Apply delivers the command to s.
func (c Command) Apply(s Surface) {
	switch c.Kind {
	case CmdRender:
		s.Render(c.Stimulus)
	case CmdSetInput:
		s.SetInputEnabled(c.Enabled)
	case CmdFlash:
		s.Flash(c.Correct)
	case CmdClearFlash:
		s.ClearFlash()
	case CmdNotify:
		s.Notify(c.Message, c.Duration)
	case CmdCounters:
		s.UpdateCounters(c.N, c.Game, c.Trial)
	case CmdGameSummary:
		s.ShowGameSummary(c.Message)
	case CmdSessionSummary:
		if c.Report != nil {
			s.ShowSessionSummary(*c.Report)
		}
	}
}

func renderCmd(s *Stimulus) Command {
	if s != nil {
		cp := *s
		s = &cp
	}
	return Command{Kind: CmdRender, Stimulus: s}
}

func inputCmd(enabled bool) Command {
	return Command{Kind: CmdSetInput, Enabled: enabled}
}

func flashCmd(correct bool) Command {
	return Command{Kind: CmdFlash, Correct: correct}
}

func notifyCmd(msg string, d time.Duration) Command {
	return Command{Kind: CmdNotify, Message: msg, Duration: d}
}

func countersCmd(st State) Command {
	return Command{Kind: CmdCounters, N: st.ActiveN, Game: st.GameNumber, Trial: st.TrialNumber}
}

// Recorder is a Surface that keeps every command it receives. It is safe for
// concurrent use and is what headless runs and tests attach to an Engine.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

func (r *Recorder) add(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, c)
}

func (r *Recorder) Render(s *Stimulus) { r.add(renderCmd(s)) }
func (r *Recorder) SetInputEnabled(enabled bool) { r.add(inputCmd(enabled)) }
func (r *Recorder) Flash(correct bool) { r.add(flashCmd(correct)) }
func (r *Recorder) ClearFlash() { r.add(Command{Kind: CmdClearFlash}) }
func (r *Recorder) Notify(msg string, d time.Duration) { r.add(notifyCmd(msg, d)) }
func (r *Recorder) ShowGameSummary(text string) { r.add(Command{Kind: CmdGameSummary, Message: text}) }

func (r *Recorder) UpdateCounters(n, game, trial int) {
	r.add(Command{Kind: CmdCounters, N: n, Game: game, Trial: trial})
}

func (r *Recorder) ShowSessionSummary(rep Report) {
	r.add(Command{Kind: CmdSessionSummary, Report: &rep})
}

// Commands returns a copy of everything recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// OfKind returns the recorded commands of the given kind, in order.
func (r *Recorder) OfKind(kind CommandKind) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Command
	for _, c := range r.commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Clear drops the recorded commands.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

// Tee fans every command out to several surfaces in order.
type Tee []Surface

func (t Tee) each(c Command) {
	for _, s := range t {
		c.Apply(s)
	}
}

func (t Tee) Render(s *Stimulus) { t.each(renderCmd(s)) }
func (t Tee) SetInputEnabled(enabled bool) { t.each(inputCmd(enabled)) }
func (t Tee) Flash(correct bool) { t.each(flashCmd(correct)) }
func (t Tee) ClearFlash() { t.each(Command{Kind: CmdClearFlash}) }
func (t Tee) Notify(msg string, d time.Duration) { t.each(notifyCmd(msg, d)) }
func (t Tee) ShowGameSummary(text string) { t.each(Command{Kind: CmdGameSummary, Message: text}) }
func (t Tee) UpdateCounters(n, game, trial int) { t.each(Command{Kind: CmdCounters, N: n, Game: game, Trial: trial}) }
func (t Tee) ShowSessionSummary(rep Report) { t.each(Command{Kind: CmdSessionSummary, Report: &rep}) }
