package nback

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/berth-dev/nback/internal/clock"
	nlog "github.com/berth-dev/nback/internal/log"
)

// Notification durations.
const (
	sessionStartedNotice  = 2000 * time.Millisecond
	gameStartingNotice    = 1500 * time.Millisecond
	adjustmentNotice      = 3000 * time.Millisecond
	nextGameNotice        = 2000 * time.Millisecond
	sessionFinishedNotice = 5000 * time.Millisecond
	sessionResetNotice    = 3000 * time.Millisecond
)

// Phase is the position of the trial state machine.
type Phase int

const (
	PhaseIdle             Phase = iota // no trial running: before a game's first trial or outside a session
	PhasePresenting                    // stimulus on screen
	PhaseAwaitingResponse              // stimulus cleared, response window still open
	PhaseResolved                      // outcome recorded, waiting for the next trial slot
	PhaseGameEnd                       // game finished, next game not started yet
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseAwaitingResponse:
		return "awaiting_response"
	case PhaseResolved:
		return "resolved"
	case PhaseGameEnd:
		return "game_end"
	default:
		return "idle"
	}
}

// State is the control state read by presentation code.
type State struct {
	ActiveN     int
	GameNumber  int
	TrialNumber int
	InProgress  bool
	Phase       Phase
}

// EventLog receives the session event trace.
type EventLog interface {
	Append(event nlog.LogEvent) error
}

// TrialView exposes the running trial.
type TrialView struct {
	Stimulus      Stimulus
	ExpectedMatch bool
	Resolved      bool
	Start         time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock driving all timers. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand sets the random source used for stimulus generation.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSurface sets the presentation surface. Surface methods must not call
// back into the Engine synchronously.
func WithSurface(s Surface) Option {
	return func(e *Engine) { e.surface = s }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEventLog sets the sink for the session event trace.
func WithEventLog(l EventLog) Option {
	return func(e *Engine) { e.events = l }
}

type trial struct {
	stimulus Stimulus
	expected bool
	resolved bool
	start    time.Time
}

// Engine owns one training session. All mutations are serialized through mu;
// timer callbacks and participant actions may arrive on any goroutine.
// Presentation commands are delivered after mu is released, in order.
type Engine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	settings Settings
	clock    clock.Clock
	rng      *rand.Rand
	gen      *Generator
	surface  Surface
	logger   *slog.Logger
	events   EventLog

	sessionID  string
	state      State
	epoch      uint64
	timers     []clock.Timer
	history    History
	outcomes   []TrialOutcome
	records    []GameRecord
	game       GameRecord
	difficulty *Difficulty
	current    trial
	report     *Report
}

// New creates an idle Engine.
func New(settings Settings, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		clock:    clock.Real{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.gen = NewGenerator(e.rng, settings.Alphabet, settings.MatchProbability)
	e.clearLocked()
	return e
}

// Start begins a new session at the starting level. It is ignored while a
// session is already in progress.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state.InProgress {
		e.mu.Unlock()
		e.logger.Debug("start ignored: session in progress")
		return
	}
	e.stopTimersLocked()
	e.clearLocked()
	e.sessionID = uuid.NewString()
	e.state.InProgress = true

	e.logger.Info("session started", "session", e.sessionID, "n", e.state.ActiveN)
	e.logEventLocked(nlog.LogEvent{Event: nlog.EventSessionStarted, N: e.state.ActiveN})

	out := []Command{
		inputCmd(false),
		notifyCmd(fmt.Sprintf("Session Started! N=%d", e.state.ActiveN), sessionStartedNotice),
	}
	out = e.startGameLocked(out)
	e.unlockAndEmit(out)
}

// Reset cancels every pending timer and discards all session state. It is
// valid at any point, including mid-trial.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopTimersLocked()
	if e.sessionID != "" {
		e.logEventLocked(nlog.LogEvent{Event: nlog.EventSessionReset, Game: e.state.GameNumber, Trial: e.state.TrialNumber})
		e.logger.Info("session reset", "session", e.sessionID)
	}
	e.clearLocked()

	out := []Command{
		renderCmd(nil),
		inputCmd(false),
		{Kind: CmdClearFlash},
		{Kind: CmdGameSummary},
		countersCmd(e.state),
		notifyCmd("Session Reset. Start a new session when ready.", sessionResetNotice),
	}
	e.unlockAndEmit(out)
}

// Match records that the participant asserted a match for the current trial.
func (e *Engine) Match() {
	e.respond(ActionMatch)
}

// NoMatch records that the participant asserted no match for the current trial.
func (e *Engine) NoMatch() {
	e.respond(ActionNoMatch)
}

func (e *Engine) respond(a Action) {
	e.mu.Lock()
	if !e.acceptingLocked() {
		e.mu.Unlock()
		e.logger.Debug("response ignored", "action", a.String())
		return
	}
	out := e.resolveLocked(a, nil)
	e.unlockAndEmit(out)
}

func (e *Engine) acceptingLocked() bool {
	if !e.state.InProgress || e.state.TrialNumber == 0 || e.current.resolved {
		return false
	}
	return e.state.Phase == PhasePresenting || e.state.Phase == PhaseAwaitingResponse
}

// ============================================================================
// Transitions (mu held)
// ============================================================================

func (e *Engine) startGameLocked(out []Command) []Command {
	if !e.state.InProgress {
		return out
	}
	e.state.GameNumber++
	e.state.TrialNumber = 0
	e.state.Phase = PhaseIdle
	e.current = trial{}
	e.game = GameRecord{GameNumber: e.state.GameNumber, N: e.state.ActiveN}

	e.logEventLocked(nlog.LogEvent{Event: nlog.EventGameStarted, Game: e.state.GameNumber, N: e.state.ActiveN})

	out = append(out,
		countersCmd(e.state),
		Command{Kind: CmdClearFlash},
		Command{Kind: CmdGameSummary},
		notifyCmd(fmt.Sprintf("Starting Game %d (N=%d)", e.state.GameNumber, e.state.ActiveN), gameStartingNotice),
	)
	e.scheduleLocked(e.settings.LeadIn, e.runTrialLocked)
	return out
}

func (e *Engine) runTrialLocked(out []Command) []Command {
	if e.state.TrialNumber >= e.settings.TrialsPerGame {
		return e.endGameLocked(out)
	}
	e.state.TrialNumber++

	stim, expected := e.gen.Next(&e.history, e.state.ActiveN)
	if err := e.history.Append(stim); err != nil {
		e.logger.Error("append stimulus", "error", err)
	}
	e.current = trial{stimulus: stim, expected: expected, start: e.clock.Now()}
	e.state.Phase = PhasePresenting

	e.logger.Debug("trial presented",
		"game", e.state.GameNumber, "trial", e.state.TrialNumber,
		"stimulus", stim.String(), "expected_match", expected)
	e.logEventLocked(nlog.LogEvent{
		Event:         nlog.EventTrialPresented,
		Game:          e.state.GameNumber,
		Trial:         e.state.TrialNumber,
		N:             e.state.ActiveN,
		Stimulus:      stim.String(),
		ExpectedMatch: expected,
	})

	out = append(out,
		countersCmd(e.state),
		Command{Kind: CmdClearFlash},
		renderCmd(&stim),
		inputCmd(true),
	)
	e.scheduleLocked(e.settings.StimulusDuration, e.forTrial(stim.TrialIndex, e.stimulusOffsetLocked))
	e.scheduleLocked(e.settings.TrialWindow(), e.forTrial(stim.TrialIndex, e.windowClosedLocked))
	return out
}

// forTrial binds a trial's timer step to that trial. Timers are not stopped
// between trials of a game, so a callback delivered late must not act on the
// trial that followed.
func (e *Engine) forTrial(index int, step func([]Command) []Command) func([]Command) []Command {
	return func(out []Command) []Command {
		if e.state.TrialNumber == 0 || e.current.stimulus.TrialIndex != index {
			e.logger.Debug("stale trial timer ignored", "trial_index", index)
			return out
		}
		return step(out)
	}
}

func (e *Engine) stimulusOffsetLocked(out []Command) []Command {
	if e.state.Phase == PhasePresenting {
		e.state.Phase = PhaseAwaitingResponse
	}
	return append(out, renderCmd(nil))
}

// windowClosedLocked fires exactly one trial window after the trial started,
// whether or not the participant already responded.
func (e *Engine) windowClosedLocked(out []Command) []Command {
	if !e.current.resolved {
		out = e.resolveLocked(ActionNone, out)
	}
	return e.runTrialLocked(out)
}

func (e *Engine) resolveLocked(a Action, out []Command) []Command {
	correct := Score(e.current.expected, a)
	o := TrialOutcome{
		TrialIndex:    e.current.stimulus.TrialIndex,
		GameNumber:    e.state.GameNumber,
		N:             e.state.ActiveN,
		ExpectedMatch: e.current.expected,
		Action:        a,
		Correct:       correct,
	}
	e.current.resolved = true
	e.state.Phase = PhaseResolved
	e.outcomes = append(e.outcomes, o)
	e.game.tally(o)

	e.logEventLocked(nlog.LogEvent{
		Event:         nlog.EventTrialResolved,
		Game:          e.state.GameNumber,
		Trial:         e.state.TrialNumber,
		N:             e.state.ActiveN,
		ExpectedMatch: o.ExpectedMatch,
		Action:        a.String(),
		Correct:       &correct,
	})

	switch {
	case a != ActionNone:
		out = append(out, inputCmd(false), flashCmd(correct))
	case !correct:
		out = append(out, flashCmd(false))
	}
	return out
}

func (e *Engine) endGameLocked(out []Command) []Command {
	e.stopTimersLocked()
	e.state.Phase = PhaseGameEnd

	rec := e.game
	if rec.TotalTrials > 0 {
		rec.AccuracyPct = accuracyPct(rec.CorrectCount, rec.TotalTrials)
	}
	e.records = append(e.records, rec)

	e.logger.Info("game completed", "game", rec.GameNumber, "n", rec.N, "accuracy", rec.AccuracyPct)
	e.logEventLocked(nlog.LogEvent{
		Event:       nlog.EventGameCompleted,
		Game:        rec.GameNumber,
		N:           rec.N,
		AccuracyPct: rec.AccuracyPct,
		Data: map[string]interface{}{
			"hits":               rec.Hits,
			"misses":             rec.Misses,
			"false_alarms":       rec.FalseAlarms,
			"correct_rejections": rec.CorrectRejections,
		},
	})

	out = append(out,
		renderCmd(nil),
		inputCmd(false),
		Command{Kind: CmdGameSummary, Message: rec.Summary()},
	)

	if adj, ok := e.difficulty.Observe(rec.AccuracyPct); ok {
		e.state.ActiveN = adj.To
		msg := fmt.Sprintf("Let's adjust. Moving to N = %d", adj.To)
		if adj.Increased() {
			msg = fmt.Sprintf("Great job! Moving to N = %d", adj.To)
		}
		e.logger.Info("difficulty adjusted", "from", adj.From, "to", adj.To, "average", adj.Average)
		e.logEventLocked(nlog.LogEvent{Event: nlog.EventNAdjusted, FromN: adj.From, N: adj.To, Average: adj.Average})
		out = append(out, notifyCmd(msg, adjustmentNotice), countersCmd(e.state))
	}

	if e.state.GameNumber >= e.settings.GamesPerSession {
		return e.endSessionLocked(out)
	}

	out = append(out, notifyCmd("Next game starting soon...", nextGameNotice))
	e.scheduleLocked(e.settings.InterGamePause, e.startGameLocked)
	return out
}

func (e *Engine) endSessionLocked(out []Command) []Command {
	e.state.InProgress = false
	e.state.Phase = PhaseIdle

	rep := BuildReport(e.records, e.state.ActiveN, e.settings.IncreaseAbove, e.settings.DecreaseBelow)
	e.report = &rep

	e.logger.Info("session completed", "session", e.sessionID, "average", rep.AverageAccuracy, "final_n", rep.FinalN)
	e.logEventLocked(nlog.LogEvent{
		Event:   nlog.EventSessionCompleted,
		N:       rep.FinalN,
		Average: rep.AverageAccuracy,
		Scores:  rep.Scores(),
	})

	shown := rep
	shown.Games = append([]GameRecord(nil), rep.Games...)
	return append(out,
		inputCmd(false),
		Command{Kind: CmdSessionSummary, Report: &shown},
		notifyCmd("Session Finished! See report below.", sessionFinishedNotice),
	)
}

// ============================================================================
// Timers and plumbing
// ============================================================================

// scheduleLocked runs step after d unless the timers are stopped first. A
// callback that already started when the timers were stopped sees a newer
// epoch and does nothing.
func (e *Engine) scheduleLocked(d time.Duration, step func([]Command) []Command) {
	epoch := e.epoch
	var t clock.Timer
	t = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		if e.epoch != epoch {
			e.mu.Unlock()
			return
		}
		e.dropTimerLocked(t)
		out := step(nil)
		e.unlockAndEmit(out)
	})
	e.timers = append(e.timers, t)
}

func (e *Engine) dropTimerLocked(t clock.Timer) {
	for i, p := range e.timers {
		if p == t {
			e.timers = append(e.timers[:i], e.timers[i+1:]...)
			return
		}
	}
}

func (e *Engine) stopTimersLocked() {
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
	e.epoch++
}

func (e *Engine) clearLocked() {
	e.history.Reset()
	e.outcomes = nil
	e.records = nil
	e.game = GameRecord{}
	e.current = trial{}
	e.report = nil
	e.sessionID = ""
	e.difficulty = NewDifficulty(e.settings.StartN, e.settings.Window, e.settings.IncreaseAbove, e.settings.DecreaseBelow)
	e.state = State{ActiveN: e.difficulty.N()}
}

func (e *Engine) unlockAndEmit(out []Command) {
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	if e.surface == nil {
		return
	}
	for _, c := range out {
		c.Apply(e.surface)
	}
}

func (e *Engine) logEventLocked(ev nlog.LogEvent) {
	if e.events == nil {
		return
	}
	ev.SessionID = e.sessionID
	ev.Time = e.clock.Now().UTC()
	if err := e.events.Append(ev); err != nil {
		e.logger.Warn("append session event", "event", ev.Event, "error", err)
	}
}

// ============================================================================
// Read access
// ============================================================================

// State returns a snapshot of the control state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SessionID identifies the current or most recent session; empty before the
// first Start and after Reset.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Settings returns the session parameters.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Current returns the running trial, if any.
func (e *Engine) Current() (TrialView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.TrialNumber == 0 {
		return TrialView{}, false
	}
	return TrialView{
		Stimulus:      e.current.stimulus,
		ExpectedMatch: e.current.expected,
		Resolved:      e.current.resolved,
		Start:         e.current.start,
	}, true
}

// History returns every stimulus presented this session.
func (e *Engine) History() []Stimulus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Events()
}

// Outcomes returns every resolved trial this session.
func (e *Engine) Outcomes() []TrialOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]TrialOutcome(nil), e.outcomes...)
}

// Records returns the completed games this session.
func (e *Engine) Records() []GameRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]GameRecord(nil), e.records...)
}

// AdaptationWindow returns the accuracies awaiting a difficulty decision.
func (e *Engine) AdaptationWindow() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.difficulty.Window()
}

// Report returns the session report once the session has ended.
func (e *Engine) Report() (Report, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.report == nil {
		return Report{}, false
	}
	r := *e.report
	r.Games = append([]GameRecord(nil), e.report.Games...)
	return r, true
}
