package nback

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/berth-dev/nback/internal/clock"
	nlog "github.com/berth-dev/nback/internal/log"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, s Settings, opts ...Option) (*Engine, *clock.Fake, *Recorder) {
	t.Helper()
	fake := clock.NewFake(testEpoch)
	rec := &Recorder{}
	opts = append([]Option{WithClock(fake), WithRand(newTestRand()), WithSurface(rec)}, opts...)
	return New(s, opts...), fake, rec
}

// toFirstTrial starts a session and advances through the lead-in.
func toFirstTrial(t *testing.T, e *Engine, fake *clock.Fake) {
	t.Helper()
	e.Start()
	fake.Advance(e.Settings().LeadIn)
	if st := e.State(); st.TrialNumber != 1 || st.Phase != PhasePresenting {
		t.Fatalf("after lead-in state = %+v, want trial 1 presenting", st)
	}
}

func runToIdle(fake *clock.Fake) {
	for fake.Step() {
	}
}

// responder answers every trial after a fixed delay, correctly or not.
type responder struct {
	Recorder
	e       *Engine
	c       clock.Clock
	delay   time.Duration
	correct bool
}

func (r *responder) Render(s *Stimulus) {
	r.Recorder.Render(s)
	if s == nil {
		return
	}
	r.c.AfterFunc(r.delay, func() {
		view, ok := r.e.Current()
		if !ok {
			return
		}
		if view.ExpectedMatch == r.correct {
			r.e.Match()
		} else {
			r.e.NoMatch()
		}
	})
}

func TestStartSchedulesLeadIn(t *testing.T) {
	e, fake, rec := newTestEngine(t, DefaultSettings())
	e.Start()

	st := e.State()
	if !st.InProgress || st.GameNumber != 1 || st.TrialNumber != 0 || st.ActiveN != 1 {
		t.Fatalf("state after Start = %+v", st)
	}
	if got := rec.OfKind(CmdRender); len(got) != 0 {
		t.Fatalf("rendered %d stimuli before the lead-in elapsed", len(got))
	}

	notes := rec.OfKind(CmdNotify)
	if len(notes) != 2 || notes[0].Message != "Session Started! N=1" || notes[1].Message != "Starting Game 1 (N=1)" {
		t.Errorf("notifications = %+v", notes)
	}

	fake.Advance(e.Settings().LeadIn - time.Millisecond)
	if e.State().TrialNumber != 0 {
		t.Fatal("first trial started before the lead-in elapsed")
	}
	fake.Advance(time.Millisecond)
	renders := rec.OfKind(CmdRender)
	if len(renders) != 1 || renders[0].Stimulus == nil {
		t.Fatalf("renders = %+v, want one stimulus", renders)
	}
	inputs := rec.OfKind(CmdSetInput)
	if last := inputs[len(inputs)-1]; !last.Enabled {
		t.Error("input should be enabled when the stimulus appears")
	}
}

func TestStimulusOffsetClearsGrid(t *testing.T) {
	e, fake, rec := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)
	rec.Clear()

	fake.Advance(999 * time.Millisecond)
	if e.State().Phase != PhasePresenting {
		t.Fatalf("phase = %v before stimulus duration elapsed", e.State().Phase)
	}
	fake.Advance(time.Millisecond)
	if e.State().Phase != PhaseAwaitingResponse {
		t.Fatalf("phase = %v, want awaiting_response", e.State().Phase)
	}
	renders := rec.OfKind(CmdRender)
	if len(renders) != 1 || renders[0].Stimulus != nil {
		t.Errorf("renders = %+v, want a single clear", renders)
	}
	if len(e.Outcomes()) != 0 {
		t.Error("stimulus offset must not resolve the trial")
	}
}

func TestTimeoutResolvesAtWindowClose(t *testing.T) {
	e, fake, _ := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)

	fake.Advance(2499 * time.Millisecond)
	if len(e.Outcomes()) != 0 {
		t.Fatal("trial resolved before the window closed")
	}
	fake.Advance(time.Millisecond)

	outs := e.Outcomes()
	if len(outs) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(outs))
	}
	o := outs[0]
	if o.Action != ActionNone || o.ExpectedMatch || !o.Correct {
		t.Errorf("first-trial timeout outcome = %+v, want correct rejection", o)
	}
	if st := e.State(); st.TrialNumber != 2 || st.Phase != PhasePresenting {
		t.Errorf("state = %+v, want trial 2 presenting", st)
	}
}

func TestEarlyResponseKeepsCadence(t *testing.T) {
	e, fake, _ := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)

	fake.Advance(300 * time.Millisecond)
	e.NoMatch()
	if st := e.State(); st.Phase != PhaseResolved {
		t.Fatalf("phase = %v, want resolved immediately after response", st.Phase)
	}
	e.Match()
	if n := len(e.Outcomes()); n != 1 {
		t.Fatalf("outcomes = %d after a second response, want 1", n)
	}
	if o := e.Outcomes()[0]; o.Action != ActionNoMatch || !o.Correct {
		t.Errorf("outcome = %+v", o)
	}

	fake.Advance(2199 * time.Millisecond)
	if e.State().TrialNumber != 1 {
		t.Fatal("next trial started before the full trial window elapsed")
	}
	fake.Advance(time.Millisecond)
	if e.State().TrialNumber != 2 {
		t.Fatalf("trial = %d, want 2 exactly one window after the first", e.State().TrialNumber)
	}
	if n := len(e.Outcomes()); n != 1 {
		t.Errorf("window close re-resolved an answered trial: %d outcomes", n)
	}
}

func TestResponseDuringAwaitingResponse(t *testing.T) {
	e, fake, _ := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)

	fake.Advance(1800 * time.Millisecond)
	e.Match()
	outs := e.Outcomes()
	if len(outs) != 1 || outs[0].Action != ActionMatch || outs[0].Correct {
		t.Errorf("outcomes = %+v, want one incorrect match", outs)
	}
}

func TestResponsesIgnoredOutsideTrials(t *testing.T) {
	e, fake, rec := newTestEngine(t, DefaultSettings())

	e.Match()
	e.NoMatch()
	if len(rec.Commands()) != 0 {
		t.Errorf("idle engine emitted %d commands for responses", len(rec.Commands()))
	}

	e.Start()
	fake.Advance(time.Second)
	e.Match()
	if len(e.Outcomes()) != 0 {
		t.Error("response during the lead-in was scored")
	}
}

func TestStartIgnoredWhileInProgress(t *testing.T) {
	e, fake, _ := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)
	id := e.SessionID()

	e.Start()
	if st := e.State(); st.TrialNumber != 1 || e.SessionID() != id {
		t.Errorf("second Start disturbed the session: %+v", st)
	}
}

func TestFlashFeedback(t *testing.T) {
	tests := []struct {
		name    string
		act     func(e *Engine)
		flashes []bool
	}{
		{"correct no-match flashes correct", (*Engine).NoMatch, []bool{true}},
		{"wrong match flashes incorrect", (*Engine).Match, []bool{false}},
		{"silent correct rejection is not flashed", func(*Engine) {}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, fake, rec := newTestEngine(t, DefaultSettings())
			toFirstTrial(t, e, fake)
			tt.act(e)
			fake.Advance(e.Settings().TrialWindow())

			got := rec.OfKind(CmdFlash)
			if len(got) != len(tt.flashes) {
				t.Fatalf("flashes = %+v, want %v", got, tt.flashes)
			}
			for i, c := range got {
				if c.Correct != tt.flashes[i] {
					t.Errorf("flash %d = %v, want %v", i, c.Correct, tt.flashes[i])
				}
			}
		})
	}
}

func TestMissedMatchFlashesIncorrect(t *testing.T) {
	s := DefaultSettings()
	s.MatchProbability = 1
	e, fake, rec := newTestEngine(t, s)
	toFirstTrial(t, e, fake)

	// Trial 1 has no 1-back predecessor; trial 2 is forced to match it.
	fake.Advance(s.TrialWindow())
	rec.Clear()
	fake.Advance(s.TrialWindow())

	outs := e.Outcomes()
	if o := outs[1]; !o.ExpectedMatch || o.Action != ActionNone || o.Correct || o.Kind() != Miss {
		t.Fatalf("trial 2 outcome = %+v, want missed match", o)
	}
	flashes := rec.OfKind(CmdFlash)
	if len(flashes) != 1 || flashes[0].Correct {
		t.Errorf("flashes = %+v, want one incorrect", flashes)
	}
}

func TestFullSessionWithoutResponses(t *testing.T) {
	s := DefaultSettings()
	e, fake, rec := newTestEngine(t, s)
	e.Start()
	runToIdle(fake)

	recs := e.Records()
	if len(recs) != s.GamesPerSession {
		t.Fatalf("records = %d, want %d", len(recs), s.GamesPerSession)
	}
	for i, r := range recs {
		if r.GameNumber != i+1 || r.TotalTrials != s.TrialsPerGame {
			t.Errorf("record %d = %+v", i, r)
		}
		if r.Hits+r.Misses+r.FalseAlarms+r.CorrectRejections != r.TotalTrials {
			t.Errorf("record %d tallies do not add up: %+v", i, r)
		}
	}

	hist := e.History()
	outs := e.Outcomes()
	if len(hist) != s.GamesPerSession*s.TrialsPerGame || len(outs) != len(hist) {
		t.Fatalf("history %d / outcomes %d, want %d each", len(hist), len(outs), s.GamesPerSession*s.TrialsPerGame)
	}
	for i, stim := range hist {
		if stim.TrialIndex != i {
			t.Fatalf("history[%d].TrialIndex = %d", i, stim.TrialIndex)
		}
		o := outs[i]
		want := i >= o.N && stim.SameAs(hist[i-o.N])
		if o.ExpectedMatch != want {
			t.Fatalf("trial %d: ExpectedMatch = %v, history says %v", i, o.ExpectedMatch, want)
		}
	}

	rep, ok := e.Report()
	if !ok {
		t.Fatal("no report after the session ended")
	}
	sum := 0
	for _, r := range recs {
		sum += r.AccuracyPct
	}
	if want := float64(sum) / float64(len(recs)); rep.AverageAccuracy != want {
		t.Errorf("AverageAccuracy = %v, want %v", rep.AverageAccuracy, want)
	}
	if len(rec.OfKind(CmdSessionSummary)) != 1 {
		t.Error("session summary should be emitted exactly once")
	}
	if len(rec.OfKind(CmdGameSummary)) == 0 {
		t.Error("no game summaries emitted")
	}
	if st := e.State(); st.InProgress {
		t.Errorf("state after session = %+v", st)
	}
	if fake.Pending() != 0 {
		t.Errorf("%d timers pending after the session", fake.Pending())
	}
}

func TestMatchesSpanGameBoundary(t *testing.T) {
	s := DefaultSettings()
	s.MatchProbability = 1
	s.GamesPerSession = 2
	s.TrialsPerGame = 4
	e, fake, _ := newTestEngine(t, s)
	e.Start()
	runToIdle(fake)

	hist := e.History()
	outs := e.Outcomes()
	if outs[0].ExpectedMatch {
		t.Error("first trial of a session cannot be a match")
	}
	first := outs[4]
	if first.GameNumber != 2 || !first.ExpectedMatch {
		t.Fatalf("game 2 trial 1 = %+v, want a match against game 1", first)
	}
	if !hist[4].SameAs(hist[3]) {
		t.Errorf("game 2 trial 1 %v should repeat game 1 trial 4 %v", hist[4], hist[3])
	}
}

func TestAdaptationAcrossSession(t *testing.T) {
	s := DefaultSettings()
	fake := clock.NewFake(testEpoch)
	r := &responder{c: fake, delay: 400 * time.Millisecond, correct: true}
	e := New(s, WithClock(fake), WithRand(newTestRand()), WithSurface(r))
	r.e = e

	e.Start()
	runToIdle(fake)

	recs := e.Records()
	for i, rec := range recs {
		if rec.AccuracyPct != 100 {
			t.Errorf("game %d accuracy = %d, want 100", i+1, rec.AccuracyPct)
		}
		wantN := 1 + i/5
		if rec.N != wantN {
			t.Errorf("game %d played at N=%d, want %d", i+1, rec.N, wantN)
		}
	}
	rep, _ := e.Report()
	if rep.FinalN != 3 {
		t.Errorf("FinalN = %d, want 3", rep.FinalN)
	}
	if rep.Strength != "Excellent accuracy!" {
		t.Errorf("Strength = %q", rep.Strength)
	}

	var sawUp bool
	for _, c := range r.OfKind(CmdNotify) {
		if c.Message == "Great job! Moving to N = 2" && c.Duration == 3*time.Second {
			sawUp = true
		}
	}
	if !sawUp {
		t.Error("missing increase notification")
	}
}

func TestAdaptationDecreasesAfterPoorGames(t *testing.T) {
	s := DefaultSettings()
	s.StartN = 3
	s.GamesPerSession = 5
	fake := clock.NewFake(testEpoch)
	r := &responder{c: fake, delay: 100 * time.Millisecond, correct: false}
	e := New(s, WithClock(fake), WithRand(newTestRand()), WithSurface(r))
	r.e = e

	e.Start()
	runToIdle(fake)

	rep, _ := e.Report()
	if rep.FinalN != 2 {
		t.Errorf("FinalN = %d, want 2", rep.FinalN)
	}
	if !strings.HasPrefix(rep.Weakness, "Focus on identifying") {
		t.Errorf("Weakness = %q", rep.Weakness)
	}
	if len(e.AdaptationWindow()) != 0 {
		t.Errorf("window = %v, want cleared after the adjustment", e.AdaptationWindow())
	}
}

func TestResetMidTrialCancelsTimers(t *testing.T) {
	e, fake, rec := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)
	fake.Advance(1500 * time.Millisecond)
	if e.State().Phase != PhaseAwaitingResponse {
		t.Fatalf("phase = %v, want awaiting_response", e.State().Phase)
	}

	e.Reset()
	if fake.Pending() != 0 {
		t.Errorf("%d timers still pending after Reset", fake.Pending())
	}
	before := len(rec.Commands())
	fake.Advance(time.Hour)
	if after := len(rec.Commands()); after != before {
		t.Errorf("commands emitted after Reset: %d -> %d", before, after)
	}

	st := e.State()
	if st.InProgress || st.GameNumber != 0 || st.TrialNumber != 0 || st.ActiveN != 1 {
		t.Errorf("state after Reset = %+v", st)
	}
	if len(e.History()) != 0 || len(e.Outcomes()) != 0 || len(e.Records()) != 0 {
		t.Error("Reset should discard history, outcomes and records")
	}
	e.Match()
	if len(e.Outcomes()) != 0 {
		t.Error("response after Reset was scored")
	}
}

// heldClock withholds the first callback scheduled with delay hold so it can
// be delivered late.
type heldClock struct {
	*clock.Fake
	hold time.Duration
	held func()
}

func (c *heldClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	if d == c.hold && c.held == nil {
		c.held = f
		return c.Fake.AfterFunc(d, func() {})
	}
	return c.Fake.AfterFunc(d, f)
}

func TestLateStimulusOffsetLeavesNextTrialAlone(t *testing.T) {
	s := DefaultSettings()
	hc := &heldClock{Fake: clock.NewFake(testEpoch), hold: s.StimulusDuration}
	rec := &Recorder{}
	e := New(s, WithClock(hc), WithRand(newTestRand()), WithSurface(rec))

	toFirstTrial(t, e, hc.Fake)
	if hc.held == nil {
		t.Fatal("first stimulus offset was not scheduled")
	}
	hc.Advance(s.TrialWindow())
	if st := e.State(); st.TrialNumber != 2 || st.Phase != PhasePresenting {
		t.Fatalf("state = %+v, want trial 2 presenting", st)
	}
	rec.Clear()

	hc.held()
	if st := e.State(); st.TrialNumber != 2 || st.Phase != PhasePresenting {
		t.Errorf("after late trial 1 offset state = %+v, want trial 2 presenting", st)
	}
	if cmds := rec.Commands(); len(cmds) != 0 {
		t.Errorf("late trial 1 offset emitted %+v", cmds)
	}

	hc.Advance(s.StimulusDuration)
	if e.State().Phase != PhaseAwaitingResponse {
		t.Fatalf("phase = %v, want trial 2's own offset to apply", e.State().Phase)
	}
	renders := rec.OfKind(CmdRender)
	if len(renders) != 1 || renders[0].Stimulus != nil {
		t.Errorf("renders = %+v, want a single clear", renders)
	}
}

func TestResetThenStartBeginsFresh(t *testing.T) {
	e, fake, _ := newTestEngine(t, DefaultSettings())
	toFirstTrial(t, e, fake)
	fake.Advance(5 * time.Second)
	e.Reset()

	toFirstTrial(t, e, fake)
	hist := e.History()
	if len(hist) != 1 || hist[0].TrialIndex != 0 {
		t.Errorf("history after restart = %+v", hist)
	}
}

type memEventLog struct {
	mu     sync.Mutex
	events []nlog.LogEvent
}

func (m *memEventLog) Append(ev nlog.LogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func TestEventTrace(t *testing.T) {
	s := DefaultSettings()
	s.GamesPerSession = 1
	s.TrialsPerGame = 2
	events := &memEventLog{}
	e, fake, _ := newTestEngine(t, s, WithEventLog(events))
	e.Start()
	runToIdle(fake)

	want := []string{
		nlog.EventSessionStarted,
		nlog.EventGameStarted,
		nlog.EventTrialPresented, nlog.EventTrialResolved,
		nlog.EventTrialPresented, nlog.EventTrialResolved,
		nlog.EventGameCompleted,
		nlog.EventSessionCompleted,
	}
	if len(events.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events.events), len(want))
	}
	id := e.SessionID()
	for i, ev := range events.events {
		if ev.Event != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Event, want[i])
		}
		if ev.SessionID != id {
			t.Errorf("event %d session = %q, want %q", i, ev.SessionID, id)
		}
	}
}

func TestRealClockSession(t *testing.T) {
	s := DefaultSettings()
	s.GamesPerSession = 1
	s.TrialsPerGame = 3
	s.StimulusDuration = 4 * time.Millisecond
	s.InterTrialInterval = 4 * time.Millisecond
	s.LeadIn = 2 * time.Millisecond
	s.InterGamePause = 2 * time.Millisecond

	rec := &Recorder{}
	e := New(s, WithSurface(rec), WithRand(newTestRand()))
	e.Start()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := e.Report(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session did not finish on the real clock")
		}
		e.NoMatch()
		time.Sleep(time.Millisecond)
	}
	if n := len(e.Outcomes()); n != 3 {
		t.Errorf("outcomes = %d, want 3", n)
	}
}
