package simulation

import (
	"math/rand/v2"
	"time"

	"github.com/berth-dev/nback/internal/clock"
	"github.com/berth-dev/nback/internal/nback"
)

// Participant answers every stimulus it sees after ReactionTime. With
// probability SilenceRate it stays silent; otherwise it gives the right
// answer with probability Accuracy and the wrong one otherwise.
type Participant struct {
	Accuracy     float64
	SilenceRate  float64
	ReactionTime time.Duration

	rng    *rand.Rand
	clock  clock.Clock
	engine *nback.Engine
}

// NewParticipant creates a participant drawing its choices from rng.
func NewParticipant(accuracy, silenceRate float64, reaction time.Duration, rng *rand.Rand) *Participant {
	return &Participant{
		Accuracy:     accuracy,
		SilenceRate:  silenceRate,
		ReactionTime: reaction,
		rng:          rng,
	}
}

// Attach binds the participant to the engine it answers and the clock the
// engine runs on.
func (p *Participant) Attach(e *nback.Engine, c clock.Clock) {
	p.engine = e
	p.clock = c
}

// Render schedules an answer for each new stimulus.
func (p *Participant) Render(s *nback.Stimulus) {
	if s == nil || p.engine == nil {
		return
	}
	silent := p.rng.Float64() < p.SilenceRate
	right := p.rng.Float64() < p.Accuracy
	if silent {
		return
	}
	trialIndex := s.TrialIndex
	p.clock.AfterFunc(p.ReactionTime, func() {
		view, ok := p.engine.Current()
		if !ok || view.Resolved || view.Stimulus.TrialIndex != trialIndex {
			return
		}
		if view.ExpectedMatch == right {
			p.engine.Match()
		} else {
			p.engine.NoMatch()
		}
	})
}

func (p *Participant) SetInputEnabled(bool) {}
func (p *Participant) Flash(bool) {}
func (p *Participant) ClearFlash() {}
func (p *Participant) Notify(string, time.Duration) {}
func (p *Participant) UpdateCounters(int, int, int) {}
func (p *Participant) ShowGameSummary(string) {}
func (p *Participant) ShowSessionSummary(nback.Report) {}
