package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/berth-dev/nback/internal/clock"
	"github.com/berth-dev/nback/internal/nback"
)

// Options configures a simulated session.
type Options struct {
	Accuracy     float64
	SilenceRate  float64
	ReactionTime time.Duration
	// Seed drives both stimulus generation and the participant.
	Seed   uint64
	Logger *slog.Logger
	Events nback.EventLog
	// Surface, when set, also receives every presentation command.
	Surface nback.Surface
}

// DefaultOptions is a fairly strong participant answering after 600ms.
func DefaultOptions() Options {
	return Options{
		Accuracy:     0.9,
		ReactionTime: 600 * time.Millisecond,
		Seed:         1,
	}
}

// Result is everything a simulated session produced.
type Result struct {
	SessionID string
	Report    nback.Report
	Outcomes  []nback.TrialOutcome
	History   []nback.Stimulus
	Commands  []nback.Command
	Elapsed   time.Duration
}

// ErrIncomplete is returned when the clock ran dry before the session ended.
var ErrIncomplete = errors.New("session ended without a report")

var simEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Run plays one full session and returns its report.
func Run(ctx context.Context, settings nback.Settings, opts Options) (Result, error) {
	if opts.ReactionTime < 0 || opts.ReactionTime >= settings.TrialWindow() {
		return Result{}, fmt.Errorf("reaction time %v must be within the %v trial window", opts.ReactionTime, settings.TrialWindow())
	}

	fake := clock.NewFake(simEpoch)
	rec := &nback.Recorder{}
	p := NewParticipant(opts.Accuracy, opts.SilenceRate, opts.ReactionTime, rand.New(rand.NewPCG(opts.Seed, 2)))

	surfaces := nback.Tee{rec, p}
	if opts.Surface != nil {
		surfaces = append(surfaces, opts.Surface)
	}

	engineOpts := []nback.Option{
		nback.WithClock(fake),
		nback.WithRand(rand.New(rand.NewPCG(opts.Seed, 1))),
		nback.WithSurface(surfaces),
	}
	if opts.Logger != nil {
		engineOpts = append(engineOpts, nback.WithLogger(opts.Logger))
	}
	if opts.Events != nil {
		engineOpts = append(engineOpts, nback.WithEventLog(opts.Events))
	}
	e := nback.New(settings, engineOpts...)
	p.Attach(e, fake)

	e.Start()
	for fake.Step() {
		if err := ctx.Err(); err != nil {
			e.Reset()
			return Result{}, fmt.Errorf("simulation interrupted: %w", err)
		}
	}

	rep, ok := e.Report()
	if !ok {
		return Result{}, ErrIncomplete
	}
	return Result{
		SessionID: e.SessionID(),
		Report:    rep,
		Outcomes:  e.Outcomes(),
		History:   e.History(),
		Commands:  rec.Commands(),
		Elapsed:   fake.Now().Sub(simEpoch),
	}, nil
}
