// train.go wires the engine to the terminal UI for an interactive session.
package cli

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/berth-dev/nback/internal/config"
	nlog "github.com/berth-dev/nback/internal/log"
	"github.com/berth-dev/nback/internal/nback"
	"github.com/berth-dev/nback/internal/tui"
	"github.com/berth-dev/nback/internal/tui/app"
)

// bridgeBuffer holds a few trials' worth of surface calls.
const bridgeBuffer = 256

func runTrainer(cfg *config.Config) error {
	logger, closeLog, err := nlog.OpenSlog(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	settings := cfg.Settings()
	bridge := tui.NewBridge(bridgeBuffer)

	opts, err := engineOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts = append(opts, nback.WithSurface(bridge))
	engine := nback.New(settings, opts...)

	logger.Info("starting trainer", "games", settings.GamesPerSession, "trials", settings.TrialsPerGame, "start_n", settings.StartN)

	model := app.New(engine, bridge, tui.NewKeyMap(cfg.Keys), settings)
	if err := tui.Run(model); err != nil {
		bridge.Close()
		engine.Reset()
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

// engineOptions returns the options shared by every engine the CLI builds:
// logger, event trace and, when configured, a fixed seed.
func engineOptions(cfg *config.Config, logger *slog.Logger) ([]nback.Option, error) {
	opts := []nback.Option{nback.WithLogger(logger)}

	if cfg.Stimuli.Seed != 0 {
		opts = append(opts, nback.WithRand(rand.New(rand.NewPCG(cfg.Stimuli.Seed, cfg.Stimuli.Seed))))
	}

	if cfg.Log.Events != "" {
		events, err := nlog.NewLogger(cfg.Log.Events)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nback.WithEventLog(events))
	}
	return opts, nil
}
