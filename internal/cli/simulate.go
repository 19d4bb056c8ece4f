// simulate.go implements "nback simulate", a headless session played by a
// synthetic participant on simulated time.
package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	nlog "github.com/berth-dev/nback/internal/log"
	"github.com/berth-dev/nback/internal/nback"
	"github.com/berth-dev/nback/internal/simulation"
	"github.com/berth-dev/nback/internal/tui"
	"github.com/berth-dev/nback/internal/ui"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a full session with a synthetic participant",
	Long: `Run a complete session on a simulated clock. A synthetic participant
answers every stimulus after a fixed reaction time, correctly with the given
accuracy, or stays silent with the given silence rate. Prints the report.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

var (
	accuracyFlag float64
	silenceFlag  float64
	reactionFlag time.Duration
	seedFlag     uint64
	jsonFlag     bool
	verboseFlag  bool
)

func init() {
	simulateCmd.Flags().Float64Var(&accuracyFlag, "accuracy", 0.9, "Probability of answering correctly")
	simulateCmd.Flags().Float64Var(&silenceFlag, "silence", 0, "Probability of not answering a trial")
	simulateCmd.Flags().DurationVar(&reactionFlag, "reaction", 600*time.Millisecond, "Reaction time after stimulus onset")
	simulateCmd.Flags().Uint64Var(&seedFlag, "seed", 0, "Random seed (default: config seed, or 1)")
	simulateCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
	simulateCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show per-game progress and notifications")
}

// simulationOutput is the --json document.
type simulationOutput struct {
	SessionID string               `json:"session_id"`
	Seed      uint64               `json:"seed"`
	ElapsedMs int64                `json:"elapsed_ms"`
	Report    nback.Report         `json:"report"`
	Outcomes  []nback.TrialOutcome `json:"outcomes"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if accuracyFlag < 0 || accuracyFlag > 1 {
		return fmt.Errorf("--accuracy must be within [0,1], got %v", accuracyFlag)
	}
	if silenceFlag < 0 || silenceFlag > 1 {
		return fmt.Errorf("--silence must be within [0,1], got %v", silenceFlag)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	seed := seedFlag
	if seed == 0 {
		seed = cfg.Stimuli.Seed
	}
	if seed == 0 {
		seed = 1
	}

	opts := simulation.Options{
		Accuracy:     accuracyFlag,
		SilenceRate:  silenceFlag,
		ReactionTime: reactionFlag,
		Seed:         seed,
		Logger:       nlog.NewSlog(cfg.Log.Level, cmd.ErrOrStderr()),
	}
	if cfg.Log.Events != "" {
		events, err := nlog.NewLogger(cfg.Log.Events)
		if err != nil {
			return err
		}
		opts.Events = events
	}

	settings := cfg.Settings()
	if verboseFlag {
		// Keep stdout clean for the JSON document.
		if jsonFlag {
			opts.Surface = ui.NewProgressDisplay(cmd.ErrOrStderr(), false, settings)
		} else {
			opts.Surface = ui.NewProgressDisplay(cmd.OutOrStdout(), tui.IsTTY(), settings)
		}
	}

	res, err := simulation.Run(cmd.Context(), settings, opts)
	if err != nil {
		return fmt.Errorf("simulating session: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		data, err := json.MarshalIndent(simulationOutput{
			SessionID: res.SessionID,
			Seed:      seed,
			ElapsedMs: res.Elapsed.Milliseconds(),
			Report:    res.Report,
			Outcomes:  res.Outcomes,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Session %s (seed %d, %s simulated)\n\n", res.SessionID, seed, res.Elapsed)
	fmt.Fprint(out, res.Report.Format())
	return nil
}
