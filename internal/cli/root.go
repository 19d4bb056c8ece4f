// Package cli defines Cobra command definitions for the nback CLI.
// This file contains the root command, global flags and config loading.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/berth-dev/nback/internal/config"
	"github.com/berth-dev/nback/internal/tui"
)

var (
	configDir  string
	logLevel   string
	logFile    string
	eventsFile string
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "nback",
	Short: "Adaptive dual N-back trainer",
	Long: `nback runs timed sessions of the dual N-back exercise in the terminal.
Each trial shows a symbol in one cell of a 3x3 grid; answer whether it matches
the stimulus shown N trials earlier. N adapts to your recent accuracy.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !tui.IsTTY() {
			if err := tui.NewFallbackRunner(cmd.OutOrStdout()).Run(); err != nil {
				return err
			}
			return cmd.Help()
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runTrainer(cfg)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config file and env overrides, then applies the
// global flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir := configDir
	if dir == "" {
		dir = config.DefaultDir()
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("events") {
		cfg.Log.Events = eventsFile
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding nback/config.yaml (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write diagnostics to this file")
	rootCmd.PersistentFlags().StringVar(&eventsFile, "events", "", "Append the session event trace (JSONL) to this file")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(configCmd)
}
