// Package config handles reading and writing nback/config.yaml and applying
// NBACK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/berth-dev/nback/internal/nback"
)

// Config is the top-level structure for nback/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Session    SessionConfig    `yaml:"session"`
	Timing     TimingConfig     `yaml:"timing"`
	Stimuli    StimuliConfig    `yaml:"stimuli"`
	Adaptation AdaptationConfig `yaml:"adaptation"`
	Keys       KeysConfig       `yaml:"keys"`
	Log        LogConfig        `yaml:"log"`
}

// SessionConfig sets the session shape.
type SessionConfig struct {
	Games  int `yaml:"games" env:"NBACK_GAMES"`
	Trials int `yaml:"trials" env:"NBACK_TRIALS"`
}

// TimingConfig holds the protocol timings, in milliseconds.
type TimingConfig struct {
	StimulusMs       int `yaml:"stimulus_ms" env:"NBACK_STIMULUS_MS"`
	InterTrialMs     int `yaml:"inter_trial_ms" env:"NBACK_INTER_TRIAL_MS"`
	LeadInMs         int `yaml:"lead_in_ms" env:"NBACK_LEAD_IN_MS"`
	InterGamePauseMs int `yaml:"inter_game_pause_ms" env:"NBACK_INTER_GAME_PAUSE_MS"`
}

// StimuliConfig controls stimulus generation.
type StimuliConfig struct {
	Alphabet         []string `yaml:"alphabet" env:"NBACK_ALPHABET" envSeparator:","`
	MatchProbability float64  `yaml:"match_probability" env:"NBACK_MATCH_PROBABILITY"`
	Seed             uint64   `yaml:"seed" env:"NBACK_SEED"` // 0 picks a random seed
}

// AdaptationConfig controls the difficulty controller.
type AdaptationConfig struct {
	StartN        int     `yaml:"start_n" env:"NBACK_START_N"`
	Window        int     `yaml:"window" env:"NBACK_WINDOW"`
	IncreaseAbove float64 `yaml:"increase_above" env:"NBACK_INCREASE_ABOVE"`
	DecreaseBelow float64 `yaml:"decrease_below" env:"NBACK_DECREASE_BELOW"`
}

// KeysConfig maps terminal keys to participant actions.
type KeysConfig struct {
	Match   []string `yaml:"match"`
	NoMatch []string `yaml:"no_match"`
	Start   []string `yaml:"start"`
	Reset   []string `yaml:"reset"`
	Quit    []string `yaml:"quit"`
}

// LogConfig controls diagnostics and the session event trace.
type LogConfig struct {
	Level  string `yaml:"level" env:"NBACK_LOG_LEVEL"`
	File   string `yaml:"file" env:"NBACK_LOG_FILE"`
	Events string `yaml:"events" env:"NBACK_EVENTS_FILE"` // JSONL trace; empty disables
}

const (
	configDir  = "nback"
	configFile = "config.yaml"
)

// Path returns the config file location under dir.
func Path(dir string) string {
	return filepath.Join(dir, configDir, configFile)
}

// DefaultDir returns the user config directory, falling back to the
// working directory when it cannot be determined.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

// ReadConfig reads nback/config.yaml from dir.
// Fields missing from the file keep their defaults.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to nback/config.yaml in dir.
// Creates the nback/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load reads the config file in dir (defaults when it does not exist),
// applies environment overrides and validates the result.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any NBACK_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config populated with the standard protocol.
func DefaultConfig() *Config {
	d := nback.DefaultSettings()
	alphabet := make([]string, len(d.Alphabet))
	for i, s := range d.Alphabet {
		alphabet[i] = string(s)
	}

	return &Config{
		Version: 1,
		Session: SessionConfig{
			Games:  d.GamesPerSession,
			Trials: d.TrialsPerGame,
		},
		Timing: TimingConfig{
			StimulusMs:       int(d.StimulusDuration / time.Millisecond),
			InterTrialMs:     int(d.InterTrialInterval / time.Millisecond),
			LeadInMs:         int(d.LeadIn / time.Millisecond),
			InterGamePauseMs: int(d.InterGamePause / time.Millisecond),
		},
		Stimuli: StimuliConfig{
			Alphabet:         alphabet,
			MatchProbability: d.MatchProbability,
		},
		Adaptation: AdaptationConfig{
			StartN:        d.StartN,
			Window:        d.Window,
			IncreaseAbove: d.IncreaseAbove,
			DecreaseBelow: d.DecreaseBelow,
		},
		Keys: KeysConfig{
			Match:   []string{"m", "left"},
			NoMatch: []string{"n", "right"},
			Start:   []string{"s", "enter"},
			Reset:   []string{"r"},
			Quit:    []string{"q", "ctrl+c"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects settings the exercise cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Session.Games >= 1, "session.games must be at least 1, got %d", c.Session.Games)
	check(c.Session.Trials >= 1, "session.trials must be at least 1, got %d", c.Session.Trials)
	check(c.Timing.StimulusMs > 0, "timing.stimulus_ms must be positive, got %d", c.Timing.StimulusMs)
	check(c.Timing.InterTrialMs >= 0, "timing.inter_trial_ms must not be negative, got %d", c.Timing.InterTrialMs)
	check(c.Timing.LeadInMs >= 0, "timing.lead_in_ms must not be negative, got %d", c.Timing.LeadInMs)
	check(c.Timing.InterGamePauseMs >= 0, "timing.inter_game_pause_ms must not be negative, got %d", c.Timing.InterGamePauseMs)
	check(c.Stimuli.MatchProbability >= 0 && c.Stimuli.MatchProbability <= 1,
		"stimuli.match_probability must be within [0, 1], got %v", c.Stimuli.MatchProbability)
	check(len(c.Stimuli.Alphabet) >= 2, "stimuli.alphabet needs at least 2 symbols, got %d", len(c.Stimuli.Alphabet))
	seen := make(map[string]bool, len(c.Stimuli.Alphabet))
	for _, s := range c.Stimuli.Alphabet {
		check(s != "", "stimuli.alphabet contains an empty symbol")
		check(!seen[s], "stimuli.alphabet repeats %q", s)
		seen[s] = true
	}
	check(c.Adaptation.StartN >= 1, "adaptation.start_n must be at least 1, got %d", c.Adaptation.StartN)
	check(c.Adaptation.Window >= 1, "adaptation.window must be at least 1, got %d", c.Adaptation.Window)
	check(c.Adaptation.DecreaseBelow < c.Adaptation.IncreaseAbove,
		"adaptation.decrease_below (%v) must be below increase_above (%v)",
		c.Adaptation.DecreaseBelow, c.Adaptation.IncreaseAbove)
	errs = append(errs, c.Keys.validate()...)

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// helpKey is bound by the UI itself and cannot be assigned to an action.
const helpKey = "?"

// validate requires every action to have a key and no key to serve two
// actions.
func (k KeysConfig) validate() []error {
	var errs []error
	owner := map[string]string{helpKey: "help"}
	for _, action := range []struct {
		name string
		keys []string
	}{
		{"match", k.Match},
		{"no_match", k.NoMatch},
		{"start", k.Start},
		{"reset", k.Reset},
		{"quit", k.Quit},
	} {
		if len(action.keys) == 0 {
			errs = append(errs, fmt.Errorf("keys.%s must list at least one key", action.name))
			continue
		}
		for _, key := range action.keys {
			switch prev, taken := owner[key]; {
			case key == "":
				errs = append(errs, fmt.Errorf("keys.%s contains an empty key", action.name))
			case taken && prev == action.name:
				errs = append(errs, fmt.Errorf("keys.%s repeats %q", action.name, key))
			case taken:
				errs = append(errs, fmt.Errorf("keys.%s: %q is already bound to %s", action.name, key, prev))
			default:
				owner[key] = action.name
			}
		}
	}
	return errs
}

// Settings converts the config into engine parameters.
func (c *Config) Settings() nback.Settings {
	alphabet := make([]nback.Symbol, len(c.Stimuli.Alphabet))
	for i, s := range c.Stimuli.Alphabet {
		alphabet[i] = nback.Symbol(s)
	}
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	return nback.Settings{
		GamesPerSession:    c.Session.Games,
		TrialsPerGame:      c.Session.Trials,
		StimulusDuration:   ms(c.Timing.StimulusMs),
		InterTrialInterval: ms(c.Timing.InterTrialMs),
		LeadIn:             ms(c.Timing.LeadInMs),
		InterGamePause:     ms(c.Timing.InterGamePauseMs),
		MatchProbability:   c.Stimuli.MatchProbability,
		Alphabet:           alphabet,
		StartN:             c.Adaptation.StartN,
		Window:             c.Adaptation.Window,
		IncreaseAbove:      c.Adaptation.IncreaseAbove,
		DecreaseBelow:      c.Adaptation.DecreaseBelow,
	}
}
