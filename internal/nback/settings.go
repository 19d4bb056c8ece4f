package nback

import "time"

// Settings holds the fixed parameters of a session.
type Settings struct {
	GamesPerSession    int
	TrialsPerGame      int
	StimulusDuration   time.Duration
	InterTrialInterval time.Duration
	LeadIn             time.Duration
	InterGamePause     time.Duration
	MatchProbability   float64
	Alphabet           []Symbol
	StartN             int
	Window             int
	IncreaseAbove      float64
	DecreaseBelow      float64
}

// DefaultSettings returns the standard protocol: 10 games of 20 trials,
// 1s stimulus plus 1.5s inter-trial interval, 25% matches, adaptation over
// 5 games with 85/65 thresholds.
func DefaultSettings() Settings {
	return Settings{
		GamesPerSession:    10,
		TrialsPerGame:      20,
		StimulusDuration:   1000 * time.Millisecond,
		InterTrialInterval: 1500 * time.Millisecond,
		LeadIn:             2000 * time.Millisecond,
		InterGamePause:     2500 * time.Millisecond,
		MatchProbability:   0.25,
		Alphabet:           DefaultAlphabet,
		StartN:             1,
		Window:             5,
		IncreaseAbove:      85,
		DecreaseBelow:      65,
	}
}

// TrialWindow is the fixed cadence between consecutive trial starts.
func (s Settings) TrialWindow() time.Duration {
	return s.StimulusDuration + s.InterTrialInterval
}
