package nback

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GameRecord summarizes one completed game.
type GameRecord struct {
	GameNumber        int `json:"game"`
	N                 int `json:"n"`
	TotalTrials       int `json:"total_trials"`
	CorrectCount      int `json:"correct"`
	AccuracyPct       int `json:"accuracy_pct"`
	Hits              int `json:"hits"`
	Misses            int `json:"misses"`
	FalseAlarms       int `json:"false_alarms"`
	CorrectRejections int `json:"correct_rejections"`
}

// Summary is the one-line text shown when the game ends.
func (g GameRecord) Summary() string {
	return fmt.Sprintf("Game %d: %d%% correct (%d/%d)", g.GameNumber, g.AccuracyPct, g.CorrectCount, g.TotalTrials)
}

func (g *GameRecord) tally(o TrialOutcome) {
	g.TotalTrials++
	if o.Correct {
		g.CorrectCount++
	}
	switch o.Kind() {
	case Hit:
		g.Hits++
	case Miss:
		g.Misses++
	case FalseAlarm:
		g.FalseAlarms++
	case CorrectRejection:
		g.CorrectRejections++
	}
}

// accuracyPct rounds half away from zero; total is always positive.
func accuracyPct(correct, total int) int {
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Report is the end-of-session summary.
type Report struct {
	Games           []GameRecord `json:"games"`
	AverageAccuracy float64      `json:"average_accuracy"`
	FinalN          int          `json:"final_n"`
	Strength        string       `json:"strength"`
	Weakness        string       `json:"weakness"`
}

// BuildReport aggregates the game records of a session. Strength and
// weakness use the same thresholds as difficulty adaptation.
func BuildReport(games []GameRecord, finalN int, increaseAbove, decreaseBelow float64) Report {
	r := Report{
		Games:    append([]GameRecord(nil), games...),
		FinalN:   finalN,
		Strength: "Consistent performance.",
		Weakness: "Keep practicing!",
	}
	if len(games) > 0 {
		sum := 0
		for _, g := range games {
			sum += g.AccuracyPct
		}
		r.AverageAccuracy = float64(sum) / float64(len(games))
	}
	if r.AverageAccuracy > increaseAbove {
		r.Strength = "Excellent accuracy!"
	}
	if r.AverageAccuracy < decreaseBelow {
		r.Weakness = "Focus on identifying matches/non-matches consistently."
	}
	return r
}

// Scores returns the per-game accuracies in game order.
func (r Report) Scores() []int {
	out := make([]int, len(r.Games))
	for i, g := range r.Games {
		out[i] = g.AccuracyPct
	}
	return out
}

// Format renders the report as plain text.
func (r Report) Format() string {
	var b strings.Builder

	scores := make([]string, len(r.Games))
	for i, s := range r.Scores() {
		scores[i] = strconv.Itoa(s) + "%"
	}

	b.WriteString("Session Complete!\n\n")
	fmt.Fprintf(&b, "Average Accuracy:      %.1f%%\n", r.AverageAccuracy)
	fmt.Fprintf(&b, "Final N-Level Reached: %d\n", r.FinalN)
	fmt.Fprintf(&b, "Game Scores:           %s\n", strings.Join(scores, ", "))
	fmt.Fprintf(&b, "Strength:              %s\n", r.Strength)
	fmt.Fprintf(&b, "Weakness:              %s\n", r.Weakness)

	if len(r.Games) > 0 {
		b.WriteString("\n  Game  N  Acc   Hit  Miss  FA  CR\n")
		for _, g := range r.Games {
			fmt.Fprintf(&b, "  %4d %2d %3d%% %5d %5d %3d %3d\n",
				g.GameNumber, g.N, g.AccuracyPct, g.Hits, g.Misses, g.FalseAlarms, g.CorrectRejections)
		}
	}
	return b.String()
}
