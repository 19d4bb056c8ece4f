package nback

import "math/rand/v2"

// Generator draws stimuli so that roughly MatchProbability of trials repeat
// their N-back predecessor, while still allowing incidental matches from the
// uniform draw.
type Generator struct {
	rng       *rand.Rand
	alphabet  []Symbol
	positions []Position
	matchProb float64
}

// NewGenerator creates a Generator. An empty alphabet falls back to
// DefaultAlphabet.
func NewGenerator(rng *rand.Rand, alphabet []Symbol, matchProb float64) *Generator {
	if len(alphabet) == 0 {
		alphabet = DefaultAlphabet
	}
	return &Generator{
		rng:       rng,
		alphabet:  alphabet,
		positions: Positions,
		matchProb: matchProb,
	}
}

// Next produces the stimulus for the next trial against history at level n
// and reports whether it matches the stimulus n trials back. The returned
// stimulus carries the next TrialIndex but is not appended to history.
func (g *Generator) Next(history *History, n int) (Stimulus, bool) {
	next := Stimulus{TrialIndex: nextTrialIndex(history)}

	target, candidate := history.Back(n)
	if candidate && g.rng.Float64() < g.matchProb {
		next.Value = target.Value
		next.Position = target.Position
		return next, true
	}

	next.Value = g.alphabet[g.rng.IntN(len(g.alphabet))]
	next.Position = g.positions[g.rng.IntN(len(g.positions))]
	return next, candidate && next.SameAs(target)
}

func nextTrialIndex(h *History) int {
	if h.Len() == 0 {
		return 0
	}
	return h.At(h.Len()-1).TrialIndex + 1
}
