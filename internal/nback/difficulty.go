package nback

// Adjustment describes one change of the N level.
type Adjustment struct {
	From    int
	To      int
	Average float64
}

// Increased reports whether the adjustment raised N.
func (a Adjustment) Increased() bool {
	return a.To > a.From
}

// Difficulty adapts N from the accuracy of the most recent games. It decides
// only once it has a full window of results; any adjustment starts a fresh
// window at the new level.
type Difficulty struct {
	n             int
	window        []int
	size          int
	increaseAbove float64
	decreaseBelow float64
}

// NewDifficulty creates a controller starting at level n (floored at 1).
func NewDifficulty(n, window int, increaseAbove, decreaseBelow float64) *Difficulty {
	if n < 1 {
		n = 1
	}
	if window < 1 {
		window = 1
	}
	return &Difficulty{
		n:             n,
		size:          window,
		increaseAbove: increaseAbove,
		decreaseBelow: decreaseBelow,
	}
}

// N returns the active level.
func (d *Difficulty) N() int {
	return d.n
}

// Window returns a copy of the accuracies awaiting a decision.
func (d *Difficulty) Window() []int {
	out := make([]int, len(d.window))
	copy(out, d.window)
	return out
}

// Observe records the accuracy of a completed game and applies at most one
// step of adjustment.
func (d *Difficulty) Observe(accuracyPct int) (Adjustment, bool) {
	d.window = append(d.window, accuracyPct)
	if len(d.window) > d.size {
		d.window = d.window[len(d.window)-d.size:]
	}
	if len(d.window) < d.size {
		return Adjustment{}, false
	}

	sum := 0
	for _, v := range d.window {
		sum += v
	}
	avg := float64(sum) / float64(len(d.window))

	adj := Adjustment{From: d.n, Average: avg}
	switch {
	case avg > d.increaseAbove:
		d.n++
	case avg < d.decreaseBelow && d.n > 1:
		d.n--
	default:
		return Adjustment{}, false
	}
	adj.To = d.n
	d.window = nil
	return adj, true
}
