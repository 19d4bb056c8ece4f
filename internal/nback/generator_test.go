package nback

import (
	"math"
	"math/rand/v2"
	"testing"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestGeneratorNoMatchWithoutCandidate(t *testing.T) {
	g := NewGenerator(newTestRand(), nil, 1.0)
	var h History

	for i := 0; i < 3; i++ {
		s, expected := g.Next(&h, 3)
		if expected {
			t.Fatalf("trial %d: expected match with only %d stimuli in history", i, h.Len())
		}
		if err := h.Append(s); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	s, expected := g.Next(&h, 3)
	if !expected {
		t.Fatal("match probability 1 with a candidate should force a match")
	}
	if !s.SameAs(h.At(0)) {
		t.Errorf("forced match %v does not copy 3-back %v", s, h.At(0))
	}
}

func TestGeneratorExpectedMatchAgreesWithHistory(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		g := NewGenerator(newTestRand(), nil, 0.25)
		var h History
		for i := 0; i < 2000; i++ {
			s, expected := g.Next(&h, n)
			actual := i >= n && s.SameAs(h.At(i-n))
			if expected != actual {
				t.Fatalf("n=%d trial %d: expected=%v but history says %v", n, i, expected, actual)
			}
			if s.TrialIndex != i {
				t.Fatalf("n=%d: TrialIndex = %d, want %d", n, s.TrialIndex, i)
			}
			if err := h.Append(s); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
	}
}

func TestGeneratorMatchRateConverges(t *testing.T) {
	const trials = 40000
	g := NewGenerator(newTestRand(), nil, 0.25)
	var h History
	matches := 0
	for i := 0; i < trials; i++ {
		s, expected := g.Next(&h, 2)
		if expected && i >= 2 {
			matches++
		}
		_ = h.Append(s)
	}

	// Forced 25% plus incidental matches on the remaining 75%: 1/(16*8) each.
	want := 0.25 + 0.75/128
	got := float64(matches) / float64(trials-2)
	if math.Abs(got-want) > 0.015 {
		t.Errorf("match rate = %.4f, want %.4f ± 0.015", got, want)
	}
}

func TestGeneratorDrawsFromAlphabetAndActivePositions(t *testing.T) {
	alphabet := []Symbol{"X", "Y"}
	g := NewGenerator(newTestRand(), alphabet, 0)
	var h History
	seenPos := map[Position]bool{}
	for i := 0; i < 1000; i++ {
		s, _ := g.Next(&h, 1)
		if s.Value != "X" && s.Value != "Y" {
			t.Fatalf("symbol %q outside alphabet", s.Value)
		}
		if s.Position == 5 {
			t.Fatal("centre position drawn")
		}
		seenPos[s.Position] = true
		_ = h.Append(s)
	}
	if len(seenPos) != len(Positions) {
		t.Errorf("saw %d positions, want all %d", len(seenPos), len(Positions))
	}
}

func TestHistoryRejectsOutOfOrderIndex(t *testing.T) {
	var h History
	if err := h.Append(Stimulus{Value: "A", Position: 1, TrialIndex: 4}); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := h.Append(Stimulus{Value: "B", Position: 2, TrialIndex: 4}); err == nil {
		t.Error("Append with repeated trial index should fail")
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}

	if _, ok := h.Back(2); ok {
		t.Error("Back(2) on a single-entry history should report no candidate")
	}
	if s, ok := h.Back(1); !ok || s.Value != "A" {
		t.Errorf("Back(1) = %v, %v", s, ok)
	}
}

func TestPositionGeometry(t *testing.T) {
	tests := []struct {
		pos      Position
		row, col int
	}{
		{1, 0, 0}, {3, 0, 2}, {4, 1, 0}, {6, 1, 2}, {7, 2, 0}, {9, 2, 2},
	}
	for _, tt := range tests {
		if tt.pos.Row() != tt.row || tt.pos.Col() != tt.col {
			t.Errorf("Position(%d) = (%d,%d), want (%d,%d)", tt.pos, tt.pos.Row(), tt.pos.Col(), tt.row, tt.col)
		}
	}
}
