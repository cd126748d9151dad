package sizing

import (
	"testing"
)

func TestFractionStaysWithinBounds(t *testing.T) {
	tolerances := []float64{0.01, 0.1, 0.25, 0.5, 0.75, 1.0}
	prices := []struct {
		current   float64
		predicted float64
	}{
		{3000, 3050},
		{3000, 2950},
		{3000, 3000.01},
		{3000, 6000},
		{100, 99},
		{0.5, 0.6},
	}

	for _, tol := range tolerances {
		for _, p := range prices {
			f := Fraction(p.current, p.predicted, tol)
			if f < 0 || f > MaxAllocation {
				t.Errorf("Fraction(%v, %v, %v) = %v, want within [0, %v]",
					p.current, p.predicted, tol, f, MaxAllocation)
			}
		}
	}
}

func TestFractionZeroExpectedGain(t *testing.T) {
	f := Fraction(3000, 3000, 0.5)
	if f != 0 {
		t.Errorf("Expected fraction 0 for equal prices, got %v", f)
	}
}

func TestFractionZeroCurrentPrice(t *testing.T) {
	f := Fraction(0, 3000, 0.5)
	if f != 0 {
		t.Errorf("Expected fraction 0 for zero current price, got %v", f)
	}
}

func TestFractionNeverNegative(t *testing.T) {
	// A tiny expected gain makes the Kelly fraction negative; that means
	// "no edge", not "short".
	f := Fraction(3000, 3000.000001, 1.0)
	if f < 0 {
		t.Errorf("Expected non-negative fraction, got %v", f)
	}
}

func TestFractionClampsLargeEdge(t *testing.T) {
	// A huge predicted gain should be capped at the max allocation.
	f := Fraction(3000, 6000, 1.0)
	if f != MaxAllocation {
		t.Errorf("Expected fraction clamped to %v, got %v", MaxAllocation, f)
	}
}

func TestFractionScalesWithRiskTolerance(t *testing.T) {
	full := Fraction(3000, 3003, 1.0)
	half := Fraction(3000, 3003, 0.5)
	if full <= 0 || half <= 0 {
		t.Fatalf("Expected positive fractions, got full=%v half=%v", full, half)
	}
	if half >= full {
		t.Errorf("Expected dampened fraction %v < undampened %v", half, full)
	}
}
