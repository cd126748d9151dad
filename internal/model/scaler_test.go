package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func mustScaler(t *testing.T, min, max string) *Scaler {
	t.Helper()
	s, err := NewScaler(decimal.RequireFromString(min), decimal.RequireFromString(max))
	if err != nil {
		t.Fatalf("NewScaler failed: %v", err)
	}
	return s
}

func TestScalerRoundTrip(t *testing.T) {
	s := mustScaler(t, "1500", "4500")
	tolerance := decimal.RequireFromString("0.0000001")

	values := []string{"1500", "2000", "3000.55", "4499.99", "4500"}
	for _, v := range values {
		x := decimal.RequireFromString(v)

		scaled := s.Transform([]decimal.Decimal{x})[0]
		back := s.Detransform(scaled)
		if back.Sub(x).Abs().GreaterThan(tolerance) {
			t.Errorf("Detransform(Transform(%s)) = %s, want %s", v, back, x)
		}
	}
}

func TestScalerTransformBounds(t *testing.T) {
	s := mustScaler(t, "1000", "2000")

	out := s.Transform([]decimal.Decimal{
		decimal.RequireFromString("1000"),
		decimal.RequireFromString("1500"),
		decimal.RequireFromString("2000"),
	})

	want := []string{"0", "0.5", "1"}
	for i, w := range want {
		if !out[i].Equal(decimal.RequireFromString(w)) {
			t.Errorf("Transform[%d] = %s, want %s", i, out[i], w)
		}
	}
}

func TestScalerDegenerateBounds(t *testing.T) {
	_, err := NewScaler(decimal.RequireFromString("100"), decimal.RequireFromString("100"))
	if err == nil {
		t.Fatal("Expected error for equal min/max bounds")
	}
}

func TestFitFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.csv")
	csv := "time,price\n" +
		"2024-01-01T00:00:00Z,2000.50\n" +
		"2024-01-01T00:00:15Z,not-a-price\n" +
		"2024-01-01T00:00:30Z,1800.00\n" +
		"2024-01-01T00:00:45Z,2200.25\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := FitFromCSV(path)
	if err != nil {
		t.Fatalf("FitFromCSV failed: %v", err)
	}

	min, max := s.Bounds()
	if !min.Equal(decimal.RequireFromString("1800")) {
		t.Errorf("Expected min 1800, got %s", min)
	}
	if !max.Equal(decimal.RequireFromString("2200.25")) {
		t.Errorf("Expected max 2200.25, got %s", max)
	}
}

func TestFitFromCSVNoUsablePrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.csv")
	if err := os.WriteFile(path, []byte("time,price\n2024-01-01T00:00:00Z,bogus\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := FitFromCSV(path); err == nil {
		t.Fatal("Expected error for CSV with no parseable prices")
	}
}

func TestDecimalFloatConversion(t *testing.T) {
	in := []decimal.Decimal{
		decimal.RequireFromString("0.5"),
		decimal.RequireFromString("0.25"),
	}
	floats := DecimalsToFloat32s(in)
	if floats[0] != 0.5 || floats[1] != 0.25 {
		t.Errorf("Unexpected float conversion: %v", floats)
	}

	back := Float32ToDecimal(0.5)
	if !back.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Float32ToDecimal(0.5) = %s, want 0.5", back)
	}
}
