package blocks

import (
	"errors"
	"math"
	"testing"
)

func TestEstimateVolatilityErrors(t *testing.T) {
	var insufficient *InsufficientDataError
	if _, err := EstimateVolatility(walk(100, 101), 100); !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}

	var missing *MissingFieldError
	bars := walk(100, 101, 102, 103)
	bars[1].Close = math.NaN()
	_, err := EstimateVolatility(bars, 100)
	if !errors.As(err, &missing) || missing.Index != 1 {
		t.Fatalf("expected MissingFieldError at 1, got %v", err)
	}
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition match")
	}

	var invalid *InvalidDataError
	bars = walk(100, 101, 102, 103)
	bars[2].Close = -1
	if _, err := EstimateVolatility(bars, 100); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDataError, got %v", err)
	}
	bars = walk(100, 101, 102, 103)
	bars[0].High = math.Inf(1)
	if _, err := EstimateVolatility(bars, 100); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDataError for inf high, got %v", err)
	}
	if _, err := EstimateVolatility(walk(100, 101, 102), 0); !errors.As(err, &invalid) || invalid.Index != -1 {
		t.Fatalf("expected InvalidDataError for opening, got %v", err)
	}
}

func TestEstimateVolatilityFlat(t *testing.T) {
	got, err := EstimateVolatility(walk(100, 100, 100, 100, 100, 100), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("flat series volatility = %v, want 0", got)
	}
}

func TestEstimateVolatilityMonotonicInDispersion(t *testing.T) {
	narrow, err := EstimateVolatility(walk(100, 101, 100, 101, 100, 101), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wide, err := EstimateVolatility(walk(100, 102, 100, 102, 100, 102), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(wide > narrow && narrow > 0) {
		t.Fatalf("expected wide > narrow > 0, got wide=%v narrow=%v", wide, narrow)
	}
}

func TestEstimateVolatilityScaleConsistent(t *testing.T) {
	base, _ := EstimateVolatility(walk(100, 101, 99, 102, 100), 100)
	scaled, _ := EstimateVolatility(walk(1000, 1010, 990, 1020, 1000), 1000)
	if !near(scaled, base*10, 1e-9*scaled) {
		t.Fatalf("scaled volatility %v, want %v", scaled, base*10)
	}
}

func TestEstimateVolatilityExtremeExcursion(t *testing.T) {
	calm, _ := EstimateVolatility(walk(100, 100.2, 100.1, 100.3, 100.2, 100.1, 100.2), 100)
	spiked, _ := EstimateVolatility(walk(100, 100.2, 100.1, 150, 100.2, 100.1, 100.2), 100)
	if spiked < 10*calm {
		t.Fatalf("expected excursion to inflate volatility, calm=%v spiked=%v", calm, spiked)
	}
}

func TestEstimateVolatilityDeterministic(t *testing.T) {
	bars := walk(100, 101, 99.5, 102, 101.2, 100.7)
	a, _ := EstimateVolatility(bars, 100)
	b, _ := EstimateVolatility(bars, 100)
	if a != b {
		t.Fatalf("non-deterministic: %v vs %v", a, b)
	}
}
