package blocks

import "fmt"

// Policy holds the tunable thresholds and weights of the engine.
type Policy struct {
	// Bias & counter detection, in deviation (volatility) units.
	BiasThreshold    float64
	CounterThreshold float64
	CounterMinRun    int
	CounterDominance float64

	// Labels used in the decision path.
	StrongSignal   float64
	ModerateSignal float64

	// Confidence model.
	ConfidenceFloor        float64
	ConfidenceCeiling      float64
	BaseConfidence         float64
	NeutralSlope           float64
	StrengthWeight         float64
	LateWeight             float64
	ContinuationBonus      float64
	SignalCap              float64
	CounterBase            float64
	CounterWeight          float64
	CounterPenalty         float64
	CounterStrengthPenalty float64

	// Strength buckets over the final confidence.
	WeakBelow   float64
	StrongAbove float64

	// Data requirements.
	MinBarCoverage float64

	// Relative tolerance under which the realized close counts as unchanged.
	NeutralTolerance float64
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		BiasThreshold:    0.3,
		CounterThreshold: 0.15,
		CounterMinRun:    2,
		CounterDominance: 1.0,

		StrongSignal:   1.0,
		ModerateSignal: 0.6,

		ConfidenceFloor:        5,
		ConfidenceCeiling:      95,
		BaseConfidence:         50,
		NeutralSlope:           10,
		StrengthWeight:         10,
		LateWeight:             8,
		ContinuationBonus:      5,
		SignalCap:              3,
		CounterBase:            45,
		CounterWeight:          10,
		CounterPenalty:         20,
		CounterStrengthPenalty: 5,

		WeakBelow:   55,
		StrongAbove: 75,

		MinBarCoverage: 0.5,

		NeutralTolerance: 1e-6,
	}
}

// Validate rejects thresholds and weights the engine cannot work with.
func (p Policy) Validate() error {
	if p.BiasThreshold < 0 || p.CounterThreshold < 0 {
		return fmt.Errorf("thresholds must be non-negative")
	}
	if p.CounterMinRun < 2 || p.CounterMinRun > 3 {
		return fmt.Errorf("counter_min_run must be 2 or 3, got %d", p.CounterMinRun)
	}
	if p.ConfidenceFloor <= 0 || p.ConfidenceCeiling >= 100 || p.ConfidenceFloor >= p.ConfidenceCeiling {
		return fmt.Errorf("confidence bounds must satisfy 0 < floor < ceiling < 100")
	}
	if p.WeakBelow > p.StrongAbove {
		return fmt.Errorf("weak_below must not exceed strong_above")
	}
	if p.MinBarCoverage < 0 || p.MinBarCoverage > 1 {
		return fmt.Errorf("min_bar_coverage must be within [0,1]")
	}
	if p.NeutralTolerance < 0 {
		return fmt.Errorf("neutral_tolerance must be non-negative")
	}
	return nil
}

func (p Policy) clamp(conf float64) float64 {
	if conf < p.ConfidenceFloor {
		return p.ConfidenceFloor
	}
	if conf > p.ConfidenceCeiling {
		return p.ConfidenceCeiling
	}
	return conf
}

func (p Policy) signalLabel(v float64) string {
	switch {
	case v >= p.StrongSignal:
		return "strong"
	case v >= p.ModerateSignal:
		return "moderate"
	default:
		return "weak"
	}
}
