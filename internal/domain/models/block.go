package models

import "time"

// Bias is the early directional signal read from segments 1-2.
type Bias string

const (
	BiasUp   Bias = "UP"
	BiasDown Bias = "DOWN"
	BiasNone Bias = "NONE"
)

// Sign returns +1 for UP, -1 for DOWN and 0 otherwise.
func (b Bias) Sign() float64 {
	switch b {
	case BiasUp:
		return 1
	case BiasDown:
		return -1
	default:
		return 0
	}
}

// Opposite returns the reverse bias; NONE stays NONE.
func (b Bias) Opposite() Bias {
	switch b {
	case BiasUp:
		return BiasDown
	case BiasDown:
		return BiasUp
	default:
		return BiasNone
	}
}

// Direction is a forecast or a realized outcome.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// DirectionFor maps a bias onto the forecast direction it implies.
func DirectionFor(b Bias) Direction {
	switch b {
	case BiasUp:
		return Bullish
	case BiasDown:
		return Bearish
	default:
		return Neutral
	}
}

// Strength buckets the final confidence.
type Strength string

const (
	StrengthWeak     Strength = "WEAK"
	StrengthModerate Strength = "MODERATE"
	StrengthStrong   Strength = "STRONG"
)

// BlockAnalysis summarizes one seventh of a trading hour.
type BlockAnalysis struct {
	BlockNumber       int       `json:"block_number"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	HighPrice         float64   `json:"high_price"`
	LowPrice          float64   `json:"low_price"`
	PriceAtEnd        float64   `json:"price_at_end"`
	Volume            float64   `json:"volume"`
	DeviationFromOpen float64   `json:"deviation_from_open"`
	CrossesOpen       bool      `json:"crosses_open"`
	TimeAboveOpen     float64   `json:"time_above_open"`
	TimeBelowOpen     float64   `json:"time_below_open"`
	BarCount          int       `json:"bar_count"`
}

// BlockPrediction is the forecast for the last two sevenths of one ticker-hour.
// It is written once at the prediction point and mutated once by verification.
type BlockPrediction struct {
	Ticker              string          `json:"ticker"`
	HourStart           time.Time       `json:"hour_start"`
	PredictionTimestamp time.Time       `json:"prediction_timestamp"`
	ReferencePrice      float64         `json:"reference_price"`
	Volatility          float64         `json:"volatility"`
	EarlyBias           Bias            `json:"early_bias"`
	EarlyBiasStrength   float64         `json:"early_bias_strength"`
	HasSustainedCounter bool            `json:"has_sustained_counter"`
	CounterDirection    Bias            `json:"counter_direction,omitempty"`
	CounterStrength     float64         `json:"counter_strength"`
	DeviationAt57       float64         `json:"deviation_at_5_7"`
	Prediction          Direction       `json:"prediction"`
	Confidence          float64         `json:"confidence"`
	PredictionStrength  Strength        `json:"prediction_strength"`
	DecisionPath        string          `json:"decision_path"`
	DecisionSteps       []string        `json:"decision_steps"`
	BlockData           []BlockAnalysis `json:"block_data"`
	BarCount            int             `json:"bar_count"`
	PartialHour         bool            `json:"partial_hour"`
	CreatedAt           time.Time       `json:"created_at"`

	Verified      bool            `json:"verified"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
	ActualOutcome *Direction      `json:"actual_outcome,omitempty"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	OutcomeBlocks []BlockAnalysis `json:"outcome_blocks,omitempty"`
}

// Key returns the unique (ticker, hour) identity.
func (p *BlockPrediction) Key() PredictionKey {
	return PredictionKey{Ticker: p.Ticker, HourStart: p.HourStart}
}

// Outcome is the realized result written by verification.
type Outcome struct {
	ActualOutcome Direction
	IsCorrect     bool
	VerifiedAt    time.Time
	OutcomeBlocks []BlockAnalysis
}

// Apply copies the outcome onto p and marks it verified.
func (o Outcome) Apply(p *BlockPrediction) {
	actual := o.ActualOutcome
	correct := o.IsCorrect
	at := o.VerifiedAt
	p.ActualOutcome = &actual
	p.IsCorrect = &correct
	p.VerifiedAt = &at
	p.OutcomeBlocks = o.OutcomeBlocks
	p.Verified = true
}

// PredictionKey identifies one prediction.
type PredictionKey struct {
	Ticker    string
	HourStart time.Time
}

func (k PredictionKey) String() string {
	return k.Ticker + "@" + k.HourStart.UTC().Format(time.RFC3339)
}
