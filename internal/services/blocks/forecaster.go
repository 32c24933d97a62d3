package blocks

import (
	"math"
	"time"

	"BlockCast/internal/domain/models"
	"BlockCast/internal/services/features"
)

// Forecaster turns the bars of one ticker-hour into a prediction made at the
// 5/7 point. It is pure: the same bars always yield the same prediction.
type Forecaster struct {
	policy      Policy
	barInterval time.Duration
}

// NewForecaster builds a forecaster for bars sampled every barInterval.
func NewForecaster(policy Policy, barInterval time.Duration) *Forecaster {
	return &Forecaster{policy: policy, barInterval: barInterval}
}

// Policy returns the policy the forecaster decides with.
func (f *Forecaster) Policy() Policy { return f.policy }

// ExpectedBars is the number of bars a complete feed delivers before the prediction point.
func (f *Forecaster) ExpectedBars() int {
	if f.barInterval <= 0 {
		return 0
	}
	window := PredictionTime(time.Time{}).Sub(time.Time{})
	return int(math.Ceil(float64(window) / float64(f.barInterval)))
}

// Forecast predicts the direction of segments 6-7 for the hour at hourStart.
// Only bars stamped before the prediction point are read. Too few of them
// relative to the bar interval is an InsufficientDataError.
func (f *Forecaster) Forecast(ticker string, hourStart time.Time, bars []models.Bar) (*models.BlockPrediction, error) {
	predAt := PredictionTime(hourStart)
	window := models.BarsBetween(bars, hourStart, predAt)
	features.SortBars(window)

	expected := f.ExpectedBars()
	if len(window) == 0 {
		return nil, &InsufficientDataError{What: "bars before prediction point", Got: 0, Want: max(expected, 2)}
	}
	if expected > 0 && float64(len(window))/float64(expected) < f.policy.MinBarCoverage {
		want := int(math.Ceil(f.policy.MinBarCoverage * float64(expected)))
		return nil, &InsufficientDataError{What: "bars before prediction point", Got: len(window), Want: want}
	}

	opening := window[0].Open
	vol, err := EstimateVolatility(window, opening)
	if err != nil {
		return nil, err
	}
	blocks := Segment(window, hourStart, opening, vol)[:PredictionBlocks]
	dec, err := Decide(DecisionInput{Blocks: blocks}, f.policy)
	if err != nil {
		return nil, err
	}

	pred := &models.BlockPrediction{
		Ticker:              ticker,
		HourStart:           hourStart,
		PredictionTimestamp: predAt,
		ReferencePrice:      opening,
		Volatility:          vol,
		EarlyBias:           dec.EarlyBias,
		EarlyBiasStrength:   dec.EarlyStrength,
		HasSustainedCounter: dec.HasCounter,
		CounterStrength:     dec.CounterStrength,
		DeviationAt57:       dec.DeviationAt57,
		Prediction:          dec.Prediction,
		Confidence:          dec.Confidence,
		PredictionStrength:  dec.Strength,
		DecisionPath:        dec.Path(),
		DecisionSteps:       dec.Steps,
		BlockData:           blocks,
		BarCount:            len(window),
		PartialHour:         len(window) < expected,
	}
	if dec.HasCounter {
		pred.CounterDirection = dec.CounterDirection
	}
	return pred, nil
}
