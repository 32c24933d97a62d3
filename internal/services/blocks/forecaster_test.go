package blocks

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"BlockCast/internal/domain/models"
)

func newTestForecaster() *Forecaster {
	return NewForecaster(DefaultPolicy(), 5*time.Minute)
}

func steadyRise() []models.Bar {
	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 100 + 10*float64(i+1)/12
	}
	return walk(100, closes...)
}

func TestExpectedBars(t *testing.T) {
	if got := newTestForecaster().ExpectedBars(); got != 9 {
		t.Fatalf("ExpectedBars = %d, want 9", got)
	}
}

// A flat hour is neutral with low confidence.
func TestForecastFlatHour(t *testing.T) {
	bars := walk(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	pred, err := newTestForecaster().Forecast("AAPL", testHour, bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.EarlyBias != models.BiasNone {
		t.Fatalf("early bias %s, want NONE", pred.EarlyBias)
	}
	if pred.Prediction != models.Neutral {
		t.Fatalf("prediction %s, want NEUTRAL", pred.Prediction)
	}
	if pred.Confidence > 10 {
		t.Fatalf("confidence %v, want near the floor", pred.Confidence)
	}
	if pred.Volatility != 0 {
		t.Fatalf("volatility %v, want 0", pred.Volatility)
	}
}

// A steady rise is bullish with high confidence.
func TestForecastSteadyRise(t *testing.T) {
	pred, err := newTestForecaster().Forecast("AAPL", testHour, steadyRise())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.EarlyBias != models.BiasUp || pred.HasSustainedCounter {
		t.Fatalf("bias %s counter %v, want UP without counter", pred.EarlyBias, pred.HasSustainedCounter)
	}
	if pred.Prediction != models.Bullish {
		t.Fatalf("prediction %s, want BULLISH", pred.Prediction)
	}
	if pred.Confidence <= 70 || pred.Confidence > 95 {
		t.Fatalf("confidence %v, want (70, 95]", pred.Confidence)
	}
	if pred.PredictionStrength != models.StrengthStrong {
		t.Fatalf("strength %s, want STRONG", pred.PredictionStrength)
	}
	if len(pred.BlockData) != PredictionBlocks {
		t.Fatalf("block data has %d entries, want %d", len(pred.BlockData), PredictionBlocks)
	}
	if pred.BarCount != 9 || pred.PartialHour {
		t.Fatalf("bar count %d partial %v, want 9 complete", pred.BarCount, pred.PartialHour)
	}
	if !pred.PredictionTimestamp.Equal(PredictionTime(testHour)) || pred.ReferencePrice != 100 {
		t.Fatalf("unexpected anchor %v %v", pred.PredictionTimestamp, pred.ReferencePrice)
	}
	if pred.DecisionPath != strings.Join(pred.DecisionSteps, " -> ") {
		t.Fatalf("path %q does not match steps %v", pred.DecisionPath, pred.DecisionSteps)
	}
}

// A rise that retraces through segments 3-5 raises the counter
// flag; the retrace exceeds the early strength so the forecast flips.
func TestForecastCounterTrend(t *testing.T) {
	bars := walk(100, 102, 104, 106, 108, 106, 104, 102, 101, 100.5)
	pred, err := newTestForecaster().Forecast("AAPL", testHour, bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.EarlyBias != models.BiasUp {
		t.Fatalf("early bias %s, want UP", pred.EarlyBias)
	}
	if !pred.HasSustainedCounter || pred.CounterDirection != models.BiasDown {
		t.Fatalf("counter %v %s, want sustained DOWN", pred.HasSustainedCounter, pred.CounterDirection)
	}
	if pred.Prediction != models.Bearish {
		t.Fatalf("prediction %s, want BEARISH", pred.Prediction)
	}
	if !strings.Contains(pred.DecisionPath, "counter=DOWN") || !strings.Contains(pred.DecisionPath, "dominant=yes") {
		t.Fatalf("unexpected path %q", pred.DecisionPath)
	}
}

// Three bars before the prediction point are not enough.
func TestForecastSparseBars(t *testing.T) {
	bars := walk(100, 100.2, 100.4, 100.1)
	_, err := newTestForecaster().Forecast("AAPL", testHour, bars)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Got != 3 {
		t.Fatalf("got count %d, want 3", insufficient.Got)
	}
}

func TestForecastNoBars(t *testing.T) {
	_, err := newTestForecaster().Forecast("AAPL", testHour, nil)
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestForecastIgnoresBarsAfterPredictionPoint(t *testing.T) {
	f := newTestForecaster()
	base := steadyRise()
	a, err := f.Forecast("AAPL", testHour, base[:9])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	late := append(append([]models.Bar(nil), base[:9]...), barAt(45*time.Minute, 50), barAt(55*time.Minute, 200))
	b, err := f.Forecast("AAPL", testHour, late)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("bars after the prediction point changed the forecast")
	}
}

func TestForecastPartialHour(t *testing.T) {
	bars := steadyRise()[:6]
	pred, err := newTestForecaster().Forecast("AAPL", testHour, bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pred.PartialHour || pred.BarCount != 6 {
		t.Fatalf("partial %v bars %d, want partial with 6", pred.PartialHour, pred.BarCount)
	}
}
