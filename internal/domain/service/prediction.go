package service

import (
	"time"

	"BlockCast/internal/domain/models"
)

// Forecaster produces the 5/7-point prediction for one ticker-hour from its bars.
type Forecaster interface {
	Forecast(ticker string, hourStart time.Time, bars []models.Bar) (*models.BlockPrediction, error)
	ExpectedBars() int
}

// OutcomeEvaluator derives the realized outcome of a prediction once its hour has closed.
type OutcomeEvaluator interface {
	Evaluate(pred *models.BlockPrediction, bars []models.Bar, now time.Time) (models.Outcome, error)
}

// Clock returns the current instant.
type Clock func() time.Time
