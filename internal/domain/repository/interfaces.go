package repository

import (
	"context"
	"errors"
	"time"

	"BlockCast/internal/domain/models"
)

var (
	ErrPredictionExists   = errors.New("prediction already exists")
	ErrPredictionNotFound = errors.New("prediction not found")
)

// BarSource provides read-only access to sub-hour bars for a ticker.
// Bars are returned ordered by timestamp with from <= ts < to.
type BarSource interface {
	GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error)
}

// BarStore persists bars delivered by the ingest consumer.
type BarStore interface {
	BarSource
	Init(ctx context.Context) error // ensure tables
	StoreBars(ctx context.Context, bars []models.TickerBar) error
	Health(ctx context.Context) error
	Close() error
}

// PredictionFilter narrows List. An empty Ticker matches every ticker; zero
// From/To leave the range open on that side.
type PredictionFilter struct {
	Ticker string
	From   time.Time
	To     time.Time
}

// PredictionStore persists one prediction per (ticker, hour).
type PredictionStore interface {
	Init(ctx context.Context) error
	// Create fails with ErrPredictionExists when the key is taken.
	Create(ctx context.Context, p *models.BlockPrediction) error
	Get(ctx context.Context, key models.PredictionKey) (*models.BlockPrediction, error)
	List(ctx context.Context, f PredictionFilter) ([]models.BlockPrediction, error)
	// ListPending returns unverified predictions whose hour ended at or before endedBy, oldest first.
	ListPending(ctx context.Context, endedBy time.Time, limit int) ([]models.BlockPrediction, error)
	// MarkVerified writes the outcome only if the prediction is still unverified.
	// It reports whether this call performed the write.
	MarkVerified(ctx context.Context, key models.PredictionKey, out models.Outcome) (bool, error)
	Close() error
}

// PredictionPublisher announces prediction lifecycle events.
type PredictionPublisher interface {
	PublishGenerated(ctx context.Context, p *models.BlockPrediction) error
	PublishVerified(ctx context.Context, p *models.BlockPrediction) error
	Close() error
}

// Metrics records operational counters. Statuses and directions are passed as
// their string values so recorders need not import the domain.
type Metrics interface {
	RecordGeneration(ticker, status string)
	RecordConfidence(ticker, prediction string, confidence float64)
	RecordVerification(ticker, status string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
