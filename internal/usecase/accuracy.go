package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/services/blocks"
	"BlockCast/pkg/cache"
	"BlockCast/pkg/logger"
)

const accuracyKeyPrefix = "accuracy"

// AccuracyUseCase rolls verified predictions up into accuracy reports.
// Reports are cached until the next verification pass writes an outcome.
type AccuracyUseCase struct {
	store domrepo.PredictionStore
	cache cache.Service
	log   *logger.Logger
	ttl   time.Duration
}

func NewAccuracyUseCase(store domrepo.PredictionStore, c cache.Service, log *logger.Logger, ttl time.Duration) *AccuracyUseCase {
	return &AccuracyUseCase{store: store, cache: c, log: log, ttl: ttl}
}

// Report aggregates predictions matching f. An empty filter ticker covers every ticker.
func (uc *AccuracyUseCase) Report(ctx context.Context, f domrepo.PredictionFilter, by models.BucketBy) (models.AccuracyReport, error) {
	key := cache.Key(accuracyKeyPrefix, f.Ticker, f.From, f.To, by)
	var rep models.AccuracyReport
	if uc.ttl > 0 {
		err := uc.cache.Get(ctx, key, &rep)
		if err == nil {
			return rep, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.log.Warn("accuracy cache read failed", logger.String("key", key), logger.Error(err))
		}
	}

	preds, err := uc.store.List(ctx, f)
	if err != nil {
		return models.AccuracyReport{}, fmt.Errorf("list predictions: %w", err)
	}
	rep, err = blocks.Aggregate(preds, by)
	if err != nil {
		return models.AccuracyReport{}, err
	}
	rep.Ticker = f.Ticker
	rep.From = f.From
	rep.To = f.To

	if uc.ttl > 0 {
		if err := uc.cache.Set(ctx, key, rep, uc.ttl); err != nil {
			uc.log.Warn("accuracy cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return rep, nil
}

// ListPredictions returns stored predictions ordered by hour.
func ListPredictions(ctx context.Context, store domrepo.PredictionStore, f domrepo.PredictionFilter) ([]models.BlockPrediction, error) {
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, fmt.Errorf("from %s must be before to %s", f.From.Format(time.RFC3339), f.To.Format(time.RFC3339))
	}
	return store.List(ctx, f)
}
