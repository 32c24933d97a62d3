package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/domain/service"
	"BlockCast/internal/services/blocks"
	"BlockCast/pkg/cache"
	"BlockCast/pkg/logger"
)

// VerifyUseCase fills in outcomes for predictions whose hour has closed.
// Each prediction is verified under a cache lock and written with a
// conditional update, so concurrent passes never double-verify.
type VerifyUseCase struct {
	bars      domrepo.BarSource
	store     domrepo.PredictionStore
	publisher domrepo.PredictionPublisher
	evaluator service.OutcomeEvaluator
	cache     cache.Service
	metrics   domrepo.Metrics
	clock     service.Clock
	log       *logger.Logger
	lockTTL   time.Duration
}

func NewVerifyUseCase(
	bars domrepo.BarSource,
	store domrepo.PredictionStore,
	publisher domrepo.PredictionPublisher,
	evaluator service.OutcomeEvaluator,
	c cache.Service,
	metrics domrepo.Metrics,
	clock service.Clock,
	log *logger.Logger,
	lockTTL time.Duration,
) *VerifyUseCase {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &VerifyUseCase{
		bars:      bars,
		store:     store,
		publisher: publisher,
		evaluator: evaluator,
		cache:     c,
		metrics:   metrics,
		clock:     clock,
		log:       log,
		lockTTL:   lockTTL,
	}
}

// VerifyPending verifies up to limit predictions whose hour ended at least
// olderThan ago. Per-prediction failures are reported in the result.
func (uc *VerifyUseCase) VerifyPending(ctx context.Context, olderThan time.Duration, limit int) (*models.VerificationResult, error) {
	if olderThan < 0 {
		olderThan = 0
	}
	start := time.Now()
	endedBy := uc.clock().Add(-olderThan)
	pending, err := uc.store.ListPending(ctx, endedBy, limit)
	if err != nil {
		uc.metrics.RecordError("list_pending")
		return nil, fmt.Errorf("list pending: %w", err)
	}

	res := &models.VerificationResult{Items: make([]models.VerificationItem, 0, len(pending))}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item := uc.verifyOne(ctx, &pending[i])
		res.Checked++
		switch item.Status {
		case models.VerifyDone:
			res.Verified++
		case models.VerifyAlreadyDone, models.VerifyLocked:
			res.AlreadyVerified++
		case models.VerifyUnavailable:
			res.Unavailable++
		default:
			res.Failed++
		}
		uc.metrics.RecordVerification(item.Ticker, string(item.Status))
		res.Items = append(res.Items, item)
	}

	if res.Verified > 0 {
		if err := uc.cache.DeleteByPattern(ctx, accuracyKeyPrefix+":*"); err != nil {
			uc.log.Warn("invalidate accuracy cache failed", logger.Error(err))
		}
	}
	uc.metrics.RecordLatency("verify_pending", time.Since(start).Seconds())
	uc.log.Info("verification pass finished",
		logger.Int("checked", res.Checked),
		logger.Int("verified", res.Verified),
		logger.Int("already_verified", res.AlreadyVerified),
		logger.Int("unavailable", res.Unavailable),
		logger.Int("failed", res.Failed))
	return res, nil
}

func (uc *VerifyUseCase) verifyOne(ctx context.Context, pred *models.BlockPrediction) models.VerificationItem {
	item := models.VerificationItem{Ticker: pred.Ticker, HourStart: pred.HourStart}
	key := pred.Key()

	var status models.VerificationStatus
	acquired, err := cache.WithLock(ctx, uc.cache, cache.Key("verify", pred.Ticker, pred.HourStart), uc.lockTTL, func() error {
		var err error
		status, err = uc.verifyLocked(ctx, pred)
		return err
	})
	switch {
	case !acquired && err == nil:
		item.Status = models.VerifyLocked
	case err != nil:
		item.Error = err.Error()
		if status == "" {
			status = models.VerifyFailed
		}
		item.Status = status
		if status == models.VerifyFailed {
			uc.metrics.RecordError("verify")
			uc.log.Error("verification failed", logger.String("key", key.String()), logger.Error(err))
		} else {
			uc.log.Debug("verification deferred", logger.String("key", key.String()), logger.Error(err))
		}
	default:
		item.Status = status
		item.IsCorrect = pred.IsCorrect
	}
	return item
}

func (uc *VerifyUseCase) verifyLocked(ctx context.Context, pred *models.BlockPrediction) (models.VerificationStatus, error) {
	key := pred.Key()
	bars, err := uc.bars.GetBars(ctx, pred.Ticker, pred.HourStart, pred.HourStart.Add(time.Hour))
	if err != nil {
		return models.VerifyFailed, fmt.Errorf("load bars %s: %w", key, err)
	}
	out, err := uc.evaluator.Evaluate(pred, bars, uc.clock().UTC())
	if err != nil {
		if errors.Is(err, blocks.ErrPrecondition) || errors.Is(err, blocks.ErrNotDue) {
			return models.VerifyUnavailable, err
		}
		return models.VerifyFailed, err
	}
	written, err := uc.store.MarkVerified(ctx, key, out)
	if err != nil {
		return models.VerifyFailed, fmt.Errorf("mark verified %s: %w", key, err)
	}
	if !written {
		return models.VerifyAlreadyDone, nil
	}
	out.Apply(pred)
	if err := uc.publisher.PublishVerified(ctx, pred); err != nil {
		uc.metrics.RecordError("publish_verified")
		uc.log.Warn("publish verified event failed", logger.String("key", key.String()), logger.Error(err))
	}
	return models.VerifyDone, nil
}
