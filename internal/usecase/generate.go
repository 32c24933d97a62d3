package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/domain/service"
	"BlockCast/internal/services/blocks"
	"BlockCast/internal/services/calendar"
	"BlockCast/pkg/logger"
	"BlockCast/pkg/util"
)

// GenerateUseCase creates predictions at the 5/7 point of trading hours.
type GenerateUseCase struct {
	bars       domrepo.BarSource
	store      domrepo.PredictionStore
	publisher  domrepo.PredictionPublisher
	forecaster service.Forecaster
	isTrading  calendar.TradingHourFunc
	metrics    domrepo.Metrics
	clock      service.Clock
	log        *logger.Logger
	workers    int
	timeout    time.Duration
}

func NewGenerateUseCase(
	bars domrepo.BarSource,
	store domrepo.PredictionStore,
	publisher domrepo.PredictionPublisher,
	forecaster service.Forecaster,
	isTrading calendar.TradingHourFunc,
	metrics domrepo.Metrics,
	clock service.Clock,
	log *logger.Logger,
	workers int,
) *GenerateUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &GenerateUseCase{
		bars:       bars,
		store:      store,
		publisher:  publisher,
		forecaster: forecaster,
		isTrading:  isTrading,
		metrics:    metrics,
		clock:      clock,
		log:        log,
		workers:    workers,
		timeout:    30 * time.Second,
	}
}

// GenerateHour forecasts one ticker-hour and stores the result. Errors:
// ErrMarketClosed, *blocks.NotDueError before the prediction point,
// domrepo.ErrPredictionExists, blocks precondition errors for thin data.
func (uc *GenerateUseCase) GenerateHour(ctx context.Context, ticker string, hourStart time.Time) (*models.BlockPrediction, error) {
	start := time.Now()
	pred, err := uc.generateHour(ctx, ticker, hourStart)
	status := generationStatus(err)

	uc.metrics.RecordGeneration(ticker, string(status))
	uc.metrics.RecordLatency("generate_hour", time.Since(start).Seconds())
	switch status {
	case models.StatusGenerated:
		uc.metrics.RecordConfidence(ticker, string(pred.Prediction), pred.Confidence)
		uc.log.Info("prediction generated",
			logger.String("ticker", ticker),
			logger.Time("hour", hourStart),
			logger.String("prediction", string(pred.Prediction)),
			logger.Float64("confidence", pred.Confidence),
			logger.String("path", pred.DecisionPath))
	case models.StatusFailed:
		uc.metrics.RecordError("generate")
		uc.log.Error("prediction failed",
			logger.String("ticker", ticker),
			logger.Time("hour", hourStart),
			logger.Error(err))
	default:
		uc.log.Debug("prediction skipped",
			logger.String("ticker", ticker),
			logger.Time("hour", hourStart),
			logger.String("status", string(status)),
			logger.Error(err))
	}
	return pred, err
}

func (uc *GenerateUseCase) generateHour(ctx context.Context, ticker string, hourStart time.Time) (*models.BlockPrediction, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	hourStart = hourStart.UTC()
	if !hourStart.Equal(util.HourStart(hourStart)) {
		return nil, fmt.Errorf("%s: %w", hourStart.Format(time.RFC3339Nano), ErrInvalidHour)
	}
	if !uc.isTrading(ticker, hourStart) {
		return nil, fmt.Errorf("%s %s: %w", ticker, hourStart.Format(time.RFC3339), ErrMarketClosed)
	}
	now := uc.clock()
	predAt := blocks.PredictionTime(hourStart)
	if now.Before(predAt) {
		return nil, &blocks.NotDueError{Until: predAt}
	}

	key := models.PredictionKey{Ticker: ticker, HourStart: hourStart}
	if _, err := uc.store.Get(ctx, key); err == nil {
		return nil, fmt.Errorf("%s: %w", key, domrepo.ErrPredictionExists)
	} else if !errors.Is(err, domrepo.ErrPredictionNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	bars, err := uc.bars.GetBars(ctx, ticker, hourStart, predAt)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", key, err)
	}
	pred, err := uc.forecaster.Forecast(ticker, hourStart, bars)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", key, err)
	}
	pred.CreatedAt = now.UTC()

	if err := uc.store.Create(ctx, pred); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	if err := uc.publisher.PublishGenerated(ctx, pred); err != nil {
		uc.metrics.RecordError("publish_generated")
		uc.log.Warn("publish generated event failed", logger.String("key", key.String()), logger.Error(err))
	}
	return pred, nil
}

// GenerateDay runs GenerateHour for the 24 UTC hours of date with at most
// `workers` hours in flight. It never aborts early; every hour gets a status.
func (uc *GenerateUseCase) GenerateDay(ctx context.Context, ticker string, date time.Time) (*models.DayGenerationResult, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	hours := util.HoursOfDay(date)
	res := &models.DayGenerationResult{
		Ticker:   ticker,
		Date:     hours[0],
		Outcomes: make([]models.GenerationOutcome, len(hours)),
	}

	type item struct {
		idx     int
		outcome models.GenerationOutcome
	}
	ch := make(chan item, len(hours))
	sem := make(chan struct{}, uc.workers)
	var wg sync.WaitGroup

	for i, h := range hours {
		wg.Add(1)
		go func(i int, h time.Time) {
			defer wg.Done()
			out := models.GenerationOutcome{Ticker: ticker, HourStart: h}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out.Status = models.StatusFailed
				out.Error = ctx.Err().Error()
				ch <- item{i, out}
				return
			}
			defer func() { <-sem }()

			pred, err := uc.GenerateHour(ctx, ticker, h)
			out.Status = generationStatus(err)
			out.Prediction = pred
			if err != nil {
				out.Error = err.Error()
			}
			ch <- item{i, out}
		}(i, h)
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		res.Outcomes[it.idx] = it.outcome
		switch it.outcome.Status {
		case models.StatusGenerated:
			res.Generated++
		case models.StatusFailed:
			res.Failed++
		default:
			res.Skipped++
		}
	}
	uc.log.Info("day generation finished",
		logger.String("ticker", ticker),
		logger.String("date", res.Date.Format(util.DateLayout)),
		logger.Int("generated", res.Generated),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed))
	return res, nil
}
