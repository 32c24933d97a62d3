package usecase

import (
	"context"
	"testing"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/repository"
	"BlockCast/internal/services/blocks"
	"BlockCast/pkg/cache"
	"BlockCast/pkg/logger"
)

type verifyFixture struct {
	verify   *VerifyUseCase
	accuracy *AccuracyUseCase
	store    *repository.MemoryPredictionStore
	cache    *cache.MemoryCache
	pub      *recPublisher
	metrics  *recMetrics
}

// newVerifyFixture stores forecasts for 10:00 and 11:00. Bars for 10:00 cover
// the whole hour; 11:00 only has bars up to the prediction point.
func newVerifyFixture(t *testing.T, now time.Time) *verifyFixture {
	t.Helper()
	ctx := context.Background()
	full := rising(at(10, 0))
	partial := rising(at(11, 0))[:9]
	bars := &stubBars{bars: append(full, partial...)}

	f := &verifyFixture{
		store:   repository.NewMemoryPredictionStore(),
		cache:   cache.NewMemoryCache(),
		pub:     &recPublisher{},
		metrics: newRecMetrics(),
	}
	t.Cleanup(func() { _ = f.cache.Close() })

	forecaster := blocks.NewForecaster(blocks.DefaultPolicy(), 5*time.Minute)
	for _, h := range []time.Time{at(10, 0), at(11, 0)} {
		pred, err := forecaster.Forecast("AAPL", h, bars.bars)
		if err != nil {
			t.Fatalf("forecast %v: %v", h, err)
		}
		if err := f.store.Create(ctx, pred); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	f.verify = NewVerifyUseCase(bars, f.store, f.pub, blocks.NewEvaluator(blocks.DefaultPolicy()),
		f.cache, f.metrics, fixedClock(now), logger.Nop(), time.Minute)
	f.accuracy = NewAccuracyUseCase(f.store, f.cache, logger.Nop(), time.Hour)
	return f
}

func TestVerifyPending(t *testing.T) {
	f := newVerifyFixture(t, at(13, 0))
	ctx := context.Background()

	res, err := f.verify.VerifyPending(ctx, 5*time.Minute, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Checked != 2 || res.Verified != 1 || res.Unavailable != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	first := res.Items[0]
	if !first.HourStart.Equal(at(10, 0)) || first.Status != models.VerifyDone {
		t.Fatalf("first item %+v", first)
	}
	if first.IsCorrect == nil || !*first.IsCorrect {
		t.Fatalf("rising hour should verify as correct")
	}
	if res.Items[1].Status != models.VerifyUnavailable || res.Items[1].Error == "" {
		t.Fatalf("second item %+v", res.Items[1])
	}

	stored, err := f.store.Get(ctx, models.PredictionKey{Ticker: "AAPL", HourStart: at(10, 0)})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Verified || stored.ActualOutcome == nil || *stored.ActualOutcome != models.Bullish {
		t.Fatalf("stored outcome %+v", stored)
	}
	if stored.VerifiedAt == nil || !stored.VerifiedAt.Equal(at(13, 0)) {
		t.Fatalf("verified_at %v", stored.VerifiedAt)
	}
	if len(f.pub.verified) != 1 {
		t.Fatalf("published %d verified events, want 1", len(f.pub.verified))
	}

	again, err := f.verify.VerifyPending(ctx, 5*time.Minute, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Checked != 1 || again.Verified != 0 || again.Unavailable != 1 {
		t.Fatalf("second pass %+v", again)
	}
}

func TestVerifyPendingRespectsDelay(t *testing.T) {
	f := newVerifyFixture(t, at(11, 2))
	res, err := f.verify.VerifyPending(context.Background(), 5*time.Minute, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Checked != 0 {
		t.Fatalf("hour 10 ended less than 5 minutes ago, got %+v", res)
	}
}

func TestVerifyPendingSkipsLockedPrediction(t *testing.T) {
	f := newVerifyFixture(t, at(13, 0))
	ctx := context.Background()
	key := cache.Key("verify", "AAPL", at(10, 0))
	if ok, err := f.cache.TryLock(ctx, key, time.Minute); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}

	res, err := f.verify.VerifyPending(ctx, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items[0].Status != models.VerifyLocked || res.Verified != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	stored, _ := f.store.Get(ctx, models.PredictionKey{Ticker: "AAPL", HourStart: at(10, 0)})
	if stored.Verified {
		t.Fatalf("locked prediction must stay unverified")
	}
}

func TestVerifyPendingLimit(t *testing.T) {
	f := newVerifyFixture(t, at(13, 0))
	res, err := f.verify.VerifyPending(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Checked != 1 || !res.Items[0].HourStart.Equal(at(10, 0)) {
		t.Fatalf("limit 1 should check the oldest prediction, got %+v", res)
	}
}

func TestAccuracyInvalidatedByVerification(t *testing.T) {
	f := newVerifyFixture(t, at(13, 0))
	ctx := context.Background()
	filter := domrepo.PredictionFilter{Ticker: "AAPL"}

	before, err := f.accuracy.Report(ctx, filter, models.BucketByStrength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before.Total != 0 || before.Unverified != 2 {
		t.Fatalf("report before verification %+v", before)
	}

	if _, err := f.verify.VerifyPending(ctx, 0, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := f.accuracy.Report(ctx, filter, models.BucketByStrength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Total != 1 || after.Correct != 1 || after.AccuracyPct != 100 || after.Ticker != "AAPL" {
		t.Fatalf("report after verification %+v", after)
	}
}

func TestAccuracyServedFromCache(t *testing.T) {
	f := newVerifyFixture(t, at(13, 0))
	ctx := context.Background()
	filter := domrepo.PredictionFilter{Ticker: "AAPL"}
	if _, err := f.accuracy.Report(ctx, filter, models.BucketByStrength); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A write that bypasses verification leaves the cached report in place.
	out := models.Outcome{ActualOutcome: models.Bullish, IsCorrect: true, VerifiedAt: at(13, 0)}
	if _, err := f.store.MarkVerified(ctx, models.PredictionKey{Ticker: "AAPL", HourStart: at(10, 0)}, out); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	cached, err := f.accuracy.Report(ctx, filter, models.BucketByStrength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached.Total != 0 {
		t.Fatalf("expected cached report, got %+v", cached)
	}
}

func TestAccuracyRejectsUnknownBucket(t *testing.T) {
	f := newVerifyFixture(t, at(13, 0))
	if _, err := f.accuracy.Report(context.Background(), domrepo.PredictionFilter{}, models.BucketBy("hour")); err == nil {
		t.Fatalf("expected error for unknown bucket")
	}
}

func TestListPredictionsRejectsInvertedRange(t *testing.T) {
	store := repository.NewMemoryPredictionStore()
	_, err := ListPredictions(context.Background(), store, domrepo.PredictionFilter{From: at(12, 0), To: at(10, 0)})
	if err == nil {
		t.Fatalf("expected error for inverted range")
	}
}
