package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/repository"
	"BlockCast/internal/services/blocks"
	"BlockCast/internal/services/calendar"
	"BlockCast/pkg/logger"
)

type generateFixture struct {
	uc      *GenerateUseCase
	bars    *stubBars
	store   *repository.MemoryPredictionStore
	pub     *recPublisher
	metrics *recMetrics
}

func newGenerateFixture(now time.Time, isTrading calendar.TradingHourFunc, bars ...models.Bar) *generateFixture {
	f := &generateFixture{
		bars:    &stubBars{bars: bars},
		store:   repository.NewMemoryPredictionStore(),
		pub:     &recPublisher{},
		metrics: newRecMetrics(),
	}
	f.uc = NewGenerateUseCase(
		f.bars, f.store, f.pub,
		blocks.NewForecaster(blocks.DefaultPolicy(), 5*time.Minute),
		isTrading, f.metrics, fixedClock(now), logger.Nop(), 4,
	)
	return f
}

func TestGenerateHour(t *testing.T) {
	f := newGenerateFixture(at(10, 50), calendar.AlwaysOpen, rising(at(10, 0))...)
	ctx := context.Background()

	pred, err := f.uc.GenerateHour(ctx, "AAPL", at(10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Prediction != models.Bullish || pred.BarCount != 9 {
		t.Fatalf("prediction %s with %d bars, want BULLISH from 9", pred.Prediction, pred.BarCount)
	}
	if !pred.CreatedAt.Equal(at(10, 50)) {
		t.Fatalf("created_at %v, want %v", pred.CreatedAt, at(10, 50))
	}
	stored, err := f.store.Get(ctx, pred.Key())
	if err != nil || stored.Prediction != pred.Prediction {
		t.Fatalf("stored prediction %+v, %v", stored, err)
	}
	if len(f.pub.generated) != 1 {
		t.Fatalf("published %d generated events, want 1", len(f.pub.generated))
	}
	if f.metrics.generations[string(models.StatusGenerated)] != 1 {
		t.Fatalf("generation metrics %v", f.metrics.generations)
	}

	_, err = f.uc.GenerateHour(ctx, "AAPL", at(10, 0))
	if !errors.Is(err, domrepo.ErrPredictionExists) {
		t.Fatalf("second generation error %v, want ErrPredictionExists", err)
	}
	if f.bars.calls != 1 {
		t.Fatalf("bar source called %d times, want 1", f.bars.calls)
	}
}

func TestGenerateHourRejections(t *testing.T) {
	closed := func(string, time.Time) bool { return false }
	ctx := context.Background()

	cases := []struct {
		name      string
		isTrading calendar.TradingHourFunc
		hour      time.Time
		bars      []models.Bar
		want      error
		status    models.GenerationStatus
	}{
		{"unaligned", calendar.AlwaysOpen, at(10, 15), nil, ErrInvalidHour, models.StatusFailed},
		{"closed", closed, at(10, 0), nil, ErrMarketClosed, models.StatusSkippedClosed},
		{"future", calendar.AlwaysOpen, at(11, 0), nil, blocks.ErrNotDue, models.StatusSkippedFuture},
		{"no data", calendar.AlwaysOpen, at(10, 0), nil, blocks.ErrPrecondition, models.StatusSkippedNoData},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGenerateFixture(at(10, 50), tc.isTrading, tc.bars...)
			_, err := f.uc.GenerateHour(ctx, "AAPL", tc.hour)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error %v, want %v", err, tc.want)
			}
			if got := generationStatus(err); got != tc.status {
				t.Fatalf("status %s, want %s", got, tc.status)
			}
			if len(f.pub.generated) != 0 {
				t.Fatalf("nothing should be published")
			}
		})
	}
}

func TestGenerateHourNotDueCarriesPredictionPoint(t *testing.T) {
	f := newGenerateFixture(at(10, 30), calendar.AlwaysOpen, rising(at(10, 0))...)
	_, err := f.uc.GenerateHour(context.Background(), "AAPL", at(10, 0))
	var nd *blocks.NotDueError
	if !errors.As(err, &nd) {
		t.Fatalf("error %v, want NotDueError", err)
	}
	if !nd.Until.Equal(blocks.PredictionTime(at(10, 0))) {
		t.Fatalf("until %v, want prediction point", nd.Until)
	}
}

func TestGenerateHourSourceFailure(t *testing.T) {
	f := newGenerateFixture(at(10, 50), calendar.AlwaysOpen)
	f.bars.err = errors.New("clickhouse down")
	_, err := f.uc.GenerateHour(context.Background(), "AAPL", at(10, 0))
	if err == nil || generationStatus(err) != models.StatusFailed {
		t.Fatalf("error %v, want failed status", err)
	}
	if f.metrics.errors["generate"] != 1 {
		t.Fatalf("error metrics %v", f.metrics.errors)
	}
}

func TestGenerateHourPublishFailureKeepsPrediction(t *testing.T) {
	f := newGenerateFixture(at(10, 50), calendar.AlwaysOpen, rising(at(10, 0))...)
	f.pub.err = errors.New("broker unavailable")
	pred, err := f.uc.GenerateHour(context.Background(), "AAPL", at(10, 0))
	if err != nil || pred == nil {
		t.Fatalf("GenerateHour = %v, %v; want prediction", pred, err)
	}
	if f.metrics.errors["publish_generated"] != 1 {
		t.Fatalf("error metrics %v", f.metrics.errors)
	}
}

func TestGenerateDay(t *testing.T) {
	bars := append(rising(at(3, 0)), rising(at(14, 0))...)
	f := newGenerateFixture(at(14, 50), calendar.AlwaysOpen, bars...)

	res, err := f.uc.GenerateDay(context.Background(), "AAPL", at(9, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Date.Equal(day) || len(res.Outcomes) != 24 {
		t.Fatalf("date %v with %d outcomes", res.Date, len(res.Outcomes))
	}
	if res.Generated != 2 || res.Skipped != 22 || res.Failed != 0 {
		t.Fatalf("generated %d skipped %d failed %d", res.Generated, res.Skipped, res.Failed)
	}
	for i, out := range res.Outcomes {
		if !out.HourStart.Equal(at(i, 0)) {
			t.Fatalf("outcome %d is for %v", i, out.HourStart)
		}
		var want models.GenerationStatus
		switch {
		case i == 3 || i == 14:
			want = models.StatusGenerated
		case i > 14:
			want = models.StatusSkippedFuture
		default:
			want = models.StatusSkippedNoData
		}
		if out.Status != want {
			t.Errorf("hour %d status %s, want %s", i, out.Status, want)
		}
		if (out.Prediction != nil) != (want == models.StatusGenerated) {
			t.Errorf("hour %d prediction presence mismatch", i)
		}
	}

	again, err := f.uc.GenerateDay(context.Background(), "AAPL", day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Generated != 0 || again.Outcomes[3].Status != models.StatusSkippedExists {
		t.Fatalf("rerun generated %d, hour 3 status %s", again.Generated, again.Outcomes[3].Status)
	}
}

func TestGenerateDaySessionCalendar(t *testing.T) {
	s, err := calendar.NewSession("UTC", "09:30", "16:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := newGenerateFixture(at(23, 59), s.IsTradingHour)
	res, err := f.uc.GenerateDay(context.Background(), "AAPL", day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	closedCount := 0
	for _, out := range res.Outcomes {
		if out.Status == models.StatusSkippedClosed {
			closedCount++
		}
	}
	if closedCount != 17 {
		t.Fatalf("%d closed hours, want 17", closedCount)
	}
}
