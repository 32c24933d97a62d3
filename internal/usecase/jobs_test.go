package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"BlockCast/internal/domain/models"
	"BlockCast/internal/services/calendar"
	"BlockCast/pkg/logger"
)

func TestGenerateDayJob(t *testing.T) {
	f := newGenerateFixture(at(23, 0), calendar.AlwaysOpen, rising(at(5, 0))...)
	job := NewGenerateDayJob(f.uc, logger.Nop())
	if job.Type() != JobGenerateDay {
		t.Fatalf("type %q", job.Type())
	}
	payload, _ := json.Marshal(GenerateDayPayload{Ticker: "AAPL", Date: "2024-03-04"})
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.store.Get(context.Background(), models.PredictionKey{Ticker: "AAPL", HourStart: at(5, 0)}); err != nil {
		t.Fatalf("job should have stored the 05:00 prediction: %v", err)
	}
}

func TestGenerateDayJobRejectsBadPayload(t *testing.T) {
	f := newGenerateFixture(at(23, 0), calendar.AlwaysOpen)
	job := NewGenerateDayJob(f.uc, logger.Nop())
	for _, payload := range []string{`{"date":"2024-03-04"}`, `{"ticker":"AAPL","date":"03/04/2024"}`, `{"ticker":`} {
		if err := job.Handle(context.Background(), json.RawMessage(payload)); err == nil {
			t.Errorf("payload %s: expected error", payload)
		}
	}
}

func TestVerifyPendingJobDefaults(t *testing.T) {
	f := newVerifyFixture(t, at(11, 10))
	job := NewVerifyPendingJob(f.verify, 5*time.Minute, 10)
	if job.Type() != JobVerifyPending {
		t.Fatalf("type %q", job.Type())
	}
	if err := job.Handle(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := f.store.Get(context.Background(), models.PredictionKey{Ticker: "AAPL", HourStart: at(10, 0)})
	if !p.Verified {
		t.Fatalf("hour 10 should be verified with the default delay")
	}

	// 90 minutes back from 11:10 leaves no hour eligible.
	payload, _ := json.Marshal(VerifyPendingPayload{OlderThanMinutes: 90})
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
