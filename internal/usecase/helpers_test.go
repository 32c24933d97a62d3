package usecase

import (
	"context"
	"sync"
	"time"

	"BlockCast/internal/domain/models"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// rising returns twelve 5-minute bars for the hour, climbing from 100 to 110.
func rising(hourStart time.Time) []models.Bar {
	out := make([]models.Bar, 0, 12)
	prev := 100.0
	for i := 0; i < 12; i++ {
		c := 100 + 10*float64(i+1)/12
		out = append(out, models.Bar{
			Timestamp: hourStart.Add(time.Duration(i) * 5 * time.Minute),
			Open:      prev,
			High:      c,
			Low:       prev,
			Close:     c,
			Volume:    100,
		})
		prev = c
	}
	return out
}

type stubBars struct {
	mu    sync.Mutex
	bars  []models.Bar
	err   error
	calls int
}

func (s *stubBars) GetBars(_ context.Context, _ string, from, to time.Time) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return models.BarsBetween(s.bars, from, to), nil
}

type recMetrics struct {
	mu            sync.Mutex
	generations   map[string]int
	verifications map[string]int
	errors        map[string]int
}

func newRecMetrics() *recMetrics {
	return &recMetrics{
		generations:   map[string]int{},
		verifications: map[string]int{},
		errors:        map[string]int{},
	}
}

func (m *recMetrics) RecordGeneration(_, status string) {
	m.mu.Lock()
	m.generations[status]++
	m.mu.Unlock()
}

func (m *recMetrics) RecordConfidence(string, string, float64) {}

func (m *recMetrics) RecordVerification(_, status string) {
	m.mu.Lock()
	m.verifications[status]++
	m.mu.Unlock()
}

func (m *recMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *recMetrics) RecordLatency(string, float64) {}

type recPublisher struct {
	mu        sync.Mutex
	generated []models.PredictionKey
	verified  []models.PredictionKey
	err       error
}

func (p *recPublisher) PublishGenerated(_ context.Context, pred *models.BlockPrediction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generated = append(p.generated, pred.Key())
	return p.err
}

func (p *recPublisher) PublishVerified(_ context.Context, pred *models.BlockPrediction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified = append(p.verified, pred.Key())
	return p.err
}

func (p *recPublisher) Close() error { return nil }
