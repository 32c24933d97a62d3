package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
)

// MemoryPredictionStore keeps predictions in a map. It backs tests and
// single-process deployments without Postgres.
type MemoryPredictionStore struct {
	mu    sync.RWMutex
	items map[models.PredictionKey]*models.BlockPrediction
}

func NewMemoryPredictionStore() *MemoryPredictionStore {
	return &MemoryPredictionStore{items: make(map[models.PredictionKey]*models.BlockPrediction)}
}

func (s *MemoryPredictionStore) Init(context.Context) error { return nil }

func (s *MemoryPredictionStore) Create(_ context.Context, p *models.BlockPrediction) error {
	key := normalizeKey(p.Key())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return fmt.Errorf("%s: %w", key, domrepo.ErrPredictionExists)
	}
	s.items[key] = clonePrediction(p)
	return nil
}

func (s *MemoryPredictionStore) Get(_ context.Context, key models.PredictionKey) (*models.BlockPrediction, error) {
	key = normalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domrepo.ErrPredictionNotFound)
	}
	return clonePrediction(p), nil
}

func (s *MemoryPredictionStore) List(_ context.Context, f domrepo.PredictionFilter) ([]models.BlockPrediction, error) {
	return s.collect(func(p *models.BlockPrediction) bool {
		if f.Ticker != "" && p.Ticker != f.Ticker {
			return false
		}
		if !f.From.IsZero() && p.HourStart.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && !p.HourStart.Before(f.To) {
			return false
		}
		return true
	}, 0), nil
}

func (s *MemoryPredictionStore) ListPending(_ context.Context, endedBy time.Time, limit int) ([]models.BlockPrediction, error) {
	return s.collect(func(p *models.BlockPrediction) bool {
		return !p.Verified && !p.HourStart.Add(time.Hour).After(endedBy)
	}, limit), nil
}

// MarkVerified is a compare-and-set on the verified flag under the store lock.
func (s *MemoryPredictionStore) MarkVerified(_ context.Context, key models.PredictionKey, out models.Outcome) (bool, error) {
	key = normalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[key]
	if !ok {
		return false, fmt.Errorf("%s: %w", key, domrepo.ErrPredictionNotFound)
	}
	if p.Verified {
		return false, nil
	}
	out.Apply(p)
	return true, nil
}

func (s *MemoryPredictionStore) Close() error { return nil }

func (s *MemoryPredictionStore) collect(match func(*models.BlockPrediction) bool, limit int) []models.BlockPrediction {
	s.mu.RLock()
	out := make([]models.BlockPrediction, 0, len(s.items))
	for _, p := range s.items {
		if match(p) {
			out = append(out, *clonePrediction(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].HourStart.Equal(out[j].HourStart) {
			return out[i].HourStart.Before(out[j].HourStart)
		}
		return out[i].Ticker < out[j].Ticker
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// normalizeKey makes keys comparable with ==: UTC location, no monotonic reading.
func normalizeKey(k models.PredictionKey) models.PredictionKey {
	return models.PredictionKey{Ticker: k.Ticker, HourStart: k.HourStart.UTC().Round(0)}
}

func clonePrediction(p *models.BlockPrediction) *models.BlockPrediction {
	c := *p
	c.HourStart = p.HourStart.UTC().Round(0)
	c.DecisionSteps = append([]string(nil), p.DecisionSteps...)
	c.BlockData = append([]models.BlockAnalysis(nil), p.BlockData...)
	c.OutcomeBlocks = append([]models.BlockAnalysis(nil), p.OutcomeBlocks...)
	if p.IsCorrect != nil {
		v := *p.IsCorrect
		c.IsCorrect = &v
	}
	if p.ActualOutcome != nil {
		v := *p.ActualOutcome
		c.ActualOutcome = &v
	}
	if p.VerifiedAt != nil {
		v := *p.VerifiedAt
		c.VerifiedAt = &v
	}
	return &c
}
