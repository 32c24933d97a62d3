package di

import (
	"testing"

	"BlockCast/internal/repository"
	"BlockCast/pkg/config"
	"BlockCast/pkg/logger"
)

func testConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestProvidePolicyOverlaysDefaults(t *testing.T) {
	cfg := testConfig(t, `
market_data:
  base_url: http://bars.local
prediction:
  policy:
    bias_threshold: 0.5
    counter_min_run: 3
`)
	p, err := ProvidePolicy(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.BiasThreshold != 0.5 || p.CounterMinRun != 3 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if p.CounterThreshold != 0.15 {
		t.Fatalf("unset field lost its default: %v", p.CounterThreshold)
	}
}

func TestProvidePolicyRejectsInvalid(t *testing.T) {
	cfg := testConfig(t, `
market_data:
  base_url: http://bars.local
prediction:
  policy:
    counter_min_run: 5
`)
	if _, err := ProvidePolicy(cfg); err == nil {
		t.Fatalf("expected error for counter_min_run 5")
	}
}

func TestOptionalInfrastructureDisabled(t *testing.T) {
	cfg := testConfig(t, `
market_data:
  base_url: http://bars.local
`)
	if ch, err := ProvideClickHouseClient(cfg); ch != nil || err != nil {
		t.Fatalf("clickhouse should be disabled: %v", err)
	}
	if pg, err := ProvidePostgresClient(cfg); pg != nil || err != nil {
		t.Fatalf("postgres should be disabled: %v", err)
	}
	if p, err := ProvideKafkaProducer(cfg); p != nil || err != nil {
		t.Fatalf("kafka should be disabled: %v", err)
	}
	if q, err := ProvideQueue(cfg, logger.Nop(), nil, nil, nil); q != nil || err != nil {
		t.Fatalf("queue should be disabled: %v", err)
	}

	store, err := ProvidePredictionStore(nil, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*repository.MemoryPredictionStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if _, ok := ProvidePredictionPublisher(nil, cfg).(repository.NopPredictionPublisher); !ok {
		t.Fatalf("expected nop publisher")
	}

	src, err := ProvideBarSource(nil, cfg)
	if err != nil || src == nil {
		t.Fatalf("bar source = %v, %v", src, err)
	}
}

func TestProvideCalendar(t *testing.T) {
	cfg := testConfig(t, `
market_data:
  base_url: http://bars.local
prediction:
  calendar:
    mode: session
    location: UTC
    open: "09:30"
    close: "16:00"
`)
	fn, err := ProvideCalendar(cfg)
	if err != nil || fn == nil {
		t.Fatalf("calendar = %v", err)
	}
}
