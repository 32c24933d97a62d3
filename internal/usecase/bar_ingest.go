package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	pkgkafka "BlockCast/pkg/kafka"
)

// BarIngestHandler consumes bar messages from Kafka and writes them to the bar store.
type BarIngestHandler struct {
	topic   string
	store   domrepo.BarStore
	metrics domrepo.Metrics
}

func NewBarIngestHandler(topic string, store domrepo.BarStore, metrics domrepo.Metrics) *BarIngestHandler {
	return &BarIngestHandler{topic: topic, store: store, metrics: metrics}
}

func (h *BarIngestHandler) Topic() string { return h.topic }

// Handle accepts one BarMessage object or an array of them.
func (h *BarIngestHandler) Handle(ctx context.Context, b []byte) error {
	msgs, err := decodeBarMessages(b)
	if err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	bars := make([]models.TickerBar, 0, len(msgs))
	var newest time.Time
	for _, m := range msgs {
		ticker := strings.ToUpper(strings.TrimSpace(m.Ticker))
		if ticker == "" {
			h.metrics.RecordError("consumer_invalid")
			return fmt.Errorf("bar message without ticker at t=%d", m.T)
		}
		bar := m.Bar()
		if bar.Timestamp.After(newest) {
			newest = bar.Timestamp
		}
		bars = append(bars, models.TickerBar{Ticker: ticker, Bar: bar})
	}
	h.metrics.RecordLatency("ingest_e2e", time.Since(newest).Seconds())

	start := time.Now()
	err = h.store.StoreBars(ctx, bars)
	h.metrics.RecordLatency("bar_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

func decodeBarMessages(b []byte) ([]models.BarMessage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty bar message")
	}
	if b[0] == '[' {
		var msgs []models.BarMessage
		if err := json.Unmarshal(b, &msgs); err != nil {
			return nil, fmt.Errorf("decode bar batch: %w", err)
		}
		return msgs, nil
	}
	var m models.BarMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode bar: %w", err)
	}
	return []models.BarMessage{m}, nil
}

var _ pkgkafka.MessageHandler = (*BarIngestHandler)(nil)
