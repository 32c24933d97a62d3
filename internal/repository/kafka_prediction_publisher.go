package repository

import (
	"context"
	"time"

	"BlockCast/internal/domain/models"
	pkgkafka "BlockCast/pkg/kafka"
)

// Event types carried in the "type" field of prediction events.
const (
	EventPredictionGenerated = "prediction.generated"
	EventPredictionVerified  = "prediction.verified"
)

// PredictionEvent is the Kafka payload for prediction lifecycle events.
type PredictionEvent struct {
	Type       string                  `json:"type"`
	OccurredAt time.Time               `json:"occurred_at"`
	Prediction *models.BlockPrediction `json:"prediction"`
}

type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaPredictionPublisher writes events keyed by ticker so one ticker's
// events stay ordered within a partition.
type KafkaPredictionPublisher struct {
	producer eventProducer
	topic    string
	now      func() time.Time
}

func NewKafkaPredictionPublisher(producer *pkgkafka.Producer, topic string) *KafkaPredictionPublisher {
	return &KafkaPredictionPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaPredictionPublisher) PublishGenerated(ctx context.Context, pred *models.BlockPrediction) error {
	return p.publish(ctx, EventPredictionGenerated, pred)
}

func (p *KafkaPredictionPublisher) PublishVerified(ctx context.Context, pred *models.BlockPrediction) error {
	return p.publish(ctx, EventPredictionVerified, pred)
}

func (p *KafkaPredictionPublisher) publish(ctx context.Context, typ string, pred *models.BlockPrediction) error {
	return p.producer.Publish(ctx, p.topic, []byte(pred.Ticker), PredictionEvent{
		Type:       typ,
		OccurredAt: p.now().UTC(),
		Prediction: pred,
	})
}

// Close is a no-op; the producer is shared and closed by the app.
func (p *KafkaPredictionPublisher) Close() error { return nil }

// NopPredictionPublisher drops events when Kafka is disabled.
type NopPredictionPublisher struct{}

func (NopPredictionPublisher) PublishGenerated(context.Context, *models.BlockPrediction) error {
	return nil
}
func (NopPredictionPublisher) PublishVerified(context.Context, *models.BlockPrediction) error {
	return nil
}
func (NopPredictionPublisher) Close() error { return nil }
