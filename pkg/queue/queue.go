package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Enqueuer submits background work by message type.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error)
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
	JobTimeout time.Duration // upper bound for one Handle call
}

// Message represents a message in the queue
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode unmarshals a job payload into T.
func Decode[T any](payload json.RawMessage) (*T, error) {
	var out T
	if len(payload) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}

// ParseMode maps a config string onto a QueueMode.
func ParseMode(s string) (QueueMode, error) {
	switch s {
	case "", "producer_consumer":
		return ModeProducerConsumer, nil
	case "producer_only":
		return ModeProducerOnly, nil
	case "consumer_only":
		return ModeConsumerOnly, nil
	default:
		return 0, fmt.Errorf("unknown queue mode %q", s)
	}
}
