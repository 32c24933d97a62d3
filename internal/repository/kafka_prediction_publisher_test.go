package repository

import (
	"context"
	"testing"
	"time"
)

type capturedEvent struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct{ events []capturedEvent }

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.events = append(f.events, capturedEvent{topic: topic, key: string(key), value: value})
	return nil
}

func TestKafkaPredictionPublisher(t *testing.T) {
	fp := &fakeProducer{}
	at := time.Date(2024, 3, 4, 15, 5, 0, 0, time.UTC)
	p := &KafkaPredictionPublisher{producer: fp, topic: "blockcast.predictions", now: func() time.Time { return at }}

	pr := pred("AAPL", hour0)
	if err := p.PublishGenerated(context.Background(), pr); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.PublishVerified(context.Background(), pr); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fp.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(fp.events))
	}
	ev := fp.events[1]
	if ev.topic != "blockcast.predictions" || ev.key != "AAPL" {
		t.Fatalf("unexpected routing %+v", ev)
	}
	pe, ok := ev.value.(PredictionEvent)
	if !ok || pe.Type != EventPredictionVerified || !pe.OccurredAt.Equal(at) || pe.Prediction != pr {
		t.Fatalf("unexpected payload %+v", ev.value)
	}
}
