package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "gzip")

	payload := map[string]interface{}{"ticker": "AAPL", "confidence": 81.5}
	if err := p.Publish(context.Background(), "predictions.generated", []byte("AAPL"), payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}
	m := w.msgs[0]
	if m.Topic != "predictions.generated" || string(m.Key) != "AAPL" {
		t.Fatalf("unexpected message %s/%s", m.Topic, m.Key)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(m.Value, &got); err != nil || got["ticker"] != "AAPL" {
		t.Fatalf("unexpected payload %s (%v)", m.Value, err)
	}
}

func TestProducerPublishBytesVerbatim(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "gzip")
	if err := p.PublishMessage(context.Background(), "logs", []byte("raw")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if string(w.msgs[0].Value) != "raw" || w.msgs[0].Key != nil {
		t.Fatalf("unexpected message %+v", w.msgs[0])
	}
}

func TestProducerPublishWrapsError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&recordingWriter{err: boom}, "gzip")
	if err := p.Publish(context.Background(), "t", nil, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

func TestHookChainStopsOnError(t *testing.T) {
	calls := 0
	counting := HookFuncs{Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
		calls++
		return ctx, km, d, nil
	}}
	chain := NewHookChain(NonEmptyHook(), counting)
	_, _, _, err := chain.BeforeHandle(context.Background(), "bars", kafka.Message{}, nil)
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_VALIDATION" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("later hooks should not run after an error")
	}
}

func TestTraceHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := TraceHook().BeforeHandle(context.Background(), "bars", km, []byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Value(CtxTraceID) != "abc" {
		t.Fatalf("trace id not propagated")
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(10, 100, attempt)
		if d <= 0 || d > 100 {
			t.Fatalf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
