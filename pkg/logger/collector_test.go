package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
	err     error
}

func (f *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.batches = append(f.batches, payload.([]AggregatedLogEntry))
	return f.err
}

func (f *fakePublisher) entries() []AggregatedLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorDeduplicates(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	fields := map[string]interface{}{"ticker": "AAPL"}
	c.AddLog("error", "fetch bars", fields, "repo.go:10")
	c.AddLog("error", "fetch bars", map[string]interface{}{"ticker": "AAPL"}, "repo.go:10")
	c.AddLog("error", "fetch bars", map[string]interface{}{"ticker": "MSFT"}, "repo.go:10")
	c.Close()

	got := pub.entries()
	if len(got) != 2 {
		t.Fatalf("expected 2 distinct entries, got %d", len(got))
	}
	counts := map[interface{}]int{}
	for _, e := range got {
		counts[e.Fields["ticker"]] = e.Count
	}
	if counts["AAPL"] != 2 || counts["MSFT"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if pub.topics[0] != "logs" {
		t.Fatalf("unexpected topic %q", pub.topics[0])
	}
}

func TestCollectorFlushesOnThreshold(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("warn", "a", nil, "x.go:1")
	c.AddLog("warn", "b", nil, "x.go:2")

	deadline := time.Now().Add(2 * time.Second)
	for len(pub.entries()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(pub.entries()); n != 2 {
		t.Fatalf("expected early flush of 2 entries, got %d", n)
	}
}

func TestCollectorPublishErrorDoesNotBlock(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})
	c.AddLog("error", "boom", nil, "x.go:1")
	c.Close()
	if len(pub.entries()) != 1 {
		t.Fatalf("expected one attempted publish")
	}
}

func TestLoggerFeedsCollector(t *testing.T) {
	pub := &fakePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub, Topic: "logs"})
	l.Error("store failed", String("ticker", "AAPL"))
	l.Info("ignored")
	l.RemoveCollector()

	got := pub.entries()
	if len(got) != 1 || got[0].Message != "store failed" || got[0].Level != "error" {
		t.Fatalf("unexpected entries %+v", got)
	}
}
