package repository

import (
	"testing"
	"time"
)

func TestNormalizeTimeframe(t *testing.T) {
	cases := map[string]Timeframe{"": TF5m, "1m": TF1m, "2m": TF2m, "15m": TF5m, "1h": TF5m}
	for in, want := range cases {
		if got := NormalizeTimeframe(in); got != want {
			t.Errorf("NormalizeTimeframe(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestTimeframeFor(t *testing.T) {
	tf, ok := TimeframeFor(5 * time.Minute)
	if !ok || tf != TF5m {
		t.Fatalf("TimeframeFor(5m) = %q, %v", tf, ok)
	}
	if _, ok := TimeframeFor(3 * time.Minute); ok {
		t.Fatalf("3m should not map to a timeframe")
	}
	if TF2m.Duration() != 2*time.Minute {
		t.Fatalf("unexpected duration %v", TF2m.Duration())
	}
}
