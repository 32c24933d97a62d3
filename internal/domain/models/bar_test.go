package models

import (
	"math"
	"testing"
	"time"
)

func TestBarMessageBar(t *testing.T) {
	c := 101.5
	sec := BarMessage{T: 1709560800, O: 100, H: 102, L: 99, C: &c, V: 1200}.Bar()
	want := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	if !sec.Timestamp.Equal(want) || sec.Close != 101.5 {
		t.Fatalf("unexpected bar %+v", sec)
	}

	ms := BarMessage{T: 1709560800000}.Bar()
	if !ms.Timestamp.Equal(want) {
		t.Fatalf("millisecond timestamp decoded as %v", ms.Timestamp)
	}
	if !math.IsNaN(ms.Close) {
		t.Fatalf("null close should decode to NaN, got %v", ms.Close)
	}
}

func TestBarsBetween(t *testing.T) {
	h := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	bars := []Bar{{Timestamp: h.Add(-time.Minute)}, {Timestamp: h}, {Timestamp: h.Add(59 * time.Minute)}, {Timestamp: h.Add(time.Hour)}}
	got := BarsBetween(bars, h, h.Add(time.Hour))
	if len(got) != 2 || !got[0].Timestamp.Equal(h) {
		t.Fatalf("unexpected window %+v", got)
	}
}
