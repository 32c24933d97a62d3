package calendar

import (
	"testing"
	"time"
)

func TestSessionIsTradingHour(t *testing.T) {
	s, err := NewSession("UTC", "09:30", "16:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		hour int
		want bool
	}{
		{8, false},
		{9, true},
		{12, true},
		{15, true},
		{16, false},
		{23, false},
	}
	for _, tc := range cases {
		h := monday.Add(time.Duration(tc.hour) * time.Hour)
		if got := s.IsTradingHour("AAPL", h); got != tc.want {
			t.Errorf("hour %d: got %v, want %v", tc.hour, got, tc.want)
		}
	}
	saturday := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	if s.IsTradingHour("AAPL", saturday) {
		t.Fatalf("saturday should be closed")
	}
}

func TestNewModes(t *testing.T) {
	fn, err := New("always", "", "", "")
	if err != nil || !fn("BTC", time.Date(2024, 3, 9, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("always mode should be open: %v", err)
	}
	if _, err := New("session", "UTC", "16:00", "09:30"); err == nil {
		t.Fatalf("expected error for inverted session")
	}
	if _, err := New("lunar", "", "", ""); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
