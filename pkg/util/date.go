package util

import (
	"fmt"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseDate parses YYYY-MM-DD as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseHour parses an hour start. The instant must fall exactly on an hour
// boundary; it is returned in UTC.
func ParseHour(s string) (time.Time, error) {
	t, ok := ParseTime(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid hour %q, want RFC3339 or unix seconds", s)
	}
	t = t.UTC()
	if !t.Equal(HourStart(t)) {
		return time.Time{}, fmt.Errorf("hour %q is not aligned to the hour", s)
	}
	return t, nil
}

// HourStart truncates t to its UTC hour.
func HourStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// HoursOfDay returns the 24 hour starts of the UTC day containing day.
func HoursOfDay(day time.Time) []time.Time {
	d := day.UTC()
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 24)
	for i := range out {
		out[i] = midnight.Add(time.Duration(i) * time.Hour)
	}
	return out
}
