package calendar

import (
	"fmt"
	"time"
)

// TradingHourFunc reports whether the hour starting at hourStart is a trading hour for ticker.
type TradingHourFunc func(ticker string, hourStart time.Time) bool

// AlwaysOpen treats every hour as tradable (crypto, 24h feeds).
func AlwaysOpen(string, time.Time) bool { return true }

// Session is a weekday trading session in a fixed location, e.g. 09:30-16:00 America/New_York.
type Session struct {
	loc   *time.Location
	open  time.Duration
	close time.Duration
}

// NewSession parses a session. open and close are "HH:MM" in the location.
func NewSession(location, open, close string) (*Session, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", location, err)
	}
	o, err := parseClock(open)
	if err != nil {
		return nil, err
	}
	c, err := parseClock(close)
	if err != nil {
		return nil, err
	}
	if c <= o {
		return nil, fmt.Errorf("session close %s must be after open %s", close, open)
	}
	return &Session{loc: loc, open: o, close: c}, nil
}

// Bounds returns the session's open and close instants on the given day.
func (s *Session) Bounds(day time.Time) (time.Time, time.Time) {
	d := day.In(s.loc)
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return midnight.Add(s.open), midnight.Add(s.close)
}

// IsTradingHour reports whether the hour overlaps the session on a weekday.
// Partially covered hours (09:00 for a 09:30 open) count as trading.
func (s *Session) IsTradingHour(_ string, hourStart time.Time) bool {
	local := hourStart.In(s.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	open, close := s.Bounds(local)
	hourEnd := hourStart.Add(time.Hour)
	return hourStart.Before(close) && hourEnd.After(open)
}

// New builds the calendar for a mode: "always" or "session".
func New(mode, location, open, close string) (TradingHourFunc, error) {
	switch mode {
	case "", "always":
		return AlwaysOpen, nil
	case "session":
		s, err := NewSession(location, open, close)
		if err != nil {
			return nil, err
		}
		return s.IsTradingHour, nil
	default:
		return nil, fmt.Errorf("unknown calendar mode %q", mode)
	}
}

func parseClock(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", v, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
