package models

import (
	"math"
	"time"
)

// Bar represents one OHLCV sample at a fixed sub-hour interval.
// Timestamp is the bar's opening instant. A missing close is carried as NaN.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// TickerBar is a bar tagged with its instrument, used on ingest paths.
type TickerBar struct {
	Ticker string
	Bar
}

// BarsBetween returns the bars with from <= Timestamp < to. Input order is kept.
func BarsBetween(bars []Bar, from, to time.Time) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.Timestamp.Before(from) || !b.Timestamp.Before(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// BarMessage is the wire form of a bar on Kafka and the market-data HTTP API.
// T is unix seconds or milliseconds; a null close decodes to NaN.
type BarMessage struct {
	Ticker string   `json:"ticker,omitempty"`
	T      int64    `json:"t"`
	O      float64  `json:"o"`
	H      float64  `json:"h"`
	L      float64  `json:"l"`
	C      *float64 `json:"c"`
	V      float64  `json:"v"`
}

// Bar converts the message into a Bar in UTC.
func (m BarMessage) Bar() Bar {
	ts := m.T
	var t time.Time
	if ts > 1e11 {
		t = time.UnixMilli(ts).UTC()
	} else {
		t = time.Unix(ts, 0).UTC()
	}
	c := math.NaN()
	if m.C != nil {
		c = *m.C
	}
	return Bar{Timestamp: t, Open: m.O, High: m.H, Low: m.L, Close: c, Volume: m.V}
}
