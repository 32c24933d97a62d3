package repository

import "time"

// Timeframe represents the bar resolution delivered by market data. Only
// resolutions finer than one seventh of an hour are useful for segmentation.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF2m Timeframe = "2m"
	TF5m Timeframe = "5m"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF2m, TF5m:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF5m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// TimeframeFor maps a bar spacing onto its timeframe label.
func TimeframeFor(d time.Duration) (Timeframe, bool) {
	for _, tf := range []Timeframe{TF1m, TF2m, TF5m} {
		if tf.Duration() == d {
			return tf, true
		}
	}
	return "", false
}

// Duration returns the bar spacing for tf.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF2m:
		return 2 * time.Minute
	default:
		return 5 * time.Minute
	}
}
