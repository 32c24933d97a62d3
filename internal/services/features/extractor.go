package features

import (
	"math"
	"sort"
	"time"

	"BlockCast/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}) over the bar closes,
// seeded with the given anchor price so the first return is measured from it.
// Non-positive prices contribute a zero return.
func ComputeLogReturns(anchor float64, bars []models.Bar) []float64 {
	if len(bars) == 0 {
		return nil
	}
	out := make([]float64, 0, len(bars))
	prev := anchor
	for _, b := range bars {
		cur := b.Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
		} else {
			out = append(out, math.Log(cur/prev))
		}
		prev = cur
	}
	return out
}

// MeanSquare returns the mean of r^2. Returns are not demeaned, so a steady
// trend still contributes to realized variance.
func MeanSquare(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum2 := 0.0
	for _, r := range returns {
		sum2 += r * r
	}
	return sum2 / float64(len(returns))
}

// MedianSpacing returns the median gap between consecutive bar timestamps.
// Zero when fewer than two distinct timestamps exist.
func MedianSpacing(bars []models.Bar) time.Duration {
	if len(bars) < 2 {
		return 0
	}
	gaps := make([]time.Duration, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		d := bars[i].Timestamp.Sub(bars[i-1].Timestamp)
		if d > 0 {
			gaps = append(gaps, d)
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}

// BarsPerHour returns the expected number of bars per hour for an interval.
func BarsPerHour(interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return float64(time.Hour) / float64(interval)
}

// SortBars orders bars by timestamp ascending, in place.
func SortBars(bars []models.Bar) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
}
