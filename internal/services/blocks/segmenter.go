package blocks

import (
	"math"
	"time"

	"BlockCast/internal/domain/models"
	"BlockCast/internal/services/features"
)

const (
	// Segments is the number of equal slices an hour is cut into.
	Segments = 7
	// PredictionBlocks is the number of segments observed before forecasting.
	PredictionBlocks = 5

	// Volatility at or below this is treated as zero.
	volatilityEpsilon = 1e-9
)

// SegmentBounds returns the half-open interval [start, end) of segment n (1-based).
// Boundaries are computed in integer nanoseconds from hourStart so segments tile
// the hour exactly.
func SegmentBounds(hourStart time.Time, n int) (time.Time, time.Time) {
	start := hourStart.Add(time.Duration(int64(n-1) * int64(time.Hour) / Segments))
	end := hourStart.Add(time.Duration(int64(n) * int64(time.Hour) / Segments))
	return start, end
}

// PredictionTime is the end of segment 5, about 42m51s into the hour.
func PredictionTime(hourStart time.Time) time.Time {
	_, end := SegmentBounds(hourStart, PredictionBlocks)
	return end
}

// Segment splits the hour starting at hourStart into seven blocks and
// summarizes each one against the opening price.
//
// Bars outside the hour and bars without a usable close are ignored. A segment
// without bars carries the previous segment's closing price (the opening price
// for segment 1) and reports zero volume.
func Segment(bars []models.Bar, hourStart time.Time, opening, volatility float64) []models.BlockAnalysis {
	hourEnd := hourStart.Add(time.Hour)
	usable := make([]models.Bar, 0, len(bars))
	for _, b := range models.BarsBetween(bars, hourStart, hourEnd) {
		if !finite(b.Close) {
			continue
		}
		usable = append(usable, b)
	}
	features.SortBars(usable)

	out := make([]models.BlockAnalysis, 0, Segments)
	carry := opening
	idx := 0
	for n := 1; n <= Segments; n++ {
		start, end := SegmentBounds(hourStart, n)
		j := idx
		for j < len(usable) && usable[j].Timestamp.Before(end) {
			j++
		}
		blk := summarize(n, start, end, usable[idx:j], carry, opening, volatility)
		out = append(out, blk)
		carry = blk.PriceAtEnd
		idx = j
	}
	return out
}

func summarize(n int, start, end time.Time, seg []models.Bar, carry, opening, volatility float64) models.BlockAnalysis {
	blk := models.BlockAnalysis{
		BlockNumber: n,
		StartTime:   start,
		EndTime:     end,
		HighPrice:   carry,
		LowPrice:    carry,
		PriceAtEnd:  carry,
		BarCount:    len(seg),
	}
	if len(seg) > 0 {
		blk.HighPrice = math.Inf(-1)
		blk.LowPrice = math.Inf(1)
		for _, b := range seg {
			blk.HighPrice = maxFinite(blk.HighPrice, b.High, b.Open, b.Close)
			blk.LowPrice = minFinite(blk.LowPrice, b.Low, b.Open, b.Close)
			if finite(b.Volume) {
				blk.Volume += b.Volume
			}
		}
		blk.PriceAtEnd = seg[len(seg)-1].Close
	}

	blk.DeviationFromOpen = deviation(blk.PriceAtEnd, opening, volatility)
	blk.CrossesOpen = blk.LowPrice <= opening && opening <= blk.HighPrice

	// Each price holds from its bar timestamp until the next bar or segment end.
	var above, below time.Duration
	cursor, price := start, carry
	hold := func(until time.Time) {
		d := until.Sub(cursor)
		switch {
		case price > opening:
			above += d
		case price < opening:
			below += d
		}
		cursor = until
	}
	for _, b := range seg {
		hold(b.Timestamp)
		price = b.Close
	}
	hold(end)

	total := float64(end.Sub(start))
	blk.TimeAboveOpen = float64(above) / total
	blk.TimeBelowOpen = float64(below) / total
	return blk
}

func deviation(price, opening, volatility float64) float64 {
	if volatility <= volatilityEpsilon {
		return 0
	}
	return (price - opening) / volatility
}

func maxFinite(cur float64, vals ...float64) float64 {
	for _, v := range vals {
		if finite(v) && v > cur {
			cur = v
		}
	}
	return cur
}

func minFinite(cur float64, vals ...float64) float64 {
	for _, v := range vals {
		if finite(v) && v < cur {
			cur = v
		}
	}
	return cur
}
