package blocks

import (
	"math"
	"time"

	"BlockCast/internal/domain/models"
)

var testHour = time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)

// walk builds 5-minute bars starting at testHour. Each bar opens at the previous
// close (the first at opening) and closes at the next value of closes.
func walk(opening float64, closes ...float64) []models.Bar {
	out := make([]models.Bar, 0, len(closes))
	prev := opening
	for i, c := range closes {
		out = append(out, models.Bar{
			Timestamp: testHour.Add(time.Duration(i) * 5 * time.Minute),
			Open:      prev,
			High:      math.Max(prev, c),
			Low:       math.Min(prev, c),
			Close:     c,
			Volume:    100,
		})
		prev = c
	}
	return out
}

func barAt(offset time.Duration, price float64) models.Bar {
	return models.Bar{
		Timestamp: testHour.Add(offset),
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
		Volume:    10,
	}
}

func devs(vals ...float64) []models.BlockAnalysis {
	out := make([]models.BlockAnalysis, len(vals))
	for i, v := range vals {
		out[i] = models.BlockAnalysis{BlockNumber: i + 1, DeviationFromOpen: v}
	}
	return out
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }
