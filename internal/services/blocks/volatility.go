package blocks

import (
	"math"

	"BlockCast/internal/domain/models"
	"BlockCast/internal/services/features"
)

// EstimateVolatility returns the realized one-hour price volatility implied by
// an ordered bar sequence, in price units.
//
// Log returns are taken over [opening, close_1 .. close_n], squared without
// demeaning, scaled to one hour by the median bar spacing and converted back
// to price units by multiplying with the opening price.
func EstimateVolatility(bars []models.Bar, opening float64) (float64, error) {
	if len(bars) < 2 {
		return 0, &InsufficientDataError{What: "bars for volatility", Got: len(bars), Want: 2}
	}
	if !finite(opening) || opening <= 0 {
		return 0, &InvalidDataError{Field: "opening_price", Index: -1, Value: opening}
	}
	for i, b := range bars {
		if math.IsNaN(b.Close) {
			return 0, &MissingFieldError{Field: "close", Index: i}
		}
		if err := checkPrice("close", i, b.Close); err != nil {
			return 0, err
		}
		if err := checkPrice("open", i, b.Open); err != nil {
			return 0, err
		}
		if err := checkPrice("high", i, b.High); err != nil {
			return 0, err
		}
		if err := checkPrice("low", i, b.Low); err != nil {
			return 0, err
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return 0, &InvalidDataError{Field: "volume", Index: i, Value: b.Volume}
		}
	}

	returns := features.ComputeLogReturns(opening, bars)
	perHour := float64(len(returns))
	if spacing := features.MedianSpacing(bars); spacing > 0 {
		perHour = features.BarsPerHour(spacing)
	}
	return opening * math.Sqrt(features.MeanSquare(returns)*perHour), nil
}

func checkPrice(field string, i int, v float64) error {
	if !finite(v) || v < 0 {
		return &InvalidDataError{Field: field, Index: i, Value: v}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
