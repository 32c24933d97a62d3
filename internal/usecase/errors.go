package usecase

import (
	"errors"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/services/blocks"
)

var (
	// ErrMarketClosed is returned for hours the trading calendar excludes.
	ErrMarketClosed = errors.New("market closed for hour")
	// ErrInvalidHour is returned for hour starts not aligned to the hour.
	ErrInvalidHour = errors.New("hour start must be aligned to the hour")
)

// generationStatus maps a GenerateHour error onto its batch status.
func generationStatus(err error) models.GenerationStatus {
	switch {
	case err == nil:
		return models.StatusGenerated
	case errors.Is(err, ErrMarketClosed):
		return models.StatusSkippedClosed
	case errors.Is(err, blocks.ErrNotDue):
		return models.StatusSkippedFuture
	case errors.Is(err, domrepo.ErrPredictionExists):
		return models.StatusSkippedExists
	case errors.Is(err, blocks.ErrPrecondition):
		return models.StatusSkippedNoData
	default:
		return models.StatusFailed
	}
}
