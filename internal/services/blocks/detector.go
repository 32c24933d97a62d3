package blocks

import (
	"fmt"
	"math"

	"BlockCast/internal/domain/models"
)

// Detection is the bias and counter reading of the first five segments.
type Detection struct {
	EarlyBias         models.Bias
	EarlyStrength     float64
	EarlyMean         float64
	HasCounter        bool
	CounterDirection  models.Bias
	CounterStrength   float64
	OpposingSegments  []int
	DeviationAt57     float64
	EarlyDeviationEnd float64
}

// DetectBias reads the early bias from the mean deviation of segments 1-2.
// Strength is the absolute mean; below the bias threshold the bias is NONE.
func DetectBias(blocks []models.BlockAnalysis, p Policy) (models.Bias, float64, float64) {
	if len(blocks) < 2 {
		return models.BiasNone, 0, 0
	}
	mean := (blocks[0].DeviationFromOpen + blocks[1].DeviationFromOpen) / 2
	strength := math.Abs(mean)
	switch {
	case mean >= p.BiasThreshold:
		return models.BiasUp, strength, mean
	case mean <= -p.BiasThreshold:
		return models.BiasDown, strength, mean
	default:
		return models.BiasNone, strength, mean
	}
}

// DetectCounter looks for a sustained move against bias across segments 3-5.
//
// Segment k opposes the bias when its deviation step from segment k-1 moves
// against the bias by more than the counter threshold, or when its deviation
// already sits beyond the threshold on the far side of the open. A counter is sustained
// only when at least CounterMinRun consecutive segments oppose, so a one-segment
// blip never counts. Strength is the retrace from segment 2 to segment 5.
func DetectCounter(blocks []models.BlockAnalysis, bias models.Bias, p Policy) (bool, models.Bias, float64, []int) {
	if bias == models.BiasNone || len(blocks) < PredictionBlocks {
		return false, models.BiasNone, 0, nil
	}
	s := bias.Sign()
	var opposing []int
	run, best := 0, 0
	for k := 3; k <= PredictionBlocks; k++ {
		step := blocks[k-1].DeviationFromOpen - blocks[k-2].DeviationFromOpen
		if -s*step > p.CounterThreshold || -s*blocks[k-1].DeviationFromOpen > p.CounterThreshold {
			opposing = append(opposing, k)
			run++
			if run > best {
				best = run
			}
			continue
		}
		run = 0
	}
	if best < p.CounterMinRun {
		return false, models.BiasNone, 0, opposing
	}
	retrace := s * (blocks[1].DeviationFromOpen - blocks[PredictionBlocks-1].DeviationFromOpen)
	return true, bias.Opposite(), math.Max(0, retrace), opposing
}

// Detect runs bias and counter detection over the first five segments.
func Detect(blocks []models.BlockAnalysis, p Policy) (Detection, error) {
	if len(blocks) < PredictionBlocks {
		return Detection{}, &PreconditionError{Reason: fmt.Sprintf("need %d blocks, got %d", PredictionBlocks, len(blocks)), Err: ErrInsufficientBlocks}
	}
	bias, strength, mean := DetectBias(blocks, p)
	has, dir, cs, opp := DetectCounter(blocks, bias, p)
	return Detection{
		EarlyBias:         bias,
		EarlyStrength:     strength,
		EarlyMean:         mean,
		HasCounter:        has,
		CounterDirection:  dir,
		CounterStrength:   cs,
		OpposingSegments:  opp,
		DeviationAt57:     blocks[PredictionBlocks-1].DeviationFromOpen,
		EarlyDeviationEnd: blocks[1].DeviationFromOpen,
	}, nil
}
