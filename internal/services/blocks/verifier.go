package blocks

import (
	"time"

	"github.com/shopspring/decimal"

	"BlockCast/internal/domain/models"
)

// ActualOutcome compares the hour's realized close with the reference price.
// Moves within the relative tolerance count as NEUTRAL. Prices are compared in
// decimal so float noise never decides the direction.
func ActualOutcome(closePrice, reference, tolerance float64) models.Direction {
	c := decimal.NewFromFloat(closePrice)
	r := decimal.NewFromFloat(reference)
	diff := c.Sub(r)
	if diff.IsZero() {
		return models.Neutral
	}
	if !r.IsZero() && diff.Abs().Div(r.Abs()).LessThanOrEqual(decimal.NewFromFloat(tolerance)) {
		return models.Neutral
	}
	if diff.IsPositive() {
		return models.Bullish
	}
	return models.Bearish
}

// ComputeOutcome segments the full hour for pred and derives its realized outcome.
// It fails with NotDueError before the hour has closed and with
// InsufficientDataError when segments 6-7 hold no bars.
func ComputeOutcome(pred *models.BlockPrediction, bars []models.Bar, now time.Time, p Policy) (models.Outcome, error) {
	end := pred.HourStart.Add(time.Hour)
	if now.Before(end) {
		return models.Outcome{}, &NotDueError{Until: end}
	}
	blocks := Segment(bars, pred.HourStart, pred.ReferencePrice, pred.Volatility)
	late := blocks[PredictionBlocks:]
	n := 0
	for _, b := range late {
		n += b.BarCount
	}
	if n == 0 {
		return models.Outcome{}, &InsufficientDataError{What: "bars in segments 6-7", Got: 0, Want: 1}
	}
	actual := ActualOutcome(blocks[Segments-1].PriceAtEnd, pred.ReferencePrice, p.NeutralTolerance)
	return models.Outcome{
		ActualOutcome: actual,
		IsCorrect:     actual == pred.Prediction,
		VerifiedAt:    now,
		OutcomeBlocks: late,
	}, nil
}

// Verify fills in the outcome of an unverified prediction. It reports false
// without touching pred when pred is already verified.
func Verify(pred *models.BlockPrediction, bars []models.Bar, now time.Time, p Policy) (bool, error) {
	if pred.Verified {
		return false, nil
	}
	out, err := ComputeOutcome(pred, bars, now, p)
	if err != nil {
		return false, err
	}
	out.Apply(pred)
	return true, nil
}

// Evaluator binds ComputeOutcome to a policy.
type Evaluator struct {
	policy Policy
}

func NewEvaluator(policy Policy) *Evaluator { return &Evaluator{policy: policy} }

func (e *Evaluator) Evaluate(pred *models.BlockPrediction, bars []models.Bar, now time.Time) (models.Outcome, error) {
	return ComputeOutcome(pred, bars, now, e.policy)
}
