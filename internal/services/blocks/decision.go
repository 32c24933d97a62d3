package blocks

import (
	"fmt"
	"math"
	"strings"

	"BlockCast/internal/domain/models"
)

// DecisionInput is the five observed segments. Deviations are already
// volatility-normalized by Segment.
type DecisionInput struct {
	Blocks []models.BlockAnalysis
}

// Decision is the forecast produced by Decide.
type Decision struct {
	Detection
	Prediction models.Direction
	Confidence float64
	Strength   models.Strength
	Steps      []string
}

// Path renders the decision steps as a single human-readable string.
func (d Decision) Path() string { return strings.Join(d.Steps, " -> ") }

// decisionState is one node of the decision graph:
//
//	unresolved -> neutral -> resolved
//	unresolved -> biased -> trending -> resolved
//	unresolved -> biased -> countered -> flipped|weakened -> resolved
type decisionState interface {
	next(p Policy) (decisionState, string)
}

type unresolved struct{ det Detection }
type neutralState struct{ det Detection }
type biased struct{ det Detection }
type trending struct{ det Detection }
type countered struct{ det Detection }
type flipped struct{ det Detection }
type weakened struct{ det Detection }

type resolved struct {
	prediction models.Direction
	confidence float64
}

func (s unresolved) next(p Policy) (decisionState, string) {
	d := s.det
	if d.EarlyBias == models.BiasNone {
		return neutralState(s), fmt.Sprintf("early=NONE(%.2f)", d.EarlyMean)
	}
	return biased(s), fmt.Sprintf("early=%s(%s)", d.EarlyBias, p.signalLabel(d.EarlyStrength))
}

func (s neutralState) next(p Policy) (decisionState, string) {
	conf := p.ConfidenceFloor + p.NeutralSlope*s.det.EarlyStrength
	return resolved{prediction: models.Neutral, confidence: conf}, "final=NEUTRAL"
}

func (s biased) next(p Policy) (decisionState, string) {
	d := s.det
	if !d.HasCounter {
		return trending(s), "counter=none"
	}
	return countered(s), fmt.Sprintf("counter=%s(%s)", d.CounterDirection, p.signalLabel(d.CounterStrength))
}

func (s trending) next(p Policy) (decisionState, string) {
	return resolved{prediction: models.DirectionFor(s.det.EarlyBias), confidence: trendConfidence(s.det, p)},
		"final=" + string(s.det.EarlyBias)
}

func (s countered) next(p Policy) (decisionState, string) {
	d := s.det
	if d.CounterStrength > p.CounterDominance*d.EarlyStrength {
		return flipped(s), "dominant=yes"
	}
	return weakened(s), "dominant=no"
}

func (s flipped) next(p Policy) (decisionState, string) {
	d := s.det
	excess := math.Min(d.CounterStrength-d.EarlyStrength, p.SignalCap)
	conf := p.CounterBase + p.CounterWeight*excess
	return resolved{prediction: models.DirectionFor(d.CounterDirection), confidence: conf},
		"final=" + string(d.CounterDirection)
}

func (s weakened) next(p Policy) (decisionState, string) {
	d := s.det
	conf := trendConfidence(d, p) - p.CounterPenalty - p.CounterStrengthPenalty*math.Min(d.CounterStrength, p.SignalCap)
	return resolved{prediction: models.DirectionFor(d.EarlyBias), confidence: conf},
		"final=" + string(d.EarlyBias)
}

func (s resolved) next(Policy) (decisionState, string) { return s, "" }

// trendConfidence scores a bias that held: early strength plus how far segment 5
// sits in the bias direction, with a bonus when the move kept extending.
func trendConfidence(d Detection, p Policy) float64 {
	s := d.EarlyBias.Sign()
	late := math.Max(-p.SignalCap, math.Min(p.SignalCap, s*d.DeviationAt57))
	conf := p.BaseConfidence + p.StrengthWeight*math.Min(d.EarlyStrength, p.SignalCap) + p.LateWeight*late
	if s*(d.DeviationAt57-d.EarlyDeviationEnd) > 0 {
		conf += p.ContinuationBonus
	}
	return conf
}

// Decide walks the decision graph over the first five segments and returns the
// forecast, its confidence within the policy bounds, a strength bucket and the
// path taken. Fewer than five blocks is the only failure.
func Decide(in DecisionInput, p Policy) (Decision, error) {
	det, err := Detect(in.Blocks, p)
	if err != nil {
		return Decision{}, err
	}

	var (
		st    decisionState = unresolved{det: det}
		steps []string
	)
	for {
		if r, ok := st.(resolved); ok {
			conf := p.clamp(r.confidence)
			return Decision{
				Detection:  det,
				Prediction: r.prediction,
				Confidence: conf,
				Strength:   StrengthFor(conf, r.prediction, det.DeviationAt57, p),
				Steps:      steps,
			}, nil
		}
		var step string
		st, step = st.next(p)
		steps = append(steps, step)
	}
}

// StrengthFor buckets a confidence, downgrading one level when segment 5 sits
// on the other side of the open from the forecast.
func StrengthFor(conf float64, pred models.Direction, dev57 float64, p Policy) models.Strength {
	level := 1
	switch {
	case conf < p.WeakBelow:
		level = 0
	case conf > p.StrongAbove:
		level = 2
	}
	var s float64
	switch pred {
	case models.Bullish:
		s = 1
	case models.Bearish:
		s = -1
	}
	if s*dev57 < 0 && level > 0 {
		level--
	}
	return []models.Strength{models.StrengthWeak, models.StrengthModerate, models.StrengthStrong}[level]
}
