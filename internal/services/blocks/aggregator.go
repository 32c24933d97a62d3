package blocks

import (
	"fmt"

	"BlockCast/internal/domain/models"
)

// Aggregate rolls verified predictions up into an accuracy report. Unverified
// predictions are only counted. Every bucket of the chosen grouping is present,
// empty ones included, in a fixed order.
func Aggregate(preds []models.BlockPrediction, by models.BucketBy) (models.AccuracyReport, error) {
	var keys []string
	var keyOf func(p *models.BlockPrediction) string
	switch by {
	case models.BucketByStrength:
		keys = []string{string(models.StrengthWeak), string(models.StrengthModerate), string(models.StrengthStrong)}
		keyOf = func(p *models.BlockPrediction) string { return string(p.PredictionStrength) }
	case models.BucketByConfidenceDecile:
		for i := 0; i < 10; i++ {
			keys = append(keys, decileKey(i))
		}
		keyOf = func(p *models.BlockPrediction) string {
			d := int(p.Confidence / 10)
			if d < 0 {
				d = 0
			}
			if d > 9 {
				d = 9
			}
			return decileKey(d)
		}
	default:
		return models.AccuracyReport{}, fmt.Errorf("unknown bucket_by %q", by)
	}

	idx := make(map[string]int, len(keys))
	buckets := make([]models.AccuracyBucket, len(keys))
	for i, k := range keys {
		idx[k] = i
		buckets[i].Key = k
	}

	rep := models.AccuracyReport{BucketBy: by}
	for i := range preds {
		p := &preds[i]
		if !p.Verified || p.IsCorrect == nil {
			rep.Unverified++
			continue
		}
		rep.Total++
		b, ok := idx[keyOf(p)]
		if ok {
			buckets[b].Count++
		}
		if *p.IsCorrect {
			rep.Correct++
			if ok {
				buckets[b].Correct++
			}
		}
	}
	for i := range buckets {
		buckets[i].AccuracyPct = pct(buckets[i].Correct, buckets[i].Count)
	}
	rep.AccuracyPct = pct(rep.Correct, rep.Total)
	rep.Buckets = buckets
	return rep, nil
}

func decileKey(d int) string { return fmt.Sprintf("%d-%d", d*10, d*10+9) }

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
