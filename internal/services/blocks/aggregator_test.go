package blocks

import (
	"testing"

	"BlockCast/internal/domain/models"
)

func verified(strength models.Strength, conf float64, correct bool) models.BlockPrediction {
	return models.BlockPrediction{
		PredictionStrength: strength,
		Confidence:         conf,
		Verified:           true,
		IsCorrect:          &correct,
	}
}

func TestAggregateByStrength(t *testing.T) {
	preds := []models.BlockPrediction{
		verified(models.StrengthStrong, 88, true),
		verified(models.StrengthStrong, 91, false),
		verified(models.StrengthWeak, 40, true),
		{PredictionStrength: models.StrengthModerate, Confidence: 60},
	}
	rep, err := Aggregate(preds, models.BucketByStrength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Total != 3 || rep.Correct != 2 || rep.Unverified != 1 {
		t.Fatalf("totals %d/%d unverified %d", rep.Correct, rep.Total, rep.Unverified)
	}
	if !near(rep.AccuracyPct, 200.0/3, 1e-9) {
		t.Fatalf("accuracy %v", rep.AccuracyPct)
	}
	want := []models.AccuracyBucket{
		{Key: "WEAK", Count: 1, Correct: 1, AccuracyPct: 100},
		{Key: "MODERATE"},
		{Key: "STRONG", Count: 2, Correct: 1, AccuracyPct: 50},
	}
	if len(rep.Buckets) != len(want) {
		t.Fatalf("got %d buckets", len(rep.Buckets))
	}
	for i := range want {
		if rep.Buckets[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, rep.Buckets[i], want[i])
		}
	}
}

func TestAggregateByConfidenceDecile(t *testing.T) {
	preds := []models.BlockPrediction{
		verified(models.StrengthWeak, 5, false),
		verified(models.StrengthStrong, 87, true),
		verified(models.StrengthStrong, 95, true),
	}
	rep, err := Aggregate(preds, models.BucketByConfidenceDecile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Buckets) != 10 || rep.Buckets[0].Key != "0-9" || rep.Buckets[9].Key != "90-99" {
		t.Fatalf("unexpected bucket keys %+v", rep.Buckets)
	}
	if rep.Buckets[0].Count != 1 || rep.Buckets[8].Correct != 1 || rep.Buckets[9].Correct != 1 {
		t.Fatalf("unexpected bucket counts %+v", rep.Buckets)
	}
}

func TestAggregateUnknownBucket(t *testing.T) {
	if _, err := Aggregate(nil, models.BucketBy("hour")); err == nil {
		t.Fatalf("expected error for unknown bucket")
	}
}

func TestAggregateEmpty(t *testing.T) {
	rep, err := Aggregate(nil, models.BucketByStrength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Total != 0 || rep.AccuracyPct != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}
