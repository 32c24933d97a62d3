package models

import "time"

// BucketBy selects how accuracy is grouped.
type BucketBy string

const (
	BucketByStrength         BucketBy = "strength"
	BucketByConfidenceDecile BucketBy = "confidence_decile"
)

// AccuracyBucket is one row of an accuracy roll-up.
type AccuracyBucket struct {
	Key         string  `json:"key"`
	Count       int     `json:"count"`
	Correct     int     `json:"correct"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// AccuracyReport summarizes verified predictions over a window.
type AccuracyReport struct {
	Ticker      string           `json:"ticker,omitempty"`
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	BucketBy    BucketBy         `json:"bucket_by"`
	Total       int              `json:"total"`
	Correct     int              `json:"correct"`
	AccuracyPct float64          `json:"accuracy_pct"`
	Unverified  int              `json:"unverified"`
	Buckets     []AccuracyBucket `json:"buckets"`
}
