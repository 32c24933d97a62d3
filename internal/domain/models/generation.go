package models

import "time"

// GenerationStatus is the per-hour result of a generation attempt.
type GenerationStatus string

const (
	StatusGenerated     GenerationStatus = "generated"
	StatusSkippedNoData GenerationStatus = "skipped_no_data"
	StatusSkippedFuture GenerationStatus = "skipped_future"
	StatusSkippedExists GenerationStatus = "skipped_exists"
	StatusSkippedClosed GenerationStatus = "skipped_closed"
	StatusFailed        GenerationStatus = "failed"
)

// GenerationOutcome reports what happened to one ticker-hour.
type GenerationOutcome struct {
	Ticker     string           `json:"ticker"`
	HourStart  time.Time        `json:"hour_start"`
	Status     GenerationStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
	Prediction *BlockPrediction `json:"prediction,omitempty"`
}

// DayGenerationResult collects the 24 hourly outcomes for one ticker-date.
type DayGenerationResult struct {
	Ticker    string              `json:"ticker"`
	Date      time.Time           `json:"date"`
	Outcomes  []GenerationOutcome `json:"outcomes"`
	Generated int                 `json:"generated"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
}

// VerificationStatus is the per-prediction result of a verification pass.
type VerificationStatus string

const (
	VerifyDone        VerificationStatus = "verified"
	VerifyAlreadyDone VerificationStatus = "already_verified"
	VerifyUnavailable VerificationStatus = "unavailable"
	VerifyLocked      VerificationStatus = "locked"
	VerifyFailed      VerificationStatus = "failed"
)

// VerificationItem reports one prediction's verification.
type VerificationItem struct {
	Ticker    string             `json:"ticker"`
	HourStart time.Time          `json:"hour_start"`
	Status    VerificationStatus `json:"status"`
	IsCorrect *bool              `json:"is_correct,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// VerificationResult summarizes a verification pass.
type VerificationResult struct {
	Checked         int                `json:"checked"`
	Verified        int                `json:"verified"`
	AlreadyVerified int                `json:"already_verified"`
	Unavailable     int                `json:"unavailable"`
	Failed          int                `json:"failed"`
	Items           []VerificationItem `json:"items"`
}
