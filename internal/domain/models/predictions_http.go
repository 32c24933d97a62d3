package models

// Requests for prediction HTTP endpoints. Defined in domain for consistency and reuse.

type GenerateHourRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Hour   string `query:"hour" json:"hour" validate:"required"`
}

type GenerateDayRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Date   string `query:"date" json:"date" validate:"required"`
}

type VerifyRequest struct {
	OlderThanMinutes int `query:"older_than_minutes" json:"older_than_minutes" default:"5" validate:"gte=0,lte=10080"`
	Limit            int `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type ListPredictionsRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

type AccuracyRequest struct {
	Ticker   string `query:"ticker" json:"ticker"`
	From     string `query:"from" json:"from"`
	To       string `query:"to" json:"to"`
	BucketBy string `query:"bucket_by" json:"bucket_by" default:"strength" validate:"oneof=strength confidence_decile"`
}
