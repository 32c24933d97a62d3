package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BlockCast/pkg/logger"
	"BlockCast/pkg/queue"
	"BlockCast/pkg/util"
)

const (
	JobGenerateDay   = "predictions.generate_day"
	JobVerifyPending = "predictions.verify_pending"
)

// GenerateDayPayload is the queued form of a day generation request.
type GenerateDayPayload struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
}

// GenerateDayJob runs GenerateDay from the background queue.
type GenerateDayJob struct {
	uc  *GenerateUseCase
	log *logger.Logger
}

func NewGenerateDayJob(uc *GenerateUseCase, log *logger.Logger) *GenerateDayJob {
	return &GenerateDayJob{uc: uc, log: log}
}

func (j *GenerateDayJob) Name() string { return "generate-day" }
func (j *GenerateDayJob) Type() string { return JobGenerateDay }

func (j *GenerateDayJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.Decode[GenerateDayPayload](payload)
	if err != nil {
		return err
	}
	if p.Ticker == "" {
		return fmt.Errorf("generate-day job: ticker required")
	}
	date, err := util.ParseDate(p.Date)
	if err != nil {
		return fmt.Errorf("generate-day job: %w", err)
	}
	res, err := j.uc.GenerateDay(ctx, p.Ticker, date)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		j.log.Warn("generate-day job finished with failures",
			logger.String("ticker", p.Ticker),
			logger.String("date", p.Date),
			logger.Int("failed", res.Failed))
	}
	return nil
}

// VerifyPendingPayload is the queued form of a verification pass.
type VerifyPendingPayload struct {
	OlderThanMinutes int `json:"older_than_minutes"`
	Limit            int `json:"limit"`
}

// VerifyPendingJob runs VerifyPending from the background queue, falling back
// to the configured delay and limit when the payload leaves them unset.
type VerifyPendingJob struct {
	uc           *VerifyUseCase
	defaultDelay time.Duration
	defaultLimit int
}

func NewVerifyPendingJob(uc *VerifyUseCase, delay time.Duration, limit int) *VerifyPendingJob {
	return &VerifyPendingJob{uc: uc, defaultDelay: delay, defaultLimit: limit}
}

func (j *VerifyPendingJob) Name() string { return "verify-pending" }
func (j *VerifyPendingJob) Type() string { return JobVerifyPending }

func (j *VerifyPendingJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.Decode[VerifyPendingPayload](payload)
	if err != nil {
		return err
	}
	delay := j.defaultDelay
	if p.OlderThanMinutes > 0 {
		delay = time.Duration(p.OlderThanMinutes) * time.Minute
	}
	limit := j.defaultLimit
	if p.Limit > 0 {
		limit = p.Limit
	}
	_, err = j.uc.VerifyPending(ctx, delay, limit)
	return err
}

var (
	_ queue.Job = (*GenerateDayJob)(nil)
	_ queue.Job = (*VerifyPendingJob)(nil)
)
