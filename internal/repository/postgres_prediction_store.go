package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
)

var predictionSchema = []string{
	`CREATE TABLE IF NOT EXISTS block_predictions (
		ticker                VARCHAR(32)      NOT NULL,
		hour_start            TIMESTAMPTZ      NOT NULL,
		prediction_timestamp  TIMESTAMPTZ      NOT NULL,
		reference_price       DOUBLE PRECISION NOT NULL,
		volatility            DOUBLE PRECISION NOT NULL,
		early_bias            VARCHAR(8)       NOT NULL,
		early_bias_strength   DOUBLE PRECISION NOT NULL,
		has_sustained_counter BOOLEAN          NOT NULL,
		counter_direction     VARCHAR(8)       NOT NULL DEFAULT '',
		counter_strength      DOUBLE PRECISION NOT NULL DEFAULT 0,
		deviation_at_5_7      DOUBLE PRECISION NOT NULL,
		prediction            VARCHAR(8)       NOT NULL,
		confidence            DOUBLE PRECISION NOT NULL,
		prediction_strength   VARCHAR(10)      NOT NULL,
		decision_path         TEXT             NOT NULL,
		decision_steps        JSONB            NOT NULL,
		block_data            JSONB            NOT NULL,
		bar_count             INTEGER          NOT NULL,
		partial_hour          BOOLEAN          NOT NULL DEFAULT FALSE,
		created_at            TIMESTAMPTZ      NOT NULL,
		verified              BOOLEAN          NOT NULL DEFAULT FALSE,
		is_correct            BOOLEAN,
		actual_outcome        VARCHAR(8),
		verified_at           TIMESTAMPTZ,
		outcome_blocks        JSONB,
		PRIMARY KEY (ticker, hour_start)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_block_predictions_pending ON block_predictions (hour_start) WHERE verified = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_block_predictions_verified_at ON block_predictions (verified_at)`,
}

const predictionColumns = `ticker, hour_start, prediction_timestamp, reference_price, volatility,
	early_bias, early_bias_strength, has_sustained_counter, counter_direction, counter_strength,
	deviation_at_5_7, prediction, confidence, prediction_strength, decision_path, decision_steps,
	block_data, bar_count, partial_hour, created_at, verified, is_correct, actual_outcome,
	verified_at, outcome_blocks`

// PGPredictionStore implements PredictionStore on Postgres. Uniqueness is the
// (ticker, hour_start) primary key; verification is a conditional UPDATE.
type PGPredictionStore struct {
	pool *pgxpool.Pool
}

func NewPGPredictionStore(pool *pgxpool.Pool) *PGPredictionStore {
	return &PGPredictionStore{pool: pool}
}

func (s *PGPredictionStore) Init(ctx context.Context) error {
	for _, stmt := range predictionSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init predictions schema: %w", err)
		}
	}
	return nil
}

func (s *PGPredictionStore) Create(ctx context.Context, p *models.BlockPrediction) error {
	steps, err := json.Marshal(p.DecisionSteps)
	if err != nil {
		return fmt.Errorf("marshal decision steps: %w", err)
	}
	blocks, err := json.Marshal(p.BlockData)
	if err != nil {
		return fmt.Errorf("marshal block data: %w", err)
	}
	q := `INSERT INTO block_predictions (
			ticker, hour_start, prediction_timestamp, reference_price, volatility,
			early_bias, early_bias_strength, has_sustained_counter, counter_direction, counter_strength,
			deviation_at_5_7, prediction, confidence, prediction_strength, decision_path, decision_steps,
			block_data, bar_count, partial_hour, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (ticker, hour_start) DO NOTHING`
	tag, err := s.pool.Exec(ctx, q,
		p.Ticker, p.HourStart.UTC(), p.PredictionTimestamp.UTC(), p.ReferencePrice, p.Volatility,
		string(p.EarlyBias), p.EarlyBiasStrength, p.HasSustainedCounter, string(p.CounterDirection), p.CounterStrength,
		p.DeviationAt57, string(p.Prediction), p.Confidence, string(p.PredictionStrength), p.DecisionPath, string(steps),
		string(blocks), p.BarCount, p.PartialHour, p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert prediction %s: %w", p.Key(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", p.Key(), domrepo.ErrPredictionExists)
	}
	return nil
}

func (s *PGPredictionStore) Get(ctx context.Context, key models.PredictionKey) (*models.BlockPrediction, error) {
	q := `SELECT ` + predictionColumns + ` FROM block_predictions WHERE ticker = $1 AND hour_start = $2`
	p, err := scanPrediction(s.pool.QueryRow(ctx, q, key.Ticker, key.HourStart.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, domrepo.ErrPredictionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction %s: %w", key, err)
	}
	return p, nil
}

func (s *PGPredictionStore) List(ctx context.Context, f domrepo.PredictionFilter) ([]models.BlockPrediction, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Ticker != "" {
		add("ticker = $%d", f.Ticker)
	}
	if !f.From.IsZero() {
		add("hour_start >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("hour_start < $%d", f.To.UTC())
	}
	q := `SELECT ` + predictionColumns + ` FROM block_predictions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY hour_start ASC, ticker ASC"
	return s.query(ctx, q, args...)
}

func (s *PGPredictionStore) ListPending(ctx context.Context, endedBy time.Time, limit int) ([]models.BlockPrediction, error) {
	q, args := pendingQuery(endedBy, limit)
	return s.query(ctx, q, args...)
}

// pendingQuery selects unverified predictions whose hour ended by endedBy.
// A non-positive limit means no limit, as in MemoryPredictionStore.
func pendingQuery(endedBy time.Time, limit int) (string, []interface{}) {
	q := `SELECT ` + predictionColumns + ` FROM block_predictions
		WHERE verified = FALSE AND hour_start <= $1
		ORDER BY hour_start ASC, ticker ASC`
	args := []interface{}{endedBy.Add(-time.Hour).UTC()}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}
	return q, args
}

// MarkVerified writes the outcome only while verified is still false, so two
// racing verifiers cannot both record a result.
func (s *PGPredictionStore) MarkVerified(ctx context.Context, key models.PredictionKey, out models.Outcome) (bool, error) {
	blocks, err := json.Marshal(out.OutcomeBlocks)
	if err != nil {
		return false, fmt.Errorf("marshal outcome blocks: %w", err)
	}
	q := `UPDATE block_predictions
		SET verified = TRUE, is_correct = $3, actual_outcome = $4, verified_at = $5, outcome_blocks = $6
		WHERE ticker = $1 AND hour_start = $2 AND verified = FALSE`
	tag, err := s.pool.Exec(ctx, q, key.Ticker, key.HourStart.UTC(),
		out.IsCorrect, string(out.ActualOutcome), out.VerifiedAt.UTC(), string(blocks))
	if err != nil {
		return false, fmt.Errorf("mark verified %s: %w", key, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM block_predictions WHERE ticker = $1 AND hour_start = $2)`,
		key.Ticker, key.HourStart.UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("mark verified %s: %w", key, err)
	}
	if !exists {
		return false, fmt.Errorf("%s: %w", key, domrepo.ErrPredictionNotFound)
	}
	return false, nil
}

// Close is a no-op; the pool is owned by pkg/postgres.Client.
func (s *PGPredictionStore) Close() error {
	return nil
}

func (s *PGPredictionStore) query(ctx context.Context, q string, args ...interface{}) ([]models.BlockPrediction, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.BlockPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanPrediction(row pgx.Row) (*models.BlockPrediction, error) {
	var (
		p                                  models.BlockPrediction
		earlyBias, counterDir, pred, stren string
		steps, blocks, outcomeBlocks       []byte
		actual                             *string
	)
	err := row.Scan(
		&p.Ticker, &p.HourStart, &p.PredictionTimestamp, &p.ReferencePrice, &p.Volatility,
		&earlyBias, &p.EarlyBiasStrength, &p.HasSustainedCounter, &counterDir, &p.CounterStrength,
		&p.DeviationAt57, &pred, &p.Confidence, &stren, &p.DecisionPath, &steps,
		&blocks, &p.BarCount, &p.PartialHour, &p.CreatedAt, &p.Verified, &p.IsCorrect, &actual,
		&p.VerifiedAt, &outcomeBlocks,
	)
	if err != nil {
		return nil, err
	}
	p.HourStart = p.HourStart.UTC()
	p.PredictionTimestamp = p.PredictionTimestamp.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.EarlyBias = models.Bias(earlyBias)
	p.CounterDirection = models.Bias(counterDir)
	p.Prediction = models.Direction(pred)
	p.PredictionStrength = models.Strength(stren)
	if actual != nil {
		d := models.Direction(*actual)
		p.ActualOutcome = &d
	}
	if p.VerifiedAt != nil {
		at := p.VerifiedAt.UTC()
		p.VerifiedAt = &at
	}
	if err := json.Unmarshal(steps, &p.DecisionSteps); err != nil {
		return nil, fmt.Errorf("decision steps: %w", err)
	}
	if err := json.Unmarshal(blocks, &p.BlockData); err != nil {
		return nil, fmt.Errorf("block data: %w", err)
	}
	if len(outcomeBlocks) > 0 {
		if err := json.Unmarshal(outcomeBlocks, &p.OutcomeBlocks); err != nil {
			return nil, fmt.Errorf("outcome blocks: %w", err)
		}
	}
	return &p, nil
}
