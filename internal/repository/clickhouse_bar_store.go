package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"BlockCast/internal/domain/models"
	domrepo "BlockCast/internal/domain/repository"
	pkgch "BlockCast/pkg/clickhouse"
	applogger "BlockCast/pkg/logger"
)

const barInsertChunk = 2000

// CHBarStore implements BarStore backed by a ClickHouse ReplacingMergeTree.
// Re-delivered bars for the same (ticker, tf, ts) collapse to the latest ingest.
type CHBarStore struct {
	db    *sql.DB
	table string
	tf    domrepo.Timeframe
	l     *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, table string, tf domrepo.Timeframe, l *applogger.Logger) *CHBarStore {
	return &CHBarStore{
		db:    ch.DB(),
		table: ch.Database() + "." + table,
		tf:    tf,
		l:     l,
	}
}

func (s *CHBarStore) schema() []string {
	db := s.table[:strings.IndexByte(s.table, '.')]
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            ticker      LowCardinality(String),
            tf          LowCardinality(String),
            ts          DateTime64(3, 'UTC'),
            open        Float64,
            high        Float64,
            low         Float64,
            close       Nullable(Float64),
            volume      Float64,
            ingested_at DateTime64(3, 'UTC') DEFAULT now64(3)
        ) ENGINE = ReplacingMergeTree(ingested_at)
        PARTITION BY toYYYYMM(ts)
        ORDER BY (ticker, tf, ts)`, s.table),
	}
}

func (s *CHBarStore) Init(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init bars schema: %w", err)
		}
	}
	return nil
}

func (s *CHBarStore) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.Bar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE ticker = ? AND tf = ? AND ts >= ? AND ts < ?
        ORDER BY ts ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, string(s.tf), from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse get_bars query error",
			applogger.String("ticker", ticker),
			applogger.Time("from", from),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 64)
	for rows.Next() {
		var (
			b  models.Bar
			cl sql.NullFloat64
		)
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &cl, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		b.Close = math.NaN()
		if cl.Valid {
			b.Close = cl.Float64
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse get_bars ok",
		applogger.String("ticker", ticker),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// StoreBars inserts bars in multi-row VALUES chunks. Bars without a ticker or
// timestamp are skipped.
func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.TickerBar) error {
	for start := 0; start < len(bars); start += barInsertChunk {
		end := min(start+barInsertChunk, len(bars))
		q, args := s.insertStatement(bars[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return nil
}

func (s *CHBarStore) insertStatement(bars []models.TickerBar) (string, []interface{}) {
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*8)
	for _, b := range bars {
		if b.Ticker == "" || b.Timestamp.IsZero() {
			continue
		}
		var cl interface{}
		if !math.IsNaN(b.Close) {
			cl = b.Close
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, b.Ticker, string(s.tf), b.Timestamp.UTC(), b.Open, b.High, b.Low, cl, b.Volume)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ticker, tf, ts, open, high, low, close, volume) VALUES %s",
		s.table, strings.Join(values, ","))
	return q, args
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.Client.
func (s *CHBarStore) Close() error {
	return nil
}
