package di

import (
	"context"
	"fmt"
	"time"

	domrepo "BlockCast/internal/domain/repository"
	"BlockCast/internal/domain/service"
	"BlockCast/internal/handler/api"
	internalrepo "BlockCast/internal/repository"
	"BlockCast/internal/services/blocks"
	"BlockCast/internal/services/calendar"
	"BlockCast/internal/usecase"
	"BlockCast/pkg/cache"
	pkgch "BlockCast/pkg/clickhouse"
	"BlockCast/pkg/config"
	xhttp "BlockCast/pkg/http"
	pkgkafka "BlockCast/pkg/kafka"
	"BlockCast/pkg/logger"
	"BlockCast/pkg/metrics"
	pkgpg "BlockCast/pkg/postgres"
	"BlockCast/pkg/queue"
	"BlockCast/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger. When the collector is enabled
// and Kafka is available, error digests are published to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

func ProvideClock() service.Clock {
	return time.Now
}

// ProvidePolicy overlays configured thresholds on the engine defaults.
func ProvidePolicy(cfg *config.Config) (blocks.Policy, error) {
	p := blocks.DefaultPolicy()
	c := cfg.Prediction.Policy
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat(&p.BiasThreshold, c.BiasThreshold)
	setFloat(&p.CounterThreshold, c.CounterThreshold)
	if c.CounterMinRun != nil {
		p.CounterMinRun = *c.CounterMinRun
	}
	setFloat(&p.CounterDominance, c.CounterDominance)
	setFloat(&p.StrongSignal, c.StrongSignal)
	setFloat(&p.ModerateSignal, c.ModerateSignal)
	setFloat(&p.BaseConfidence, c.BaseConfidence)
	setFloat(&p.NeutralSlope, c.NeutralSlope)
	setFloat(&p.StrengthWeight, c.StrengthWeight)
	setFloat(&p.LateWeight, c.LateWeight)
	setFloat(&p.ContinuationBonus, c.ContinuationBonus)
	setFloat(&p.SignalCap, c.SignalCap)
	setFloat(&p.CounterBase, c.CounterBase)
	setFloat(&p.CounterWeight, c.CounterWeight)
	setFloat(&p.CounterPenalty, c.CounterPenalty)
	setFloat(&p.CounterStrengthPenalty, c.CounterStrengthPenalty)
	setFloat(&p.WeakBelow, c.WeakBelow)
	setFloat(&p.StrongAbove, c.StrongAbove)
	setFloat(&p.MinBarCoverage, c.MinBarCoverage)
	setFloat(&p.NeutralTolerance, c.NeutralTolerance)
	if err := p.Validate(); err != nil {
		return blocks.Policy{}, fmt.Errorf("prediction.policy: %w", err)
	}
	return p, nil
}

func ProvideCalendar(cfg *config.Config) (calendar.TradingHourFunc, error) {
	c := cfg.Prediction.Calendar
	fn, err := calendar.New(c.Mode, c.Location, c.Open, c.Close)
	if err != nil {
		return nil, fmt.Errorf("prediction.calendar: %w", err)
	}
	return fn, nil
}

func ProvideForecaster(policy blocks.Policy, cfg *config.Config) service.Forecaster {
	return blocks.NewForecaster(policy, cfg.Prediction.BarInterval)
}

func ProvideEvaluator(policy blocks.Policy) service.OutcomeEvaluator {
	return blocks.NewEvaluator(policy)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the ClickHouse bar table, or nil without ClickHouse.
func ProvideBarStore(ch *pkgch.Client, cfg *config.Config, l *logger.Logger) (*internalrepo.CHBarStore, error) {
	if ch == nil {
		return nil, nil
	}
	tf, ok := domrepo.TimeframeFor(cfg.Prediction.BarInterval)
	if !ok {
		return nil, fmt.Errorf("no timeframe for bar interval %s", cfg.Prediction.BarInterval)
	}
	store := internalrepo.NewCHBarStore(ch, cfg.ClickHouse.Table, tf, l)
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("bar store init: %w", err)
	}
	return store, nil
}

// ProvideBarSource chains ClickHouse and the market-data HTTP service. The
// first source that returns bars wins.
func ProvideBarSource(store *internalrepo.CHBarStore, cfg *config.Config) (domrepo.BarSource, error) {
	tf, ok := domrepo.TimeframeFor(cfg.Prediction.BarInterval)
	if !ok {
		return nil, fmt.Errorf("no timeframe for bar interval %s", cfg.Prediction.BarInterval)
	}
	var sources []internalrepo.NamedBarSource
	if store != nil {
		sources = append(sources, internalrepo.NamedBarSource{Name: "clickhouse", BarSource: store})
	}
	if cfg.MarketData.BaseURL != "" {
		opts := []xhttp.ClientOption{
			xhttp.WithBaseURL(cfg.MarketData.BaseURL),
			xhttp.WithTimeout(cfg.MarketData.Timeout),
		}
		if cfg.MarketData.APIKey != "" {
			opts = append(opts, xhttp.WithHeader("Authorization", "Bearer "+cfg.MarketData.APIKey))
		}
		src := internalrepo.NewHTTPBarSource(xhttp.NewClient(opts...), tf)
		sources = append(sources, internalrepo.NamedBarSource{Name: "market-data", BarSource: src})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no bar source configured")
	}
	return internalrepo.NewFallbackBarSource(sources...), nil
}

// ProvidePostgresClient opens the pgx pool, or returns nil when no DSN is set.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	if cfg.Postgres.DSN == "" {
		return nil, nil
	}
	client, err := pkgpg.NewClient(
		pkgpg.WithDSN(cfg.Postgres.DSN),
		pkgpg.WithMaxConns(cfg.Postgres.MaxConns),
		pkgpg.WithConnectTimeout(cfg.Postgres.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	return client, nil
}

// ProvidePredictionStore uses Postgres when configured and memory otherwise.
func ProvidePredictionStore(pg *pkgpg.Client, l *logger.Logger) (domrepo.PredictionStore, error) {
	if pg == nil {
		l.Warn("postgres not configured; predictions are kept in memory")
		return internalrepo.NewMemoryPredictionStore(), nil
	}
	store := internalrepo.NewPGPredictionStore(pg.Pool())
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("prediction store init: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvidePredictionPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.PredictionPublisher {
	if producer == nil {
		return internalrepo.NopPredictionPublisher{}
	}
	return internalrepo.NewKafkaPredictionPublisher(producer, cfg.Kafka.PredictionsTopic)
}

// ProvideRedisCache connects to Redis, or returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache prefers Redis so verification locks hold across replicas.
func ProvideCache(rc *cache.RedisCache, l *logger.Logger) cache.Service {
	if rc == nil {
		l.Warn("redis not configured; verification locks are process-local")
		return cache.NewMemoryCache()
	}
	return rc
}

func ProvideGenerateUseCase(
	bars domrepo.BarSource,
	store domrepo.PredictionStore,
	pub domrepo.PredictionPublisher,
	forecaster service.Forecaster,
	isTrading calendar.TradingHourFunc,
	m domrepo.Metrics,
	clock service.Clock,
	l *logger.Logger,
	cfg *config.Config,
) *usecase.GenerateUseCase {
	return usecase.NewGenerateUseCase(bars, store, pub, forecaster, isTrading, m, clock, l, cfg.Prediction.Workers)
}

func ProvideVerifyUseCase(
	bars domrepo.BarSource,
	store domrepo.PredictionStore,
	pub domrepo.PredictionPublisher,
	evaluator service.OutcomeEvaluator,
	c cache.Service,
	m domrepo.Metrics,
	clock service.Clock,
	l *logger.Logger,
	cfg *config.Config,
) *usecase.VerifyUseCase {
	return usecase.NewVerifyUseCase(bars, store, pub, evaluator, c, m, clock, l, cfg.Prediction.LockTTL)
}

func ProvideAccuracyUseCase(store domrepo.PredictionStore, c cache.Service, l *logger.Logger, cfg *config.Config) *usecase.AccuracyUseCase {
	return usecase.NewAccuracyUseCase(store, c, l, cfg.Prediction.AccuracyTTL)
}

// ProvideQueue creates the Redis job queue with both prediction jobs
// registered, or nil when the queue is disabled.
func ProvideQueue(
	cfg *config.Config,
	l *logger.Logger,
	rc *cache.RedisCache,
	gen *usecase.GenerateUseCase,
	ver *usecase.VerifyUseCase,
) (*queue.RedisQueue, error) {
	if !cfg.Queue.Enabled {
		return nil, nil
	}
	if rc == nil {
		return nil, fmt.Errorf("queue requires redis")
	}
	mode, err := queue.ParseMode(cfg.Queue.Mode)
	if err != nil {
		return nil, err
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
		JobTimeout: cfg.Queue.JobTimeout,
	}, rc.Client(), mode, queue.WithKeyPrefix(cfg.Redis.Prefix+":queue"))
	q.RegisterJobs([]queue.Job{
		usecase.NewGenerateDayJob(gen, l),
		usecase.NewVerifyPendingJob(ver, cfg.Prediction.VerifyDelay, cfg.Prediction.VerifyLimit),
	})
	return q, nil
}

// ProvideKafkaConsumer creates the bar-ingest consumer. It needs both an
// enabled consumer section and a ClickHouse bar store to write into.
func ProvideKafkaConsumer(
	cfg *config.Config,
	l *logger.Logger,
	store *internalrepo.CHBarStore,
	m domrepo.Metrics,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	if store == nil {
		l.Warn("kafka bar consumer enabled without clickhouse; consumer disabled")
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.NonEmptyHook(), pkgkafka.TraceHook()))
	consumer.RegisterHandler(usecase.NewBarIngestHandler(cfg.Kafka.BarsTopic, store, m))
	return consumer, nil
}

func ProvidePredictionsHandler(
	l *logger.Logger,
	gen *usecase.GenerateUseCase,
	ver *usecase.VerifyUseCase,
	acc *usecase.AccuracyUseCase,
	store domrepo.PredictionStore,
	q *queue.RedisQueue,
) *api.PredictionsEchoHandler {
	var jobs queue.Enqueuer
	if q != nil {
		jobs = q
	}
	return api.NewPredictionsEchoHandler(l, gen, ver, acc, store, jobs)
}

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, h *api.PredictionsEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold),
	)
}

// ProvideApp assembles the lifecycle. Workers start before HTTP and stop
// after it; clients close in reverse order of registration.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	q *queue.RedisQueue,
	ch *pkgch.Client,
	pg *pkgpg.Client,
	producer *pkgkafka.Producer,
	rc *cache.RedisCache,
	store domrepo.PredictionStore,
	pub domrepo.PredictionPublisher,
) *server.App {
	app := server.New(l, srv, cfg.Server.ShutdownTimeout)
	if consumer != nil {
		app.AddComponent("kafka-bars-consumer", consumer)
	}
	if q != nil {
		app.AddComponent("job-queue", q)
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	if pg != nil {
		app.AddCloser("postgres", pg)
	}
	if rc != nil {
		app.AddCloser("redis", rc)
	}
	app.AddCloser("prediction-store", store)
	app.AddCloser("prediction-publisher", pub)
	if producer != nil {
		app.AddCloser("kafka-producer", producer)
	}
	return app
}
