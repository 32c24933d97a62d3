package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"20s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"blockcast.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"metrics"`
	Prediction Prediction `yaml:"prediction"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"blockcast"`
		Table            string        `yaml:"table" default:"bars"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN      string        `yaml:"dsn"`
		MaxConns int32         `yaml:"max_conns" default:"10"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		Prefix   string `yaml:"prefix" default:"blockcast"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		RequiredAcks     int      `yaml:"required_acks" default:"-1"`
		Compression      string   `yaml:"compression" default:"snappy"`
		PredictionsTopic string   `yaml:"predictions_topic" default:"blockcast.predictions"`
		BarsTopic        string   `yaml:"bars_topic" default:"blockcast.bars"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"blockcast-bars"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"1024"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"blockcast.bars.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	MarketData struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"market_data"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Mode       string        `yaml:"mode" default:"producer_consumer"`
		Workers    int           `yaml:"workers" default:"2"`
		RetryLimit int           `yaml:"retry_limit" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"30s"`
		JobTimeout time.Duration `yaml:"job_timeout" default:"10m"`
	} `yaml:"queue"`
}

// Prediction holds the forecasting knobs. Zero policy values fall back to the
// engine defaults; anything set here overrides them.
type Prediction struct {
	Tickers     []string      `yaml:"tickers"`
	BarInterval time.Duration `yaml:"bar_interval" default:"5m"`
	Workers     int           `yaml:"workers" default:"4"`
	VerifyDelay time.Duration `yaml:"verify_delay" default:"5m"`
	VerifyLimit int           `yaml:"verify_limit" default:"500"`
	LockTTL     time.Duration `yaml:"lock_ttl" default:"2m"`
	AccuracyTTL time.Duration `yaml:"accuracy_ttl" default:"5m"`
	Calendar    Calendar      `yaml:"calendar"`
	Policy      PolicyConfig  `yaml:"policy"`
}

type Calendar struct {
	Mode     string `yaml:"mode" default:"always"`
	Location string `yaml:"location" default:"America/New_York"`
	Open     string `yaml:"open" default:"09:30"`
	Close    string `yaml:"close" default:"16:00"`
}

// PolicyConfig mirrors blocks.Policy. Pointers distinguish "unset" from zero.
type PolicyConfig struct {
	BiasThreshold          *float64 `yaml:"bias_threshold"`
	CounterThreshold       *float64 `yaml:"counter_threshold"`
	CounterMinRun          *int     `yaml:"counter_min_run"`
	CounterDominance       *float64 `yaml:"counter_dominance"`
	StrongSignal           *float64 `yaml:"strong_signal"`
	ModerateSignal         *float64 `yaml:"moderate_signal"`
	BaseConfidence         *float64 `yaml:"base_confidence"`
	NeutralSlope           *float64 `yaml:"neutral_slope"`
	StrengthWeight         *float64 `yaml:"strength_weight"`
	LateWeight             *float64 `yaml:"late_weight"`
	ContinuationBonus      *float64 `yaml:"continuation_bonus"`
	SignalCap              *float64 `yaml:"signal_cap"`
	CounterBase            *float64 `yaml:"counter_base"`
	CounterWeight          *float64 `yaml:"counter_weight"`
	CounterPenalty         *float64 `yaml:"counter_penalty"`
	CounterStrengthPenalty *float64 `yaml:"counter_strength_penalty"`
	WeakBelow              *float64 `yaml:"weak_below"`
	StrongAbove            *float64 `yaml:"strong_above"`
	MinBarCoverage         *float64 `yaml:"min_bar_coverage"`
	NeutralTolerance       *float64 `yaml:"neutral_tolerance"`
}

// Load reads a YAML file, applies `default:` tags and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes into a defaulted Config.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BLOCKCAST_ENV"); ok && v != "" {
		c.Environment = v
	}
	if v, ok := lookup("BLOCKCAST_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLOCKCAST_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("BLOCKCAST_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("TICKERS"); ok && v != "" {
		c.Prediction.Tickers = upper(splitList(v))
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v, ok := lookup("POSTGRES_DSN"); ok && v != "" {
		c.Postgres.DSN = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := lookup("MARKET_DATA_URL"); ok && v != "" {
		c.MarketData.BaseURL = v
	}
	if v, ok := lookup("MARKET_DATA_API_KEY"); ok && v != "" {
		c.MarketData.APIKey = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	p := c.Prediction
	switch p.BarInterval {
	case time.Minute, 2 * time.Minute, 5 * time.Minute:
	default:
		return fmt.Errorf("prediction.bar_interval must be 1m, 2m or 5m, got %s", p.BarInterval)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("prediction.workers must be positive")
	}
	if p.VerifyDelay < 0 {
		return fmt.Errorf("prediction.verify_delay cannot be negative")
	}
	switch p.Calendar.Mode {
	case "always", "session":
	default:
		return fmt.Errorf("prediction.calendar.mode must be 'always' or 'session', got '%s'", p.Calendar.Mode)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required")
	}
	if !c.ClickHouse.Enabled && c.MarketData.BaseURL == "" {
		return fmt.Errorf("either clickhouse.enabled or market_data.base_url is required for bars")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis.enabled")
	}
	switch c.Queue.Mode {
	case "producer_consumer", "producer_only", "consumer_only":
	default:
		return fmt.Errorf("queue.mode invalid: %s", c.Queue.Mode)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func upper(vs []string) []string {
	for i, v := range vs {
		vs[i] = strings.ToUpper(v)
	}
	return vs
}
