package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"ADMIN_ADDR" envDefault:":9091"`

	PostgresURL string `env:"POSTGRES_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`

	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ConfirmTokenTTL time.Duration `env:"CONFIRM_TOKEN_TTL" envDefault:"48h"`

	// Calendar used for quarter boundaries, fixed per deployment.
	QuarterTimezone string `env:"QUARTER_TIMEZONE" envDefault:"UTC"`

	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	MaxBodyBytes   int64  `env:"MAX_BODY_BYTES" envDefault:"65536"`

	OutboxPath        string `env:"OUTBOX_PATH" envDefault:"./data/outbox"`
	OutboxSegmentSize int64  `env:"OUTBOX_SEGMENT_SIZE_BYTES" envDefault:"67108864"` // 64MB
	OutboxMaxSize     int64  `env:"OUTBOX_MAX_SIZE_BYTES" envDefault:"268435456"`    // 256MB

	RedisDLQStream    string        `env:"REDIS_DLQ_STREAM" envDefault:"deal_events_dlq"`
	RollupGroup       string        `env:"ROLLUP_CONSUMER_GROUP" envDefault:"rollup-processors"`
	RollupBatchSize   int           `env:"ROLLUP_BATCH_SIZE" envDefault:"500"`
	RollupInterval    time.Duration `env:"ROLLUP_INTERVAL" envDefault:"2s"`
	WorkerMetricsAddr string        `env:"WORKER_METRICS_ADDR" envDefault:":9092"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// QuarterLocation resolves the configured quarter calendar.
func (c *Config) QuarterLocation() (*time.Location, error) {
	return time.LoadLocation(c.QuarterTimezone)
}
