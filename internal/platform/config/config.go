package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Server captures process configuration. Every field maps to one environment variable.
type Server struct {
	Addr    string `env:"ARBOR_ADDR" envDefault:":8080"`
	Storage string `env:"ARBOR_STORAGE" envDefault:"memory"`

	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"arbor.db"`

	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig

	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"arbor"`

	TxTimeout          time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
	CacheTTL           time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// RedisConfig configures the read-through cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit outbox relay. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"arbor.audit"`
}

// RateLimitConfig bounds mutating requests per caller. Zero disables it.
type RateLimitConfig struct {
	Mutations int           `env:"RATE_LIMIT_MUTATIONS" envDefault:"120"`
	Window    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// FromEnv parses and validates the process configuration.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) Validate() error {
	var errs []error
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("ARBOR_STORAGE must be one of memory, sqlite, postgres; got %q", c.Storage))
	}
	if len(c.Kafka.Brokers) > 0 && c.Storage != StoragePostgres {
		errs = append(errs, errors.New("KAFKA_BROKERS requires postgres storage (the outbox lives there)"))
	}
	if len(c.JWTSigningKey) < 16 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 16 bytes"))
	}
	if c.TxTimeout <= 0 {
		errs = append(errs, errors.New("TX_TIMEOUT must be positive"))
	}
	if c.RateLimit.Mutations < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MUTATIONS must not be negative"))
	}
	if c.RateLimit.Mutations > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled"))
	}
	if c.OutboxPollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}
