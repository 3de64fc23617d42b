// Package config reads the server configuration from ORDERFLOW_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"orderflow/internal/core/id"
)

// Prefix is prepended to every variable name.
const Prefix = "ORDERFLOW"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds runtime configuration for the server and the seed command.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Storage     string `envconfig:"STORAGE" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL"`

	BackendURL     string        `envconfig:"BACKEND_URL"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`

	// CurrencyScale is the number of minor-unit digits sent to the backend
	CurrencyScale int32 `envconfig:"CURRENCY_SCALE" default:"2"`

	DefaultWarehouse string `envconfig:"DEFAULT_WAREHOUSE"`

	// CatalogFile is a JSON catalog seed loaded into the memory catalog
	CatalogFile string `envconfig:"CATALOG_FILE"`

	IdempotencyTTL  time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	DB     Database `envconfig:"DB"`
	Outbox Outbox   `envconfig:"OUTBOX"`
}

// Database sizes the PostgreSQL pool and bounds change set statements.
type Database struct {
	MaxConns         int32         `envconfig:"MAX_CONNS" default:"25"`
	MinConns         int32         `envconfig:"MIN_CONNS" default:"2"`
	StatementTimeout time.Duration `envconfig:"STATEMENT_TIMEOUT" default:"30s"`
}

// Outbox configures the worker relaying transitions to the Redis stream.
type Outbox struct {
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	BatchSize    int           `envconfig:"BATCH_SIZE" default:"100"`
	Retention    time.Duration `envconfig:"RETENTION" default:"168h"`
	Stream       string        `envconfig:"STREAM" default:"orderflow:transitions"`
	StreamMaxLen int64         `envconfig:"STREAM_MAX_LEN" default:"100000"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ORDERFLOW_DATABASE_URL is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}

	if c.CurrencyScale < 0 || c.CurrencyScale > 6 {
		errs = append(errs, fmt.Errorf("currency scale %d out of range 0..6", c.CurrencyScale))
	}
	if _, err := id.ParseOptional(c.DefaultWarehouse); err != nil {
		errs = append(errs, fmt.Errorf("default warehouse: %w", err))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("idempotency ttl must be positive"))
	}
	if c.Storage == StoragePostgres && c.DB.MaxConns < 0 {
		errs = append(errs, errors.New("db max conns must not be negative"))
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("outbox poll interval and batch size must be positive"))
	}

	return errors.Join(errs...)
}

// IsDevelopment enables console logging and gin debug mode.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Env == "development"
}

// DefaultWarehouseID returns the configured default warehouse, or Nil.
func (c *Config) DefaultWarehouseID() id.ID {
	v, _ := id.ParseOptional(c.DefaultWarehouse)
	return v
}
