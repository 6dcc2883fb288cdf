package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"user_directory"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Record store backend: postgres or memory.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// Server
	Port         string `env:"PORT" envDefault:"8000"`
	CORSOrigins  string `env:"CORS_ORIGINS" envDefault:"*"`
	AppEnv       string `env:"APP_ENV" envDefault:"production"`
	RateLimitMax int    `env:"RATE_LIMIT_MAX" envDefault:"120"`

	// Query
	MaxPageLimit int `env:"PAGE_LIMIT_MAX" envDefault:"0"`

	// Identity sequence
	SequenceSyncOnStartup bool `env:"SEQUENCE_SYNC_ON_STARTUP" envDefault:"true"`

	// Observability
	LogRetention time.Duration `env:"LOG_RETENTION" envDefault:"720h"`
	SentryDSN    string        `env:"SENTRY_DSN"`
	OTelEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads a .env file when one exists, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD environment variable is required for the %s driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MaxPageLimit < 0 {
		return fmt.Errorf("PAGE_LIMIT_MAX must not be negative")
	}
	return nil
}

// IsDevelopment reports whether internal error detail may be returned to callers.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
