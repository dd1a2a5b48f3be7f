package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Postgres    Postgres

	ServerAddr string `env:"SERVER_ADDR" envDefault:"0.0.0.0:8080"`

	DispatchInterval time.Duration `env:"NOTIFY_DISPATCH_INTERVAL" envDefault:"5s"`
	DispatchBatch    int           `env:"NOTIFY_DISPATCH_BATCH" envDefault:"50"`
	OverdueInterval  time.Duration `env:"OVERDUE_SWEEP_INTERVAL" envDefault:"1h"`
	ActorStateTTL    time.Duration `env:"ACTOR_STATE_TTL" envDefault:"30m"`
	ActorStateSweep  time.Duration `env:"ACTOR_STATE_SWEEP_INTERVAL" envDefault:"5m"`

	AuditSigningKey string `env:"AUDIT_SIGNING_KEY"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"USD"`
}

// Postgres is the piecewise DSN fallback used when DATABASE_URL is unset.
type Postgres struct {
	User     string `env:"POSTGRES_USER" envDefault:"estateflow"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"estateflow_pass"`
	DB       string `env:"POSTGRES_DB" envDefault:"estateflow"`
	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     string `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}
	if config.DatabaseURL == "" {
		p := config.Postgres
		config.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
	}
	return &config, nil
}
