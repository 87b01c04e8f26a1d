// Package config reads process settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPPort   int `env:"HTTP_PORT" envDefault:"4101"`
	SocketPort int `env:"SOCKET_PORT" envDefault:"8000"`

	Store      string `env:"STORE" envDefault:"memory"`
	DBAddr     string `env:"DB_ADDR" envDefault:"localhost:5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"monopoly"`

	// RedisURL is host:port; empty disables the Redis notifier.
	RedisURL string `env:"REDIS_URL"`

	JWTSecret   string   `env:"JWT_SECRET" envDefault:"secret"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	StartingBalance decimal.Decimal `env:"STARTING_BALANCE" envDefault:"1500"`
	MaxPlayers      int             `env:"MAX_PLAYERS" envDefault:"8"`
	ConflictRetries int             `env:"CONFLICT_RETRIES" envDefault:"2"`

	NotifyBuffer     int           `env:"NOTIFY_BUFFER" envDefault:"1024"`
	NotifyGapTimeout time.Duration `env:"NOTIFY_GAP_TIMEOUT" envDefault:"2s"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.MaxPlayers < 2 || c.MaxPlayers > 8 {
		return fmt.Errorf("MAX_PLAYERS must be between 2 and 8, got %d", c.MaxPlayers)
	}
	if !c.StartingBalance.IsPositive() {
		return fmt.Errorf("STARTING_BALANCE must be positive")
	}
	if c.ConflictRetries < 0 {
		return fmt.Errorf("CONFLICT_RETRIES must not be negative")
	}
	if c.NotifyBuffer <= 0 {
		return fmt.Errorf("NOTIFY_BUFFER must be positive")
	}
	return nil
}
