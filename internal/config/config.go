// Package config aggregates the chat logger's configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the validated configuration of the chat logger.
type Config struct {
	Soop     SoopConfig
	Postgres PostgresConfig
	Batch    BatchConfig
	HTTP     HTTPConfig
}

// SoopConfig names the channel to follow and its room password, if any.
type SoopConfig struct {
	Channel  string
	Password string
}

// PostgresConfig holds the connection parameters for the database pool.
type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
}

// DSN builds the connection string for pgx/pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

// BatchConfig sets the batching and flush parameters for chat inserts.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// HTTPConfig configures the diagnostic HTTP listener.
type HTTPConfig struct {
	Addr string
}

// Load reads the environment and returns a validated Config.
func Load() (Config, error) {
	cfg := Config{
		Soop: SoopConfig{
			Channel:  strings.TrimSpace(os.Getenv("SOOP_CHANNEL")),
			Password: os.Getenv("SOOP_CHANNEL_PASSWORD"),
		},
		Postgres: PostgresConfig{
			Host:     strings.TrimSpace(os.Getenv("POSTGRES_HOST")),
			Port:     strings.TrimSpace(os.Getenv("POSTGRES_PORT")),
			DB:       strings.TrimSpace(os.Getenv("POSTGRES_DB")),
			User:     strings.TrimSpace(os.Getenv("POSTGRES_USER")),
			Password: strings.TrimSpace(os.Getenv("POSTGRES_PASSWORD")),
		},
		Batch: BatchConfig{
			MaxBatch:      100,
			FlushEvery:    1500 * time.Millisecond,
			ChanBuffer:    4096,
			StatsLogEvery: 5 * time.Minute,
			FlushTimeout:  5 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Soop.Channel == "" {
		return fmt.Errorf("SOOP_CHANNEL is required")
	}

	if c.Postgres.Host == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.Postgres.Port == "" {
		return fmt.Errorf("POSTGRES_PORT is required")
	}
	if c.Postgres.DB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if c.Postgres.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Postgres.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}

	if c.Batch.MaxBatch <= 0 {
		return fmt.Errorf("Batch.MaxBatch must be positive")
	}
	if c.Batch.FlushEvery <= 0 {
		return fmt.Errorf("Batch.FlushEvery must be positive")
	}
	if c.Batch.ChanBuffer <= 0 {
		return fmt.Errorf("Batch.ChanBuffer must be positive")
	}
	if c.Batch.StatsLogEvery <= 0 {
		return fmt.Errorf("Batch.StatsLogEvery must be positive")
	}
	if c.Batch.FlushTimeout <= 0 {
		return fmt.Errorf("Batch.FlushTimeout must be positive")
	}

	return nil
}
