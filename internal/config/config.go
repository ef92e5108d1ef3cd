// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Host      string `env:"HOST" default:"localhost"`
	Port      string `env:"PORT" default:"3001"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	QueueCapacity int           `env:"QUEUE_CAPACITY" default:"256"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" default:"5s"`

	MaxClients              int     `env:"MAX_CLIENTS" default:"50"`
	MaxConnectionsPerIP     int     `env:"MAX_CONNECTIONS_PER_IP" default:"10"`
	ConnectionRatePerSecond float64 `env:"CONNECTION_RATE_PER_SECOND" default:"10"`
	ConnectionBurst         int     `env:"CONNECTION_BURST" default:"10"`

	TimelineWindow     time.Duration `env:"TIMELINE_WINDOW" default:"10m"`
	TimelineMaxEntries int           `env:"TIMELINE_MAX_ENTRIES" default:"200"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("HOST must not be empty")
	}
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.QueueCapacity < 1 {
		return fmt.Errorf("QUEUE_CAPACITY must be at least 1, got %d", cfg.QueueCapacity)
	}
	if cfg.MaxClients < 1 {
		return fmt.Errorf("MAX_CLIENTS must be at least 1, got %d", cfg.MaxClients)
	}
	if cfg.MaxConnectionsPerIP < 1 {
		return fmt.Errorf("MAX_CONNECTIONS_PER_IP must be at least 1, got %d", cfg.MaxConnectionsPerIP)
	}
	if cfg.ConnectionRatePerSecond <= 0 {
		return fmt.Errorf("CONNECTION_RATE_PER_SECOND must be positive, got %v", cfg.ConnectionRatePerSecond)
	}
	if cfg.ConnectionBurst < 1 {
		return fmt.Errorf("CONNECTION_BURST must be at least 1, got %d", cfg.ConnectionBurst)
	}
	if cfg.ShutdownGrace <= 0 {
		return fmt.Errorf("SHUTDOWN_GRACE must be positive, got %v", cfg.ShutdownGrace)
	}
	return nil
}

// Addr returns the host:port bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
