package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every knob shardstatd reads from the environment (or a
// .env file loaded first).
type Config struct {
	MetricsAddr      string        `envconfig:"METRICS_ADDR" default:"0.0.0.0:9090"`
	FlightAddr       string        `envconfig:"FLIGHT_ADDR" default:"0.0.0.0:3030"`
	SnapshotDir      string        `envconfig:"SNAPSHOT_DIR" default:"./data/snapshots"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"1m"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	Workers          int           `envconfig:"WORKERS" default:"8"`
}

var (
	ErrInvalidMetricsAddr      = errors.New("metrics_addr cannot be empty")
	ErrInvalidFlightAddr       = errors.New("flight_addr cannot be empty")
	ErrInvalidSnapshotDir      = errors.New("snapshot_dir cannot be empty")
	ErrInvalidSnapshotInterval = errors.New("snapshot_interval must be positive")
	ErrInvalidLogFormat        = errors.New("log_format must be json, text, or console")
	ErrInvalidWorkers          = errors.New("workers must be positive")
)

// LoadConfig loads a .env file if present (missing is not an error),
// then binds every SHARDSTAT_* environment variable into a Config.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("shardstat", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field for a value the daemon can actually start
// with.
func (cfg Config) Validate() error {
	if cfg.MetricsAddr == "" {
		return ErrInvalidMetricsAddr
	}
	if cfg.FlightAddr == "" {
		return ErrInvalidFlightAddr
	}
	if cfg.SnapshotDir == "" {
		return ErrInvalidSnapshotDir
	}
	if cfg.SnapshotInterval <= 0 {
		return ErrInvalidSnapshotInterval
	}
	switch cfg.LogFormat {
	case "json", "text", "console":
	default:
		return ErrInvalidLogFormat
	}
	if cfg.Workers <= 0 {
		return ErrInvalidWorkers
	}
	return nil
}
