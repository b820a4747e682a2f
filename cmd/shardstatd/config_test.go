package main

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		MetricsAddr:      "0.0.0.0:9090",
		FlightAddr:       "0.0.0.0:3030",
		SnapshotDir:      "./data/snapshots",
		SnapshotInterval: time.Minute,
		LogFormat:        "json",
		LogLevel:         "info",
		Workers:          8,
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_EmptyMetricsAddr(t *testing.T) {
	cfg := validConfig()
	cfg.MetricsAddr = ""
	if err := cfg.Validate(); err != ErrInvalidMetricsAddr {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidMetricsAddr)
	}
}

func TestValidate_EmptyFlightAddr(t *testing.T) {
	cfg := validConfig()
	cfg.FlightAddr = ""
	if err := cfg.Validate(); err != ErrInvalidFlightAddr {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidFlightAddr)
	}
}

func TestValidate_EmptySnapshotDir(t *testing.T) {
	cfg := validConfig()
	cfg.SnapshotDir = ""
	if err := cfg.Validate(); err != ErrInvalidSnapshotDir {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidSnapshotDir)
	}
}

func TestValidate_NonPositiveSnapshotInterval(t *testing.T) {
	cfg := validConfig()
	cfg.SnapshotInterval = 0
	if err := cfg.Validate(); err != ErrInvalidSnapshotInterval {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidSnapshotInterval)
	}

	cfg.SnapshotInterval = -time.Second
	if err := cfg.Validate(); err != ErrInvalidSnapshotInterval {
		t.Errorf("Validate() with negative error = %v, want %v", err, ErrInvalidSnapshotInterval)
	}
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = "yaml"
	if err := cfg.Validate(); err != ErrInvalidLogFormat {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidLogFormat)
	}
}

func TestValidate_NonPositiveWorkers(t *testing.T) {
	cfg := validConfig()
	cfg.Workers = 0
	if err := cfg.Validate(); err != ErrInvalidWorkers {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidWorkers)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MetricsAddr == "" || cfg.Workers <= 0 {
		t.Errorf("LoadConfig() returned incomplete defaults: %+v", cfg)
	}
}
