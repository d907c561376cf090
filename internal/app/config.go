package app

import (
	"errors"
	"fmt"
	"time"
)

// DefaultOutDir is where artifacts are written when no directory is given.
const DefaultOutDir = "pipeline_out"

// DefaultSimulateTimeout bounds a simulation when no timeout is given.
const DefaultSimulateTimeout = 30 * time.Second

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string   // yaml graph file
	SpecPaths []string // hcl files or directories
	OutDir    string

	// Batches and EventPoolSize override the pipeline block when positive.
	Batches       int
	EventPoolSize int64

	Timeline        bool
	NoColor         bool
	Simulate        bool
	SimulateTimeout time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if len(cfg.SpecPaths) == 0 {
		return nil, errors.New("at least one pipeline specification path is required")
	}
	if cfg.Batches < 0 {
		return nil, fmt.Errorf("batch count must not be negative, got %d", cfg.Batches)
	}
	if cfg.EventPoolSize < 0 {
		return nil, fmt.Errorf("event pool size must not be negative, got %d", cfg.EventPoolSize)
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.SimulateTimeout <= 0 {
		cfg.SimulateTimeout = DefaultSimulateTimeout
	}
	return &cfg, nil
}
