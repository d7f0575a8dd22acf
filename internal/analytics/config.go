// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package analytics

import (
	"fmt"
	"time"
)

// Config controls the DuckDB archive and the batching sink in front of it.
type Config struct {
	// Path is the DuckDB database file. ":memory:" keeps the archive in
	// process memory, which is what the tests use.
	Path string

	// MaxMemory caps DuckDB's memory usage, e.g. "512MB".
	MaxMemory string

	// Threads is the DuckDB worker thread count. Zero means one per CPU.
	Threads int

	// FlushInterval is how often the sink writes buffered events even
	// when the buffer is not full.
	FlushInterval time.Duration

	// FlushSize is the buffer length that triggers an immediate flush.
	FlushSize int
}

// DefaultConfig returns the archive settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Path:          "data/analytics.duckdb",
		MaxMemory:     "512MB",
		Threads:       0,
		FlushInterval: 5 * time.Second,
		FlushSize:     256,
	}
}

// Validate checks the configuration for values the archive cannot run with.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("analytics path must not be empty")
	}
	if c.MaxMemory == "" {
		return fmt.Errorf("analytics max_memory must not be empty")
	}
	if c.Threads < 0 {
		return fmt.Errorf("analytics threads must not be negative, got %d", c.Threads)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("analytics flush_interval must be positive, got %s", c.FlushInterval)
	}
	if c.FlushSize <= 0 {
		return fmt.Errorf("analytics flush_size must be positive, got %d", c.FlushSize)
	}
	return nil
}
