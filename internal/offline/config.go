// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package offline

import (
	"fmt"
	"time"
)

// Config is the settlement policy.
type Config struct {
	// MaxOfflineTime caps how much absence counts toward rewards. Time
	// past the cap is reported as a warning and discarded.
	MaxOfflineTime time.Duration

	// MaxAbsence is the hard security limit: a gap longer than this is
	// rejected outright as implausible.
	MaxAbsence time.Duration

	// DecayThreshold is how long rewards accrue at full value before
	// the decay ramp starts.
	DecayThreshold time.Duration

	// DecayFloor is the lowest decay multiplier, reached at
	// MaxOfflineTime.
	DecayFloor float64

	// Granularity is the bulk segment length. The effective window is
	// settled as whole segments of this size plus a precise remainder.
	Granularity time.Duration

	// SessionTTL is how fresh a session heartbeat must be to count as a
	// live concurrent session.
	SessionTTL time.Duration
}

// DefaultConfig returns the production settlement policy.
func DefaultConfig() Config {
	return Config{
		MaxOfflineTime: 24 * time.Hour,
		MaxAbsence:     30 * 24 * time.Hour,
		DecayThreshold: 8 * time.Hour,
		DecayFloor:     0.5,
		Granularity:    time.Hour,
		SessionTTL:     2 * time.Minute,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxOfflineTime <= 0 {
		return fmt.Errorf("max offline time must be positive, got %v", c.MaxOfflineTime)
	}
	if c.MaxAbsence < c.MaxOfflineTime {
		return fmt.Errorf("max absence %v must be at least the offline cap %v", c.MaxAbsence, c.MaxOfflineTime)
	}
	if c.DecayThreshold <= 0 || c.DecayThreshold >= c.MaxOfflineTime {
		return fmt.Errorf("decay threshold %v must be inside (0, %v)", c.DecayThreshold, c.MaxOfflineTime)
	}
	if c.DecayFloor <= 0 || c.DecayFloor > 1.0 {
		return fmt.Errorf("decay floor must be in (0, 1], got %v", c.DecayFloor)
	}
	if c.Granularity <= 0 {
		return fmt.Errorf("granularity must be positive, got %v", c.Granularity)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", c.SessionTTL)
	}
	return nil
}

// DecayFactor returns the bulk reward multiplier for an absence of d:
// 1.0 up to the decay threshold, then a linear decline that reaches the
// floor at the offline cap. Monotonically non-increasing in d and never
// below the floor.
func (c Config) DecayFactor(d time.Duration) float64 {
	if d <= c.DecayThreshold {
		return 1.0
	}
	if d >= c.MaxOfflineTime {
		return c.DecayFloor
	}
	span := (c.MaxOfflineTime - c.DecayThreshold).Seconds()
	into := (d - c.DecayThreshold).Seconds()
	return 1.0 - (1.0-c.DecayFloor)*(into/span)
}
