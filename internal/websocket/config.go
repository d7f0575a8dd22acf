// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package websocket

import (
	"fmt"
	"time"
)

// Config tunes the push hub and its client connections.
type Config struct {
	// SendBuffer is the per-client outbound message buffer. A client
	// that falls this many messages behind is disconnected.
	SendBuffer int

	// WriteWait is the deadline for a single write to the connection.
	WriteWait time.Duration

	// PongWait is how long a connection may go without a pong before
	// it is considered dead. The ping interval is derived from it.
	PongWait time.Duration

	// MaxClients caps concurrent connections; registrations beyond the
	// cap are refused.
	MaxClients int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer: 64,
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		MaxClients: 256,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.SendBuffer < 1 {
		return fmt.Errorf("send buffer must be at least 1, got %d", c.SendBuffer)
	}
	if c.WriteWait <= 0 {
		return fmt.Errorf("write wait must be positive, got %s", c.WriteWait)
	}
	if c.PongWait <= 0 {
		return fmt.Errorf("pong wait must be positive, got %s", c.PongWait)
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("max clients must be at least 1, got %d", c.MaxClients)
	}
	return nil
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.WriteWait <= 0 {
		c.WriteWait = def.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = def.PongWait
	}
	if c.MaxClients <= 0 {
		c.MaxClients = def.MaxClients
	}
	return c
}

// pingPeriod derives the keepalive interval from PongWait. Pings must go
// out well before the peer's pong deadline expires.
func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}
