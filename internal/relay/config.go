// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package relay

import (
	"errors"
	"fmt"
	"time"
)

// ErrRelayNotEnabled is returned when relay features are used without the
// nats build tag.
var ErrRelayNotEnabled = errors.New("frame relay not enabled (build with -tags=nats)")

// ErrRelayClosed is returned after Close.
var ErrRelayClosed = errors.New("frame relay is closed")

// Config holds relay configuration.
type Config struct {
	// Enabled controls whether frames are forwarded at all.
	Enabled bool

	// URL is the external NATS server URL. Ignored when EmbeddedServer
	// is true.
	URL string

	// EmbeddedServer runs an in-process NATS server instead of
	// connecting to URL.
	EmbeddedServer bool

	// Host and Port bind the embedded server. Port -1 picks a random
	// free port (useful in tests).
	Host string
	Port int

	// StoreDir is the embedded server's JetStream storage directory.
	StoreDir string

	// MaxMemory and MaxStore cap the embedded server's JetStream usage
	// in bytes.
	MaxMemory int64
	MaxStore  int64

	// StreamName is the JetStream stream holding forwarded frames.
	StreamName string

	// Subject is the subject frames are published to. It must be
	// matched by the stream's subject filter.
	Subject string

	// StreamMaxAge, StreamMaxBytes and StreamMaxMsgs bound the stream;
	// JetStream discards oldest messages when limits are reached.
	StreamMaxAge   time.Duration
	StreamMaxBytes int64
	StreamMaxMsgs  int64

	// DuplicateWindow is the JetStream deduplication window. Frame
	// numbers are used as message IDs, so re-forwarding a frame inside
	// this window is a no-op.
	DuplicateWindow time.Duration

	// Replicas is the stream replica count (1 for single-node).
	Replicas int

	// MaxReconnects, ReconnectWait and ReconnectBuffer tune the NATS
	// client's reconnection behavior. MaxReconnects -1 means unlimited.
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultConfig returns production defaults. The relay is disabled by
// default; single-binary deployments enable it with the embedded server.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		URL:             "nats://127.0.0.1:4222",
		EmbeddedServer:  true,
		Host:            "127.0.0.1",
		Port:            4222,
		StoreDir:        "/data/nats/jetstream",
		MaxMemory:       1 << 30,  // 1GB
		MaxStore:        10 << 30, // 10GB
		StreamName:      "EMBERFORGE_FRAMES",
		Subject:         "frames.dispatch",
		StreamMaxAge:    24 * time.Hour,
		StreamMaxBytes:  4 << 30, // 4GB
		StreamMaxMsgs:   -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024, // 8MB
	}
}

// Validate checks the configuration. Disabled configs always pass.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !c.EmbeddedServer && c.URL == "" {
		return fmt.Errorf("relay config: URL required without embedded server")
	}
	if c.EmbeddedServer && c.StoreDir == "" {
		return fmt.Errorf("relay config: store dir required for embedded server")
	}
	if c.StreamName == "" {
		return fmt.Errorf("relay config: stream name is required")
	}
	if c.Subject == "" {
		return fmt.Errorf("relay config: subject is required")
	}
	if c.Replicas < 1 {
		return fmt.Errorf("relay config: replicas must be at least 1")
	}
	if c.DuplicateWindow < 0 {
		return fmt.Errorf("relay config: duplicate window cannot be negative")
	}
	return nil
}
