// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

//go:build !nats

package relay

import (
	"context"
	"fmt"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// Relay is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable frame forwarding.
type Relay struct{}

// New returns an error when NATS dependencies are not compiled in.
func New(cfg Config, logger interface{}) (*Relay, error) {
	return nil, fmt.Errorf("frame relay not available: build with -tags=nats")
}

// ForwardFrame is a stub that returns ErrRelayNotEnabled.
func (r *Relay) ForwardFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	return ErrRelayNotEnabled
}

// Serve is a stub that returns ErrRelayNotEnabled.
func (r *Relay) Serve(ctx context.Context) error {
	return ErrRelayNotEnabled
}

// Healthy always returns false when NATS is not enabled.
func (r *Relay) Healthy() bool {
	return false
}

// ClientURL returns an empty string for the stub implementation.
func (r *Relay) ClientURL() string {
	return ""
}

// Close is a no-op stub.
func (r *Relay) Close() error {
	return nil
}
