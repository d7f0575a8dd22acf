// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

//go:build !nats

package websocket

import (
	"context"
	"fmt"
)

// FrameSource supplies raw frame batches from a relay stream.
// This is a stub for builds without NATS support.
type FrameSource interface {
	Subscribe(ctx context.Context, subject string) (<-chan []byte, error)
	Close() error
}

// FrameSubscriber is a stub when NATS dependencies are not compiled in.
type FrameSubscriber struct{}

// NewFrameSubscriber returns nil when NATS dependencies are not compiled in.
func NewFrameSubscriber(_ *Hub, _ FrameSource, _ string) *FrameSubscriber {
	return nil
}

// Start is a stub that always fails.
func (s *FrameSubscriber) Start(_ context.Context) error {
	return fmt.Errorf("frame subscriber not available: build with -tags=nats")
}

// Stop is a no-op stub.
func (s *FrameSubscriber) Stop() {}
