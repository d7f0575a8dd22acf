// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

//go:build nats

package websocket

import (
	"context"
	"sync"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
)

// FrameSource supplies raw frame batches from a relay stream. The
// subscriber works against any transport that yields the frame batch
// wire encoding, which keeps NATS out of its tests.
type FrameSource interface {
	// Subscribe subscribes to a subject and returns a channel of payloads.
	Subscribe(ctx context.Context, subject string) (<-chan []byte, error)
	// Close releases resources.
	Close() error
}

// FrameSubscriber bridges relayed dispatch frames to WebSocket broadcasts.
//
// A push gateway process tails the JetStream frame stream and re-emits
// each frame's Gameplay-tier events to its connected clients, so
// browsers get live updates without a direct line to the simulation
// process. Telemetry and analytics tiers are not worth pushing and are
// skipped, as are events cancelled before dispatch.
type FrameSubscriber struct {
	hub     *Hub
	source  FrameSource
	subject string
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFrameSubscriber creates a frame stream to WebSocket bridge.
func NewFrameSubscriber(hub *Hub, source FrameSource, subject string) *FrameSubscriber {
	return &FrameSubscriber{
		hub:     hub,
		source:  source,
		subject: subject,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins consuming frame batches and forwarding their gameplay
// events to the hub.
func (s *FrameSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	messages, err := s.source.Subscribe(ctx, s.subject)
	if err != nil {
		return err
	}

	go s.processMessages(ctx, messages)

	logging.Info().Str("subject", s.subject).Msg("frame subscriber started")
	return nil
}

// Stop stops the subscriber and waits for the processing loop to exit.
func (s *FrameSubscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	logging.Info().Msg("frame subscriber stopped")
}

// processMessages handles incoming frame payloads.
func (s *FrameSubscriber) processMessages(ctx context.Context, messages <-chan []byte) {
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case data, ok := <-messages:
			if !ok {
				return
			}
			s.handleFrame(data)
		}
	}
}

// handleFrame decodes one frame batch and broadcasts its gameplay events.
func (s *FrameSubscriber) handleFrame(data []byte) {
	events, err := event.DecodeBatch(data)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to decode relayed frame batch")
		return
	}

	for i := range events {
		ev := &events[i]
		if ev.Priority != event.PriorityGameplay || ev.Flags.Cancelled() {
			continue
		}
		s.hub.BroadcastEvent(ev)
	}
}
