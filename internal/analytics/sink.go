// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// drainTimeout bounds the final flush when the sink shuts down with a
// cancelled context.
const drainTimeout = 5 * time.Second

// Sink buffers analytics-tier events and writes them to the archive in
// batches. Handle is called from dispatcher workers and only appends to
// the in-memory buffer; all database writes happen on the goroutine
// running Serve.
type Sink struct {
	archive  *Archive
	size     int
	interval time.Duration
	logger   zerolog.Logger

	mu  sync.Mutex
	buf []event.UnifiedEvent

	// kick nudges the flush loop when the buffer reaches size. Capacity
	// one: a pending nudge already covers everything buffered so far.
	kick chan struct{}
}

// NewSink builds a sink that batches events into archive.
func NewSink(archive *Archive, cfg Config) (*Sink, error) {
	if archive == nil {
		return nil, fmt.Errorf("archive is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analytics config: %w", err)
	}
	return &Sink{
		archive:  archive,
		size:     cfg.FlushSize,
		interval: cfg.FlushInterval,
		logger:   logging.WithComponent("analytics"),
		buf:      make([]event.UnifiedEvent, 0, cfg.FlushSize),
		kick:     make(chan struct{}, 1),
	}, nil
}

// Handle buffers one event for archival. It never blocks on the database.
func (s *Sink) Handle(ev *event.UnifiedEvent) error {
	s.mu.Lock()
	s.buf = append(s.buf, *ev)
	full := len(s.buf) >= s.size
	s.mu.Unlock()

	if full {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Pending returns the number of buffered events not yet written.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Serve runs the flush loop until ctx is cancelled, then drains the
// buffer one last time under a fresh timeout.
func (s *Sink) Serve(ctx context.Context) error {
	s.logger.Info().
		Int("flush_size", s.size).
		Dur("flush_interval", s.interval).
		Msg("Analytics sink started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			s.Flush(drainCtx)
			cancel()
			s.logger.Info().Msg("Analytics sink stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Flush(ctx)
		case <-s.kick:
			s.Flush(ctx)
		}
	}
}

// Flush writes everything buffered so far as one batch. A failed batch
// is dropped: the archive is best effort and must never back-pressure
// the frame loop.
func (s *Sink) Flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.buf) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buf
	s.buf = make([]event.UnifiedEvent, 0, s.size)
	s.mu.Unlock()

	start := time.Now()
	err := s.archive.InsertEvents(ctx, batch)
	metrics.RecordAnalyticsFlush(time.Since(start), len(batch), err)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("batch_size", len(batch)).
			Msg("Analytics batch dropped")
		return
	}
	s.logger.Debug().Int("batch_size", len(batch)).Msg("Analytics batch archived")
}
