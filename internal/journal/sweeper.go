// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// DefaultRetainFrames keeps roughly 30 minutes of frames at the 16ms
// tick rate.
const DefaultRetainFrames = 112500

// garbageCollector is implemented by stores that can reclaim space after
// deletes (BadgerStore's value log GC).
type garbageCollector interface {
	RunGC() error
}

// Sweeper periodically removes frames outside the retention window. It
// runs as a supervised service.
type Sweeper struct {
	store    FrameStore
	interval time.Duration
	retain   uint64
	logger   zerolog.Logger
}

// NewSweeper creates a retention sweeper over store. A non-positive
// interval or zero retain falls back to defaults.
func NewSweeper(store FrameStore, interval time.Duration, retain uint64) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("journal sweeper: store is required")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retain == 0 {
		retain = DefaultRetainFrames
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		retain:   retain,
		logger:   logging.WithComponent("journal-sweeper"),
	}, nil
}

// Serve runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Uint64("retain_frames", s.retain).
		Msg("Journal sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Journal sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep removes frames beyond the retention window, then reclaims space.
func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()

	removed, err := s.store.CleanupOldFrames(ctx, s.retain)
	if err != nil {
		s.logger.Error().Err(err).Msg("Journal retention cleanup failed")
		return
	}
	metrics.RecordJournalCleanup(removed)

	if gc, ok := s.store.(garbageCollector); ok {
		if err := gc.RunGC(); err != nil {
			s.logger.Error().Err(err).Msg("Journal GC error")
		}
	}

	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Uint64("retain_frames", s.retain).
			Dur("duration", time.Since(start)).
			Msg("Journal retention sweep removed frames")
	}
}

// SweepNow runs a single sweep immediately, outside the ticker schedule.
func (s *Sweeper) SweepNow(ctx context.Context) {
	s.sweep(ctx)
}
