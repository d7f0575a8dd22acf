// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// DefaultMemoryFrameLimit bounds the in-memory store when no explicit
// limit is given. At one persisted frame per 16ms tick this covers a
// little over two minutes of sustained activity.
const DefaultMemoryFrameLimit = 8192

// MemoryStore is a bounded in-memory FrameStore for development and
// tests. When the frame limit is reached the oldest frame is evicted on
// each persist, so the store always holds the newest window.
type MemoryStore struct {
	mu        sync.RWMutex
	frames    map[uint64][]event.UnifiedEvent
	maxFrames int
	oldest    uint64
	latest    uint64
	closed    bool
}

// NewMemoryStore creates a MemoryStore holding at most maxFrames frames.
// A non-positive limit falls back to DefaultMemoryFrameLimit.
func NewMemoryStore(maxFrames int) *MemoryStore {
	if maxFrames <= 0 {
		maxFrames = DefaultMemoryFrameLimit
	}
	return &MemoryStore{
		frames:    make(map[uint64][]event.UnifiedEvent),
		maxFrames: maxFrames,
	}
}

// PersistFrame stores a copy of the frame's events.
func (s *MemoryStore) PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		metrics.RecordJournalPersist(time.Since(start), ErrStoreClosed)
		return ErrStoreClosed
	}

	stored := make([]event.UnifiedEvent, len(events))
	copy(stored, events)

	if _, exists := s.frames[frame]; !exists && len(s.frames) >= s.maxFrames {
		s.evictOldestLocked()
	}

	s.frames[frame] = stored
	if len(s.frames) == 1 || frame < s.oldest {
		s.oldest = frame
	}
	if frame > s.latest {
		s.latest = frame
	}

	metrics.RecordJournalPersist(time.Since(start), nil)
	metrics.SetJournalLatestFrame(s.latest)
	return nil
}

// evictOldestLocked removes the lowest stored frame. Frames arrive in
// increasing order from the dispatcher, so the oldest cursor only ever
// advances.
func (s *MemoryStore) evictOldestLocked() {
	for s.oldest <= s.latest {
		if _, ok := s.frames[s.oldest]; ok {
			delete(s.frames, s.oldest)
			s.oldest++
			return
		}
		s.oldest++
	}
}

// ReplayFrame returns a copy of the stored events for one frame.
func (s *MemoryStore) ReplayFrame(ctx context.Context, frame uint64) ([]event.UnifiedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	stored, ok := s.frames[frame]
	if !ok {
		return nil, ErrFrameNotFound
	}

	out := make([]event.UnifiedEvent, len(stored))
	copy(out, stored)
	return out, nil
}

// LoadFrameRange returns events from stored frames in [start, end] in
// frame order.
func (s *MemoryStore) LoadFrameRange(ctx context.Context, start, end uint64, maxEvents int) ([]event.UnifiedEvent, error) {
	if start > end {
		return nil, ErrInvalidRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	// The map is bounded, so collecting and sorting matching frame
	// numbers is cheaper than walking a possibly sparse numeric range.
	matching := make([]uint64, 0, len(s.frames))
	for frame := range s.frames {
		if frame >= start && frame <= end {
			matching = append(matching, frame)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i] < matching[j] })

	out := make([]event.UnifiedEvent, 0)
	for _, frame := range matching {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for _, ev := range s.frames[frame] {
			if maxEvents > 0 && len(out) >= maxEvents {
				return out, nil
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

// FrameExists reports whether the frame is stored.
func (s *MemoryStore) FrameExists(ctx context.Context, frame uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreClosed
	}
	_, ok := s.frames[frame]
	return ok, nil
}

// LatestFrame returns the highest stored frame number.
func (s *MemoryStore) LatestFrame(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	if len(s.frames) == 0 {
		return 0, ErrNoFrames
	}
	return s.latest, nil
}

// CleanupOldFrames keeps the newest retain frames by number and removes
// the rest.
func (s *MemoryStore) CleanupOldFrames(ctx context.Context, retain uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	if len(s.frames) == 0 {
		return 0, nil
	}
	if retain > s.latest {
		return 0, nil
	}

	cutoff := s.latest - retain + 1
	removed := 0
	for frame := range s.frames {
		if frame < cutoff {
			delete(s.frames, frame)
			removed++
		}
	}
	if s.oldest < cutoff {
		s.oldest = cutoff
	}
	return removed, nil
}

// FrameCount returns the number of frames currently stored.
func (s *MemoryStore) FrameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Close marks the store closed. Subsequent operations fail with
// ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frames = nil
	return nil
}
