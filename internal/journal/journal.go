// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"context"
	"errors"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// FrameStore persists completed dispatch frames for replay.
//
// Frame numbers are assigned by the dispatcher and strictly increase, but
// empty frames are never persisted, so the stored sequence may have gaps.
// Persisting a frame that already exists overwrites it; the journal holds
// the most recent write for each frame number.
//
// Implementations must be safe for concurrent use.
type FrameStore interface {
	// PersistFrame stores the events of one completed frame.
	PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error

	// ReplayFrame returns the stored events of a single frame in their
	// persisted order. Returns ErrFrameNotFound if the frame was never
	// persisted (or was removed by retention).
	ReplayFrame(ctx context.Context, frame uint64) ([]event.UnifiedEvent, error)

	// LoadFrameRange returns events from all stored frames in [start, end],
	// ordered by frame number. maxEvents caps the total number of events
	// returned; zero or negative means no cap. A range with no stored
	// frames yields an empty slice, not an error.
	LoadFrameRange(ctx context.Context, start, end uint64, maxEvents int) ([]event.UnifiedEvent, error)

	// FrameExists reports whether a frame is currently stored.
	FrameExists(ctx context.Context, frame uint64) (bool, error)

	// LatestFrame returns the highest stored frame number, or ErrNoFrames
	// if the store is empty.
	LatestFrame(ctx context.Context) (uint64, error)

	// CleanupOldFrames keeps only the newest retain frames (counted by
	// frame number, not by stored record count) and removes everything
	// older. Returns the number of frames removed. An empty store is not
	// an error.
	CleanupOldFrames(ctx context.Context, retain uint64) (int, error)

	// Close releases underlying resources. Operations after Close return
	// ErrStoreClosed.
	Close() error
}

// Sentinel errors returned by FrameStore implementations.
var (
	// ErrFrameNotFound indicates the requested frame is not stored.
	ErrFrameNotFound = errors.New("journal: frame not found")

	// ErrNoFrames indicates the store holds no frames at all.
	ErrNoFrames = errors.New("journal: no frames stored")

	// ErrInvalidRange indicates start > end in a range query.
	ErrInvalidRange = errors.New("journal: invalid frame range")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal: store is closed")
)

// IsNotFound reports whether err is one of the benign lookup misses
// (ErrFrameNotFound or ErrNoFrames), as opposed to a storage failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFrameNotFound) || errors.Is(err, ErrNoFrames)
}
