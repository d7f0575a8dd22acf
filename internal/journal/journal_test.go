// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// frameEvents builds n distinct events stamped with the given frame so
// replayed batches can be matched field by field.
func frameEvents(frame uint64, n int) []event.UnifiedEvent {
	events := make([]event.UnifiedEvent, n)
	for i := range events {
		ev := event.New(event.TypePlayerAttack, uint64(i+1), uint64(100+i))
		ev.Frame = frame
		ev.TimestampNs = int64(frame)*1_000_000 + int64(i)
		ev.SetPayload([]byte{byte(frame), byte(i)})
		events[i] = ev
	}
	return events
}

// testStoreContract runs the FrameStore behaviors every implementation
// must share.
func testStoreContract(t *testing.T, factory func(t *testing.T) FrameStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("PersistAndReplay", func(t *testing.T) {
		store := factory(t)
		want := frameEvents(1, 3)
		if err := store.PersistFrame(ctx, 1, want); err != nil {
			t.Fatalf("PersistFrame: %v", err)
		}

		got, err := store.ReplayFrame(ctx, 1)
		if err != nil {
			t.Fatalf("ReplayFrame: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("replayed %d events, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("event %d mismatch:\n got %+v\nwant %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("ReplayMissingFrame", func(t *testing.T) {
		store := factory(t)
		if _, err := store.ReplayFrame(ctx, 42); !errors.Is(err, ErrFrameNotFound) {
			t.Fatalf("ReplayFrame on missing frame: got %v, want ErrFrameNotFound", err)
		}
	})

	t.Run("OverwriteFrame", func(t *testing.T) {
		store := factory(t)
		if err := store.PersistFrame(ctx, 5, frameEvents(5, 2)); err != nil {
			t.Fatalf("first PersistFrame: %v", err)
		}
		second := frameEvents(5, 4)
		if err := store.PersistFrame(ctx, 5, second); err != nil {
			t.Fatalf("second PersistFrame: %v", err)
		}

		got, err := store.ReplayFrame(ctx, 5)
		if err != nil {
			t.Fatalf("ReplayFrame: %v", err)
		}
		if len(got) != len(second) {
			t.Fatalf("replayed %d events after overwrite, want %d", len(got), len(second))
		}
	})

	t.Run("PersistFrameZero", func(t *testing.T) {
		store := factory(t)
		if err := store.PersistFrame(ctx, 0, frameEvents(0, 1)); err != nil {
			t.Fatalf("PersistFrame(0): %v", err)
		}
		exists, err := store.FrameExists(ctx, 0)
		if err != nil || !exists {
			t.Fatalf("FrameExists(0) = %v, %v; want true, nil", exists, err)
		}
		latest, err := store.LatestFrame(ctx)
		if err != nil {
			t.Fatalf("LatestFrame: %v", err)
		}
		if latest != 0 {
			t.Errorf("LatestFrame = %d, want 0", latest)
		}
	})

	t.Run("PersistEmptyBatch", func(t *testing.T) {
		store := factory(t)
		if err := store.PersistFrame(ctx, 3, nil); err != nil {
			t.Fatalf("PersistFrame with no events: %v", err)
		}
		got, err := store.ReplayFrame(ctx, 3)
		if err != nil {
			t.Fatalf("ReplayFrame: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("replayed %d events from empty batch, want 0", len(got))
		}
	})

	t.Run("FrameExists", func(t *testing.T) {
		store := factory(t)
		if err := store.PersistFrame(ctx, 7, frameEvents(7, 1)); err != nil {
			t.Fatalf("PersistFrame: %v", err)
		}

		exists, err := store.FrameExists(ctx, 7)
		if err != nil {
			t.Fatalf("FrameExists(7): %v", err)
		}
		if !exists {
			t.Error("FrameExists(7) = false, want true")
		}

		exists, err = store.FrameExists(ctx, 8)
		if err != nil {
			t.Fatalf("FrameExists(8): %v", err)
		}
		if exists {
			t.Error("FrameExists(8) = true, want false")
		}
	})

	t.Run("LatestFrameEmpty", func(t *testing.T) {
		store := factory(t)
		if _, err := store.LatestFrame(ctx); !errors.Is(err, ErrNoFrames) {
			t.Fatalf("LatestFrame on empty store: got %v, want ErrNoFrames", err)
		}
	})

	t.Run("LatestFrame", func(t *testing.T) {
		store := factory(t)
		for _, frame := range []uint64{3, 7, 5} {
			if err := store.PersistFrame(ctx, frame, frameEvents(frame, 1)); err != nil {
				t.Fatalf("PersistFrame(%d): %v", frame, err)
			}
		}
		latest, err := store.LatestFrame(ctx)
		if err != nil {
			t.Fatalf("LatestFrame: %v", err)
		}
		if latest != 7 {
			t.Errorf("LatestFrame = %d, want 7", latest)
		}
	})

	t.Run("LoadFrameRange", func(t *testing.T) {
		store := factory(t)
		for frame := uint64(1); frame <= 5; frame++ {
			if err := store.PersistFrame(ctx, frame, frameEvents(frame, 2)); err != nil {
				t.Fatalf("PersistFrame(%d): %v", frame, err)
			}
		}

		got, err := store.LoadFrameRange(ctx, 2, 4, 0)
		if err != nil {
			t.Fatalf("LoadFrameRange: %v", err)
		}
		if len(got) != 6 {
			t.Fatalf("LoadFrameRange returned %d events, want 6", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Frame < got[i-1].Frame {
				t.Fatalf("events out of frame order at index %d: %d after %d", i, got[i].Frame, got[i-1].Frame)
			}
		}
		if got[0].Frame != 2 || got[len(got)-1].Frame != 4 {
			t.Errorf("range spans frames %d..%d, want 2..4", got[0].Frame, got[len(got)-1].Frame)
		}
	})

	t.Run("LoadFrameRangeMaxEvents", func(t *testing.T) {
		store := factory(t)
		for frame := uint64(1); frame <= 5; frame++ {
			if err := store.PersistFrame(ctx, frame, frameEvents(frame, 2)); err != nil {
				t.Fatalf("PersistFrame(%d): %v", frame, err)
			}
		}

		got, err := store.LoadFrameRange(ctx, 1, 5, 3)
		if err != nil {
			t.Fatalf("LoadFrameRange: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("LoadFrameRange with cap 3 returned %d events", len(got))
		}
		// The cap truncates from the tail: the earliest frames win.
		if got[0].Frame != 1 {
			t.Errorf("capped range starts at frame %d, want 1", got[0].Frame)
		}
	})

	t.Run("LoadFrameRangeEmpty", func(t *testing.T) {
		store := factory(t)
		if err := store.PersistFrame(ctx, 1, frameEvents(1, 1)); err != nil {
			t.Fatalf("PersistFrame: %v", err)
		}
		got, err := store.LoadFrameRange(ctx, 10, 20, 0)
		if err != nil {
			t.Fatalf("LoadFrameRange over empty span: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("empty span returned %d events", len(got))
		}
	})

	t.Run("LoadFrameRangeInvalid", func(t *testing.T) {
		store := factory(t)
		if _, err := store.LoadFrameRange(ctx, 9, 3, 0); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("LoadFrameRange(9, 3): got %v, want ErrInvalidRange", err)
		}
	})

	t.Run("CleanupOldFrames", func(t *testing.T) {
		store := factory(t)
		for frame := uint64(1); frame <= 10; frame++ {
			if err := store.PersistFrame(ctx, frame, frameEvents(frame, 1)); err != nil {
				t.Fatalf("PersistFrame(%d): %v", frame, err)
			}
		}

		removed, err := store.CleanupOldFrames(ctx, 3)
		if err != nil {
			t.Fatalf("CleanupOldFrames: %v", err)
		}
		if removed != 7 {
			t.Errorf("removed %d frames, want 7", removed)
		}

		for frame := uint64(8); frame <= 10; frame++ {
			exists, err := store.FrameExists(ctx, frame)
			if err != nil || !exists {
				t.Errorf("frame %d should survive retention: exists=%v err=%v", frame, exists, err)
			}
		}
		exists, err := store.FrameExists(ctx, 7)
		if err != nil {
			t.Fatalf("FrameExists(7): %v", err)
		}
		if exists {
			t.Error("frame 7 should have been removed")
		}

		latest, err := store.LatestFrame(ctx)
		if err != nil || latest != 10 {
			t.Errorf("LatestFrame after cleanup = %d, %v; want 10, nil", latest, err)
		}
	})

	t.Run("CleanupRetainsEverything", func(t *testing.T) {
		store := factory(t)
		for frame := uint64(1); frame <= 3; frame++ {
			if err := store.PersistFrame(ctx, frame, frameEvents(frame, 1)); err != nil {
				t.Fatalf("PersistFrame(%d): %v", frame, err)
			}
		}
		removed, err := store.CleanupOldFrames(ctx, 100)
		if err != nil {
			t.Fatalf("CleanupOldFrames: %v", err)
		}
		if removed != 0 {
			t.Errorf("removed %d frames with oversized retention, want 0", removed)
		}
	})

	t.Run("CleanupEmptyStore", func(t *testing.T) {
		store := factory(t)
		removed, err := store.CleanupOldFrames(ctx, 10)
		if err != nil {
			t.Fatalf("CleanupOldFrames on empty store: %v", err)
		}
		if removed != 0 {
			t.Errorf("removed %d frames from empty store", removed)
		}
	})

	t.Run("ClosedStore", func(t *testing.T) {
		store := factory(t)
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		if err := store.PersistFrame(ctx, 1, nil); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("PersistFrame after close: got %v, want ErrStoreClosed", err)
		}
		if _, err := store.ReplayFrame(ctx, 1); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("ReplayFrame after close: got %v, want ErrStoreClosed", err)
		}
		if _, err := store.LatestFrame(ctx); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("LatestFrame after close: got %v, want ErrStoreClosed", err)
		}
	})
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "frame not found", err: ErrFrameNotFound, want: true},
		{name: "no frames", err: ErrNoFrames, want: true},
		{name: "wrapped not found", err: errors.Join(errors.New("outer"), ErrFrameNotFound), want: true},
		{name: "nil", err: nil, want: false},
		{name: "storage failure", err: errors.New("disk on fire"), want: false},
		{name: "closed", err: ErrStoreClosed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
