// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewSweeperRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewSweeper(nil, time.Second, 10); err == nil {
		t.Fatal("NewSweeper(nil) should fail")
	}
}

func TestNewSweeperDefaults(t *testing.T) {
	t.Parallel()

	mem := NewMemoryStore(0)
	defer mem.Close()

	s, err := NewSweeper(mem, 0, 0)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	if s.interval != 5*time.Minute {
		t.Errorf("default interval = %v, want 5m", s.interval)
	}
	if s.retain != DefaultRetainFrames {
		t.Errorf("default retain = %d, want %d", s.retain, DefaultRetainFrames)
	}
}

func TestSweepNowRemovesOldFrames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mem := NewMemoryStore(0)
	defer mem.Close()

	for frame := uint64(0); frame < 10; frame++ {
		if err := mem.PersistFrame(ctx, frame, frameEvents(frame, 1)); err != nil {
			t.Fatalf("PersistFrame(%d): %v", frame, err)
		}
	}

	s, err := NewSweeper(mem, time.Hour, 4)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	s.SweepNow(ctx)

	if got := mem.FrameCount(); got != 4 {
		t.Fatalf("FrameCount after sweep = %d, want 4", got)
	}
	for frame := uint64(6); frame < 10; frame++ {
		exists, err := mem.FrameExists(ctx, frame)
		if err != nil || !exists {
			t.Errorf("frame %d should survive sweep: exists=%v err=%v", frame, exists, err)
		}
	}
}

func TestSweepNowToleratesFailingStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	inner := &faultStore{err: errors.New("disk failure")}
	s, err := NewSweeper(inner, time.Hour, 4)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	// Must log and return, not panic or propagate.
	s.SweepNow(ctx)
}

func TestSweeperServeSweepsAndStops(t *testing.T) {
	t.Parallel()

	mem := NewMemoryStore(0)
	defer mem.Close()

	bg := context.Background()
	for frame := uint64(0); frame < 10; frame++ {
		if err := mem.PersistFrame(bg, frame, frameEvents(frame, 1)); err != nil {
			t.Fatalf("PersistFrame(%d): %v", frame, err)
		}
	}

	s, err := NewSweeper(mem, 10*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	ctx, cancel := context.WithCancel(bg)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for mem.FrameCount() > 2 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper never trimmed the store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-served:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
