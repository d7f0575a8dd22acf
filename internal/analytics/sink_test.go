// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Solaireshen97/emberforge/internal/event"
)

func newTestSink(t *testing.T, a *Archive, size int, interval time.Duration) *Sink {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Path = ":memory:"
	cfg.FlushSize = size
	cfg.FlushInterval = interval

	s, err := NewSink(a, cfg)
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	return s
}

// waitForArchived polls the archive until exactly want events landed.
// Flushing happens on the Serve goroutine, so tests cannot observe it
// synchronously.
func waitForArchived(t *testing.T, a *Archive, want int64) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := a.TotalEvents(context.Background())
		if err != nil {
			t.Fatalf("TotalEvents() error = %v", err)
		}
		if got == want {
			return
		}
		if got > want {
			t.Fatalf("archived %d events, want %d", got, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d archived events", want)
}

func TestNewSinkValidation(t *testing.T) {
	if _, err := NewSink(nil, DefaultConfig()); err == nil {
		t.Fatal("NewSink(nil) expected error, got nil")
	}

	a := setupArchive(t)

	cfg := DefaultConfig()
	cfg.FlushSize = 0
	if _, err := NewSink(a, cfg); err == nil {
		t.Fatal("NewSink() with zero flush size: expected error, got nil")
	}
}

func TestSinkFlushesOnSize(t *testing.T) {
	a := setupArchive(t)
	s := newTestSink(t, a, 4, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx)
	}()

	for i := 0; i < 4; i++ {
		ev := sampleEvent(event.TypeProgressSample, uint64(i), 9)
		if err := s.Handle(&ev); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	waitForArchived(t, a, 4)

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() error = %v, want context.Canceled", err)
	}
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending() = %d, want 0", got)
	}
}

func TestSinkFlushesOnInterval(t *testing.T) {
	a := setupArchive(t)
	s := newTestSink(t, a, 1000, 25*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx)
	}()

	for i := 0; i < 2; i++ {
		ev := sampleEvent(event.TypeEconomySample, uint64(i), 3)
		if err := s.Handle(&ev); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	waitForArchived(t, a, 2)

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestSinkDrainsOnShutdown(t *testing.T) {
	a := setupArchive(t)
	s := newTestSink(t, a, 1000, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx)
	}()

	for i := 0; i < 3; i++ {
		ev := sampleEvent(event.TypeEconomySample, uint64(i), 4)
		if err := s.Handle(&ev); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}
	if got := s.Pending(); got != 3 {
		t.Fatalf("Pending() = %d, want 3", got)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() error = %v, want context.Canceled", err)
	}

	total, err := a.TotalEvents(context.Background())
	if err != nil {
		t.Fatalf("TotalEvents() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("TotalEvents() after shutdown = %d, want 3", total)
	}
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending() = %d, want 0", got)
	}
}

func TestSinkConcurrentHandle(t *testing.T) {
	a := setupArchive(t)
	s := newTestSink(t, a, 1000, time.Hour)

	const (
		workers   = 4
		perWorker = 50
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ev := sampleEvent(event.TypeProgressSample, uint64(w*perWorker+i), 1)
				if err := s.Handle(&ev); err != nil {
					t.Errorf("Handle() error = %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	if got := s.Pending(); got != workers*perWorker {
		t.Fatalf("Pending() = %d, want %d", got, workers*perWorker)
	}

	s.Flush(context.Background())

	total, err := a.TotalEvents(context.Background())
	if err != nil {
		t.Fatalf("TotalEvents() error = %v", err)
	}
	if total != workers*perWorker {
		t.Fatalf("TotalEvents() = %d, want %d", total, workers*perWorker)
	}
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending() after flush = %d, want 0", got)
	}
}

func TestSinkDropsBatchWhenArchiveClosed(t *testing.T) {
	a := setupArchive(t)
	s := newTestSink(t, a, 1000, time.Hour)

	ev := sampleEvent(event.TypeProgressSample, 1, 1)
	if err := s.Handle(&ev); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The failed batch is dropped, never retried: archival must not
	// accumulate unbounded memory when the database is gone.
	s.Flush(context.Background())
	if got := s.Pending(); got != 0 {
		t.Fatalf("Pending() after failed flush = %d, want 0", got)
	}
}
