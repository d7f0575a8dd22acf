// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package analytics

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// testArchiveSemaphore fully serializes DuckDB access across this package's
// tests. Concurrent DuckDB CGO calls can hang under CI resource pressure,
// so only one test holds an open archive at a time. The semaphore is held
// for the entire test lifecycle and released via t.Cleanup.
var testArchiveSemaphore = make(chan struct{}, 1)

// setupArchive opens an in-memory archive with timeout protection so a
// hung DuckDB open fails the test quickly instead of stalling the run.
func setupArchive(t *testing.T) *Archive {
	t.Helper()

	testArchiveSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testArchiveSemaphore
	})

	cfg := DefaultConfig()
	cfg.Path = ":memory:"
	cfg.MaxMemory = "256MB"

	type result struct {
		archive *Archive
		err     error
	}
	resultCh := make(chan result, 1)
	go func() {
		a, err := Open(cfg)
		resultCh <- result{archive: a, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Open() error = %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.archive.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
		return res.archive
	case <-time.After(120 * time.Second):
		t.Fatalf("timeout: in-memory archive took longer than 120s to open")
		return nil
	}
}

func sampleEvent(typ event.EventType, frame, actor uint64) event.UnifiedEvent {
	ev := event.New(typ, actor, 0)
	ev.Frame = frame
	return ev
}

func TestAnalyticsConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty path",
			mutate: func(c *Config) { c.Path = "" },
		},
		{
			name:   "empty max memory",
			mutate: func(c *Config) { c.MaxMemory = "" },
		},
		{
			name:   "negative threads",
			mutate: func(c *Config) { c.Threads = -1 },
		},
		{
			name:   "zero flush interval",
			mutate: func(c *Config) { c.FlushInterval = 0 },
		},
		{
			name:   "negative flush interval",
			mutate: func(c *Config) { c.FlushInterval = -time.Second },
		},
		{
			name:   "zero flush size",
			mutate: func(c *Config) { c.FlushSize = 0 },
		},
		{
			name:   "negative flush size",
			mutate: func(c *Config) { c.FlushSize = -8 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
		})
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = ""
	if _, err := Open(cfg); err == nil {
		t.Fatal("Open() with empty path: expected error, got nil")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	batch := []event.UnifiedEvent{
		sampleEvent(event.TypeProgressSample, 10, 1),
		sampleEvent(event.TypeProgressSample, 11, 2),
		sampleEvent(event.TypeEconomySample, 12, 1),
	}
	if err := a.InsertEvents(ctx, batch); err != nil {
		t.Fatalf("InsertEvents() error = %v", err)
	}

	total, err := a.TotalEvents(ctx)
	if err != nil {
		t.Fatalf("TotalEvents() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("TotalEvents() = %d, want 3", total)
	}

	counts, err := a.EventTypeCounts(ctx, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("EventTypeCounts() error = %v", err)
	}
	want := []TypeCount{
		{EventType: "progress_sample", Count: 2},
		{EventType: "economy_sample", Count: 1},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("EventTypeCounts() = %+v, want %+v", counts, want)
	}
}

func TestArchiveSinceFilter(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	cutoff := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	stale := sampleEvent(event.TypeProgressSample, 1, 7)
	stale.TimestampNs = cutoff.Add(-time.Hour).UnixNano()
	fresh := sampleEvent(event.TypeProgressSample, 2, 7)
	fresh.TimestampNs = cutoff.Add(time.Hour).UnixNano()
	edge := sampleEvent(event.TypeEconomySample, 3, 7)
	edge.TimestampNs = cutoff.UnixNano()

	if err := a.InsertEvents(ctx, []event.UnifiedEvent{stale, fresh, edge}); err != nil {
		t.Fatalf("InsertEvents() error = %v", err)
	}

	// The cutoff itself is included; equal counts order by type name.
	counts, err := a.EventTypeCounts(ctx, cutoff)
	if err != nil {
		t.Fatalf("EventTypeCounts() error = %v", err)
	}
	want := []TypeCount{
		{EventType: "economy_sample", Count: 1},
		{EventType: "progress_sample", Count: 1},
	}
	if !reflect.DeepEqual(counts, want) {
		t.Fatalf("EventTypeCounts(since cutoff) = %+v, want %+v", counts, want)
	}
}

func TestArchiveEmptyBatch(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	if err := a.InsertEvents(ctx, nil); err != nil {
		t.Fatalf("InsertEvents(nil) error = %v", err)
	}

	total, err := a.TotalEvents(ctx)
	if err != nil {
		t.Fatalf("TotalEvents() error = %v", err)
	}
	if total != 0 {
		t.Fatalf("TotalEvents() = %d, want 0", total)
	}

	counts, err := a.EventTypeCounts(ctx, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("EventTypeCounts() error = %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("EventTypeCounts() on empty archive = %+v, want none", counts)
	}
}

func TestArchiveLargeBatch(t *testing.T) {
	a := setupArchive(t)
	ctx := context.Background()

	batch := make([]event.UnifiedEvent, 0, 300)
	for i := 0; i < 300; i++ {
		batch = append(batch, sampleEvent(event.TypeProgressSample, uint64(i), uint64(i%16)))
	}
	if err := a.InsertEvents(ctx, batch); err != nil {
		t.Fatalf("InsertEvents() error = %v", err)
	}

	total, err := a.TotalEvents(ctx)
	if err != nil {
		t.Fatalf("TotalEvents() error = %v", err)
	}
	if total != 300 {
		t.Fatalf("TotalEvents() = %d, want 300", total)
	}
}

func TestArchivePing(t *testing.T) {
	a := setupArchive(t)

	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
