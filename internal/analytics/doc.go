// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package analytics archives analytics-tier events into DuckDB.
//
// Archive owns the DuckDB connection and the game_events table. Sink is
// the dispatcher-facing half: it buffers events in memory and writes them
// in batches, flushing when the buffer fills or on a fixed interval.
// Archival is best effort by design: a failed batch is logged, counted
// and dropped, and never stalls the frame loop.
package analytics
