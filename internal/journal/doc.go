// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package journal provides durable frame storage for deterministic replay.

Every dispatcher frame is persisted as one record keyed by frame number,
holding the frame's events in their processed order and final flag state.
Frames can then be replayed individually or scanned as a range for
cross-node catch-up and debugging.

Two FrameStore implementations are provided:

  - MemoryStore: bounded in-memory map, for development and tests.
  - BadgerStore: BadgerDB-backed durable storage. Frame numbers are
    encoded big-endian in the key so lexicographic iteration equals
    numeric frame order.

BreakerStore decorates any FrameStore with a sony/gobreaker circuit
breaker so a failing disk cannot stall the dispatch path: the dispatcher
treats persistence as best effort, and an open breaker fails fast.

Sweeper runs retention cleanup on an interval, keeping only the newest
configured window of frames. BadgerDB TTLs are deliberately not used;
retention is explicit so the newest frames survive regardless of age.
*/
package journal
