// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package dispatch implements the frame-based event dispatcher.

The dispatcher drives the simulation on a fixed tick (default 16ms). Each
tick runs under a dispatch mutex so ticks never overlap:

 1. Collect a bounded batch from the queue in strict tier order.
 2. Group collected events by event type.
 3. Submit one task per type-group to a bounded worker pool sized to
    runtime.NumCPU().
 4. Wait for all groups with a soft deadline equal to the frame interval.
    A miss is recorded as a timeout but in-flight work is never aborted;
    the next frame proceeds regardless.
 5. Advance the queue's frame counter (exactly once per tick, after
    collection) and hand the frame to the journal best-effort.

Handlers implement Handle(*event.UnifiedEvent) error. Handler errors are
logged and counted without stopping the remaining handlers for the same
event; panics are recovered per handler. A handler may cancel an event,
which short-circuits the handlers registered after it for that event only.

Registration is copy-on-write: RegisterHandler and UnregisterHandler swap
an immutable handler table, so the hot dispatch path reads a snapshot
without locks.
*/
package dispatch
