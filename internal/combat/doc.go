// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package combat implements battle resolution, online and offline.

The offline side is the fast-forward engine: an Instance carries one
player's battle state (wave, difficulty, health, a schedule of pending
combat events ordered by trigger time) and replays an absence by
popping scheduled events instead of ticking wall-clock time. Two paths
exist with different cost/accuracy trade-offs:

  - FastForward runs the event loop exactly, one scheduled attack at a
    time, bounded by a hard battle cap.
  - EstimateBulk prices whole time segments arithmetically from the
    same combat formulas, spending O(1) work per segment no matter how
    long the segment is. Its totals track FastForward within a bounded
    tolerance rather than matching it exactly.

Enemy stats derive from a deterministic formula of wave number and
difficulty, so aggregate rewards stay bounded and monotonic with wave
progress; only per-hit damage carries randomized variance, from an
injected seeded RNG.

The online side is the Arena: a set of live battles moving through
Preparing -> Active -> Completed | Cancelled, fed damage by dispatcher
handlers and releasing their participants on terminal states.
*/
package combat
