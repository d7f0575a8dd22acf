// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package offline settles the gap between a player's last activity and
// the present.
//
// The Manager runs the settlement pipeline: security checks (clock
// rollback, excessive absence, live session elsewhere) reject the whole
// run before anything mutates; the countable window is capped and split
// into whole segments plus a remainder; an activity Processor prices
// the segments in closed form and replays the remainder precisely; bulk
// rewards decay with the length of the absence; the updated player and
// an OfflineRecord audit row are persisted together at the end.
//
// Processors exist for combat (the fast-forward engine in package
// combat), gathering and crafting (fixed-cycle accrual), and idle.
// All of them mutate only the working copy handed to them; the manager
// commits that copy to the store only when every phase succeeded.
package offline
