// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package player holds the player model and its storage.

A Player carries the state the simulation reads and writes: the current
activity, combat attributes, the resource wallet, profession levels, and
the timestamps the offline settlement pipeline depends on
(LastActiveAt, LastSettledAt, session liveness).

Store is the persistence contract consumed by the offline manager and
the API. Two implementations are provided: MemoryStore for development
and tests, and BadgerStore for durable single-node deployments. Players
are stored as JSON documents; settlement history records are keyed with
an inverted timestamp so a prefix scan yields newest-first order without
sorting.
*/
package player
