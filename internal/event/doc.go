// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package event defines the UnifiedEvent record, the unit of work flowing
// through the simulation core.
//
// UnifiedEvent is a fixed-size, copyable value type: it carries the frame
// counter stamped at enqueue time, a wall-clock timestamp, a small integer
// event type tag, one of four priority tiers, named flag bits, actor/target
// identifiers, and an inline payload of at most PayloadCapacity bytes
// interpreted per event type.
//
// The package provides:
//   - Priority: the four ordered tiers (Gameplay > AI > Analytics > Telemetry)
//   - EventType: typed tags grouped by tier with a default-priority mapping
//   - Flags: named cancelled/processed bits with explicit accessors
//   - Typed payloads (Damage, Reward, Progress, Metric) with explicit
//     little-endian encode/decode and compile-time capacity guards
//   - A fixed-width binary codec used by the frame journal
//
// Events are immutable once enqueued except for the cancellation flag, which
// a handler may set to stop further handler chaining for that event.
//
// # Payload Safety
//
// The inline payload replaces raw pointer casting with explicit
// encoding/binary serialization. Each typed payload declares its wire size as
// a constant; a compile-time guard fails the build if a payload outgrows
// PayloadCapacity. Oversized raw payloads panic at encode time: exceeding the
// inline capacity is a programming error, not a runtime condition to recover
// from.
package event
