// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package queue implements the priority-tiered, lock-free event queue at the
// heart of the simulation core.
//
// The package provides three layers:
//
//   - LockFreeRingBuffer: a fixed-capacity MPSC ring. Producers claim slots
//     with a CAS on a monotonically increasing head counter and publish each
//     slot with a per-slot flag so the single consumer never observes a
//     half-written record. Capacity is a power of two; fullness is
//     head - tail == capacity. Enqueue never blocks: failure is a boolean.
//
//   - BatchPool: sync.Pool recycling of collection buffers so the dispatcher
//     tick does not allocate per frame.
//
//   - UnifiedEventQueue: owns one ring per priority tier (Gameplay > AI >
//     Analytics > Telemetry), stamps the frame counter at enqueue time,
//     applies the per-tier backpressure policy on overflow, and drains tiers
//     in strict priority order during collection.
//
// # Backpressure
//
// When a tier's ring is full, Enqueue applies the tier policy instead of
// blocking the caller:
//
//   - Telemetry: drop immediately.
//   - Analytics: drop with a configured probability; survivors get one
//     immediate retry, then drop.
//   - AI and Gameplay: one bounded spin-wait, then exactly one retry, then
//     drop. Two attempts total; the caller is never head-of-line blocked.
//
// All drops are surfaced only as aggregate statistics and rate-limited log
// lines, never as errors.
package queue
