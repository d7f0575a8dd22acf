// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import "container/heap"

// EventKind identifies a scheduled combat event.
type EventKind uint8

const (
	KindPlayerAttack EventKind = iota
	KindEnemyAttack
	KindSkillCast
	KindBuffExpire
)

// String returns the lowercase kind name.
func (k EventKind) String() string {
	switch k {
	case KindPlayerAttack:
		return "player_attack"
	case KindEnemyAttack:
		return "enemy_attack"
	case KindSkillCast:
		return "skill_cast"
	case KindBuffExpire:
		return "buff_expire"
	default:
		return "unknown"
	}
}

// ScheduledEvent is one pending combat action on the instance clock.
// TriggerTime is absolute game-clock seconds; the schedule invariant is
// TriggerTime >= GameClock for every queued event.
type ScheduledEvent struct {
	Kind        EventKind
	TriggerTime float64

	// seq breaks trigger-time ties in schedule order, keeping the loop
	// deterministic for a fixed seed.
	seq uint64
}

// eventQueue is a min-heap of scheduled events ordered by trigger time.
type eventQueue struct {
	items   []ScheduledEvent
	nextSeq uint64
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, j int) bool {
	if q.items[i].TriggerTime != q.items[j].TriggerTime {
		return q.items[i].TriggerTime < q.items[j].TriggerTime
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *eventQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *eventQueue) Push(x any) { q.items = append(q.items, x.(ScheduledEvent)) }

func (q *eventQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// schedule queues an event at trigger.
func (q *eventQueue) schedule(kind EventKind, trigger float64) {
	q.nextSeq++
	heap.Push(q, ScheduledEvent{Kind: kind, TriggerTime: trigger, seq: q.nextSeq})
}

// peek returns the earliest event without removing it.
func (q *eventQueue) peek() (ScheduledEvent, bool) {
	if len(q.items) == 0 {
		return ScheduledEvent{}, false
	}
	return q.items[0], true
}

// pop removes and returns the earliest event.
func (q *eventQueue) pop() (ScheduledEvent, bool) {
	if len(q.items) == 0 {
		return ScheduledEvent{}, false
	}
	return heap.Pop(q).(ScheduledEvent), true
}

// clear drops all pending events. The sequence counter keeps counting
// so ordering stays stable across reseeds.
func (q *eventQueue) clear() {
	q.items = q.items[:0]
}
