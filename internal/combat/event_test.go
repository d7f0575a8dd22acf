// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import "testing"

func TestEventQueueOrdersByTrigger(t *testing.T) {
	t.Parallel()

	var q eventQueue
	q.schedule(KindPlayerAttack, 5.0)
	q.schedule(KindEnemyAttack, 1.0)
	q.schedule(KindSkillCast, 3.0)

	want := []float64{1.0, 3.0, 5.0}
	for i, trigger := range want {
		ev, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", i)
		}
		if ev.TriggerTime != trigger {
			t.Errorf("pop %d: trigger = %v, want %v", i, ev.TriggerTime, trigger)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("expected empty queue after draining")
	}
}

func TestEventQueueBreaksTiesInScheduleOrder(t *testing.T) {
	t.Parallel()

	var q eventQueue
	q.schedule(KindPlayerAttack, 2.0)
	q.schedule(KindEnemyAttack, 2.0)
	q.schedule(KindSkillCast, 2.0)

	want := []EventKind{KindPlayerAttack, KindEnemyAttack, KindSkillCast}
	for i, kind := range want {
		ev, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", i)
		}
		if ev.Kind != kind {
			t.Errorf("pop %d: kind = %s, want %s", i, ev.Kind, kind)
		}
	}
}

func TestEventQueuePeek(t *testing.T) {
	t.Parallel()

	var q eventQueue
	if _, ok := q.peek(); ok {
		t.Error("peek on empty queue should report false")
	}

	q.schedule(KindPlayerAttack, 4.0)
	q.schedule(KindEnemyAttack, 2.0)

	ev, ok := q.peek()
	if !ok || ev.TriggerTime != 2.0 {
		t.Errorf("peek = (%+v, %v), want earliest trigger 2.0", ev, ok)
	}
	if q.Len() != 2 {
		t.Errorf("peek should not consume: Len = %d, want 2", q.Len())
	}
}

func TestEventQueueClear(t *testing.T) {
	t.Parallel()

	var q eventQueue
	q.schedule(KindPlayerAttack, 1.0)
	q.schedule(KindEnemyAttack, 2.0)
	q.clear()

	if q.Len() != 0 {
		t.Errorf("Len after clear = %d, want 0", q.Len())
	}
	q.schedule(KindSkillCast, 3.0)
	ev, ok := q.pop()
	if !ok || ev.Kind != KindSkillCast {
		t.Errorf("queue unusable after clear: (%+v, %v)", ev, ok)
	}
}

func TestEventKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind EventKind
		want string
	}{
		{KindPlayerAttack, "player_attack"},
		{KindEnemyAttack, "enemy_attack"},
		{KindSkillCast, "skill_cast"},
		{KindBuffExpire, "buff_expire"},
		{EventKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
