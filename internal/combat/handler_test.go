// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// captureQueue is an enqueue func that records battle-end events.
type captureQueue struct {
	events []event.UnifiedEvent
	full   bool
}

func (c *captureQueue) enqueue(ev event.UnifiedEvent) bool {
	if c.full {
		return false
	}
	c.events = append(c.events, ev)
	return true
}

func damageEvent(t event.EventType, handle uint64, amount float64) event.UnifiedEvent {
	ev := event.New(t, 0, handle)
	event.DamagePayload{Amount: amount}.Encode(&ev, t)
	return ev
}

func TestNewAttackHandlerValidation(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	q := &captureQueue{}
	if _, err := NewAttackHandler(nil, q.enqueue); err == nil {
		t.Error("expected error for nil arena")
	}
	if _, err := NewAttackHandler(a, nil); err == nil {
		t.Error("expected error for nil enqueue")
	}
	if _, err := NewBattleEndHandler(nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestAttackHandlerRoutesDamage(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	b := activeBattle(t, a)
	q := &captureQueue{}
	h, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}

	ev := damageEvent(event.TypePlayerAttack, b.Handle, 7)
	if err := h.Handle(&ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, err := a.Get(b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := b.EnemyMaxHealth - 7; got.EnemyHealth != want {
		t.Errorf("EnemyHealth = %v, want %v", got.EnemyHealth, want)
	}
	if len(q.events) != 0 {
		t.Errorf("non-terminal damage enqueued %d events, want 0", len(q.events))
	}
}

func TestAttackHandlerTerminalVictoryEnqueuesPayout(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	b := activeBattle(t, a)
	q := &captureQueue{}
	h, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}

	ev := damageEvent(event.TypeSkillCast, b.Handle, b.EnemyMaxHealth)
	if err := h.Handle(&ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(q.events) != 1 {
		t.Fatalf("enqueued %d events, want 1 battle end", len(q.events))
	}
	out := q.events[0]
	if out.Type != event.TypeBattleEnd {
		t.Errorf("Type = %s, want battle end", out.Type)
	}
	if out.ActorID != b.Handle {
		t.Errorf("ActorID = %d, want battle handle %d", out.ActorID, b.Handle)
	}

	payout, err := event.DecodeBattleReward(&out)
	if err != nil {
		t.Fatalf("DecodeBattleReward: %v", err)
	}
	if uuid.UUID(payout.PlayerID) != b.PlayerID {
		t.Errorf("payout recipient %s, want %s", uuid.UUID(payout.PlayerID), b.PlayerID)
	}
	want := victoryReward(b.Wave, b.Difficulty, b.CombatEfficiency)
	if int64(payout.Gold) != want.Gold || int64(payout.Experience) != want.Experience {
		t.Errorf("payout = %+v, want %+v", payout, want)
	}
}

func TestAttackHandlerTerminalDefeatEnqueuesConsolation(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	b := activeBattle(t, a)
	q := &captureQueue{}
	h, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}

	ev := damageEvent(event.TypeEnemyAttack, b.Handle, b.PlayerMaxHealth)
	if err := h.Handle(&ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(q.events) != 1 {
		t.Fatalf("enqueued %d events, want 1", len(q.events))
	}
	payout, err := event.DecodeBattleReward(&q.events[0])
	if err != nil {
		t.Fatalf("DecodeBattleReward: %v", err)
	}
	if payout.Scrap != 1 {
		t.Errorf("Scrap = %d, want consolation salvage of 1", payout.Scrap)
	}
}

func TestAttackHandlerIgnoresStaleDamage(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	q := &captureQueue{}
	h, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}

	// Unknown handle: the battle ended and left the set.
	ev := damageEvent(event.TypePlayerAttack, 42, 5)
	if err := h.Handle(&ev); err != nil {
		t.Errorf("stale damage should be dropped silently, got %v", err)
	}

	// Known battle that is not active yet.
	b, err := a.Prepare(testPlayer(10, 1, 100))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	ev = damageEvent(event.TypePlayerAttack, b.Handle, 5)
	if err := h.Handle(&ev); err != nil {
		t.Errorf("damage to a preparing battle should be dropped silently, got %v", err)
	}
	if len(q.events) != 0 {
		t.Errorf("stale damage enqueued %d events, want 0", len(q.events))
	}
}

func TestAttackHandlerRejectsBadInput(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	b := activeBattle(t, a)
	q := &captureQueue{}
	h, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}

	// Wrong event type.
	wrong := event.New(event.TypeBattleStart, 0, b.Handle)
	if err := h.Handle(&wrong); err == nil {
		t.Error("expected error for a non-damage event type")
	}

	// Right type, empty payload.
	empty := event.New(event.TypePlayerAttack, 0, b.Handle)
	if err := h.Handle(&empty); err == nil {
		t.Error("expected error for a malformed payload")
	}
}

func TestAttackHandlerSurvivesFullQueue(t *testing.T) {
	t.Parallel()

	a := newTestArena(t)
	b := activeBattle(t, a)
	q := &captureQueue{full: true}
	h, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}

	// A rejected battle-end event is logged and dropped; the damage
	// itself still resolved the battle.
	ev := damageEvent(event.TypePlayerAttack, b.Handle, b.EnemyMaxHealth)
	if err := h.Handle(&ev); err != nil {
		t.Errorf("Handle: %v", err)
	}
	if a.Count() != 0 {
		t.Errorf("Count = %d, want 0", a.Count())
	}
}

func TestBattleEndHandlerCreditsWallet(t *testing.T) {
	t.Parallel()

	store := player.NewMemoryStore(0)
	p := player.NewPlayer("miser")
	ctx := context.Background()
	if err := store.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	h, err := NewBattleEndHandler(store)
	if err != nil {
		t.Fatalf("NewBattleEndHandler: %v", err)
	}

	ev := event.NewWithPriority(event.TypeBattleEnd, event.PriorityGameplay, 7, 0)
	event.BattleRewardPayload{
		PlayerID:   [16]byte(p.ID),
		Gold:       120,
		Experience: 300,
		Essence:    2,
		Scrap:      1,
	}.Encode(&ev, event.TypeBattleEnd)

	if err := h.Handle(&ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, err := store.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	want := player.Rewards{Gold: 120, Experience: 300, Essence: 2, Scrap: 1}
	if got.Wallet != want {
		t.Errorf("Wallet = %+v, want %+v", got.Wallet, want)
	}

	// A second payout accumulates.
	if err := h.Handle(&ev); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	got, err = store.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if got.Wallet.Gold != 240 {
		t.Errorf("Gold = %d, want 240 after two payouts", got.Wallet.Gold)
	}
}

func TestBattleEndHandlerErrors(t *testing.T) {
	t.Parallel()

	store := player.NewMemoryStore(0)
	h, err := NewBattleEndHandler(store)
	if err != nil {
		t.Fatalf("NewBattleEndHandler: %v", err)
	}

	// Unknown player.
	ev := event.NewWithPriority(event.TypeBattleEnd, event.PriorityGameplay, 7, 0)
	event.BattleRewardPayload{PlayerID: [16]byte(uuid.New())}.Encode(&ev, event.TypeBattleEnd)
	if err := h.Handle(&ev); err == nil {
		t.Error("expected error for an unknown player")
	}

	// Malformed payload.
	bad := event.NewWithPriority(event.TypeBattleEnd, event.PriorityGameplay, 7, 0)
	if err := h.Handle(&bad); err == nil {
		t.Error("expected error for a malformed payload")
	}
}

func TestHandlersChainArenaToWallet(t *testing.T) {
	t.Parallel()

	// Full path: damage event resolves the battle, the battle-end event
	// it emits credits the wallet.
	store := player.NewMemoryStore(0)
	p := testPlayer(10, 1, 100)
	ctx := context.Background()
	if err := store.SavePlayer(ctx, p); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	a := newTestArena(t)
	b, err := a.Prepare(p)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := a.Activate(b.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	q := &captureQueue{}
	attack, err := NewAttackHandler(a, q.enqueue)
	if err != nil {
		t.Fatalf("NewAttackHandler: %v", err)
	}
	credit, err := NewBattleEndHandler(store)
	if err != nil {
		t.Fatalf("NewBattleEndHandler: %v", err)
	}

	ev := damageEvent(event.TypePlayerAttack, b.Handle, b.EnemyMaxHealth)
	if err := attack.Handle(&ev); err != nil {
		t.Fatalf("attack.Handle: %v", err)
	}
	if len(q.events) != 1 {
		t.Fatalf("enqueued %d events, want 1", len(q.events))
	}
	if err := credit.Handle(&q.events[0]); err != nil {
		t.Fatalf("credit.Handle: %v", err)
	}

	got, err := store.GetPlayer(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	want := victoryReward(b.Wave, b.Difficulty, b.CombatEfficiency)
	if got.Wallet.Gold != want.Gold || got.Wallet.Experience != want.Experience {
		t.Errorf("Wallet = %+v, want payout %+v", got.Wallet, want)
	}
}

func TestSaturation(t *testing.T) {
	t.Parallel()

	if got := saturateUint32(-5); got != 0 {
		t.Errorf("saturateUint32(-5) = %d, want 0", got)
	}
	if got := saturateUint32(1 << 40); got != ^uint32(0) {
		t.Errorf("saturateUint32(1<<40) = %d, want max", got)
	}
	if got := saturateUint32(1234); got != 1234 {
		t.Errorf("saturateUint32(1234) = %d", got)
	}
	if got := saturateUint16(-1); got != 0 {
		t.Errorf("saturateUint16(-1) = %d, want 0", got)
	}
	if got := saturateUint16(1 << 20); got != ^uint16(0) {
		t.Errorf("saturateUint16(1<<20) = %d, want max", got)
	}
}
