// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package player

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestActivityKindValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ActivityKind
		want bool
	}{
		{ActivityCombat, true},
		{ActivityGathering, true},
		{ActivityCrafting, true},
		{ActivityIdle, true},
		{ActivityKind(""), false},
		{ActivityKind("fishing"), false},
	}

	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("ActivityKind(%q).Valid() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestNewPlayerDefaults(t *testing.T) {
	t.Parallel()

	p := NewPlayer("aldric")

	if p.ID == uuid.Nil {
		t.Error("expected a non-nil player ID")
	}
	if p.Name != "aldric" {
		t.Errorf("Name = %q, want %q", p.Name, "aldric")
	}
	if p.Activity != ActivityIdle {
		t.Errorf("Activity = %q, want %q", p.Activity, ActivityIdle)
	}
	if p.Combat.Wave != 1 {
		t.Errorf("Wave = %d, want 1", p.Combat.Wave)
	}
	if p.Combat.Difficulty != 1.0 {
		t.Errorf("Difficulty = %v, want 1.0", p.Combat.Difficulty)
	}
	if p.Combat.Health != p.Combat.MaxHealth {
		t.Errorf("Health = %v, want full health %v", p.Combat.Health, p.Combat.MaxHealth)
	}
	if !p.Wallet.IsZero() {
		t.Errorf("expected an empty wallet, got %+v", p.Wallet)
	}
	if p.Professions.GatherLevel != 1 || p.Professions.CraftLevel != 1 {
		t.Errorf("Professions = %+v, want level 1 each", p.Professions)
	}
	if p.LastActiveAt.IsZero() || p.CreatedAt.IsZero() {
		t.Error("expected creation timestamps to be set")
	}
	if !p.LastSettledAt.IsZero() {
		t.Error("expected LastSettledAt to be zero before first settlement")
	}
}

func TestRewardsAdd(t *testing.T) {
	t.Parallel()

	r := Rewards{Gold: 10, Essence: 5}
	r.Add(Rewards{Gold: 3, Scrap: 7, Experience: 100})

	want := Rewards{Gold: 13, Essence: 5, Scrap: 7, Experience: 100}
	if r != want {
		t.Errorf("Add result = %+v, want %+v", r, want)
	}
	if r.IsZero() {
		t.Error("non-empty rewards reported as zero")
	}
	if !(Rewards{}).IsZero() {
		t.Error("empty rewards not reported as zero")
	}
}

func TestPlayerClone(t *testing.T) {
	t.Parallel()

	p := NewPlayer("mira")
	p.Wallet = Rewards{Gold: 50}

	cp := p.Clone()
	cp.Name = "changed"
	cp.Wallet.Gold = 9999
	cp.Combat.Wave = 42

	if p.Name != "mira" {
		t.Errorf("clone mutation leaked into Name: %q", p.Name)
	}
	if p.Wallet.Gold != 50 {
		t.Errorf("clone mutation leaked into Wallet: %+v", p.Wallet)
	}
	if p.Combat.Wave != 1 {
		t.Errorf("clone mutation leaked into Combat: %+v", p.Combat)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	p := NewPlayer("soren")
	now := time.Now().UTC()
	ttl := 2 * time.Minute

	if p.HasLiveSession(now, ttl) {
		t.Error("new player should not have a live session")
	}

	p.BeginSession("session-1", now)
	if !p.HasLiveSession(now, ttl) {
		t.Error("expected a live session right after BeginSession")
	}
	if !p.HasLiveSession(now.Add(ttl), ttl) {
		t.Error("session at exactly ttl age should still count as live")
	}
	if p.HasLiveSession(now.Add(ttl+time.Second), ttl) {
		t.Error("session older than ttl should be dead")
	}

	disconnectAt := now.Add(30 * time.Second)
	p.EndSession(disconnectAt)
	if p.HasLiveSession(disconnectAt, ttl) {
		t.Error("session should be dead after EndSession")
	}
	if !p.LastActiveAt.Equal(disconnectAt) {
		t.Errorf("LastActiveAt = %v, want disconnect time %v", p.LastActiveAt, disconnectAt)
	}
	if p.SessionID != "" {
		t.Errorf("SessionID = %q, want empty after EndSession", p.SessionID)
	}
}
