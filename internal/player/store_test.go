// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// testRecord builds a settlement record with an explicit creation time
// so history ordering is deterministic.
func testRecord(playerID uuid.UUID, createdAt time.Time, gold int64) *OfflineRecord {
	return &OfflineRecord{
		ID:           uuid.New(),
		PlayerID:     playerID,
		Activity:     ActivityGathering,
		Raw:          3 * time.Hour,
		Effective:    3 * time.Hour,
		DecayFactor:  1.0,
		Segments:     36,
		TotalRewards: Rewards{Gold: gold},
		CreatedAt:    createdAt,
	}
}

// testPlayerStore runs the Store contract against a fresh store from
// factory.
func testPlayerStore(t *testing.T, factory func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("SaveAndGetPlayer", func(t *testing.T) {
		store := factory(t)

		p := NewPlayer("thorin")
		p.Activity = ActivityCombat
		p.Combat.Wave = 7
		p.Wallet = Rewards{Gold: 120, Essence: 4}

		if err := store.SavePlayer(ctx, p); err != nil {
			t.Fatalf("SavePlayer failed: %v", err)
		}
		got, err := store.GetPlayer(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetPlayer failed: %v", err)
		}

		if got.ID != p.ID || got.Name != p.Name || got.Activity != p.Activity {
			t.Errorf("loaded player identity = (%s, %q, %q), want (%s, %q, %q)",
				got.ID, got.Name, got.Activity, p.ID, p.Name, p.Activity)
		}
		if got.Combat != p.Combat {
			t.Errorf("loaded Combat = %+v, want %+v", got.Combat, p.Combat)
		}
		if got.Wallet != p.Wallet {
			t.Errorf("loaded Wallet = %+v, want %+v", got.Wallet, p.Wallet)
		}
		if !got.LastActiveAt.Equal(p.LastActiveAt) {
			t.Errorf("loaded LastActiveAt = %v, want %v", got.LastActiveAt, p.LastActiveAt)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("expected SavePlayer to stamp UpdatedAt")
		}
	})

	t.Run("GetMissingPlayer", func(t *testing.T) {
		store := factory(t)

		_, err := store.GetPlayer(ctx, uuid.New())
		if !errors.Is(err, ErrPlayerNotFound) {
			t.Fatalf("expected ErrPlayerNotFound, got %v", err)
		}
	})

	t.Run("OverwritePlayer", func(t *testing.T) {
		store := factory(t)

		p := NewPlayer("eira")
		if err := store.SavePlayer(ctx, p); err != nil {
			t.Fatalf("first SavePlayer failed: %v", err)
		}

		p.Combat.Wave = 15
		p.Wallet.Gold = 300
		if err := store.SavePlayer(ctx, p); err != nil {
			t.Fatalf("second SavePlayer failed: %v", err)
		}

		got, err := store.GetPlayer(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetPlayer failed: %v", err)
		}
		if got.Combat.Wave != 15 {
			t.Errorf("Wave = %d, want overwritten value 15", got.Combat.Wave)
		}
		if got.Wallet.Gold != 300 {
			t.Errorf("Gold = %d, want overwritten value 300", got.Wallet.Gold)
		}
	})

	t.Run("SaveOfflineDataAssignsDefaults", func(t *testing.T) {
		store := factory(t)

		rec := &OfflineRecord{
			PlayerID: uuid.New(),
			Activity: ActivityIdle,
		}
		if err := store.SaveOfflineData(ctx, rec); err != nil {
			t.Fatalf("SaveOfflineData failed: %v", err)
		}
		if rec.ID == uuid.Nil {
			t.Error("expected SaveOfflineData to assign a record ID")
		}
		if rec.CreatedAt.IsZero() {
			t.Error("expected SaveOfflineData to stamp CreatedAt")
		}
	})

	t.Run("OfflineHistoryNewestFirst", func(t *testing.T) {
		store := factory(t)
		playerID := uuid.New()
		base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

		for i := 0; i < 3; i++ {
			rec := testRecord(playerID, base.Add(time.Duration(i)*time.Hour), int64(i))
			if err := store.SaveOfflineData(ctx, rec); err != nil {
				t.Fatalf("SaveOfflineData %d failed: %v", i, err)
			}
		}

		history, err := store.OfflineHistory(ctx, playerID, 0)
		if err != nil {
			t.Fatalf("OfflineHistory failed: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("history length = %d, want 3", len(history))
		}
		for i, want := range []int64{2, 1, 0} {
			if history[i].TotalRewards.Gold != want {
				t.Errorf("history[%d].Gold = %d, want %d (newest first)",
					i, history[i].TotalRewards.Gold, want)
			}
		}
	})

	t.Run("OfflineHistoryLimit", func(t *testing.T) {
		store := factory(t)
		playerID := uuid.New()
		base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

		for i := 0; i < 5; i++ {
			rec := testRecord(playerID, base.Add(time.Duration(i)*time.Hour), int64(i))
			if err := store.SaveOfflineData(ctx, rec); err != nil {
				t.Fatalf("SaveOfflineData %d failed: %v", i, err)
			}
		}

		history, err := store.OfflineHistory(ctx, playerID, 2)
		if err != nil {
			t.Fatalf("OfflineHistory failed: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("history length = %d, want 2", len(history))
		}
		if history[0].TotalRewards.Gold != 4 || history[1].TotalRewards.Gold != 3 {
			t.Errorf("limited history = [%d, %d], want the two newest [4, 3]",
				history[0].TotalRewards.Gold, history[1].TotalRewards.Gold)
		}
	})

	t.Run("OfflineHistoryEmpty", func(t *testing.T) {
		store := factory(t)

		history, err := store.OfflineHistory(ctx, uuid.New(), 10)
		if err != nil {
			t.Fatalf("OfflineHistory failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("history length = %d, want 0", len(history))
		}
	})

	t.Run("OfflineHistoryIsolation", func(t *testing.T) {
		store := factory(t)
		alice := uuid.New()
		bob := uuid.New()
		base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

		if err := store.SaveOfflineData(ctx, testRecord(alice, base, 1)); err != nil {
			t.Fatalf("SaveOfflineData failed: %v", err)
		}
		if err := store.SaveOfflineData(ctx, testRecord(bob, base, 2)); err != nil {
			t.Fatalf("SaveOfflineData failed: %v", err)
		}

		history, err := store.OfflineHistory(ctx, alice, 0)
		if err != nil {
			t.Fatalf("OfflineHistory failed: %v", err)
		}
		if len(history) != 1 {
			t.Fatalf("history length = %d, want 1", len(history))
		}
		if history[0].PlayerID != alice {
			t.Errorf("history record belongs to %s, want %s", history[0].PlayerID, alice)
		}
	})

	t.Run("ClosedStore", func(t *testing.T) {
		store := factory(t)
		p := NewPlayer("ghost")

		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := store.SavePlayer(ctx, p); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("SavePlayer after close = %v, want ErrStoreClosed", err)
		}
		if _, err := store.GetPlayer(ctx, p.ID); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("GetPlayer after close = %v, want ErrStoreClosed", err)
		}
		if _, err := store.OfflineHistory(ctx, p.ID, 0); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("OfflineHistory after close = %v, want ErrStoreClosed", err)
		}
	})
}
