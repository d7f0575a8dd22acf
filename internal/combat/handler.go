// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// AttackHandler feeds damage-bearing gameplay events into the arena.
// Register it for player attack, enemy attack and skill cast types; the
// event's TargetID is the battle handle.
//
// When a battle completes, the handler enqueues a battle-end event
// carrying the payout so downstream consumers (wallet crediting,
// websocket push, analytics) see the resolution on the next frame.
type AttackHandler struct {
	arena   *Arena
	enqueue func(event.UnifiedEvent) bool
	logger  zerolog.Logger
}

// NewAttackHandler wires the arena to the event stream. enqueue is the
// queue's Enqueue method; a rejected battle-end event is logged and
// dropped, never retried.
func NewAttackHandler(arena *Arena, enqueue func(event.UnifiedEvent) bool) (*AttackHandler, error) {
	if arena == nil {
		return nil, fmt.Errorf("arena is required")
	}
	if enqueue == nil {
		return nil, fmt.Errorf("enqueue func is required")
	}
	return &AttackHandler{
		arena:   arena,
		enqueue: enqueue,
		logger:  logging.WithComponent("attack-handler"),
	}, nil
}

// Handle applies one damage event to its battle.
func (h *AttackHandler) Handle(ev *event.UnifiedEvent) error {
	var kind EventKind
	switch ev.Type {
	case event.TypePlayerAttack:
		kind = KindPlayerAttack
	case event.TypeEnemyAttack:
		kind = KindEnemyAttack
	case event.TypeSkillCast:
		kind = KindSkillCast
	default:
		return fmt.Errorf("attack handler received %s event", ev.Type)
	}

	dmg, err := event.DecodeDamage(ev)
	if err != nil {
		return err
	}

	b, terminal, err := h.arena.ApplyDamage(ev.TargetID, kind, dmg.Amount)
	if err != nil {
		// The battle may have ended between enqueue and dispatch;
		// stale damage is not a failure.
		if reason, ok := errIsStale(err); ok {
			h.logger.Debug().
				Uint64("battle_handle", ev.TargetID).
				Str("reason", reason).
				Msg("Dropping stale damage event")
			return nil
		}
		return err
	}
	if !terminal {
		return nil
	}

	out := event.NewWithPriority(event.TypeBattleEnd, event.PriorityGameplay, b.Handle, 0)
	event.BattleRewardPayload{
		PlayerID:   [16]byte(b.PlayerID),
		Gold:       saturateUint32(b.Rewards.Gold),
		Experience: saturateUint32(b.Rewards.Experience),
		Essence:    saturateUint16(b.Rewards.Essence),
		Scrap:      saturateUint16(b.Rewards.Scrap),
	}.Encode(&out, event.TypeBattleEnd)

	if !h.enqueue(out) {
		h.logger.Warn().
			Str("battle_id", b.ID.String()).
			Str("outcome", b.Outcome).
			Msg("Battle-end event dropped, queue full")
	}
	return nil
}

// errIsStale classifies arena errors that stem from event/battle
// lifecycle races rather than bugs.
func errIsStale(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrBattleNotFound):
		return "battle gone", true
	case errors.Is(err, ErrBattleNotActive):
		return "battle not active", true
	}
	return "", false
}

// BattleEndHandler credits battle payouts to the player's wallet.
// Register it for the battle-end event type.
type BattleEndHandler struct {
	store  player.Store
	logger zerolog.Logger
}

// NewBattleEndHandler creates the wallet-crediting handler.
func NewBattleEndHandler(store player.Store) (*BattleEndHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("player store is required")
	}
	return &BattleEndHandler{
		store:  store,
		logger: logging.WithComponent("battle-end-handler"),
	}, nil
}

// Handle decodes the payout and applies it to the wallet.
func (h *BattleEndHandler) Handle(ev *event.UnifiedEvent) error {
	payout, err := event.DecodeBattleReward(ev)
	if err != nil {
		return err
	}

	ctx := context.Background()
	id := uuid.UUID(payout.PlayerID)

	p, err := h.store.GetPlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("crediting battle payout for %s: %w", id, err)
	}
	p.Wallet.Add(player.Rewards{
		Gold:       int64(payout.Gold),
		Experience: int64(payout.Experience),
		Essence:    int64(payout.Essence),
		Scrap:      int64(payout.Scrap),
	})
	if err := h.store.SavePlayer(ctx, p); err != nil {
		return fmt.Errorf("crediting battle payout for %s: %w", id, err)
	}

	h.logger.Debug().
		Str("player_id", id.String()).
		Uint32("gold", payout.Gold).
		Msg("Battle payout credited")
	return nil
}

func saturateUint32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}

func saturateUint16(v int64) uint16 {
	if v < 0 {
		return 0
	}
	if v > int64(^uint16(0)) {
		return ^uint16(0)
	}
	return uint16(v)
}
