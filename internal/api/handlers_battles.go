// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Solaireshen97/emberforge/internal/combat"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// battleView is the wire shape of a battle snapshot. Completed battles
// resolve inside the dispatcher and leave the arena before the API can see
// them, so outcome and rewards never surface here; the cancelled snapshot a
// DELETE returns is the only terminal state on the wire.
type battleView struct {
	ID               string     `json:"id"`
	Handle           uint64     `json:"handle"`
	PlayerID         string     `json:"player_id"`
	State            string     `json:"state"`
	Wave             int        `json:"wave"`
	Difficulty       float64    `json:"difficulty"`
	PlayerHealth     float64    `json:"player_health"`
	PlayerMaxHealth  float64    `json:"player_max_health"`
	EnemyHealth      float64    `json:"enemy_health"`
	EnemyMaxHealth   float64    `json:"enemy_max_health"`
	CombatEfficiency float64    `json:"combat_efficiency"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
}

func newBattleView(b combat.Battle) battleView {
	v := battleView{
		ID:               b.ID.String(),
		Handle:           b.Handle,
		PlayerID:         b.PlayerID.String(),
		State:            b.State.String(),
		Wave:             b.Wave,
		Difficulty:       b.Difficulty,
		PlayerHealth:     b.PlayerHealth,
		PlayerMaxHealth:  b.PlayerMaxHealth,
		EnemyHealth:      b.EnemyHealth,
		EnemyMaxHealth:   b.EnemyMaxHealth,
		CombatEfficiency: b.CombatEfficiency,
		CreatedAt:        b.CreatedAt,
	}
	if !b.StartedAt.IsZero() {
		t := b.StartedAt
		v.StartedAt = &t
	}
	if !b.EndedAt.IsZero() {
		t := b.EndedAt
		v.EndedAt = &t
	}
	return v
}

// ListBattles handles GET /api/v1/battles.
func (h *Handler) ListBattles(w http.ResponseWriter, r *http.Request) {
	if h.arena == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Battle service unavailable", nil)
		return
	}

	battles := h.arena.List()
	views := make([]battleView, 0, len(battles))
	for _, b := range battles {
		views = append(views, newBattleView(b))
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"battles": views,
		"count":   len(views),
	})
}

// GetBattle handles GET /api/v1/battles/{id}.
func (h *Handler) GetBattle(w http.ResponseWriter, r *http.Request) {
	if h.arena == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Battle service unavailable", nil)
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.arena.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Battle not found", nil)
		return
	}

	respondSuccess(w, r, http.StatusOK, newBattleView(b))
}

// StartBattle handles POST /api/v1/battles. The battle is prepared from the
// player's combat block and activated in one shot; from then on the
// dispatcher drives it through attack events.
func (h *Handler) StartBattle(w http.ResponseWriter, r *http.Request) {
	if h.arena == nil || h.store == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Battle service unavailable", nil)
		return
	}

	var req StartBattleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	playerID, err := uuid.Parse(req.PlayerID)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid player_id: must be a UUID", nil)
		return
	}

	p, err := h.store.GetPlayer(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, player.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Player not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStorageError, "Failed to load player", err)
		return
	}

	b, err := h.arena.Prepare(p)
	if err != nil {
		if errors.Is(err, combat.ErrPlayerInBattle) {
			respondError(w, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
			return
		}
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	b, err = h.arena.Activate(b.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to activate battle", err)
		return
	}

	logging.Info().
		Str("battle_id", b.ID.String()).
		Str("player_id", b.PlayerID.String()).
		Int("wave", b.Wave).
		Msg("Battle started")
	if h.wsHub != nil {
		h.wsHub.BroadcastJSON("battle_started", newBattleView(b))
	}
	respondSuccess(w, r, http.StatusCreated, newBattleView(b))
}

// CancelBattle handles DELETE /api/v1/battles/{id}. Only Active battles
// cancel; anything else is a lifecycle conflict.
func (h *Handler) CancelBattle(w http.ResponseWriter, r *http.Request) {
	if h.arena == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Battle service unavailable", nil)
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.arena.Cancel(id)
	if err != nil {
		if errors.Is(err, combat.ErrBattleNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Battle not found", nil)
			return
		}
		if errors.Is(err, combat.ErrInvalidTransition) {
			respondError(w, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to cancel battle", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, newBattleView(b))
}
