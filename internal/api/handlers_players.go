// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/offline"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// CreatePlayer handles POST /api/v1/players. The new player starts idle at
// wave 1 with level-1 professions.
func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Player store unavailable", nil)
		return
	}

	var req CreatePlayerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	p := player.NewPlayer(req.Name)
	if err := h.store.SavePlayer(r.Context(), p); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorageError, "Failed to save player", err)
		return
	}

	logging.Info().
		Str("player_id", p.ID.String()).
		Str("name", sanitizeLogValue(p.Name)).
		Msg("Player created")
	respondSuccess(w, r, http.StatusCreated, p)
}

// GetPlayer handles GET /api/v1/players/{id}.
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Player store unavailable", nil)
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		if errors.Is(err, player.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Player not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStorageError, "Failed to load player", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, p)
}

// SwitchActivity handles POST /api/v1/players/{id}/activity. The switch
// marks the player active now, so the next settlement measures from here
// under the new activity rather than re-pricing the old gap.
func (h *Handler) SwitchActivity(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Player store unavailable", nil)
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SwitchActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	p, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		if errors.Is(err, player.ErrPlayerNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "Player not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStorageError, "Failed to load player", err)
		return
	}

	previous := p.Activity
	p.Activity = player.ActivityKind(req.Activity)
	p.LastActiveAt = time.Now().UTC()
	if err := h.store.SavePlayer(r.Context(), p); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorageError, "Failed to save player", err)
		return
	}

	logging.Info().
		Str("player_id", p.ID.String()).
		Str("from", previous.String()).
		Str("to", p.Activity.String()).
		Msg("Player activity switched")
	respondSuccess(w, r, http.StatusOK, p)
}

// Settle handles POST /api/v1/players/{id}/settle. A successful settlement
// returns the full accounting; a refused one returns the explicit rejection
// reason with nothing mutated.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	if h.offline == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Settlement unavailable", nil)
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.offline.ProcessOfflineActivity(r.Context(), id)
	if err != nil {
		status, code := settlementRejection(err)
		respondError(w, status, code, err.Error(), nil)
		return
	}

	if h.wsHub != nil {
		h.wsHub.BroadcastSettlement(result.PlayerID.String(), result.Activity.String(), result.Effective.Hours())
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// settlementRejection maps a refused or failed settlement to its HTTP
// surface. Security checks are client-visible rejections; anything else is
// an internal failure.
func settlementRejection(err error) (int, string) {
	switch {
	case errors.Is(err, offline.ErrClockRollback):
		return http.StatusUnprocessableEntity, ErrCodeClockRollback
	case errors.Is(err, offline.ErrAbsenceTooLong):
		return http.StatusUnprocessableEntity, ErrCodeAbsenceTooLong
	case errors.Is(err, offline.ErrSessionActive):
		return http.StatusConflict, ErrCodeSessionActive
	case errors.Is(err, offline.ErrSettlementInFlight):
		return http.StatusConflict, ErrCodeSettlementInFlight
	case errors.Is(err, player.ErrPlayerNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// OfflineHistory handles GET /api/v1/players/{id}/offline-history. Records
// come back newest first.
func (h *Handler) OfflineHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Player store unavailable", nil)
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	req := OfflineHistoryRequest{
		Limit: getIntParam(r, "limit", 50),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	records, err := h.store.OfflineHistory(r.Context(), id, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStorageError, "Failed to load offline history", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
