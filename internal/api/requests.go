// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package api provides HTTP request validation structs with
// go-playground/validator tags. These structs are used to validate incoming
// API request parameters before processing.
//
// The validation tags follow the go-playground/validator v10 syntax:
//   - required: field must be present and non-zero
//   - min,max: numeric or string length bounds
//   - oneof: value must be one of the specified options
//   - omitempty: skip validation if field is empty/zero
//
// Example usage:
//
//	req := OfflineHistoryRequest{
//	    Limit: getIntParam(r, "limit", 50),
//	}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package api

// EnqueueEventRequest represents the validated request body for POST /events.
//
// Fields:
//   - Type: Event type name (required, e.g. "player_attack")
//   - Priority: Optional tier override; empty uses the type's default tier
//   - ActorID: Originating entity (required, non-zero)
//   - TargetID: Acted-on entity (optional)
//   - Payload: Optional inline payload; bounded by the event's fixed capacity
type EnqueueEventRequest struct {
	Type     string `json:"type" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=gameplay ai analytics telemetry"`
	ActorID  uint64 `json:"actor_id" validate:"required"`
	TargetID uint64 `json:"target_id"`
	Payload  string `json:"payload" validate:"omitempty,max=28"`
}

// CreatePlayerRequest represents the validated request body for POST /players.
type CreatePlayerRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

// SwitchActivityRequest represents the validated request body for
// POST /players/{id}/activity.
//
// Fields:
//   - Activity: The new activity kind; settlement picks its processor from it
type SwitchActivityRequest struct {
	Activity string `json:"activity" validate:"required,oneof=combat gathering crafting idle"`
}

// OfflineHistoryRequest represents the validated query parameters for
// GET /players/{id}/offline-history.
type OfflineHistoryRequest struct {
	Limit int `validate:"min=1,max=500"`
}

// StartBattleRequest represents the validated request body for POST /battles.
type StartBattleRequest struct {
	PlayerID string `json:"player_id" validate:"required,uuid"`
}
