// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package api

import (
	"fmt"
	"net/http"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
)

// EnqueueEventResponse reports what happened to a submitted event. A full
// tier sheds work instead of blocking, so Accepted false with a 202 status
// is a normal outcome, not a transport error.
type EnqueueEventResponse struct {
	Accepted bool   `json:"accepted"`
	Frame    uint64 `json:"frame"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
}

// EnqueueEvent handles POST /api/v1/events. The event is validated, stamped
// and offered to its tier's ring; the response carries the frame it landed
// in or the fact that the tier's backpressure policy dropped it.
func (h *Handler) EnqueueEvent(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Event queue unavailable", nil)
		return
	}

	var req EnqueueEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	typ, err := event.ParseEventType(req.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	ev := event.New(typ, req.ActorID, req.TargetID)
	if req.Priority != "" {
		prio, perr := event.ParsePriority(req.Priority)
		if perr != nil {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, perr.Error(), nil)
			return
		}
		ev.Priority = prio
	}
	if req.Payload != "" {
		// The validator's max tag counts runes; the inline capacity is
		// bytes, so multi-byte payloads need the explicit check.
		raw := []byte(req.Payload)
		if len(raw) > event.PayloadCapacity {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest,
				fmt.Sprintf("payload exceeds %d bytes", event.PayloadCapacity), nil)
			return
		}
		ev.SetPayload(raw)
	}

	accepted := h.queue.Enqueue(ev)
	if !accepted {
		logging.Debug().
			Str("type", typ.String()).
			Str("priority", ev.Priority.String()).
			Msg("Event dropped by tier backpressure")
	}

	respondSuccess(w, r, http.StatusAccepted, EnqueueEventResponse{
		Accepted: accepted,
		Frame:    h.queue.CurrentFrame(),
		Type:     typ.String(),
		Priority: ev.Priority.String(),
	})
}

// QueueStats handles GET /api/v1/queue/stats. It returns the per-tier
// counters and ring depths.
func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Event queue unavailable", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, h.queue.Stats())
}

// DispatcherStats handles GET /api/v1/dispatcher/stats. It returns frame,
// timeout and handler error counters.
func (h *Handler) DispatcherStats(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Dispatcher unavailable", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, h.dispatcher.Stats())
}
