// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package api

import (
	"net/http"
	"time"

	"github.com/Solaireshen97/emberforge/internal/middleware"
)

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Environment       string  `json:"environment,omitempty"`
	Version           string  `json:"version"`
	StoreConnected    bool    `json:"store_connected"`
	DispatcherRunning bool    `json:"dispatcher_running"`
	CurrentFrame      uint64  `json:"current_frame"`
	ActiveBattles     int     `json:"active_battles"`
	ConnectedClients  int     `json:"connected_clients"`
	Uptime            float64 `json:"uptime"`
}

// Health handles GET /api/v1/health. It reports degraded rather than
// failing when a dependency is missing, so operators can still read the
// rest of the snapshot.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeConnected := h.store != nil
	dispatcherRunning := h.dispatcher != nil && h.dispatcher.Running()

	status := "healthy"
	if !storeConnected || h.queue == nil || !dispatcherRunning {
		status = "degraded"
	}

	health := HealthStatus{
		Status:            status,
		Version:           "1.0.0",
		StoreConnected:    storeConnected,
		DispatcherRunning: dispatcherRunning,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.config != nil {
		health.Environment = h.config.Server.Environment
	}
	if h.queue != nil {
		health.CurrentFrame = h.queue.CurrentFrame()
	}
	if h.arena != nil {
		health.ActiveBattles = h.arena.Count()
	}
	if h.wsHub != nil {
		health.ConnectedClients = h.wsHub.GetClientCount()
	}

	respondSuccess(w, r, http.StatusOK, health)
}

// PerformanceStats handles GET /api/v1/performance. It reports per-endpoint
// latency percentiles from the in-process sliding window, sorted by request
// count.
func (h *Handler) PerformanceStats(w http.ResponseWriter, r *http.Request) {
	stats := h.GetPerformanceStats()
	if stats == nil {
		stats = []middleware.EndpointStats{}
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"endpoints": stats,
		"count":     len(stats),
	})
}

// HealthLive handles GET /api/v1/health/live (Kubernetes-style liveness).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready (Kubernetes-style
// readiness). Returns 200 OK only when the store is attached and the
// dispatcher tick loop is running; 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	storeConnected := h.store != nil
	queueAttached := h.queue != nil
	dispatcherRunning := h.dispatcher != nil && h.dispatcher.Running()
	ready := storeConnected && queueAttached && dispatcherRunning

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"store_connected":    storeConnected,
			"queue_attached":     queueAttached,
			"dispatcher_running": dispatcherRunning,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{
			Timestamp: time.Now(),
		},
	})
}
