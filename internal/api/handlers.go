// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Solaireshen97/emberforge/internal/combat"
	"github.com/Solaireshen97/emberforge/internal/config"
	"github.com/Solaireshen97/emberforge/internal/dispatch"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/middleware"
	"github.com/Solaireshen97/emberforge/internal/offline"
	"github.com/Solaireshen97/emberforge/internal/player"
	"github.com/Solaireshen97/emberforge/internal/queue"
	ws "github.com/Solaireshen97/emberforge/internal/websocket"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrade (this file)
//   - handlers_helpers.go: Shared helper functions
//   - handlers_health.go: Health/monitoring endpoints
//   - handlers_events.go: Event enqueue and queue/dispatcher stats
//   - handlers_players.go: Player lifecycle and offline settlement
//   - handlers_battles.go: Live battle state machine surface
type Handler struct {
	queue      *queue.UnifiedEventQueue
	dispatcher *dispatch.Dispatcher
	store      player.Store
	offline    *offline.Manager
	arena      *combat.Arena
	config     *config.Config
	wsHub      *ws.Hub
	startTime  time.Time
	perfMon    *middleware.PerformanceMonitor
}

// NewHandler creates a new API handler with all required dependencies.
//
// Dependencies:
//   - q: Tiered event queue for event ingestion and per-tier stats
//   - d: Frame dispatcher for dispatch stats and readiness
//   - store: Player persistence
//   - offlineMgr: Offline settlement manager
//   - arena: Live battle set
//   - cfg: Application configuration
//   - wsHub: WebSocket hub for real-time broadcasts
//
// Any dependency may be nil; the affected endpoints then answer 503.
//
// Example:
//
//	handler := api.NewHandler(q, d, store, offlineMgr, arena, cfg, wsHub)
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromServer(cfg.Server))
//	http.ListenAndServe(":6250", router.SetupChi())
func NewHandler(q *queue.UnifiedEventQueue, d *dispatch.Dispatcher, store player.Store, offlineMgr *offline.Manager, arena *combat.Arena, cfg *config.Config, wsHub *ws.Hub) *Handler {
	return &Handler{
		queue:      q,
		dispatcher: d,
		store:      store,
		offline:    offlineMgr,
		arena:      arena,
		config:     cfg,
		wsHub:      wsHub,
		startTime:  time.Now(),
		perfMon:    middleware.NewPerformanceMonitor(1000), // Keep last 1000 requests
	}
}

// GetPerformanceStats returns performance monitoring statistics.
func (h *Handler) GetPerformanceStats() []middleware.EndpointStats {
	if h.perfMon != nil {
		return h.perfMon.GetStats()
	}
	return nil
}

// getUpgrader creates a WebSocket upgrader with proper origin checking and
// a handshake timeout for protection against slow client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// If no origin header, REJECT - legitimate browser WebSockets ALWAYS
	// include Origin. Only non-browser clients (curl, scripts) omit it, and
	// allowing empty Origin bypasses CORS entirely.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// If config is nil, allow by default (fail open for tests/development).
	if h.config == nil {
		return true
	}

	// Check against allowed origins from config.
	for _, allowedOrigin := range h.config.Server.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	// Origin not in allowed list - sanitize origin to prevent log injection.
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket handles WebSocket connections. Connected clients receive
// gameplay event broadcasts, settlement notices and stats updates.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
