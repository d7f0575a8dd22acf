// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package api provides the HTTP REST API layer for Emberforge.

This package exposes the event scheduler, the player lifecycle and the live
battle set over JSON endpoints. It is the primary interface between game
clients and the backend services.

Key Components:

  - Router: HTTP route configuration and middleware stack integration
  - Handler: Request handlers for all API endpoints
  - Response formatting: Standardized JSON responses with metadata
  - Error handling: Consistent error responses with appropriate HTTP status codes
  - Rate limiting: Per-endpoint budgets via go-chi/httprate
  - CORS: Cross-Origin Resource Sharing for game client compatibility

API Categories:

1. Scheduler Endpoints:
  - Event intake (POST /api/v1/events) feeding the tiered lock-free queue
  - Queue and dispatcher snapshots (/api/v1/queue/stats, /api/v1/dispatcher/stats)

2. Player Endpoints (/api/v1/players):
  - Create and fetch players
  - Activity switching (combat, gathering, crafting, idle)
  - Offline settlement (POST /{id}/settle) running the fast-forward engine
  - Settlement history (GET /{id}/offline-history)

3. Battle Endpoints (/api/v1/battles):
  - List, inspect, start and cancel live battles
  - Battle resolution itself happens on the dispatcher, not here

4. Operational Endpoints:
  - Health checks (/api/v1/health, /health/live, /health/ready)
  - Per-endpoint latency percentiles (/api/v1/performance)
  - Prometheus metrics (/metrics)

5. WebSocket Endpoint (/api/v1/ws):
  - Real-time event notifications
  - Settlement completion broadcasts
  - Scheduler stats streaming

Usage Example:

	import (
	    "github.com/Solaireshen97/emberforge/internal/api"
	    "github.com/Solaireshen97/emberforge/internal/config"
	)

	cfg, _ := config.Load()

	// Create handler and router
	handler := api.NewHandler(eventQueue, dispatcher, store, offlineMgr, arena, cfg, wsHub)
	chiMW := api.NewChiMiddlewareFromServer(cfg.Server)
	router := api.NewRouter(handler, chiMW)

	// Setup routes and start server
	http.ListenAndServe(":6250", router.SetupChi())

Performance Characteristics:

  - Event intake answers 202 without waiting for dispatch; the queue absorbs
    or sheds the work per its tier policy
  - Stats endpoints read atomic counters and are safe to poll aggressively
  - Settlement is CPU-bound for long absences and carries a strict rate limit

Thread Safety:

All handlers are thread-safe and designed for concurrent request handling.
Shared resources (queue, store, arena, WebSocket hub) are protected by their
respective synchronization primitives.

Security:

  - Rate limiting per endpoint class (httprate, IP-keyed)
  - Security headers on API responses (nosniff, frame denial, referrer policy)
  - Input validation via go-playground/validator
  - Log output sanitized against control-character injection

See Also:

  - internal/queue: Tiered lock-free event queue
  - internal/dispatch: Frame dispatcher driving game logic
  - internal/offline: Offline settlement engine
  - internal/websocket: Real-time notification hub
*/
package api
