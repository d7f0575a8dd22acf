// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Solaireshen97/emberforge/internal/middleware"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router around the handler set. A nil chiMW gets the
// secure default middleware configuration.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows our existing middleware to work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(DebugLogging())              // Request tracing (enabled via HTTP_DEBUG=true)
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	if router.handler.perfMon != nil {
		r.Use(router.handler.perfMon.Middleware) // Latency percentiles per endpoint
	}

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitoring tools can poll frequently
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Event Intake
	// ========================
	// Gameplay clients submit events continuously, so the budget is wide
	r.Route("/api/v1/events", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitEvents())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Post("/", router.handler.EnqueueEvent)
	})

	// ========================
	// Scheduler Snapshots
	// ========================
	// Read-only counters that dashboards poll
	r.Route("/api/v1/queue", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitStats())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Get("/stats", router.handler.QueueStats)
	})

	r.Route("/api/v1/dispatcher", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitStats())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Get("/stats", router.handler.DispatcherStats)
	})

	r.Route("/api/v1/performance", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitStats())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Get("/", router.handler.PerformanceStats)
	})

	// ========================
	// Player Lifecycle
	// ========================
	// Settlement gets its own strict budget; the fast-forward engine can
	// burn real CPU per call
	r.Route("/api/v1/players", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.CreatePlayer)
		r.Get("/{id}", router.handler.GetPlayer)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/{id}/activity", router.handler.SwitchActivity)
		r.With(router.chiMiddleware.RateLimitSettle()).Post("/{id}/settle", router.handler.Settle)
		r.Get("/{id}/offline-history", router.handler.OfflineHistory)
	})

	// ========================
	// Live Battles
	// ========================
	r.Route("/api/v1/battles", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/", router.handler.ListBattles)
		r.Get("/{id}", router.handler.GetBattle)
		r.With(router.chiMiddleware.RateLimitWrite()).Post("/", router.handler.StartBattle)
		r.With(router.chiMiddleware.RateLimitWrite()).Delete("/{id}", router.handler.CancelBattle)
	})

	// ========================
	// WebSocket
	// ========================
	// The rate limit bounds upgrade churn, not message traffic
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitWebSocket())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.WebSocket)
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
