// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Event queue throughput and backpressure (per tier)
// - Dispatcher frame timing and handler health
// - Frame journal persistence
// - Offline settlement and combat fast-forward
// - API endpoint latency and throughput
// - WebSocket connections

var (
	// Queue Metrics
	EventsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_events_enqueued_total",
			Help: "Total number of events accepted into the queue",
		},
		[]string{"tier"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_events_dropped_total",
			Help: "Total number of events dropped by tier backpressure policy",
		},
		[]string{"tier"},
	)

	EventsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_events_collected_total",
			Help: "Total number of events drained by dispatcher collection",
		},
		[]string{"tier"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of buffered events per tier",
		},
		[]string{"tier"},
	)

	// Dispatcher Metrics
	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatcher_frames_total",
			Help: "Total number of dispatcher frame ticks",
		},
	)

	FrameDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatcher_frame_duration_seconds",
			Help:    "Duration of dispatcher frame ticks in seconds",
			Buckets: []float64{0.001, 0.002, 0.004, 0.008, 0.016, 0.032, 0.064, 0.128, 0.5, 1},
		},
	)

	FrameTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatcher_frame_timeouts_total",
			Help: "Total number of frames that exceeded the soft deadline",
		},
	)

	FrameBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatcher_frame_batch_size",
			Help:    "Number of events processed per frame",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000},
		},
	)

	CurrentFrame = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatcher_current_frame",
			Help: "The dispatcher's current frame number",
		},
	)

	HandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_handler_errors_total",
			Help: "Total number of handler errors by event type",
		},
		[]string{"event_type"},
	)

	HandlerPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_handler_panics_total",
			Help: "Total number of recovered handler panics by event type",
		},
		[]string{"event_type"},
	)

	// Frame Journal Metrics
	JournalPersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "journal_persist_duration_seconds",
			Help:    "Duration of frame persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	JournalFramesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_frames_persisted_total",
			Help: "Total number of frames persisted to the journal",
		},
	)

	JournalPersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_persist_errors_total",
			Help: "Total number of journal persistence errors (logged and swallowed)",
		},
	)

	JournalFramesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_frames_removed_total",
			Help: "Total number of frames removed by retention cleanup",
		},
	)

	JournalLatestFrame = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "journal_latest_frame",
			Help: "Highest frame number present in the journal",
		},
	)

	// Offline Settlement Metrics
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_settlements_total",
			Help: "Total number of offline settlements by activity and result",
		},
		[]string{"activity", "result"}, // result: "success", "rejected", "error"
	)

	SettlementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offline_settlement_duration_seconds",
			Help:    "Duration of offline settlement processing in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SettlementEffectiveHours = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offline_settlement_effective_hours",
			Help:    "Effective (capped) offline hours settled per run",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 12, 16, 24},
		},
	)

	SettlementRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_settlement_rejections_total",
			Help: "Total number of settlements rejected by security checks",
		},
		[]string{"reason"}, // clock_rollback, absence_too_long, concurrent_session
	)

	// Combat Fast-Forward Metrics
	FastForwardBattles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "combat_fast_forward_battles",
			Help:    "Number of battles resolved per fast-forward run",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 250, 500, 1000},
		},
	)

	FastForwardCapHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "combat_fast_forward_cap_hits_total",
			Help: "Total number of fast-forward runs stopped by the battle cap",
		},
	)

	BattlesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combat_battles_resolved_total",
			Help: "Total number of battles resolved by outcome",
		},
		[]string{"outcome"}, // victory, defeat
	)

	ActiveBattles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "combat_active_battles",
			Help: "Current number of live battles in the active set",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSSlowClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_client_disconnects_total",
			Help: "Total number of clients disconnected for unread backlog",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Frame Relay Metrics (NATS)
	RelayFramesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_frames_published_total",
			Help: "Total number of frames published to the relay stream",
		},
	)

	RelayPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_publish_errors_total",
			Help: "Total number of relay publish errors (logged and swallowed)",
		},
	)

	// Analytics Archive Metrics (DuckDB)
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	AnalyticsEventsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_archived_total",
			Help: "Total number of analytics events archived to DuckDB",
		},
	)

	AnalyticsBatchFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_batch_flush_duration_seconds",
			Help:    "Duration of analytics batch flush operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnalyticsBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_batch_size",
			Help:    "Number of events in each analytics batch flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordEventEnqueued records an event accepted into a tier ring.
func RecordEventEnqueued(tier string) {
	EventsEnqueued.WithLabelValues(tier).Inc()
}

// RecordEventDropped records an event rejected by a tier's backpressure policy.
func RecordEventDropped(tier string) {
	EventsDropped.WithLabelValues(tier).Inc()
}

// RecordEventsCollected records events drained during dispatcher collection.
func RecordEventsCollected(tier string, count int) {
	EventsCollected.WithLabelValues(tier).Add(float64(count))
}

// SetQueueDepth updates the buffered-event gauge for a tier.
func SetQueueDepth(tier string, depth int) {
	QueueDepth.WithLabelValues(tier).Set(float64(depth))
}

// RecordFrame records one dispatcher tick: its duration, the number of
// events processed, and whether the soft deadline was exceeded.
func RecordFrame(duration time.Duration, events int, timedOut bool) {
	FramesTotal.Inc()
	FrameDuration.Observe(duration.Seconds())
	FrameBatchSize.Observe(float64(events))
	if timedOut {
		FrameTimeouts.Inc()
	}
}

// SetCurrentFrame updates the current frame gauge.
func SetCurrentFrame(frame uint64) {
	CurrentFrame.Set(float64(frame))
}

// RecordHandlerError records a handler returning an error.
func RecordHandlerError(eventType string) {
	HandlerErrors.WithLabelValues(eventType).Inc()
}

// RecordHandlerPanic records a recovered handler panic.
func RecordHandlerPanic(eventType string) {
	HandlerPanics.WithLabelValues(eventType).Inc()
}

// RecordJournalPersist records a frame persistence attempt.
func RecordJournalPersist(duration time.Duration, err error) {
	JournalPersistDuration.Observe(duration.Seconds())
	if err != nil {
		JournalPersistErrors.Inc()
	} else {
		JournalFramesPersisted.Inc()
	}
}

// RecordJournalCleanup records frames removed by retention cleanup.
func RecordJournalCleanup(removed int) {
	JournalFramesRemoved.Add(float64(removed))
}

// SetJournalLatestFrame updates the latest persisted frame gauge.
func SetJournalLatestFrame(frame uint64) {
	JournalLatestFrame.Set(float64(frame))
}

// RecordSettlement records a completed offline settlement.
func RecordSettlement(activity, result string, duration time.Duration, effectiveHours float64) {
	SettlementsTotal.WithLabelValues(activity, result).Inc()
	SettlementDuration.Observe(duration.Seconds())
	if effectiveHours > 0 {
		SettlementEffectiveHours.Observe(effectiveHours)
	}
}

// RecordSettlementRejection records a settlement rejected by a security check.
func RecordSettlementRejection(reason string) {
	SettlementRejections.WithLabelValues(reason).Inc()
}

// RecordFastForward records one fast-forward run.
func RecordFastForward(battles int, capped bool) {
	FastForwardBattles.Observe(float64(battles))
	if capped {
		FastForwardCapHits.Inc()
	}
}

// RecordBattleResolved records a battle outcome ("victory" or "defeat").
func RecordBattleResolved(outcome string) {
	BattlesResolved.WithLabelValues(outcome).Inc()
}

// SetActiveBattles updates the live battle gauge.
func SetActiveBattles(count int) {
	ActiveBattles.Set(float64(count))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWSMessageSent records a WebSocket broadcast delivery.
func RecordWSMessageSent() {
	WSMessagesSent.Inc()
}

// RecordWSSlowClientDisconnect records a client dropped for unread backlog.
func RecordWSSlowClientDisconnect() {
	WSSlowClientDisconnects.Inc()
	WSErrors.WithLabelValues("slow_client").Inc()
}

// RecordWSClientRejected records a connection refused because the hub
// was at its client capacity.
func RecordWSClientRejected() {
	WSErrors.WithLabelValues("hub_full").Inc()
}

// TrackWSConnection tracks WebSocket connection lifecycle.
func TrackWSConnection(connected bool) {
	if connected {
		WSConnections.Inc()
	} else {
		WSConnections.Dec()
	}
}

// RecordRelayPublish records a relay publish attempt.
func RecordRelayPublish(err error) {
	if err != nil {
		RelayPublishErrors.Inc()
	} else {
		RelayFramesPublished.Inc()
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAnalyticsFlush records an analytics archive batch flush.
func RecordAnalyticsFlush(duration time.Duration, batchSize int, err error) {
	AnalyticsBatchFlushDuration.Observe(duration.Seconds())
	AnalyticsBatchSize.Observe(float64(batchSize))
	if err == nil {
		AnalyticsEventsArchived.Add(float64(batchSize))
	}
}
