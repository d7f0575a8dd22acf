// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements comprehensive application instrumentation using the Prometheus
client library, exposing metrics for monitoring queue throughput, frame timing,
settlement behavior, and system health.

# Overview

The package provides metrics for:
  - Event queue throughput and backpressure per priority tier
  - Dispatcher frame duration, batch size, and handler health
  - Frame journal persistence and retention
  - Offline settlement results and security rejections
  - Combat fast-forward iteration counts
  - API endpoint latency and throughput
  - WebSocket connection counts
  - Circuit breaker state transitions
  - DuckDB analytics archive performance

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Queue Metrics:
  - queue_events_enqueued_total: Events accepted into the queue (counter)
    Labels: tier (gameplay, ai, analytics, telemetry)
  - queue_events_dropped_total: Events dropped by backpressure (counter)
    Labels: tier
  - queue_events_collected_total: Events drained by collection (counter)
    Labels: tier
  - queue_depth: Buffered events per tier (gauge)
    Labels: tier

Dispatcher Metrics:
  - dispatcher_frames_total: Frame ticks executed (counter)
  - dispatcher_frame_duration_seconds: Frame tick latency (histogram)
    Buckets: 1ms to 1s, doubling around the 16ms tick budget
  - dispatcher_frame_timeouts_total: Frames over the soft deadline (counter)
  - dispatcher_frame_batch_size: Events processed per frame (histogram)
  - dispatcher_current_frame: Current frame number (gauge)
  - dispatcher_handler_errors_total: Handler errors (counter)
    Labels: event_type
  - dispatcher_handler_panics_total: Recovered handler panics (counter)
    Labels: event_type

Journal Metrics:
  - journal_persist_duration_seconds: Frame persistence latency (histogram)
  - journal_frames_persisted_total: Frames persisted (counter)
  - journal_persist_errors_total: Persistence errors (counter)
  - journal_frames_removed_total: Frames removed by retention (counter)
  - journal_latest_frame: Highest persisted frame number (gauge)

Offline Settlement Metrics:
  - offline_settlements_total: Settlements by activity and result (counter)
    Labels: activity, result (success, rejected, error)
  - offline_settlement_duration_seconds: Settlement latency (histogram)
  - offline_settlement_effective_hours: Capped hours settled (histogram)
  - offline_settlement_rejections_total: Security rejections (counter)
    Labels: reason (clock_rollback, absence_too_long, concurrent_session)

Combat Metrics:
  - combat_fast_forward_battles: Battles resolved per run (histogram)
  - combat_fast_forward_cap_hits_total: Runs stopped by the battle cap (counter)
  - combat_battles_resolved_total: Battle outcomes (counter)
    Labels: outcome (victory, defeat)
  - combat_active_battles: Live battles (gauge)

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/Solaireshen97/emberforge/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    metrics.RecordEventEnqueued("gameplay")
	    metrics.RecordFrame(12*time.Millisecond, 240, false)
	    metrics.RecordSettlement("combat", "success", 40*time.Millisecond, 8.5)
	}

Recording frame metrics from the dispatcher loop:

	start := time.Now()
	processed := d.processFrame(ctx)
	metrics.RecordFrame(time.Since(start), processed, time.Since(start) > d.softDeadline)

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'emberforge'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# Event throughput by tier
	rate(queue_events_enqueued_total[5m])

	# Drop ratio for the telemetry tier
	rate(queue_events_dropped_total{tier="telemetry"}[5m])
	/
	rate(queue_events_enqueued_total{tier="telemetry"}[5m])

	# Frame p99 latency against the 16ms budget
	histogram_quantile(0.99, rate(dispatcher_frame_duration_seconds_bucket[5m]))

	# Settlement rejection rate by reason
	rate(offline_settlement_rejections_total[5m])

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Tier labels are limited to the four fixed priority names
  - Event type labels come from a closed enum, never user input
  - DuckDB error types are truncated to 50 characters
  - Player-specific labels are avoided entirely

# See Also

  - internal/queue: Tier backpressure recording
  - internal/dispatch: Frame timing and handler health recording
  - internal/offline: Settlement metrics recording
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
