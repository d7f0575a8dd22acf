// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package main is the entry point for the Emberforge server application.

Emberforge is an event-driven idle RPG backend. Gameplay is simulated on
a fixed-tick frame loop fed by a tiered lock-free event queue, and
returning players have their absence settled in compressed time by the
offline fast-forward engine.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("emberforge")
	├── DataSupervisor ("data-layer")
	│   ├── Journal Sweeper (frame retention pruning)
	│   └── Analytics Sink (DuckDB batch writer)
	├── SimSupervisor ("sim-layer")
	│   ├── Frame Dispatcher (fixed-tick frame loop)
	│   ├── WebSocket Hub (live event push)
	│   └── Frame Relay (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Player store: BadgerDB document store for player state
 4. Frame journal: BadgerDB frame persistence behind a circuit breaker
 5. Event queue: one lock-free ring per priority tier
 6. Dispatcher: frame loop with a bounded handler worker pool
 7. Combat arena: wave battles resolved from gameplay events
 8. Offline manager: settlement with per-activity processors
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=6250               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Stores
	PLAYER_BACKEND=badger        # badger or memory
	PLAYER_PATH=data/players
	JOURNAL_BACKEND=badger       # badger or memory
	JOURNAL_PATH=data/journal

	# Simulation
	FRAME_INTERVAL=16ms          # dispatcher tick period
	DISPATCH_WORKERS=0           # handler pool size, 0 = one per CPU

	# Offline settlement
	OFFLINE_MAX_TIME=24h         # reward accrual cap
	OFFLINE_MAX_ABSENCE=720h     # hard plausibility limit

	# Optional NATS relay (requires -tags nats)
	NATS_ENABLED=false
	NATS_STORE_DIR=/data/nats/jetstream

	# Analytics archive
	ANALYTICS_ENABLED=true
	DUCKDB_PATH=data/analytics.duckdb

See internal/config for the complete mapping table.

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server              # Standard build
	go build -tags nats ./cmd/server   # Enable the NATS JetStream frame relay

Build tags affect supervisor tree composition:
  - nats: Adds the Frame Relay service to the sim layer and, with
    NATS_EMBEDDED=true, runs an in-process NATS server

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Broadcasts shutdown to WebSocket clients
 3. Waits for in-flight requests (shutdown timeout)
 4. Drains the analytics sink and stops the dispatcher
 5. Flushes pending writes and closes the stores
 6. Reports any services that failed to stop

# Usage Examples

Development (in-memory stores):

	export PLAYER_BACKEND=memory JOURNAL_BACKEND=memory
	export ANALYTICS_ENABLED=false
	go run ./cmd/server

Production with the embedded NATS relay:

	export NATS_ENABLED=true
	export NATS_STORE_DIR=/data/nats/jetstream
	./emberforge   # built with -tags nats

Docker:

	docker run -d \
	  -v emberforge-data:/data \
	  -e PLAYER_PATH=/data/players \
	  -e JOURNAL_PATH=/data/journal \
	  -e DUCKDB_PATH=/data/analytics.duckdb \
	  -p 6250:6250 \
	  ghcr.io/solaireshen97/emberforge

# API Surface

The REST API under /api/v1 is organized into categories:

  - Events: external event injection and queue statistics
  - Players: creation, activity switching, offline settlement, history
  - Battles: arena battle lifecycle and inspection
  - Observability: health probes, latency percentiles, Prometheus metrics
  - WebSocket: live event push at /api/v1/ws

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/dispatch: Frame loop and handler pool
  - internal/offline: Offline settlement engine
*/
package main
