// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package main is the entry point for the Emberforge server.
//
// Emberforge is an event-driven idle RPG backend: players enqueue
// activities, a fixed-tick dispatcher drains a tiered lock-free queue,
// and returning players have their absence settled by the offline
// fast-forward engine.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Player store: BadgerDB document store for player state and settlement history
//  3. Frame journal: BadgerDB (or in-memory) frame persistence with circuit breaker
//  4. Event queue: one lock-free ring per priority tier
//  5. Dispatcher: fixed-tick frame loop with a bounded worker pool
//  6. Combat arena: wave battles driven by gameplay events
//  7. Offline manager: settlement engine with per-activity processors
//  8. WebSocket hub: live event push to connected clients
//  9. NATS relay (optional): frame forwarding to JetStream
//  10. Analytics archive: DuckDB event warehouse behind a batching sink
//  11. HTTP server: REST API on a Chi router
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (explicit mapping table)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Build Tags
//
// Optional build tags enable additional functionality:
//
//	go build -tags "nats" ./cmd/server  # Enable the NATS JetStream frame relay
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete
//   - Flushes the analytics sink and closes the stores
//   - Shuts down the relay and embedded NATS server if enabled
//
// # Example Usage
//
// Development with in-memory stores:
//
//	export PLAYER_BACKEND=memory
//	export JOURNAL_BACKEND=memory
//	export ANALYTICS_ENABLED=false
//	./emberforge
//
// Production with the embedded NATS relay:
//
//	export NATS_ENABLED=true
//	export NATS_STORE_DIR=/data/nats/jetstream
//	./emberforge   # built with -tags nats
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Solaireshen97/emberforge/internal/analytics"
	"github.com/Solaireshen97/emberforge/internal/api"
	"github.com/Solaireshen97/emberforge/internal/combat"
	"github.com/Solaireshen97/emberforge/internal/config"
	"github.com/Solaireshen97/emberforge/internal/dispatch"
	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/journal"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/offline"
	"github.com/Solaireshen97/emberforge/internal/player"
	"github.com/Solaireshen97/emberforge/internal/queue"
	"github.com/Solaireshen97/emberforge/internal/supervisor"
	"github.com/Solaireshen97/emberforge/internal/supervisor/services"
	ws "github.com/Solaireshen97/emberforge/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Emberforge with supervisor tree")
	logging.Info().
		Str("player_backend", cfg.Player.Backend).
		Str("journal_backend", cfg.Journal.Backend).
		Bool("relay_enabled", cfg.Relay.Enabled).
		Bool("analytics_enabled", cfg.Analytics.Enabled).
		Dur("frame_interval", cfg.Dispatch.FrameInterval).
		Msg("Configuration loaded")

	// Initialize the player store
	playerStore, err := openPlayerStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open player store")
	}
	defer func() {
		if err := playerStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing player store")
		}
	}()
	logging.Info().Msg("Player store initialized")

	// Initialize the frame journal
	journalStore, err := openJournalStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open frame journal")
	}
	defer func() {
		if err := journalStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing frame journal")
		}
	}()
	logging.Info().Msg("Frame journal initialized")

	// Create the tiered event queue. The nil rng seeds the analytics
	// throttle from the clock.
	q, err := queue.New(queueOptions(cfg), nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event queue")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Create WebSocket hub for live event push (before handler wiring)
	var wsHub *ws.Hub
	if cfg.WebSocket.Enabled {
		wsHub = ws.NewHub(websocketConfig(cfg))
	}

	// Initialize the NATS frame relay (optional - requires build with -tags nats)
	rly, err := initRelay(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize frame relay")
	}
	defer func() {
		if rly != nil {
			if err := rly.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing frame relay")
			}
		}
	}()

	// Every completed frame lands in the journal and, when the relay is
	// live, on the JetStream frame stream. MultiSink skips nil entries.
	var relaySink dispatch.FrameSink
	if rly != nil {
		relaySink = dispatch.SinkFunc(rly.ForwardFrame)
	}
	frameSink := dispatch.MultiSink(journalStore, relaySink)

	// Create the frame dispatcher over the queue
	dispatcher, err := dispatch.New(q, frameSink, dispatchOptions(cfg))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create dispatcher")
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dispatcher")
		}
	}()

	// Create the combat arena and register its event handlers
	arena, err := combat.NewArena(combatConfig(cfg))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create combat arena")
	}
	if err := registerCombatHandlers(dispatcher, arena, q, playerStore); err != nil {
		logging.Fatal().Err(err).Msg("Failed to register combat handlers")
	}
	logging.Info().Int("max_battles", cfg.Combat.MaxBattles).Msg("Combat arena initialized")

	// Create the offline settlement manager with one processor per
	// supported activity
	offlineMgr, err := initOffline(cfg, playerStore)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize offline settlement")
	}

	// Push gameplay events to connected WebSocket clients
	if wsHub != nil {
		registerPushHandlers(dispatcher, wsHub)
		tree.AddSimService(services.NewRunnerService("websocket-hub", wsHub))
		logging.Info().Msg("WebSocket hub added to supervisor tree")
	} else {
		logging.Info().Msg("WebSocket push disabled (WS_ENABLED=false)")
	}

	// Initialize the DuckDB analytics archive behind its batching sink
	if cfg.Analytics.Enabled {
		archive, err := analytics.Open(analyticsConfig(cfg))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open analytics archive")
		}
		defer func() {
			if err := archive.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing analytics archive")
			}
		}()

		sink, err := analytics.NewSink(archive, analyticsConfig(cfg))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create analytics sink")
		}
		registerAnalyticsHandlers(dispatcher, sink)
		tree.AddDataService(services.NewRunnerService("analytics-sink", sink))
		logging.Info().Str("path", cfg.Analytics.Path).Msg("Analytics archive initialized")
	} else {
		logging.Info().Msg("Analytics archive disabled (ANALYTICS_ENABLED=false)")
	}

	// Journal retention sweeper (RetainFrames 0 disables pruning)
	if cfg.Journal.RetainFrames > 0 {
		sweeper, err := journal.NewSweeper(journalStore, cfg.Journal.SweepInterval, cfg.Journal.RetainFrames)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create journal sweeper")
		}
		tree.AddDataService(services.NewRunnerService("journal-sweeper", sweeper))
		logging.Info().
			Uint64("retain_frames", cfg.Journal.RetainFrames).
			Dur("sweep_interval", cfg.Journal.SweepInterval).
			Msg("Journal sweeper added to supervisor tree")
	}

	handler := api.NewHandler(q, dispatcher, playerStore, offlineMgr, arena, cfg, wsHub)
	chiMW := api.NewChiMiddlewareFromServer(cfg.Server)
	router := api.NewRouter(handler, chiMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Simulation layer services
	tree.AddSimService(services.NewRunnerService("frame-dispatcher", dispatcher))
	addRelayToSupervisor(tree, rly)
	logging.Info().Msg("Frame dispatcher added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openPlayerStore opens the configured player store backend.
func openPlayerStore(cfg *config.Config) (player.Store, error) {
	switch cfg.Player.Backend {
	case "memory":
		return player.NewMemoryStore(cfg.Player.MaxHistory), nil
	case "badger":
		bcfg := player.DefaultBadgerConfig(cfg.Player.Path)
		bcfg.SyncWrites = cfg.Player.SyncWrites
		if cfg.Player.MaxHistory > 0 {
			bcfg.MaxHistory = cfg.Player.MaxHistory
		}
		return player.OpenBadger(bcfg)
	default:
		return nil, fmt.Errorf("unknown player backend %q", cfg.Player.Backend)
	}
}

// openJournalStore opens the configured journal backend, wrapped in the
// circuit breaker when enabled so a failing disk degrades to fast no-ops
// instead of stalling the frame loop.
func openJournalStore(cfg *config.Config) (journal.FrameStore, error) {
	var store journal.FrameStore
	switch cfg.Journal.Backend {
	case "memory":
		store = journal.NewMemoryStore(cfg.Journal.MaxFrames)
	case "badger":
		bcfg := journal.DefaultBadgerConfig(cfg.Journal.Path)
		bcfg.SyncWrites = cfg.Journal.SyncWrites
		bcfg.Compression = cfg.Journal.Compression
		badgerStore, err := journal.OpenBadger(bcfg)
		if err != nil {
			return nil, err
		}
		store = badgerStore
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}

	if cfg.Journal.BreakerEnabled {
		store = journal.NewBreakerStore(store, journal.DefaultBreakerConfig())
		logging.Info().Msg("Journal circuit breaker enabled")
	}
	return store, nil
}

// registerCombatHandlers wires the arena into the event stream: damage
// events resolve against battles, and battle-end events credit the
// payout to the winner's wallet.
func registerCombatHandlers(d *dispatch.Dispatcher, arena *combat.Arena, q *queue.UnifiedEventQueue, store player.Store) error {
	attack, err := combat.NewAttackHandler(arena, q.Enqueue)
	if err != nil {
		return fmt.Errorf("create attack handler: %w", err)
	}
	d.RegisterHandler(event.TypePlayerAttack, attack)
	d.RegisterHandler(event.TypeEnemyAttack, attack)
	d.RegisterHandler(event.TypeSkillCast, attack)

	battleEnd, err := combat.NewBattleEndHandler(store)
	if err != nil {
		return fmt.Errorf("create battle end handler: %w", err)
	}
	// Registered before the push and analytics handlers so the wallet
	// credit lands before downstream consumers see the resolution.
	d.RegisterHandler(event.TypeBattleEnd, battleEnd)
	return nil
}

// initOffline builds the settlement manager with every supported
// activity processor attached.
func initOffline(cfg *config.Config, store player.Store) (*offline.Manager, error) {
	mgr, err := offline.NewManager(offlineConfig(cfg), store)
	if err != nil {
		return nil, err
	}

	combatProc, err := offline.NewCombatProcessor(combatConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create combat processor: %w", err)
	}
	procs := []offline.Processor{
		offline.NewIdleProcessor(),
		combatProc,
		offline.NewGatheringProcessor(),
		offline.NewCraftingProcessor(),
	}
	for _, proc := range procs {
		if err := mgr.Register(proc); err != nil {
			return nil, fmt.Errorf("register %s processor: %w", proc.ActivityName(), err)
		}
	}

	logging.Info().
		Int("processors", len(procs)).
		Dur("max_offline_time", cfg.Offline.MaxOfflineTime).
		Msg("Offline settlement manager initialized")
	return mgr, nil
}

// registerPushHandlers forwards Gameplay-tier events to the hub. Push
// delivery is best effort; a slow client never blocks the frame loop.
func registerPushHandlers(d *dispatch.Dispatcher, hub *ws.Hub) {
	pushTypes := []event.EventType{
		event.TypePlayerAttack,
		event.TypeEnemyAttack,
		event.TypeSkillCast,
		event.TypeBuffExpire,
		event.TypeBattleStart,
		event.TypeBattleEnd,
		event.TypeRewardGrant,
		event.TypeCycleDone,
	}
	for _, t := range pushTypes {
		d.RegisterHandler(t, hub)
	}
}

// registerAnalyticsHandlers buffers the sample tiers plus battle
// resolutions into the archive sink.
func registerAnalyticsHandlers(d *dispatch.Dispatcher, sink *analytics.Sink) {
	archiveTypes := []event.EventType{
		event.TypeBattleEnd,
		event.TypeRewardGrant,
		event.TypeProgressSample,
		event.TypeEconomySample,
		event.TypeLatencySample,
		event.TypeCounterSample,
	}
	for _, t := range archiveTypes {
		d.RegisterHandler(t, sink)
	}
}
