// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package main

import (
	"github.com/Solaireshen97/emberforge/internal/analytics"
	"github.com/Solaireshen97/emberforge/internal/combat"
	"github.com/Solaireshen97/emberforge/internal/config"
	"github.com/Solaireshen97/emberforge/internal/dispatch"
	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/offline"
	"github.com/Solaireshen97/emberforge/internal/queue"
	"github.com/Solaireshen97/emberforge/internal/relay"
	ws "github.com/Solaireshen97/emberforge/internal/websocket"
)

// The domain packages own their option structs and never import the
// config package; these mappers carry each config section across so the
// dependency points one way only.

func queueOptions(cfg *config.Config) queue.Options {
	return queue.Options{
		TierCapacity: [event.NumPriorities]int{
			event.PriorityGameplay:  cfg.Queue.GameplayCapacity,
			event.PriorityAI:        cfg.Queue.AICapacity,
			event.PriorityAnalytics: cfg.Queue.AnalyticsCapacity,
			event.PriorityTelemetry: cfg.Queue.TelemetryCapacity,
		},
		AnalyticsDropProbability: cfg.Queue.AnalyticsDropProbability,
		SpinIterations:           cfg.Queue.SpinIterations,
		MaxBatchPerTier:          cfg.Queue.MaxBatchPerTier,
		DropLogInterval:          cfg.Queue.DropLogInterval,
	}
}

func dispatchOptions(cfg *config.Config) dispatch.Options {
	return dispatch.Options{
		Interval:          cfg.Dispatch.FrameInterval,
		Workers:           cfg.Dispatch.Workers,
		MaxEventsPerFrame: cfg.Dispatch.MaxEventsPerFrame,
		PersistTimeout:    cfg.Dispatch.PersistTimeout,
	}
}

func combatConfig(cfg *config.Config) combat.Config {
	return combat.Config{
		BaseCooldown:        cfg.Combat.BaseCooldown,
		EnemyCooldownFactor: cfg.Combat.EnemyCooldownFactor,
		SkillCooldown:       cfg.Combat.SkillCooldown,
		SkillPowerFactor:    cfg.Combat.SkillPowerFactor,
		DamageVariance:      cfg.Combat.DamageVariance,
		MaxDifficulty:       cfg.Combat.MaxDifficulty,
		DifficultyGrowth:    cfg.Combat.DifficultyGrowth,
		DifficultyPenalty:   cfg.Combat.DifficultyPenalty,
		WaveRollback:        cfg.Combat.WaveRollback,
		VictoryHealFraction: cfg.Combat.VictoryHealFraction,
		VictoryBuffFactor:   cfg.Combat.VictoryBuffFactor,
		VictoryBuffDuration: cfg.Combat.VictoryBuffDuration,
		MaxBattles:          cfg.Combat.MaxBattles,
	}
}

func offlineConfig(cfg *config.Config) offline.Config {
	return offline.Config{
		MaxOfflineTime: cfg.Offline.MaxOfflineTime,
		MaxAbsence:     cfg.Offline.MaxAbsence,
		DecayThreshold: cfg.Offline.DecayThreshold,
		DecayFloor:     cfg.Offline.DecayFloor,
		Granularity:    cfg.Offline.Granularity,
		SessionTTL:     cfg.Offline.SessionTTL,
	}
}

func analyticsConfig(cfg *config.Config) analytics.Config {
	return analytics.Config{
		Path:          cfg.Analytics.Path,
		MaxMemory:     cfg.Analytics.MaxMemory,
		Threads:       cfg.Analytics.Threads,
		FlushInterval: cfg.Analytics.FlushInterval,
		FlushSize:     cfg.Analytics.FlushSize,
	}
}

func websocketConfig(cfg *config.Config) ws.Config {
	return ws.Config{
		SendBuffer: cfg.WebSocket.SendBuffer,
		WriteWait:  cfg.WebSocket.WriteWait,
		PongWait:   cfg.WebSocket.PongWait,
		MaxClients: cfg.WebSocket.MaxClients,
	}
}

func relayConfig(cfg *config.Config) relay.Config {
	return relay.Config{
		Enabled:         cfg.Relay.Enabled,
		URL:             cfg.Relay.URL,
		EmbeddedServer:  cfg.Relay.EmbeddedServer,
		Host:            cfg.Relay.Host,
		Port:            cfg.Relay.Port,
		StoreDir:        cfg.Relay.StoreDir,
		MaxMemory:       cfg.Relay.MaxMemory,
		MaxStore:        cfg.Relay.MaxStore,
		StreamName:      cfg.Relay.StreamName,
		Subject:         cfg.Relay.Subject,
		StreamMaxAge:    cfg.Relay.StreamMaxAge,
		StreamMaxBytes:  cfg.Relay.StreamMaxBytes,
		StreamMaxMsgs:   cfg.Relay.StreamMaxMsgs,
		DuplicateWindow: cfg.Relay.DuplicateWindow,
		Replicas:        cfg.Relay.Replicas,
		MaxReconnects:   cfg.Relay.MaxReconnects,
		ReconnectWait:   cfg.Relay.ReconnectWait,
		ReconnectBuffer: cfg.Relay.ReconnectBuffer,
	}
}
