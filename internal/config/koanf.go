// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in
// priority order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/emberforge/config.yaml",
	"/etc/emberforge/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from three layers, last writer wins:
//
//  1. Built-in defaults.
//  2. An optional YAML config file.
//  3. Environment variables, mapped through an explicit table so stray
//     variables never leak into the config.
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("processing slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the config file to load, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as plain strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("setting %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config
// paths. Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Queue
	"queue_gameplay_capacity":  "queue.gameplay_capacity",
	"queue_ai_capacity":        "queue.ai_capacity",
	"queue_analytics_capacity": "queue.analytics_capacity",
	"queue_telemetry_capacity": "queue.telemetry_capacity",
	"queue_analytics_drop":     "queue.analytics_drop_probability",
	"queue_spin_iterations":    "queue.spin_iterations",
	"queue_max_batch_per_tier": "queue.max_batch_per_tier",
	"queue_drop_log_interval":  "queue.drop_log_interval",

	// Dispatch
	"frame_interval":                "dispatch.frame_interval",
	"dispatch_workers":              "dispatch.workers",
	"dispatch_max_events_per_frame": "dispatch.max_events_per_frame",
	"dispatch_persist_timeout":      "dispatch.persist_timeout",

	// Combat
	"combat_base_cooldown":         "combat.base_cooldown",
	"combat_enemy_cooldown_factor": "combat.enemy_cooldown_factor",
	"combat_skill_cooldown":        "combat.skill_cooldown",
	"combat_skill_power_factor":    "combat.skill_power_factor",
	"combat_damage_variance":       "combat.damage_variance",
	"combat_max_difficulty":        "combat.max_difficulty",
	"combat_difficulty_growth":     "combat.difficulty_growth",
	"combat_difficulty_penalty":    "combat.difficulty_penalty",
	"combat_wave_rollback":         "combat.wave_rollback",
	"combat_victory_heal_fraction": "combat.victory_heal_fraction",
	"combat_victory_buff_factor":   "combat.victory_buff_factor",
	"combat_victory_buff_duration": "combat.victory_buff_duration",
	"combat_max_battles":           "combat.max_battles",

	// Offline settlement
	"offline_max_time":        "offline.max_offline_time",
	"offline_max_absence":     "offline.max_absence",
	"offline_decay_threshold": "offline.decay_threshold",
	"offline_decay_floor":     "offline.decay_floor",
	"offline_granularity":     "offline.granularity",
	"offline_session_ttl":     "offline.session_ttl",

	// Player store
	"player_backend":     "player.backend",
	"player_path":        "player.path",
	"player_sync_writes": "player.sync_writes",
	"player_max_history": "player.max_history",

	// Journal
	"journal_backend":         "journal.backend",
	"journal_path":            "journal.path",
	"journal_max_frames":      "journal.max_frames",
	"journal_sync_writes":     "journal.sync_writes",
	"journal_compression":     "journal.compression",
	"journal_sweep_interval":  "journal.sweep_interval",
	"journal_retain_frames":   "journal.retain_frames",
	"journal_breaker_enabled": "journal.breaker_enabled",

	// NATS relay
	"nats_enabled":          "relay.enabled",
	"nats_url":              "relay.url",
	"nats_embedded":         "relay.embedded_server",
	"nats_host":             "relay.host",
	"nats_port":             "relay.port",
	"nats_store_dir":        "relay.store_dir",
	"nats_max_memory":       "relay.max_memory",
	"nats_max_store":        "relay.max_store",
	"nats_stream_name":      "relay.stream_name",
	"nats_subject":          "relay.subject",
	"nats_stream_max_age":   "relay.stream_max_age",
	"nats_stream_max_bytes": "relay.stream_max_bytes",
	"nats_stream_max_msgs":  "relay.stream_max_msgs",
	"nats_duplicate_window": "relay.duplicate_window",
	"nats_replicas":         "relay.replicas",
	"nats_max_reconnects":   "relay.max_reconnects",
	"nats_reconnect_wait":   "relay.reconnect_wait",
	"nats_reconnect_buffer": "relay.reconnect_buffer",

	// Analytics archive
	"analytics_enabled":        "analytics.enabled",
	"duckdb_path":              "analytics.path",
	"duckdb_max_memory":        "analytics.max_memory",
	"duckdb_threads":           "analytics.threads",
	"analytics_flush_interval": "analytics.flush_interval",
	"analytics_flush_size":     "analytics.flush_size",

	// WebSocket
	"ws_enabled":     "websocket.enabled",
	"ws_send_buffer": "websocket.send_buffer",
	"ws_write_wait":  "websocket.write_wait",
	"ws_pong_wait":   "websocket.pong_wait",
	"ws_max_clients": "websocket.max_clients",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path.
// Returning "" drops the variable so unrelated environment noise never
// pollutes the config.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
