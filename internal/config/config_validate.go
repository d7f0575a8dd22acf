// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package config

import "fmt"

// Validate checks every section for values the server cannot run with.
// It returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Queue.validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := c.Dispatch.validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Combat.validate(); err != nil {
		return fmt.Errorf("combat: %w", err)
	}
	if err := c.Offline.validate(); err != nil {
		return fmt.Errorf("offline: %w", err)
	}
	if err := c.Player.validate(); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	if err := c.Journal.validate(); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if err := c.Relay.validate(); err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	if err := c.Analytics.validate(); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	if err := c.WebSocket.validate(); err != nil {
		return fmt.Errorf("websocket: %w", err)
	}
	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be in [1, 65535], got %d", c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("environment must be development, staging or production, got %q", c.Environment)
	}
	if !c.RateLimitDisabled {
		if c.RateLimitReqs < 1 {
			return fmt.Errorf("rate limit requests must be at least 1, got %d", c.RateLimitReqs)
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("rate limit window must be positive, got %s", c.RateLimitWindow)
		}
	}
	return nil
}

func (c QueueConfig) validate() error {
	caps := map[string]int{
		"gameplay_capacity":  c.GameplayCapacity,
		"ai_capacity":        c.AICapacity,
		"analytics_capacity": c.AnalyticsCapacity,
		"telemetry_capacity": c.TelemetryCapacity,
	}
	for name, n := range caps {
		if !isPowerOfTwo(n) {
			return fmt.Errorf("%s must be a power of two, got %d", name, n)
		}
	}
	if c.AnalyticsDropProbability < 0 || c.AnalyticsDropProbability > 1 {
		return fmt.Errorf("analytics_drop_probability must be in [0, 1], got %v", c.AnalyticsDropProbability)
	}
	if c.SpinIterations < 0 {
		return fmt.Errorf("spin_iterations must not be negative, got %d", c.SpinIterations)
	}
	if c.MaxBatchPerTier < 1 {
		return fmt.Errorf("max_batch_per_tier must be at least 1, got %d", c.MaxBatchPerTier)
	}
	if c.DropLogInterval <= 0 {
		return fmt.Errorf("drop_log_interval must be positive, got %s", c.DropLogInterval)
	}
	return nil
}

func (c DispatchConfig) validate() error {
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive, got %s", c.FrameInterval)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxEventsPerFrame < 1 {
		return fmt.Errorf("max_events_per_frame must be at least 1, got %d", c.MaxEventsPerFrame)
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("persist_timeout must be positive, got %s", c.PersistTimeout)
	}
	return nil
}

func (c CombatConfig) validate() error {
	if c.BaseCooldown <= 0 {
		return fmt.Errorf("base_cooldown must be positive, got %s", c.BaseCooldown)
	}
	if c.EnemyCooldownFactor < 1.0 {
		return fmt.Errorf("enemy_cooldown_factor must be at least 1.0, got %v", c.EnemyCooldownFactor)
	}
	if c.SkillCooldown <= 0 {
		return fmt.Errorf("skill_cooldown must be positive, got %s", c.SkillCooldown)
	}
	if c.SkillPowerFactor <= 0 {
		return fmt.Errorf("skill_power_factor must be positive, got %v", c.SkillPowerFactor)
	}
	if c.DamageVariance < 0 || c.DamageVariance >= 1.0 {
		return fmt.Errorf("damage_variance must be in [0, 1), got %v", c.DamageVariance)
	}
	if c.MaxDifficulty < 1.0 {
		return fmt.Errorf("max_difficulty must be at least 1.0, got %v", c.MaxDifficulty)
	}
	if c.DifficultyGrowth <= 1.0 {
		return fmt.Errorf("difficulty_growth must exceed 1.0, got %v", c.DifficultyGrowth)
	}
	if c.DifficultyPenalty <= 0 || c.DifficultyPenalty > 1.0 {
		return fmt.Errorf("difficulty_penalty must be in (0, 1], got %v", c.DifficultyPenalty)
	}
	if c.WaveRollback < 0 {
		return fmt.Errorf("wave_rollback must not be negative, got %d", c.WaveRollback)
	}
	if c.VictoryHealFraction <= 0 || c.VictoryHealFraction > 1.0 {
		return fmt.Errorf("victory_heal_fraction must be in (0, 1], got %v", c.VictoryHealFraction)
	}
	if c.VictoryBuffFactor < 1.0 {
		return fmt.Errorf("victory_buff_factor must be at least 1.0, got %v", c.VictoryBuffFactor)
	}
	if c.VictoryBuffDuration < 0 {
		return fmt.Errorf("victory_buff_duration must not be negative, got %s", c.VictoryBuffDuration)
	}
	if c.MaxBattles < 1 {
		return fmt.Errorf("max_battles must be at least 1, got %d", c.MaxBattles)
	}
	return nil
}

func (c OfflineConfig) validate() error {
	if c.MaxOfflineTime <= 0 {
		return fmt.Errorf("max_offline_time must be positive, got %s", c.MaxOfflineTime)
	}
	if c.MaxAbsence < c.MaxOfflineTime {
		return fmt.Errorf("max_absence must be at least max_offline_time")
	}
	if c.DecayThreshold <= 0 || c.DecayThreshold >= c.MaxOfflineTime {
		return fmt.Errorf("decay_threshold must be in (0, max_offline_time), got %s", c.DecayThreshold)
	}
	if c.DecayFloor <= 0 || c.DecayFloor > 1.0 {
		return fmt.Errorf("decay_floor must be in (0, 1], got %v", c.DecayFloor)
	}
	if c.Granularity <= 0 {
		return fmt.Errorf("granularity must be positive, got %s", c.Granularity)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

func (c PlayerConfig) validate() error {
	switch c.Backend {
	case "badger":
		if c.Path == "" {
			return fmt.Errorf("path is required for the badger backend")
		}
	case "memory":
	default:
		return fmt.Errorf("backend must be badger or memory, got %q", c.Backend)
	}
	if c.MaxHistory < 0 {
		return fmt.Errorf("max_history must not be negative, got %d", c.MaxHistory)
	}
	return nil
}

func (c JournalConfig) validate() error {
	switch c.Backend {
	case "badger":
		if c.Path == "" {
			return fmt.Errorf("path is required for the badger backend")
		}
	case "memory":
		if c.MaxFrames < 1 {
			return fmt.Errorf("max_frames must be at least 1, got %d", c.MaxFrames)
		}
	default:
		return fmt.Errorf("backend must be badger or memory, got %q", c.Backend)
	}
	if c.RetainFrames > 0 && c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive when retain_frames is set")
	}
	return nil
}

func (c RelayConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if !c.EmbeddedServer && c.URL == "" {
		return fmt.Errorf("url is required without the embedded server")
	}
	if c.EmbeddedServer && c.StoreDir == "" {
		return fmt.Errorf("store_dir is required for the embedded server")
	}
	if c.StreamName == "" {
		return fmt.Errorf("stream_name must not be empty")
	}
	if c.Subject == "" {
		return fmt.Errorf("subject must not be empty")
	}
	if c.Replicas < 1 {
		return fmt.Errorf("replicas must be at least 1, got %d", c.Replicas)
	}
	if c.DuplicateWindow < 0 {
		return fmt.Errorf("duplicate_window must not be negative, got %s", c.DuplicateWindow)
	}
	return nil
}

func (c AnalyticsConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Path == "" {
		return fmt.Errorf("path must not be empty")
	}
	if c.MaxMemory == "" {
		return fmt.Errorf("max_memory must not be empty")
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval)
	}
	if c.FlushSize < 1 {
		return fmt.Errorf("flush_size must be at least 1, got %d", c.FlushSize)
	}
	return nil
}

func (c WebSocketConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("send_buffer must be at least 1, got %d", c.SendBuffer)
	}
	if c.WriteWait <= 0 {
		return fmt.Errorf("write_wait must be positive, got %s", c.WriteWait)
	}
	if c.PongWait <= 0 {
		return fmt.Errorf("pong_wait must be positive, got %s", c.PongWait)
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1, got %d", c.MaxClients)
	}
	return nil
}

func (c LoggingConfig) validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("level must be a zerolog level name, got %q", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be json or console, got %q", c.Format)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
