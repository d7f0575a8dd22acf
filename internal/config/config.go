// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package config

import "time"

// Config is the complete server configuration, assembled from defaults,
// an optional YAML file and environment variables.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Queue     QueueConfig     `koanf:"queue"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Combat    CombatConfig    `koanf:"combat"`
	Offline   OfflineConfig   `koanf:"offline"`
	Player    PlayerConfig    `koanf:"player"`
	Journal   JournalConfig   `koanf:"journal"`
	Relay     RelayConfig     `koanf:"relay"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment selects deployment mode: development, staging or
	// production.
	Environment string `koanf:"environment"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// QueueConfig sizes the tiered event queue. Capacities must be powers
// of two; the rings rely on index masking.
type QueueConfig struct {
	GameplayCapacity  int `koanf:"gameplay_capacity"`
	AICapacity        int `koanf:"ai_capacity"`
	AnalyticsCapacity int `koanf:"analytics_capacity"`
	TelemetryCapacity int `koanf:"telemetry_capacity"`

	// AnalyticsDropProbability is the chance in [0,1] that an analytics
	// event is shed outright when its ring is full.
	AnalyticsDropProbability float64 `koanf:"analytics_drop_probability"`

	SpinIterations  int           `koanf:"spin_iterations"`
	MaxBatchPerTier int           `koanf:"max_batch_per_tier"`
	DropLogInterval time.Duration `koanf:"drop_log_interval"`
}

// DispatchConfig tunes the frame dispatcher.
type DispatchConfig struct {
	FrameInterval time.Duration `koanf:"frame_interval"`

	// Workers is the handler pool size. Zero means one per CPU.
	Workers int `koanf:"workers"`

	MaxEventsPerFrame int           `koanf:"max_events_per_frame"`
	PersistTimeout    time.Duration `koanf:"persist_timeout"`
}

// CombatConfig is the battle tuning shared by the online arena and the
// offline fast-forward engine.
type CombatConfig struct {
	BaseCooldown        time.Duration `koanf:"base_cooldown"`
	EnemyCooldownFactor float64       `koanf:"enemy_cooldown_factor"`
	SkillCooldown       time.Duration `koanf:"skill_cooldown"`
	SkillPowerFactor    float64       `koanf:"skill_power_factor"`
	DamageVariance      float64       `koanf:"damage_variance"`
	MaxDifficulty       float64       `koanf:"max_difficulty"`
	DifficultyGrowth    float64       `koanf:"difficulty_growth"`
	DifficultyPenalty   float64       `koanf:"difficulty_penalty"`
	WaveRollback        int           `koanf:"wave_rollback"`
	VictoryHealFraction float64       `koanf:"victory_heal_fraction"`
	VictoryBuffFactor   float64       `koanf:"victory_buff_factor"`
	VictoryBuffDuration time.Duration `koanf:"victory_buff_duration"`
	MaxBattles          int           `koanf:"max_battles"`
}

// OfflineConfig tunes offline settlement.
type OfflineConfig struct {
	MaxOfflineTime time.Duration `koanf:"max_offline_time"`
	MaxAbsence     time.Duration `koanf:"max_absence"`
	DecayThreshold time.Duration `koanf:"decay_threshold"`
	DecayFloor     float64       `koanf:"decay_floor"`
	Granularity    time.Duration `koanf:"granularity"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
}

// PlayerConfig selects and tunes the player store.
type PlayerConfig struct {
	// Backend is "badger" for the durable store or "memory" for tests
	// and development.
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory. Ignored by the memory backend.
	Path string `koanf:"path"`

	// SyncWrites forces an fsync per write. Player state is written
	// rarely, so the durable default is on.
	SyncWrites bool `koanf:"sync_writes"`

	// MaxHistory bounds retained settlement records per player.
	MaxHistory int `koanf:"max_history"`
}

// JournalConfig selects and tunes the frame journal.
type JournalConfig struct {
	// Backend is "badger" for the durable store or "memory" for the
	// bounded in-process ring.
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory. Ignored by the memory backend.
	Path string `koanf:"path"`

	// MaxFrames bounds the memory backend's ring.
	MaxFrames int `koanf:"max_frames"`

	SyncWrites  bool `koanf:"sync_writes"`
	Compression bool `koanf:"compression"`

	// SweepInterval and RetainFrames control pruning of old frames.
	// RetainFrames 0 disables the sweeper.
	SweepInterval time.Duration `koanf:"sweep_interval"`
	RetainFrames  uint64        `koanf:"retain_frames"`

	// BreakerEnabled wraps the store in a circuit breaker so a failing
	// disk degrades to fast no-ops instead of stalling dispatch.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// RelayConfig configures the NATS JetStream frame relay.
type RelayConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	StreamName      string        `koanf:"stream_name"`
	Subject         string        `koanf:"subject"`
	StreamMaxAge    time.Duration `koanf:"stream_max_age"`
	StreamMaxBytes  int64         `koanf:"stream_max_bytes"`
	StreamMaxMsgs   int64         `koanf:"stream_max_msgs"`
	DuplicateWindow time.Duration `koanf:"duplicate_window"`
	Replicas        int           `koanf:"replicas"`

	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	ReconnectBuffer int           `koanf:"reconnect_buffer"`
}

// AnalyticsConfig configures the DuckDB event archive.
type AnalyticsConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	MaxMemory     string        `koanf:"max_memory"`
	Threads       int           `koanf:"threads"`
	FlushInterval time.Duration `koanf:"flush_interval"`
	FlushSize     int           `koanf:"flush_size"`
}

// WebSocketConfig tunes the live event push hub.
type WebSocketConfig struct {
	Enabled    bool          `koanf:"enabled"`
	SendBuffer int           `koanf:"send_buffer"`
	WriteWait  time.Duration `koanf:"write_wait"`
	PongWait   time.Duration `koanf:"pong_wait"`
	MaxClients int           `koanf:"max_clients"`
}

// LoggingConfig configures the global zerolog setup.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the full default configuration. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              6250,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			Environment:       "development",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Queue: QueueConfig{
			GameplayCapacity:         4096,
			AICapacity:               4096,
			AnalyticsCapacity:        2048,
			TelemetryCapacity:        1024,
			AnalyticsDropProbability: 0.5,
			SpinIterations:           32,
			MaxBatchPerTier:          512,
			DropLogInterval:          5 * time.Second,
		},
		Dispatch: DispatchConfig{
			FrameInterval:     16 * time.Millisecond,
			Workers:           0, // runtime.NumCPU()
			MaxEventsPerFrame: 2048,
			PersistTimeout:    5 * time.Second,
		},
		Combat: CombatConfig{
			BaseCooldown:        2 * time.Second,
			EnemyCooldownFactor: 1.2,
			SkillCooldown:       10 * time.Second,
			SkillPowerFactor:    2.0,
			DamageVariance:      0.15,
			MaxDifficulty:       5.0,
			DifficultyGrowth:    1.05,
			DifficultyPenalty:   0.90,
			WaveRollback:        3,
			VictoryHealFraction: 0.30,
			VictoryBuffFactor:   1.25,
			VictoryBuffDuration: 30 * time.Second,
			MaxBattles:          1000,
		},
		Offline: OfflineConfig{
			MaxOfflineTime: 24 * time.Hour,
			MaxAbsence:     30 * 24 * time.Hour,
			DecayThreshold: 8 * time.Hour,
			DecayFloor:     0.5,
			Granularity:    time.Hour,
			SessionTTL:     2 * time.Minute,
		},
		Player: PlayerConfig{
			Backend:    "badger",
			Path:       "data/players",
			SyncWrites: true,
			MaxHistory: 256,
		},
		Journal: JournalConfig{
			Backend:        "badger",
			Path:           "data/journal",
			MaxFrames:      4096,
			SyncWrites:     false,
			Compression:    true,
			SweepInterval:  30 * time.Second,
			RetainFrames:   100_000,
			BreakerEnabled: true,
		},
		Relay: RelayConfig{
			Enabled:         false,
			URL:             "nats://127.0.0.1:4222",
			EmbeddedServer:  true,
			Host:            "127.0.0.1",
			Port:            4222,
			StoreDir:        "/data/nats/jetstream",
			MaxMemory:       1 << 30,  // 1GB
			MaxStore:        10 << 30, // 10GB
			StreamName:      "EMBERFORGE_FRAMES",
			Subject:         "frames.dispatch",
			StreamMaxAge:    24 * time.Hour,
			StreamMaxBytes:  4 << 30, // 4GB
			StreamMaxMsgs:   -1,
			DuplicateWindow: 2 * time.Minute,
			Replicas:        1,
			MaxReconnects:   -1,
			ReconnectWait:   2 * time.Second,
			ReconnectBuffer: 8 * 1024 * 1024, // 8MB
		},
		Analytics: AnalyticsConfig{
			Enabled:       true,
			Path:          "data/analytics.duckdb",
			MaxMemory:     "512MB",
			Threads:       0, // runtime.NumCPU()
			FlushInterval: 5 * time.Second,
			FlushSize:     256,
		},
		WebSocket: WebSocketConfig{
			Enabled:    true,
			SendBuffer: 64,
			WriteWait:  10 * time.Second,
			PongWait:   60 * time.Second,
			MaxClients: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
