// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero base cooldown", func(c *Config) { c.BaseCooldown = 0 }},
		{"enemy cooldown below one", func(c *Config) { c.EnemyCooldownFactor = 0.5 }},
		{"zero skill cooldown", func(c *Config) { c.SkillCooldown = 0 }},
		{"zero skill power", func(c *Config) { c.SkillPowerFactor = 0 }},
		{"negative variance", func(c *Config) { c.DamageVariance = -0.1 }},
		{"variance at one", func(c *Config) { c.DamageVariance = 1.0 }},
		{"max difficulty below one", func(c *Config) { c.MaxDifficulty = 0.9 }},
		{"growth not above one", func(c *Config) { c.DifficultyGrowth = 1.0 }},
		{"zero penalty", func(c *Config) { c.DifficultyPenalty = 0 }},
		{"penalty above one", func(c *Config) { c.DifficultyPenalty = 1.1 }},
		{"negative rollback", func(c *Config) { c.WaveRollback = -1 }},
		{"zero heal fraction", func(c *Config) { c.VictoryHealFraction = 0 }},
		{"heal fraction above one", func(c *Config) { c.VictoryHealFraction = 1.5 }},
		{"buff factor below one", func(c *Config) { c.VictoryBuffFactor = 0.9 }},
		{"negative buff duration", func(c *Config) { c.VictoryBuffDuration = -time.Second }},
		{"zero battle cap", func(c *Config) { c.MaxBattles = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
