// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"fmt"
	"time"
)

// Config holds the battle resolution tuning shared by the online arena
// and the offline fast-forward engine.
type Config struct {
	// BaseCooldown is the unscaled attack interval. A player's real
	// interval is BaseCooldown / AttackSpeed.
	BaseCooldown time.Duration

	// EnemyCooldownFactor stretches BaseCooldown for enemy attacks.
	EnemyCooldownFactor float64

	// SkillCooldown is the interval between automatic skill casts.
	SkillCooldown time.Duration

	// SkillPowerFactor multiplies attack power for skill damage. Skills
	// hit without variance.
	SkillPowerFactor float64

	// DamageVariance is the half-width of the uniform variance applied
	// to attack damage: a hit lands in [1-v, 1+v] times attack power.
	DamageVariance float64

	// MaxDifficulty caps multiplicative difficulty growth.
	MaxDifficulty float64

	// DifficultyGrowth multiplies difficulty on each victory, up to
	// MaxDifficulty.
	DifficultyGrowth float64

	// DifficultyPenalty multiplies difficulty on each defeat, floored
	// at 1.0.
	DifficultyPenalty float64

	// WaveRollback is how many waves a defeat costs, floored at wave 1.
	WaveRollback int

	// VictoryHealFraction of max health is restored after a victory.
	// Defeats heal in full.
	VictoryHealFraction float64

	// VictoryBuffFactor multiplies outgoing damage after a victory
	// until the buff expires.
	VictoryBuffFactor float64

	// VictoryBuffDuration is how long the victory buff lasts in game
	// time.
	VictoryBuffDuration time.Duration

	// MaxBattles bounds resolved battles per fast-forward call. The cap
	// turns a pathological runaway loop into a logged stop.
	MaxBattles int
}

// DefaultConfig returns the production battle tuning.
func DefaultConfig() Config {
	return Config{
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
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BaseCooldown <= 0 {
		return fmt.Errorf("base cooldown must be positive, got %v", c.BaseCooldown)
	}
	if c.EnemyCooldownFactor < 1.0 {
		return fmt.Errorf("enemy cooldown factor must be at least 1.0, got %v", c.EnemyCooldownFactor)
	}
	if c.SkillCooldown <= 0 {
		return fmt.Errorf("skill cooldown must be positive, got %v", c.SkillCooldown)
	}
	if c.SkillPowerFactor <= 0 {
		return fmt.Errorf("skill power factor must be positive, got %v", c.SkillPowerFactor)
	}
	if c.DamageVariance < 0 || c.DamageVariance >= 1.0 {
		return fmt.Errorf("damage variance must be in [0, 1), got %v", c.DamageVariance)
	}
	if c.MaxDifficulty < 1.0 {
		return fmt.Errorf("max difficulty must be at least 1.0, got %v", c.MaxDifficulty)
	}
	if c.DifficultyGrowth <= 1.0 {
		return fmt.Errorf("difficulty growth must exceed 1.0, got %v", c.DifficultyGrowth)
	}
	if c.DifficultyPenalty <= 0 || c.DifficultyPenalty > 1.0 {
		return fmt.Errorf("difficulty penalty must be in (0, 1], got %v", c.DifficultyPenalty)
	}
	if c.WaveRollback < 0 {
		return fmt.Errorf("wave rollback must be non-negative, got %d", c.WaveRollback)
	}
	if c.VictoryHealFraction <= 0 || c.VictoryHealFraction > 1.0 {
		return fmt.Errorf("victory heal fraction must be in (0, 1], got %v", c.VictoryHealFraction)
	}
	if c.VictoryBuffFactor < 1.0 {
		return fmt.Errorf("victory buff factor must be at least 1.0, got %v", c.VictoryBuffFactor)
	}
	if c.VictoryBuffDuration < 0 {
		return fmt.Errorf("victory buff duration must be non-negative, got %v", c.VictoryBuffDuration)
	}
	if c.MaxBattles < 1 {
		return fmt.Errorf("max battles must be at least 1, got %d", c.MaxBattles)
	}
	return nil
}
