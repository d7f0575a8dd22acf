// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Solaireshen97/emberforge/internal/player"
)

// Enemy stat formula constants. Stats are a deterministic function of
// wave number and difficulty so reward totals stay bounded and
// monotonic with wave progress.
const (
	enemyBaseHealth       = 50.0
	enemyHealthWaveFactor = 0.15
	enemyBaseAttack       = 5.0
	enemyAttackWaveFactor = 0.10
)

// Victory reward scaling per wave.
const (
	victoryGoldPerWave = 10.0
	victoryExpPerWave  = 25
	essenceWaveDivisor = 5
)

func enemyMaxHealth(wave int, difficulty float64) float64 {
	return enemyBaseHealth * difficulty * (1.0 + enemyHealthWaveFactor*float64(wave-1))
}

func enemyAttackPower(wave int, difficulty float64) float64 {
	return enemyBaseAttack * difficulty * (1.0 + enemyAttackWaveFactor*float64(wave-1))
}

// victoryReward scales the payout with the defeated wave, current
// difficulty, and the player's combat efficiency.
func victoryReward(wave int, difficulty, efficiency float64) player.Rewards {
	return player.Rewards{
		Gold:       int64(victoryGoldPerWave * float64(wave) * difficulty * efficiency),
		Experience: int64(victoryExpPerWave * wave),
		Essence:    int64(wave / essenceWaveDivisor),
	}
}

// consolationReward is the reduced payout for a lost battle. The scrap
// is salvage; it is the wallet's main scrap source besides gathering.
func consolationReward(wave int, efficiency float64) player.Rewards {
	gold := victoryGoldPerWave * float64(wave) * efficiency / 4.0
	return player.Rewards{
		Gold:       int64(gold),
		Experience: int64(victoryExpPerWave * wave / 5),
		Scrap:      1,
	}
}

// Instance is one player's offline battle state. It is created per
// settlement run, mutated only by the fast-forward loop, and never
// shared across concurrent runs for the same player.
type Instance struct {
	PlayerID uuid.UUID

	// GameClock is the instance-local time in seconds. It only moves
	// forward, to the trigger time of the event being executed.
	GameClock float64

	CurrentWave int
	Difficulty  float64

	PlayerHealth    float64
	PlayerMaxHealth float64
	EnemyHealth     float64
	EnemyMaxHealth  float64

	AttackPower      float64
	AttackSpeed      float64
	CombatEfficiency float64

	// damageBuff multiplies outgoing damage; 1.0 when no buff is up.
	damageBuff float64

	queue  eventQueue
	config Config
	rng    *rand.Rand
}

// NewInstance builds an instance from the player's combat block. The
// RNG drives per-hit damage variance; pass a seeded source for
// reproducible settlements. A nil rng falls back to a time seed.
func NewInstance(cfg Config, p *player.Player, rng *rand.Rand) (*Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid combat config: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("player is required")
	}

	c := p.Combat
	if c.AttackPower <= 0 || c.AttackSpeed <= 0 || c.MaxHealth <= 0 || c.CombatEfficiency <= 0 {
		return nil, fmt.Errorf("player %s has invalid combat stats: %+v", p.ID, c)
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	wave := c.Wave
	if wave < 1 {
		wave = 1
	}
	difficulty := clamp(c.Difficulty, 1.0, cfg.MaxDifficulty)

	health := c.Health
	if health <= 0 || health > c.MaxHealth {
		health = c.MaxHealth
	}

	inst := &Instance{
		PlayerID:         p.ID,
		CurrentWave:      wave,
		Difficulty:       difficulty,
		PlayerHealth:     health,
		PlayerMaxHealth:  c.MaxHealth,
		AttackPower:      c.AttackPower,
		AttackSpeed:      c.AttackSpeed,
		CombatEfficiency: c.CombatEfficiency,
		damageBuff:       1.0,
		config:           cfg,
		rng:              rng,
	}
	inst.spawnEnemy()
	return inst, nil
}

// Apply writes the instance's progression back to the player's combat
// block. Rewards are not credited here; the settlement pipeline owns
// the wallet.
func (inst *Instance) Apply(p *player.Player) {
	p.Combat.Wave = inst.CurrentWave
	p.Combat.Difficulty = inst.Difficulty
	p.Combat.Health = clamp(inst.PlayerHealth, 0, inst.PlayerMaxHealth)
}

// PendingEvents returns the number of scheduled events.
func (inst *Instance) PendingEvents() int {
	return inst.queue.Len()
}

// spawnEnemy regenerates the enemy from the stat formula at the current
// wave and difficulty.
func (inst *Instance) spawnEnemy() {
	inst.EnemyMaxHealth = enemyMaxHealth(inst.CurrentWave, inst.Difficulty)
	inst.EnemyHealth = inst.EnemyMaxHealth
}

func (inst *Instance) playerAttackInterval() float64 {
	return inst.config.BaseCooldown.Seconds() / inst.AttackSpeed
}

func (inst *Instance) enemyAttackInterval() float64 {
	return inst.config.BaseCooldown.Seconds() * inst.config.EnemyCooldownFactor
}

// seedSchedule clears pending events and schedules the next player
// attack, enemy attack and skill cast relative to the current clock.
func (inst *Instance) seedSchedule() {
	inst.queue.clear()
	inst.queue.schedule(KindPlayerAttack, inst.GameClock+inst.playerAttackInterval())
	inst.queue.schedule(KindEnemyAttack, inst.GameClock+inst.enemyAttackInterval())
	inst.queue.schedule(KindSkillCast, inst.GameClock+inst.config.SkillCooldown.Seconds())
}

// rollDamage applies uniform variance around base damage.
func (inst *Instance) rollDamage(base float64) float64 {
	v := inst.config.DamageVariance
	if v == 0 {
		return base
	}
	return base * (1.0 + v*(2.0*inst.rng.Float64()-1.0))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
