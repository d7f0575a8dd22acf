// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// Report summarizes one fast-forward or bulk-estimate run.
type Report struct {
	// Elapsed is the game-clock time consumed in seconds. Less than the
	// requested delta only when the battle cap stopped the run early.
	Elapsed float64

	Battles   int
	Victories int
	Defeats   int

	Rewards player.Rewards

	// CapReached marks a run stopped by the battle cap.
	CapReached bool

	FinalWave       int
	FinalDifficulty float64
}

// merge folds other into r.
func (r *Report) merge(other Report) {
	r.Elapsed += other.Elapsed
	r.Battles += other.Battles
	r.Victories += other.Victories
	r.Defeats += other.Defeats
	r.Rewards.Add(other.Rewards)
	r.CapReached = r.CapReached || other.CapReached
	r.FinalWave = other.FinalWave
	r.FinalDifficulty = other.FinalDifficulty
}

// FastForward replays delta seconds of combat by executing scheduled
// events in trigger order. The loop stops when the next event would
// trigger past the time budget, or when the battle cap is reached.
//
// On normal exhaustion the clock lands exactly on the target, and every
// still-pending event triggers at or after it. A capped run leaves the
// clock at the last resolved battle.
func (inst *Instance) FastForward(delta float64) Report {
	rep := Report{FinalWave: inst.CurrentWave, FinalDifficulty: inst.Difficulty}
	if delta <= 0 {
		return rep
	}

	start := inst.GameClock
	target := start + delta

	if inst.queue.Len() == 0 {
		inst.seedSchedule()
	}

	for {
		next, ok := inst.queue.peek()
		if !ok || next.TriggerTime > target {
			inst.GameClock = target
			break
		}

		ev, _ := inst.queue.pop()
		inst.GameClock = ev.TriggerTime
		inst.execute(ev, &rep)

		if rep.CapReached {
			logger := logging.WithComponent("combat")
			logger.Warn().
				Str("player_id", inst.PlayerID.String()).
				Int("battles", rep.Battles).
				Float64("remaining_s", target-inst.GameClock).
				Msg("Battle cap reached, stopping fast-forward early")
			break
		}
	}

	rep.Elapsed = inst.GameClock - start
	rep.FinalWave = inst.CurrentWave
	rep.FinalDifficulty = inst.Difficulty
	return rep
}

// execute resolves one scheduled event and reschedules its kind.
func (inst *Instance) execute(ev ScheduledEvent, rep *Report) {
	switch ev.Kind {
	case KindPlayerAttack:
		inst.EnemyHealth -= inst.rollDamage(inst.AttackPower) * inst.damageBuff
		inst.queue.schedule(KindPlayerAttack, inst.GameClock+inst.playerAttackInterval())
		if inst.EnemyHealth <= 0 {
			inst.resolveVictory(rep)
		}

	case KindEnemyAttack:
		inst.PlayerHealth -= inst.rollDamage(enemyAttackPower(inst.CurrentWave, inst.Difficulty))
		inst.queue.schedule(KindEnemyAttack, inst.GameClock+inst.enemyAttackInterval())
		if inst.PlayerHealth <= 0 {
			inst.resolveDefeat(rep)
		}

	case KindSkillCast:
		inst.EnemyHealth -= inst.config.SkillPowerFactor * inst.AttackPower * inst.damageBuff
		inst.queue.schedule(KindSkillCast, inst.GameClock+inst.config.SkillCooldown.Seconds())
		if inst.EnemyHealth <= 0 {
			inst.resolveVictory(rep)
		}

	case KindBuffExpire:
		inst.damageBuff = 1.0
	}
}

// resolveVictory applies the win path: wave-scaled reward, next wave,
// bounded difficulty growth, fresh enemy, partial heal, victory buff,
// reseeded schedule.
func (inst *Instance) resolveVictory(rep *Report) {
	rep.Battles++
	rep.Victories++
	rep.Rewards.Add(victoryReward(inst.CurrentWave, inst.Difficulty, inst.CombatEfficiency))

	inst.CurrentWave++
	inst.Difficulty = clamp(inst.Difficulty*inst.config.DifficultyGrowth, 1.0, inst.config.MaxDifficulty)
	inst.spawnEnemy()
	inst.PlayerHealth = clamp(
		inst.PlayerHealth+inst.config.VictoryHealFraction*inst.PlayerMaxHealth,
		0, inst.PlayerMaxHealth)

	inst.damageBuff = inst.config.VictoryBuffFactor
	inst.seedSchedule()
	inst.queue.schedule(KindBuffExpire, inst.GameClock+inst.config.VictoryBuffDuration.Seconds())

	if rep.Battles >= inst.config.MaxBattles {
		rep.CapReached = true
	}
}

// resolveDefeat applies the loss path: full heal, wave rollback,
// difficulty reduction, consolation reward, reseeded schedule.
func (inst *Instance) resolveDefeat(rep *Report) {
	rep.Battles++
	rep.Defeats++
	rep.Rewards.Add(consolationReward(inst.CurrentWave, inst.CombatEfficiency))

	inst.CurrentWave -= inst.config.WaveRollback
	if inst.CurrentWave < 1 {
		inst.CurrentWave = 1
	}
	inst.Difficulty = clamp(inst.Difficulty*inst.config.DifficultyPenalty, 1.0, inst.config.MaxDifficulty)
	inst.spawnEnemy()
	inst.PlayerHealth = inst.PlayerMaxHealth

	inst.damageBuff = 1.0
	inst.seedSchedule()

	if rep.Battles >= inst.config.MaxBattles {
		rep.CapReached = true
	}
}
