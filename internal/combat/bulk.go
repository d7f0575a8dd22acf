// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"math"
	"time"

	"github.com/Solaireshen97/emberforge/internal/player"
)

// EstimateBulk prices segments whole time windows of segmentLength each
// without running the event loop, spending O(1) work per segment.
//
// The model prices each battle arithmetically: expected kill time from
// the enemy health formula and the player's sustained damage output,
// expected survival time from the enemy damage formula and the player's
// health pool. The wave where kill time first exceeds survival time is
// the progression frontier; a segment is priced as a climb to the
// frontier followed by a steady win/loss oscillation around it (or as a
// decline toward wave 1 when the frontier is below the current wave).
//
// The estimate deliberately ignores per-hit variance, attack-tick
// quantization, buff uptime and intra-phase difficulty drift, so its
// totals track FastForward within a bounded tolerance rather than
// matching it. Pending scheduled events are cleared: bulk supersedes
// any event-level schedule.
func (inst *Instance) EstimateBulk(segmentLength time.Duration, segments int) Report {
	rep := Report{FinalWave: inst.CurrentWave, FinalDifficulty: inst.Difficulty}
	segSec := segmentLength.Seconds()
	if segSec <= 0 || segments <= 0 {
		return rep
	}

	inst.queue.clear()

	for i := 0; i < segments; i++ {
		inst.estimateSegment(segSec, &rep)
		if rep.CapReached {
			break
		}
	}

	inst.spawnEnemy()
	inst.PlayerHealth = inst.PlayerMaxHealth
	rep.FinalWave = inst.CurrentWave
	rep.FinalDifficulty = inst.Difficulty
	return rep
}

// battleModel carries the closed-form pricing terms for one segment,
// derived at the segment's starting difficulty.
type battleModel struct {
	// interval floors battle duration at one player attack.
	interval float64

	// Expected kill time for wave w is max(interval, c0 + c1*w).
	c0, c1 float64

	// Expected survival time for wave w is sNum / (a0 + a1*w).
	sNum, a0, a1 float64
}

// expectedDPS is the player's sustained damage per second from attacks
// plus skill casts, ignoring variance and buffs.
func (inst *Instance) expectedDPS() float64 {
	attack := inst.AttackPower * inst.AttackSpeed / inst.config.BaseCooldown.Seconds()
	skill := inst.config.SkillPowerFactor * inst.AttackPower / inst.config.SkillCooldown.Seconds()
	return attack + skill
}

func (inst *Instance) model() battleModel {
	d := inst.Difficulty
	dps := inst.expectedDPS()
	return battleModel{
		interval: inst.playerAttackInterval(),
		c0:       enemyBaseHealth * d * (1.0 - enemyHealthWaveFactor) / dps,
		c1:       enemyBaseHealth * d * enemyHealthWaveFactor / dps,
		sNum:     inst.PlayerMaxHealth * inst.enemyAttackInterval(),
		a0:       enemyBaseAttack * d * (1.0 - enemyAttackWaveFactor),
		a1:       enemyBaseAttack * d * enemyAttackWaveFactor,
	}
}

func (m battleModel) killTime(w int) float64 {
	return math.Max(m.interval, m.c0+m.c1*float64(w))
}

func (m battleModel) survivalTime(w int) float64 {
	return m.sNum / (m.a0 + m.a1*float64(w))
}

// frontierWave is the highest wave the player is expected to beat:
// the largest w with killTime(w) <= survivalTime(w). Zero means even
// wave 1 is out of reach.
func (m battleModel) frontierWave() int {
	// (c0 + c1*w)(a0 + a1*w) = sNum, take the positive root.
	a := m.c1 * m.a1
	b := m.c0*m.a1 + m.c1*m.a0
	c := m.c0*m.a0 - m.sNum
	if c >= 0 {
		return 0
	}
	root := (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
	if root < 1 {
		return 0
	}
	return int(root)
}

func (inst *Instance) estimateSegment(segSec float64, rep *Report) {
	budget := segSec
	m := inst.model()
	frontier := m.frontierWave()

	inst.declineToFrontier(m, frontier, &budget, rep)
	if !rep.CapReached {
		inst.climbToFrontier(m, frontier, &budget, rep)
	}
	if !rep.CapReached {
		inst.oscillateAtFrontier(m, frontier, &budget, rep)
	}

	// Uncapped leftover budget is a battle in progress; the segment's
	// time still passes in full.
	consumed := segSec
	if rep.CapReached {
		consumed = segSec - budget
	}
	inst.GameClock += consumed
	rep.Elapsed += consumed
}

// capBattles clamps n to the remaining battle budget.
func (inst *Instance) capBattles(rep *Report, n int) int {
	remaining := inst.config.MaxBattles - rep.Battles
	if n >= remaining {
		rep.CapReached = true
		return remaining
	}
	return n
}

// creditVictories applies n climb victories starting at startWave:
// wave-sum rewards at the average of the start and projected end
// difficulty, then advances wave and difficulty.
func (inst *Instance) creditVictories(rep *Report, startWave, n int) {
	if n <= 0 {
		return
	}
	d0 := inst.Difficulty
	dEnd := clamp(d0*math.Pow(inst.config.DifficultyGrowth, float64(n)), 1.0, inst.config.MaxDifficulty)
	dAvg := (d0 + dEnd) / 2

	sumWaves := n*startWave + n*(n-1)/2
	rep.Battles += n
	rep.Victories += n
	rep.Rewards.Add(player.Rewards{
		Gold:       int64(victoryGoldPerWave * dAvg * inst.CombatEfficiency * float64(sumWaves)),
		Experience: int64(victoryExpPerWave * sumWaves),
		Essence:    int64(sumWaves / essenceWaveDivisor),
	})

	inst.CurrentWave = startWave + n
	inst.Difficulty = dEnd
}

// creditDefeats applies n defeats priced at atWave: consolation rewards,
// wave rollback, difficulty decay.
func (inst *Instance) creditDefeats(rep *Report, atWave, n int) {
	if n <= 0 {
		return
	}
	rep.Battles += n
	rep.Defeats += n
	rep.Rewards.Add(consolationReward(atWave, inst.CombatEfficiency).Times(int64(n)))

	inst.CurrentWave -= n * inst.config.WaveRollback
	if inst.CurrentWave < 1 {
		inst.CurrentWave = 1
	}
	inst.Difficulty = clamp(
		inst.Difficulty*math.Pow(inst.config.DifficultyPenalty, float64(n)),
		1.0, inst.config.MaxDifficulty)
}

// declineToFrontier prices the defeats that pull an over-extended wave
// back down to the frontier.
func (inst *Instance) declineToFrontier(m battleModel, frontier int, budget *float64, rep *Report) {
	w := inst.CurrentWave
	if w <= frontier+1 || *budget <= 0 {
		return
	}

	rollback := inst.config.WaveRollback
	if rollback == 0 {
		// No rollback pins the player at an unwinnable wave; the whole
		// budget is defeats.
		perDefeat := m.survivalTime(w)
		n := inst.capBattles(rep, int(*budget/perDefeat))
		inst.creditDefeats(rep, w, n)
		*budget -= float64(n) * perDefeat
		return
	}

	need := (w - frontier + rollback - 1) / rollback
	avgWave := (w + frontier + 1) / 2
	perDefeat := m.survivalTime(avgWave)
	n := int(*budget / perDefeat)
	if n > need {
		n = need
	}
	n = inst.capBattles(rep, n)
	inst.creditDefeats(rep, avgWave, n)
	*budget -= float64(n) * perDefeat
}

// climbToFrontier prices consecutive victories from the current wave up
// to the frontier. Battle duration is flat (one attack interval) until
// enemy health outgrows a single expected kill window, then grows
// linearly with wave; the linear stretch is solved in closed form.
func (inst *Instance) climbToFrontier(m battleModel, frontier int, budget *float64, rep *Report) {
	w := inst.CurrentWave
	if w > frontier || *budget <= 0 {
		return
	}

	// Flat stretch: waves whose expected kill time sits under one
	// attack interval.
	if m.c1 > 0 {
		flatHi := int((m.interval - m.c0) / m.c1)
		if flatHi > frontier {
			flatHi = frontier
		}
		if w <= flatHi {
			n := flatHi - w + 1
			if byTime := int(*budget / m.interval); byTime < n {
				n = byTime
			}
			n = inst.capBattles(rep, n)
			inst.creditVictories(rep, w, n)
			*budget -= float64(n) * m.interval
			w = inst.CurrentWave
			if rep.CapReached || w > frontier || *budget <= 0 {
				return
			}
		}
	}

	// Linear stretch: sum of (c0 + c1*wave) from w for n battles equals
	// the budget; solve the quadratic for n.
	n := solveClimb(m.c0, m.c1, w, *budget)
	if limit := frontier - w + 1; n > limit {
		n = limit
	}
	if n <= 0 {
		return
	}

	// One refinement pass: difficulty grows across those victories, so
	// reprice with the midpoint difficulty and solve again.
	dEnd := clamp(inst.Difficulty*math.Pow(inst.config.DifficultyGrowth, float64(n)),
		1.0, inst.config.MaxDifficulty)
	scale := ((inst.Difficulty + dEnd) / 2) / inst.Difficulty
	n = solveClimb(m.c0*scale, m.c1*scale, w, *budget)
	if limit := frontier - w + 1; n > limit {
		n = limit
	}
	if n <= 0 {
		return
	}
	n = inst.capBattles(rep, n)

	spent := float64(n)*(m.c0*scale) + m.c1*scale*(float64(n)*float64(w)+float64(n)*float64(n-1)/2)
	inst.creditVictories(rep, w, n)
	*budget -= spent
	if *budget < 0 {
		*budget = 0
	}
}

// solveClimb returns how many consecutive battles of duration c0 + c1*w
// (w increasing from startWave) fit into budget seconds.
func solveClimb(c0, c1 float64, startWave int, budget float64) int {
	if budget <= 0 {
		return 0
	}
	if c1 <= 0 {
		if c0 <= 0 {
			return 0
		}
		return int(budget / c0)
	}
	// (c1/2)n^2 + (c0 + c1*startWave - c1/2)n - budget = 0
	b := c0 + c1*float64(startWave) - c1/2
	n := (-b + math.Sqrt(b*b+2*c1*budget)) / c1
	if n < 0 {
		return 0
	}
	return int(n)
}

// oscillateAtFrontier prices the steady state at the progression
// frontier: each cycle climbs the rolled-back waves and then loses the
// first battle past the frontier.
func (inst *Instance) oscillateAtFrontier(m battleModel, frontier int, budget *float64, rep *Report) {
	if *budget <= 0 {
		return
	}

	if frontier == 0 {
		// Nothing is winnable; the budget is defeats at the floor.
		atWave := inst.CurrentWave
		if atWave < 1 {
			atWave = 1
		}
		perDefeat := m.survivalTime(atWave)
		n := inst.capBattles(rep, int(*budget/perDefeat))
		inst.creditDefeats(rep, atWave, n)
		*budget -= float64(n) * perDefeat
		return
	}

	climbLow := frontier - inst.config.WaveRollback + 1
	if climbLow < 1 {
		climbLow = 1
	}
	winsPerCycle := frontier - climbLow + 1
	if winsPerCycle < 0 {
		winsPerCycle = 0
	}

	cycleTime := m.survivalTime(frontier + 1)
	for w := climbLow; w <= frontier; w++ {
		cycleTime += m.killTime(w)
	}
	battlesPerCycle := winsPerCycle + 1

	cycles := int(*budget / cycleTime)
	if byCap := (inst.config.MaxBattles - rep.Battles) / battlesPerCycle; cycles > byCap {
		cycles = byCap
		rep.CapReached = true
	}
	if cycles <= 0 {
		return
	}

	wins := cycles * winsPerCycle
	sumWaves := float64(cycles) * float64(winsPerCycle) * float64(climbLow+frontier) / 2
	rep.Battles += wins + cycles
	rep.Victories += wins
	rep.Defeats += cycles
	rep.Rewards.Add(player.Rewards{
		Gold:       int64(victoryGoldPerWave * inst.Difficulty * inst.CombatEfficiency * sumWaves),
		Experience: int64(victoryExpPerWave * int(sumWaves)),
		Essence:    int64(sumWaves / essenceWaveDivisor),
	})
	rep.Rewards.Add(consolationReward(frontier+1, inst.CombatEfficiency).Times(int64(cycles)))

	// Growth and penalty nearly cancel over a cycle; apply the net
	// drift once per cycle batch.
	net := math.Pow(inst.config.DifficultyGrowth, float64(winsPerCycle)) * inst.config.DifficultyPenalty
	inst.Difficulty = clamp(inst.Difficulty*math.Pow(net, float64(cycles)),
		1.0, inst.config.MaxDifficulty)
	inst.CurrentWave = frontier

	*budget -= float64(cycles) * cycleTime
}
