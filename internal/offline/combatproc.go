// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package offline

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/Solaireshen97/emberforge/internal/combat"
	"github.com/Solaireshen97/emberforge/internal/metrics"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// CombatProcessor settles combat absences through the battle engine:
// the segment phase uses the closed-form bulk estimate, the remainder
// phase replays the event loop precisely. Both write wave, difficulty
// and health back to the working player.
type CombatProcessor struct {
	config combat.Config
}

// NewCombatProcessor creates the combat settlement processor.
func NewCombatProcessor(cfg combat.Config) (*CombatProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid combat config: %w", err)
	}
	return &CombatProcessor{config: cfg}, nil
}

func (*CombatProcessor) ActivityName() string { return string(player.ActivityCombat) }

func (c *CombatProcessor) BaseCycleDuration(p *player.Player) time.Duration {
	if p.Combat.AttackSpeed <= 0 {
		return c.config.BaseCooldown
	}
	return time.Duration(float64(c.config.BaseCooldown) / p.Combat.AttackSpeed)
}

func (c *CombatProcessor) ProcessBulkSegments(_ context.Context, p *player.Player, granularity time.Duration, segments int) (Outcome, error) {
	if granularity <= 0 || segments <= 0 {
		return Outcome{}, nil
	}
	inst, err := combat.NewInstance(c.config, p, settlementRNG(p))
	if err != nil {
		return Outcome{}, err
	}
	rep := inst.EstimateBulk(granularity, segments)
	inst.Apply(p)
	return combatOutcome(rep), nil
}

func (c *CombatProcessor) ProcessRemainingTime(_ context.Context, p *player.Player, remainder time.Duration) (Outcome, error) {
	if remainder <= 0 {
		return Outcome{}, nil
	}
	inst, err := combat.NewInstance(c.config, p, settlementRNG(p))
	if err != nil {
		return Outcome{}, err
	}
	rep := inst.FastForward(remainder.Seconds())
	inst.Apply(p)
	return combatOutcome(rep), nil
}

func combatOutcome(rep combat.Report) Outcome {
	metrics.RecordFastForward(rep.Battles, rep.CapReached)
	out := Outcome{
		Rewards:    rep.Rewards,
		Battles:    rep.Battles,
		Victories:  rep.Victories,
		Defeats:    rep.Defeats,
		FinalWave:  rep.FinalWave,
		CapReached: rep.CapReached,
	}
	if rep.CapReached {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("battle cap reached after %d battles, remaining combat time skipped", rep.Battles))
	}
	return out
}

// settlementRNG derives a stable seed from the player identity and the
// moment they went offline, so re-running the same settlement yields
// the same outcome.
func settlementRNG(p *player.Player) *rand.Rand {
	seed := int64(binary.LittleEndian.Uint64(p.ID[0:8])) ^ p.LastActiveAt.UnixNano()
	return rand.New(rand.NewSource(seed))
}
