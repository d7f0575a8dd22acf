// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package offline

import (
	"context"
	"fmt"
	"time"

	"github.com/Solaireshen97/emberforge/internal/player"
)

// Cycle tuning for the recurring activities. Like the combat formulas,
// these are balance constants rather than deployment configuration.
const (
	gatherBaseCycle = 5 * time.Minute
	craftBaseCycle  = 10 * time.Minute

	// cyclesPerLevel is how many completed cycles raise the profession
	// one level. Partial progress toward the next level is not banked.
	cyclesPerLevel = 100

	// craftScrapCost is the scrap consumed per crafting cycle.
	craftScrapCost = 3
)

// gatherYield is the per-cycle payout at the given profession level.
func gatherYield(level int) player.Rewards {
	return player.Rewards{
		Scrap:      int64(4 + level),
		Gold:       2,
		Experience: 8,
	}
}

// craftYield is the per-cycle payout at the given profession level.
func craftYield(level int) player.Rewards {
	return player.Rewards{
		Essence:    int64(1 + level/5),
		Gold:       int64(6 + 2*level),
		Experience: 15,
	}
}

// cycleDuration shortens the base cycle with profession level: level 1
// runs at the base duration and every level past it adds 5% speed.
func cycleDuration(base time.Duration, level int) time.Duration {
	if level < 1 {
		level = 1
	}
	return time.Duration(float64(base) * 100.0 / float64(100+5*(level-1)))
}

// GatheringProcessor accrues scrap on a fixed cycle. The whole window
// is priced at the starting level; level-ups land after the window so a
// long absence cannot compound its own speed bonus.
type GatheringProcessor struct{}

// NewGatheringProcessor creates the gathering settlement processor.
func NewGatheringProcessor() *GatheringProcessor { return &GatheringProcessor{} }

func (*GatheringProcessor) ActivityName() string { return string(player.ActivityGathering) }

func (*GatheringProcessor) BaseCycleDuration(p *player.Player) time.Duration {
	return cycleDuration(gatherBaseCycle, p.Professions.GatherLevel)
}

func (g *GatheringProcessor) ProcessBulkSegments(_ context.Context, p *player.Player, granularity time.Duration, segments int) (Outcome, error) {
	if granularity <= 0 || segments <= 0 {
		return Outcome{}, nil
	}
	return g.accrue(p, time.Duration(segments)*granularity), nil
}

func (g *GatheringProcessor) ProcessRemainingTime(_ context.Context, p *player.Player, remainder time.Duration) (Outcome, error) {
	if remainder <= 0 {
		return Outcome{}, nil
	}
	return g.accrue(p, remainder), nil
}

func (*GatheringProcessor) accrue(p *player.Player, window time.Duration) Outcome {
	level := p.Professions.GatherLevel
	if level < 1 {
		level = 1
	}
	cycles := int(window / cycleDuration(gatherBaseCycle, level))
	if cycles <= 0 {
		return Outcome{}
	}

	p.Professions.GatherLevel = level + cycles/cyclesPerLevel
	return Outcome{Rewards: gatherYield(level).Times(int64(cycles))}
}

// CraftingProcessor consumes scrap and accrues essence on a fixed
// cycle. Cycles are bounded by both the window and the scrap on hand;
// starvation is reported as a warning, not an error.
type CraftingProcessor struct{}

// NewCraftingProcessor creates the crafting settlement processor.
func NewCraftingProcessor() *CraftingProcessor { return &CraftingProcessor{} }

func (*CraftingProcessor) ActivityName() string { return string(player.ActivityCrafting) }

func (*CraftingProcessor) BaseCycleDuration(p *player.Player) time.Duration {
	return cycleDuration(craftBaseCycle, p.Professions.CraftLevel)
}

func (c *CraftingProcessor) ProcessBulkSegments(_ context.Context, p *player.Player, granularity time.Duration, segments int) (Outcome, error) {
	if granularity <= 0 || segments <= 0 {
		return Outcome{}, nil
	}
	return c.accrue(p, time.Duration(segments)*granularity), nil
}

func (c *CraftingProcessor) ProcessRemainingTime(_ context.Context, p *player.Player, remainder time.Duration) (Outcome, error) {
	if remainder <= 0 {
		return Outcome{}, nil
	}
	return c.accrue(p, remainder), nil
}

func (*CraftingProcessor) accrue(p *player.Player, window time.Duration) Outcome {
	level := p.Professions.CraftLevel
	if level < 1 {
		level = 1
	}
	byTime := int(window / cycleDuration(craftBaseCycle, level))
	if byTime <= 0 {
		return Outcome{}
	}

	var out Outcome
	cycles := byTime
	if affordable := int(p.Wallet.Scrap) / craftScrapCost; cycles > affordable {
		cycles = affordable
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("crafting ran out of scrap after %d of %d cycles", cycles, byTime))
	}
	if cycles <= 0 {
		return out
	}

	// Materials leave the wallet immediately; the crafted yield rides
	// the outcome so the manager can decay it.
	p.Wallet.Scrap -= int64(cycles * craftScrapCost)
	p.Professions.CraftLevel = level + cycles/cyclesPerLevel
	out.Rewards = craftYield(level).Times(int64(cycles))
	return out
}
