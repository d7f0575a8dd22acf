// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package offline

import (
	"context"
	"time"

	"github.com/Solaireshen97/emberforge/internal/player"
)

// Outcome is what one settlement phase produced. Rewards are returned
// here rather than credited directly so the manager can apply decay to
// the bulk phase before anything reaches the wallet.
type Outcome struct {
	Rewards player.Rewards

	// Battle counters; zero for non-combat activities.
	Battles   int
	Victories int
	Defeats   int
	FinalWave int

	// CapReached marks a combat phase stopped by the battle cap.
	CapReached bool

	Warnings []string
}

// Merge folds other into o. FinalWave follows the later phase.
func (o *Outcome) Merge(other Outcome) {
	o.Rewards.Add(other.Rewards)
	o.Battles += other.Battles
	o.Victories += other.Victories
	o.Defeats += other.Defeats
	if other.FinalWave != 0 {
		o.FinalWave = other.FinalWave
	}
	o.CapReached = o.CapReached || other.CapReached
	o.Warnings = append(o.Warnings, other.Warnings...)
}

// Processor settles one activity kind. Both phases mutate the working
// player copy they are handed (progression, profession levels, consumed
// materials) but never the wallet; earned rewards travel back in the
// Outcome.
type Processor interface {
	// ActivityName is the activity kind this processor settles.
	ActivityName() string

	// BaseCycleDuration is the activity's current cycle length for the
	// given player, used to schedule the next trigger after settlement.
	BaseCycleDuration(p *player.Player) time.Duration

	// ProcessBulkSegments prices segments whole windows of granularity
	// each in closed form, O(1) per segment.
	ProcessBulkSegments(ctx context.Context, p *player.Player, granularity time.Duration, segments int) (Outcome, error)

	// ProcessRemainingTime replays the sub-segment remainder precisely.
	ProcessRemainingTime(ctx context.Context, p *player.Player, remainder time.Duration) (Outcome, error)
}
