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

// idleCycle is the heartbeat used to schedule the next trigger for
// players with nothing running.
const idleCycle = 5 * time.Minute

// IdleProcessor settles players with no running activity: time passes,
// nothing accrues.
type IdleProcessor struct{}

// NewIdleProcessor creates the no-op processor.
func NewIdleProcessor() *IdleProcessor { return &IdleProcessor{} }

func (*IdleProcessor) ActivityName() string { return string(player.ActivityIdle) }

func (*IdleProcessor) BaseCycleDuration(*player.Player) time.Duration { return idleCycle }

func (*IdleProcessor) ProcessBulkSegments(context.Context, *player.Player, time.Duration, int) (Outcome, error) {
	return Outcome{}, nil
}

func (*IdleProcessor) ProcessRemainingTime(context.Context, *player.Player, time.Duration) (Outcome, error) {
	return Outcome{}, nil
}
