// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package combat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
	"github.com/Solaireshen97/emberforge/internal/player"
)

// BattleState is the lifecycle position of a live battle.
type BattleState uint8

const (
	StatePreparing BattleState = iota
	StateActive
	StateCompleted
	StateCancelled
)

// String returns the lowercase state name.
func (s BattleState) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Battle outcomes.
const (
	OutcomeVictory = "victory"
	OutcomeDefeat  = "defeat"
)

var (
	// ErrBattleNotFound is returned for unknown or already-terminal
	// battles; terminal battles leave the active set.
	ErrBattleNotFound = errors.New("battle not found")

	// ErrInvalidTransition is returned for a state change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid battle state transition")

	// ErrPlayerInBattle is returned when a player already holds a live
	// battle slot.
	ErrPlayerInBattle = errors.New("player already has a live battle")

	// ErrBattleNotActive is returned when damage arrives for a battle
	// that is not in the Active state.
	ErrBattleNotActive = errors.New("battle is not active")
)

// Battle is one live battle. Values returned by the Arena are
// snapshots; the Arena owns the mutable state.
type Battle struct {
	ID uuid.UUID

	// Handle is the compact identifier carried in event actor/target
	// fields, which are 64-bit integers.
	Handle uint64

	PlayerID uuid.UUID
	State    BattleState

	Wave       int
	Difficulty float64

	PlayerHealth     float64
	PlayerMaxHealth  float64
	EnemyHealth      float64
	EnemyMaxHealth   float64
	CombatEfficiency float64

	// Outcome and Rewards are set when the battle completes.
	Outcome string
	Rewards player.Rewards

	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
}

// Arena is the set of live battles. One battle per player; terminal
// transitions release the player's slot and drop the battle.
type Arena struct {
	config Config
	logger zerolog.Logger
	clock  func() time.Time

	mu         sync.RWMutex
	battles    map[uuid.UUID]*Battle
	byHandle   map[uint64]*Battle
	byPlayer   map[uuid.UUID]uuid.UUID
	nextHandle uint64
}

// NewArena creates an empty battle set.
func NewArena(cfg Config) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid combat config: %w", err)
	}
	return &Arena{
		config:   cfg,
		logger:   logging.WithComponent("arena"),
		clock:    time.Now,
		battles:  make(map[uuid.UUID]*Battle),
		byHandle: make(map[uint64]*Battle),
		byPlayer: make(map[uuid.UUID]uuid.UUID),
	}, nil
}

// Prepare creates a battle in the Preparing state from the player's
// combat block, with the enemy generated from the wave formula.
func (a *Arena) Prepare(p *player.Player) (Battle, error) {
	if p == nil {
		return Battle{}, fmt.Errorf("player is required")
	}
	c := p.Combat
	if c.AttackPower <= 0 || c.MaxHealth <= 0 {
		return Battle{}, fmt.Errorf("player %s has invalid combat stats", p.ID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, busy := a.byPlayer[p.ID]; busy {
		return Battle{}, fmt.Errorf("%w: player %s", ErrPlayerInBattle, p.ID)
	}

	wave := c.Wave
	if wave < 1 {
		wave = 1
	}
	difficulty := clamp(c.Difficulty, 1.0, a.config.MaxDifficulty)
	health := c.Health
	if health <= 0 || health > c.MaxHealth {
		health = c.MaxHealth
	}
	efficiency := c.CombatEfficiency
	if efficiency <= 0 {
		efficiency = 1.0
	}

	a.nextHandle++
	b := &Battle{
		ID:               uuid.New(),
		Handle:           a.nextHandle,
		PlayerID:         p.ID,
		State:            StatePreparing,
		Wave:             wave,
		Difficulty:       difficulty,
		PlayerHealth:     health,
		PlayerMaxHealth:  c.MaxHealth,
		EnemyHealth:      enemyMaxHealth(wave, difficulty),
		EnemyMaxHealth:   enemyMaxHealth(wave, difficulty),
		CombatEfficiency: efficiency,
		CreatedAt:        a.clock(),
	}

	a.battles[b.ID] = b
	a.byHandle[b.Handle] = b
	a.byPlayer[p.ID] = b.ID
	metrics.SetActiveBattles(len(a.battles))

	a.logger.Debug().
		Str("battle_id", b.ID.String()).
		Str("player_id", p.ID.String()).
		Int("wave", wave).
		Msg("Battle prepared")
	return *b, nil
}

// Activate moves a Preparing battle to Active.
func (a *Arena) Activate(id uuid.UUID) (Battle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.battles[id]
	if !ok {
		return Battle{}, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	if b.State != StatePreparing {
		return Battle{}, fmt.Errorf("%w: %s -> active", ErrInvalidTransition, b.State)
	}
	b.State = StateActive
	b.StartedAt = a.clock()
	return *b, nil
}

// Cancel stops an Active battle without an outcome. The player's slot
// is released and the battle leaves the set.
func (a *Arena) Cancel(id uuid.UUID) (Battle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.battles[id]
	if !ok {
		return Battle{}, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	if b.State != StateActive {
		return Battle{}, fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, b.State)
	}
	b.State = StateCancelled
	b.EndedAt = a.clock()
	a.removeLocked(b)

	metrics.RecordBattleResolved("cancelled")
	a.logger.Info().
		Str("battle_id", b.ID.String()).
		Str("player_id", b.PlayerID.String()).
		Msg("Battle cancelled")
	return *b, nil
}

// ApplyDamage routes one damage amount into an Active battle. Player
// attacks and skill casts hit the enemy; enemy attacks hit the player.
// When a side reaches zero the battle completes and the returned
// snapshot carries the outcome and rewards; terminal reports true.
func (a *Arena) ApplyDamage(handle uint64, kind EventKind, amount float64) (Battle, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.byHandle[handle]
	if !ok {
		return Battle{}, false, fmt.Errorf("%w: handle %d", ErrBattleNotFound, handle)
	}
	if b.State != StateActive {
		return Battle{}, false, fmt.Errorf("%w: %s", ErrBattleNotActive, b.ID)
	}

	switch kind {
	case KindPlayerAttack, KindSkillCast:
		b.EnemyHealth -= amount
		if b.EnemyHealth <= 0 {
			a.completeLocked(b, OutcomeVictory)
			return *b, true, nil
		}
	case KindEnemyAttack:
		b.PlayerHealth -= amount
		if b.PlayerHealth <= 0 {
			a.completeLocked(b, OutcomeDefeat)
			return *b, true, nil
		}
	default:
		return Battle{}, false, fmt.Errorf("event kind %s carries no damage", kind)
	}
	return *b, false, nil
}

// completeLocked resolves a finished battle: outcome, rewards, slot
// release, removal from the set.
func (a *Arena) completeLocked(b *Battle, outcome string) {
	b.State = StateCompleted
	b.Outcome = outcome
	b.EndedAt = a.clock()

	switch outcome {
	case OutcomeVictory:
		b.Rewards = victoryReward(b.Wave, b.Difficulty, b.CombatEfficiency)
	case OutcomeDefeat:
		b.Rewards = consolationReward(b.Wave, b.CombatEfficiency)
	}

	a.removeLocked(b)
	metrics.RecordBattleResolved(outcome)
	a.logger.Info().
		Str("battle_id", b.ID.String()).
		Str("player_id", b.PlayerID.String()).
		Str("outcome", outcome).
		Int("wave", b.Wave).
		Msg("Battle completed")
}

func (a *Arena) removeLocked(b *Battle) {
	delete(a.battles, b.ID)
	delete(a.byHandle, b.Handle)
	delete(a.byPlayer, b.PlayerID)
	metrics.SetActiveBattles(len(a.battles))
}

// Get returns a snapshot of a live battle.
func (a *Arena) Get(id uuid.UUID) (Battle, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	b, ok := a.battles[id]
	if !ok {
		return Battle{}, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	return *b, nil
}

// List returns snapshots of all live battles.
func (a *Arena) List() []Battle {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Battle, 0, len(a.battles))
	for _, b := range a.battles {
		out = append(out, *b)
	}
	return out
}

// Count returns the number of live battles.
func (a *Arena) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.battles)
}
