// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package player

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind identifies what a player was doing when they went
// offline. Settlement picks its processor from this value.
type ActivityKind string

const (
	// ActivityCombat runs the fast-forward battle engine offline.
	ActivityCombat ActivityKind = "combat"

	// ActivityGathering accrues resources on a fixed cycle.
	ActivityGathering ActivityKind = "gathering"

	// ActivityCrafting consumes materials and accrues crafted goods on
	// a fixed cycle.
	ActivityCrafting ActivityKind = "crafting"

	// ActivityIdle accrues nothing; settlement only advances the
	// player's clock.
	ActivityIdle ActivityKind = "idle"
)

// Valid reports whether k is a known activity kind.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityCombat, ActivityGathering, ActivityCrafting, ActivityIdle:
		return true
	}
	return false
}

func (k ActivityKind) String() string { return string(k) }

// CombatStats are the attributes the battle engine reads. Wave and
// Difficulty persist across sessions so offline progression continues
// where the player left off.
type CombatStats struct {
	AttackPower      float64 `json:"attack_power"`
	MaxHealth        float64 `json:"max_health"`
	Health           float64 `json:"health"`
	AttackSpeed      float64 `json:"attack_speed"`
	CombatEfficiency float64 `json:"combat_efficiency"`
	Wave             int     `json:"wave"`
	Difficulty       float64 `json:"difficulty"`
}

// Professions tracks cycle-based activity levels. Level feeds the cycle
// duration and per-cycle yield formulas.
type Professions struct {
	GatherLevel int `json:"gather_level"`
	CraftLevel  int `json:"craft_level"`
}

// Rewards is a bundle of earned resources. It doubles as the player's
// wallet and as the per-settlement reward summary.
type Rewards struct {
	Gold       int64 `json:"gold"`
	Essence    int64 `json:"essence"`
	Scrap      int64 `json:"scrap"`
	Experience int64 `json:"experience"`
}

// Add accumulates other into r.
func (r *Rewards) Add(other Rewards) {
	r.Gold += other.Gold
	r.Essence += other.Essence
	r.Scrap += other.Scrap
	r.Experience += other.Experience
}

// IsZero reports whether the bundle contains nothing.
func (r Rewards) IsZero() bool {
	return r.Gold == 0 && r.Essence == 0 && r.Scrap == 0 && r.Experience == 0
}

// Times returns a copy with every resource multiplied by n.
func (r Rewards) Times(n int64) Rewards {
	return Rewards{
		Gold:       r.Gold * n,
		Essence:    r.Essence * n,
		Scrap:      r.Scrap * n,
		Experience: r.Experience * n,
	}
}

// Scaled returns a copy with every resource multiplied by factor,
// rounded down. Used for time-decay on settlement payouts.
func (r Rewards) Scaled(factor float64) Rewards {
	return Rewards{
		Gold:       int64(float64(r.Gold) * factor),
		Essence:    int64(float64(r.Essence) * factor),
		Scrap:      int64(float64(r.Scrap) * factor),
		Experience: int64(float64(r.Experience) * factor),
	}
}

// Player is the persistent game state for one account.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// Activity is what the player is doing now, and therefore what
	// offline settlement will simulate for the gap.
	Activity ActivityKind `json:"activity"`

	// LastActiveAt is the last moment the player was known to be
	// online. Settlement measures the offline gap from here.
	LastActiveAt time.Time `json:"last_active_at"`

	// LastSettledAt is when offline settlement last completed. Zero
	// until the first settlement.
	LastSettledAt time.Time `json:"last_settled_at,omitempty"`

	// SessionID and SessionSeenAt implement concurrent-session
	// detection: a fresh heartbeat under a different session means the
	// account is live elsewhere and settlement must be refused.
	SessionID     string    `json:"session_id,omitempty"`
	SessionSeenAt time.Time `json:"session_seen_at,omitempty"`

	Combat      CombatStats `json:"combat"`
	Wallet      Rewards     `json:"wallet"`
	Professions Professions `json:"professions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPlayer creates a player with starting attributes: wave 1 at base
// difficulty, full health, and level-1 professions.
func NewPlayer(name string) *Player {
	now := time.Now().UTC()
	return &Player{
		ID:           uuid.New(),
		Name:         name,
		Activity:     ActivityIdle,
		LastActiveAt: now,
		Combat: CombatStats{
			AttackPower:      10,
			MaxHealth:        100,
			Health:           100,
			AttackSpeed:      1.0,
			CombatEfficiency: 1.0,
			Wave:             1,
			Difficulty:       1.0,
		},
		Professions: Professions{
			GatherLevel: 1,
			CraftLevel:  1,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns an independent copy. Player has no reference fields, so
// a value copy is a deep copy; stores rely on this to keep callers from
// mutating cached state.
func (p *Player) Clone() *Player {
	cp := *p
	return &cp
}

// BeginSession records a live session heartbeat.
func (p *Player) BeginSession(sessionID string, at time.Time) {
	p.SessionID = sessionID
	p.SessionSeenAt = at
	p.LastActiveAt = at
}

// EndSession clears the live session and stamps the disconnect time.
func (p *Player) EndSession(at time.Time) {
	p.SessionID = ""
	p.SessionSeenAt = time.Time{}
	p.LastActiveAt = at
}

// HasLiveSession reports whether a session heartbeat is still fresh.
// A session whose last heartbeat is older than ttl is considered dead,
// covering clients that disconnected without an explicit EndSession.
func (p *Player) HasLiveSession(now time.Time, ttl time.Duration) bool {
	if p.SessionID == "" {
		return false
	}
	return now.Sub(p.SessionSeenAt) <= ttl
}

// OfflineRecord is the audit trail for one completed settlement. It
// keeps enough detail to explain the payout: how much time was claimed,
// how much counted after the cap and decay, how it was segmented, and
// what each phase produced.
type OfflineRecord struct {
	ID       uuid.UUID    `json:"id"`
	PlayerID uuid.UUID    `json:"player_id"`
	Activity ActivityKind `json:"activity"`

	// Raw is the wall-clock gap claimed; Effective is what remained
	// after capping and decay. Capped marks settlements that hit the
	// maximum countable window.
	Raw       time.Duration `json:"raw"`
	Effective time.Duration `json:"effective"`
	Capped    bool          `json:"capped"`

	DecayFactor float64       `json:"decay_factor"`
	Segments    int           `json:"segments"`
	Remainder   time.Duration `json:"remainder"`

	// BulkRewards came from the closed-form segment phase,
	// PreciseRewards from the event-level remainder phase. Total is
	// their sum and is what was credited to the wallet.
	BulkRewards    Rewards `json:"bulk_rewards"`
	PreciseRewards Rewards `json:"precise_rewards"`
	TotalRewards   Rewards `json:"total_rewards"`

	// Combat settlements also record battle outcomes.
	Battles   int `json:"battles,omitempty"`
	Victories int `json:"victories,omitempty"`
	Defeats   int `json:"defeats,omitempty"`
	FinalWave int `json:"final_wave,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
