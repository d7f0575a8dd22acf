// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package offline

import (
	"context"
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

var (
	// ErrClockRollback is returned when the player's last-active time is
	// in the future.
	ErrClockRollback = errors.New("last active time is in the future")

	// ErrAbsenceTooLong is returned when the offline gap exceeds the
	// hard absence limit.
	ErrAbsenceTooLong = errors.New("absence exceeds the maximum")

	// ErrSessionActive is returned when the account has a fresh session
	// heartbeat somewhere else.
	ErrSessionActive = errors.New("player has a live session")

	// ErrSettlementInFlight is returned when a settlement for the same
	// player is already running.
	ErrSettlementInFlight = errors.New("settlement already in flight")
)

// SettlementResult is the full accounting of one settlement, returned
// to the caller and mirrored into the player's offline history.
type SettlementResult struct {
	PlayerID uuid.UUID           `json:"player_id"`
	Activity player.ActivityKind `json:"activity"`

	Raw       time.Duration `json:"raw"`
	Effective time.Duration `json:"effective"`
	Capped    bool          `json:"capped"`

	DecayFactor float64       `json:"decay_factor"`
	Segments    int           `json:"segments"`
	Granularity time.Duration `json:"granularity"`
	Remainder   time.Duration `json:"remainder"`

	// BulkRewards are post-decay; TotalRewards is what the wallet
	// received.
	BulkRewards    player.Rewards `json:"bulk_rewards"`
	PreciseRewards player.Rewards `json:"precise_rewards"`
	TotalRewards   player.Rewards `json:"total_rewards"`

	Battles   int `json:"battles,omitempty"`
	Victories int `json:"victories,omitempty"`
	Defeats   int `json:"defeats,omitempty"`
	FinalWave int `json:"final_wave,omitempty"`

	// NextTrigger is when the player's activity produces its next
	// result if they stay offline.
	NextTrigger time.Time `json:"next_trigger"`

	Warnings []string `json:"warnings,omitempty"`

	// Player is the committed post-settlement state.
	Player *player.Player `json:"player"`
}

// Manager runs offline settlements. One settlement per player at a
// time; all mutation happens on a working copy that is committed only
// after every phase succeeds.
type Manager struct {
	config Config
	store  player.Store
	logger zerolog.Logger

	// now is the settlement clock; tests pin it.
	now func() time.Time

	mu         sync.Mutex
	processors map[player.ActivityKind]Processor
	inFlight   map[uuid.UUID]struct{}
}

// NewManager creates a settlement manager. Processors are attached with
// Register.
func NewManager(cfg Config, store player.Store) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid offline config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("player store is required")
	}
	return &Manager{
		config:     cfg,
		store:      store,
		logger:     logging.WithComponent("offline"),
		now:        time.Now,
		processors: make(map[player.ActivityKind]Processor),
		inFlight:   make(map[uuid.UUID]struct{}),
	}, nil
}

// Register attaches a processor for its activity kind.
func (m *Manager) Register(proc Processor) error {
	if proc == nil {
		return fmt.Errorf("processor is required")
	}
	kind := player.ActivityKind(proc.ActivityName())
	if !kind.Valid() {
		return fmt.Errorf("unknown activity %q", proc.ActivityName())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.processors[kind]; dup {
		return fmt.Errorf("processor for %s already registered", kind)
	}
	m.processors[kind] = proc
	return nil
}

// ProcessOfflineActivity settles the player's absence: security checks,
// cap and decay, bulk segments plus precise remainder, wallet credit,
// then persistence. A rejected or failed settlement mutates nothing.
func (m *Manager) ProcessOfflineActivity(ctx context.Context, playerID uuid.UUID) (*SettlementResult, error) {
	if err := m.begin(playerID); err != nil {
		return nil, err
	}
	defer m.end(playerID)
	start := time.Now()

	p, err := m.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", playerID, err)
	}

	now := m.now()
	raw := now.Sub(p.LastActiveAt)
	activity := string(p.Activity)

	// Security checks run before any mutation and reject the whole
	// settlement.
	if raw < 0 {
		metrics.RecordSettlementRejection("clock_rollback")
		return nil, fmt.Errorf("%w: last active %s, now %s",
			ErrClockRollback, p.LastActiveAt.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	if raw > m.config.MaxAbsence {
		metrics.RecordSettlementRejection("absence_exceeded")
		return nil, fmt.Errorf("%w: offline %s, limit %s", ErrAbsenceTooLong, raw, m.config.MaxAbsence)
	}
	if p.HasLiveSession(now, m.config.SessionTTL) {
		metrics.RecordSettlementRejection("session_active")
		return nil, fmt.Errorf("%w: session %s seen %s ago",
			ErrSessionActive, p.SessionID, now.Sub(p.SessionSeenAt))
	}

	result := &SettlementResult{
		PlayerID:    playerID,
		Activity:    p.Activity,
		Raw:         raw,
		Effective:   raw,
		Granularity: m.config.Granularity,
	}
	if raw > m.config.MaxOfflineTime {
		result.Effective = m.config.MaxOfflineTime
		result.Capped = true
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"offline time capped at %s, %s discarded", m.config.MaxOfflineTime, raw-m.config.MaxOfflineTime))
	}
	result.DecayFactor = m.config.DecayFactor(result.Effective)
	result.Segments = int(result.Effective / m.config.Granularity)
	result.Remainder = result.Effective - time.Duration(result.Segments)*m.config.Granularity

	working := p.Clone()
	proc := m.processorFor(working.Activity)

	var merged Outcome
	if proc == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no processor for activity %q, settled as idle", working.Activity))
	} else {
		bulk, err := proc.ProcessBulkSegments(ctx, working, m.config.Granularity, result.Segments)
		if err != nil {
			metrics.RecordSettlement(activity, "error", time.Since(start), 0)
			return nil, fmt.Errorf("bulk settlement for %s: %w", playerID, err)
		}
		precise, err := proc.ProcessRemainingTime(ctx, working, result.Remainder)
		if err != nil {
			metrics.RecordSettlement(activity, "error", time.Since(start), 0)
			return nil, fmt.Errorf("precise settlement for %s: %w", playerID, err)
		}

		// Decay touches only the bulk phase; the remainder replay pays
		// in full.
		result.BulkRewards = bulk.Rewards.Scaled(result.DecayFactor)
		result.PreciseRewards = precise.Rewards

		merged = bulk
		merged.Merge(precise)
	}

	result.TotalRewards = result.BulkRewards
	result.TotalRewards.Add(result.PreciseRewards)
	result.Battles = merged.Battles
	result.Victories = merged.Victories
	result.Defeats = merged.Defeats
	result.FinalWave = merged.FinalWave
	result.Warnings = append(result.Warnings, merged.Warnings...)

	working.Wallet.Add(result.TotalRewards)
	working.LastActiveAt = now
	working.LastSettledAt = now
	if proc != nil {
		result.NextTrigger = now.Add(proc.BaseCycleDuration(working))
	} else {
		result.NextTrigger = now.Add(idleCycle)
	}

	if err := m.store.SavePlayer(ctx, working); err != nil {
		metrics.RecordSettlement(activity, "error", time.Since(start), 0)
		return nil, fmt.Errorf("persisting settlement for %s: %w", playerID, err)
	}
	result.Player = working

	// The player state is committed; a failed history row degrades to a
	// warning rather than unwinding the settlement.
	if err := m.store.SaveOfflineData(ctx, m.record(result, now)); err != nil {
		m.logger.Error().Err(err).
			Str("player_id", playerID.String()).
			Msg("Settlement history record not persisted")
		result.Warnings = append(result.Warnings, "settlement history record not persisted")
	}

	metrics.RecordSettlement(activity, "success", time.Since(start), result.Effective.Hours())
	m.logger.Info().
		Str("player_id", playerID.String()).
		Str("activity", activity).
		Dur("raw", result.Raw).
		Dur("effective", result.Effective).
		Float64("decay_factor", result.DecayFactor).
		Int("segments", result.Segments).
		Dur("remainder", result.Remainder).
		Int("battles", result.Battles).
		Int64("gold", result.TotalRewards.Gold).
		Msg("Offline settlement complete")
	return result, nil
}

// begin claims the per-player settlement slot.
func (m *Manager) begin(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[id]; busy {
		metrics.RecordSettlementRejection("in_flight")
		return fmt.Errorf("%w: player %s", ErrSettlementInFlight, id)
	}
	m.inFlight[id] = struct{}{}
	return nil
}

func (m *Manager) end(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, id)
}

func (m *Manager) processorFor(kind player.ActivityKind) Processor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processors[kind]
}

func (m *Manager) record(res *SettlementResult, now time.Time) *player.OfflineRecord {
	return &player.OfflineRecord{
		PlayerID:       res.PlayerID,
		Activity:       res.Activity,
		Raw:            res.Raw,
		Effective:      res.Effective,
		Capped:         res.Capped,
		DecayFactor:    res.DecayFactor,
		Segments:       res.Segments,
		Remainder:      res.Remainder,
		BulkRewards:    res.BulkRewards,
		PreciseRewards: res.PreciseRewards,
		TotalRewards:   res.TotalRewards,
		Battles:        res.Battles,
		Victories:      res.Victories,
		Defeats:        res.Defeats,
		FinalWave:      res.FinalWave,
		Warnings:       res.Warnings,
		CreatedAt:      now,
	}
}
