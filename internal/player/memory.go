// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds retained settlement records per player in
// the in-memory store. Oldest records are dropped beyond it.
const DefaultHistoryLimit = 256

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	players    map[uuid.UUID]*Player
	history    map[uuid.UUID][]OfflineRecord
	maxHistory int
	closed     bool
}

// NewMemoryStore creates an in-memory store retaining up to maxHistory
// settlement records per player (0 uses DefaultHistoryLimit).
func NewMemoryStore(maxHistory int) *MemoryStore {
	if maxHistory <= 0 {
		maxHistory = DefaultHistoryLimit
	}
	return &MemoryStore{
		players:    make(map[uuid.UUID]*Player),
		history:    make(map[uuid.UUID][]OfflineRecord),
		maxHistory: maxHistory,
	}
}

// GetPlayer returns a copy of the stored player.
func (s *MemoryStore) GetPlayer(_ context.Context, id uuid.UUID) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	p, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p.Clone(), nil
}

// SavePlayer stores a copy of p and stamps UpdatedAt on both the stored
// copy and the caller's value.
func (s *MemoryStore) SavePlayer(_ context.Context, p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	p.UpdatedAt = time.Now().UTC()
	s.players[p.ID] = p.Clone()
	return nil
}

// SaveOfflineData appends a settlement record, newest first. The record
// ID and CreatedAt are assigned when unset.
func (s *MemoryStore) SaveOfflineData(_ context.Context, rec *OfflineRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	records := s.history[rec.PlayerID]
	records = append([]OfflineRecord{*rec}, records...)
	if len(records) > s.maxHistory {
		records = records[:s.maxHistory]
	}
	s.history[rec.PlayerID] = records
	return nil
}

// OfflineHistory returns up to limit settlement records, newest first.
func (s *MemoryStore) OfflineHistory(_ context.Context, playerID uuid.UUID, limit int) ([]OfflineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	records := s.history[playerID]
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	out := make([]OfflineRecord, limit)
	copy(out, records[:limit])
	return out, nil
}

// PlayerCount returns the number of stored players.
func (s *MemoryStore) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Close releases the store. Further operations return ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.players = nil
	s.history = nil
	return nil
}
