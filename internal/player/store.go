// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package player

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrPlayerNotFound is returned when the requested player does not
	// exist.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrStoreClosed is returned for operations on a closed store.
	ErrStoreClosed = errors.New("player store is closed")
)

// Store persists players and their settlement history.
//
// SavePlayer overwrites the full document and stamps UpdatedAt.
// SaveOfflineData assigns the record ID and CreatedAt when unset.
// OfflineHistory returns records newest first; limit <= 0 means all
// retained records.
type Store interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*Player, error)
	SavePlayer(ctx context.Context, p *Player) error
	SaveOfflineData(ctx context.Context, rec *OfflineRecord) error
	OfflineHistory(ctx context.Context, playerID uuid.UUID, limit int) ([]OfflineRecord, error)
	Close() error
}
