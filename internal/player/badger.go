// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package player

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Solaireshen97/emberforge/internal/logging"
)

// BadgerConfig configures the durable player store.
type BadgerConfig struct {
	// Path is the database directory.
	Path string

	// SyncWrites forces an fsync per write. Player state is precious
	// and written rarely, so the default is on.
	SyncWrites bool

	// MaxHistory bounds retained settlement records per player.
	MaxHistory int

	// CloseTimeout bounds how long Close waits for the database.
	CloseTimeout time.Duration
}

// DefaultBadgerConfig returns the production defaults for path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:         path,
		SyncWrites:   true,
		MaxHistory:   DefaultHistoryLimit,
		CloseTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration.
func (c BadgerConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("player store path is required")
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("max history must be at least 1, got %d", c.MaxHistory)
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("close timeout must be positive, got %v", c.CloseTimeout)
	}
	return nil
}

var (
	playerPrefix  = []byte("player:")
	offlinePrefix = []byte("offline:")
)

func playerKey(id uuid.UUID) []byte {
	return append(append([]byte{}, playerPrefix...), id.String()...)
}

// offlineHistoryPrefix is the common prefix of one player's settlement
// records.
func offlineHistoryPrefix(playerID uuid.UUID) []byte {
	key := append(append([]byte{}, offlinePrefix...), playerID.String()...)
	return append(key, ':')
}

// offlineKey orders records by inverted creation time so an ascending
// prefix scan yields newest first. The record ID suffix keeps records
// created in the same nanosecond distinct.
func offlineKey(rec *OfflineRecord) []byte {
	key := offlineHistoryPrefix(rec.PlayerID)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(math.MaxInt64-rec.CreatedAt.UnixNano()))
	key = append(key, ts[:]...)
	return append(key, rec.ID[:]...)
}

// BadgerStore is a durable Store backed by BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	config BadgerConfig

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens or creates the player database at cfg.Path.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid player store config: %w", err)
	}

	// Player documents are tiny; small tables keep the footprint down.
	opts := badger.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(32 << 20).
		WithNumCompactors(2)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open player store: %w", err)
	}

	logger := logging.WithComponent("player-store")
	logger.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Player store opened")

	return &BadgerStore{db: db, config: cfg}, nil
}

func (s *BadgerStore) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// GetPlayer loads a player document.
func (s *BadgerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*Player, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p Player
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(playerKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %s: %w", id, err)
	}
	return &p, nil
}

// SavePlayer overwrites the player document and stamps UpdatedAt.
func (s *BadgerStore) SavePlayer(ctx context.Context, p *Player) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", p.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(playerKey(p.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save player %s: %w", p.ID, err)
	}
	return nil
}

// SaveOfflineData writes a settlement record and trims the player's
// history to the configured bound.
func (s *BadgerStore) SaveOfflineData(ctx context.Context, rec *OfflineRecord) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode offline record %s: %w", rec.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(offlineKey(rec), data); err != nil {
			return err
		}

		// Ascending key order is newest first, so everything past the
		// retention bound is the oldest and can go.
		prefix := offlineHistoryPrefix(rec.PlayerID)
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		it := txn.NewIterator(itOpts)
		defer it.Close()

		seen := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			seen++
			if seen <= s.config.MaxHistory {
				continue
			}
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save offline record %s: %w", rec.ID, err)
	}
	return nil
}

// OfflineHistory scans the player's settlement records newest first.
func (s *BadgerStore) OfflineHistory(ctx context.Context, playerID uuid.UUID, limit int) ([]OfflineRecord, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > s.config.MaxHistory {
		limit = s.config.MaxHistory
	}

	records := make([]OfflineRecord, 0, limit)
	prefix := offlineHistoryPrefix(playerID)
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = true
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if len(records) >= limit {
				break
			}

			var rec OfflineRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load offline history for %s: %w", playerID, err)
	}
	return records, nil
}

// RunGC runs value-log garbage collection until nothing is rewritten.
func (s *BadgerStore) RunGC() error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				return nil
			}
			return err
		}
	}
}

// Close shuts the database down, bounded by CloseTimeout.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to close player store: %w", err)
		}
		return nil
	case <-time.After(s.config.CloseTimeout):
		logger := logging.WithComponent("player-store")
		logger.Warn().
			Dur("timeout", s.config.CloseTimeout).
			Msg("Player store close timed out")
		return fmt.Errorf("player store close timed out after %v", s.config.CloseTimeout)
	}
}
