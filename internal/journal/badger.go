// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// BadgerConfig configures the durable frame store.
type BadgerConfig struct {
	// Path is the directory for the BadgerDB database.
	Path string

	// SyncWrites forces an fsync on every frame persist. The dispatcher
	// treats the journal as best effort, so this defaults to false and
	// trades a bounded recent-frame loss window for throughput.
	SyncWrites bool

	// MemTableSize is the BadgerDB memtable size in bytes.
	MemTableSize int64

	// ValueLogFileSize is the maximum value log segment size in bytes.
	ValueLogFileSize int64

	// NumCompactors is the number of BadgerDB compaction workers.
	// BadgerDB requires at least 2.
	NumCompactors int

	// Compression enables Snappy compression for stored batches.
	Compression bool

	// GCRatio is the discard ratio passed to BadgerDB value log GC.
	GCRatio float64

	// CloseTimeout bounds how long Close waits for BadgerDB to flush.
	CloseTimeout time.Duration
}

// DefaultBadgerConfig returns production defaults for the given path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{
		Path:             path,
		SyncWrites:       false,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		Compression:      true,
		GCRatio:          0.5,
		CloseTimeout:     30 * time.Second,
	}
}

// Validate checks the configuration for usable values.
func (c *BadgerConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("journal config: path is required")
	}
	if c.MemTableSize < 1024*1024 {
		return fmt.Errorf("journal config: memtable size must be at least 1MB")
	}
	if c.ValueLogFileSize < 1024*1024 {
		return fmt.Errorf("journal config: value log file size must be at least 1MB")
	}
	if c.NumCompactors < 2 {
		return fmt.Errorf("journal config: num compactors must be at least 2 (BadgerDB requirement)")
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return fmt.Errorf("journal config: GC ratio must be in (0, 1)")
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("journal config: close timeout must be positive")
	}
	return nil
}

// BadgerStore is a durable FrameStore backed by BadgerDB.
//
// Each frame is stored under a "frame:" key with the frame number encoded
// big-endian, so lexicographic key order equals numeric frame order and
// range scans need no post-sorting. Values are the fixed-width batch
// encoding from the event package.
type BadgerStore struct {
	db     *badger.DB
	config BadgerConfig
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

var framePrefix = []byte("frame:")

// frameKey builds the storage key for a frame number.
func frameKey(frame uint64) []byte {
	key := make([]byte, len(framePrefix)+8)
	copy(key, framePrefix)
	binary.BigEndian.PutUint64(key[len(framePrefix):], frame)
	return key
}

// parseFrameKey extracts the frame number from a storage key.
func parseFrameKey(key []byte) (uint64, bool) {
	if len(key) != len(framePrefix)+8 || !bytes.HasPrefix(key, framePrefix) {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(framePrefix):]), true
}

// OpenBadger opens (or creates) the frame journal at the configured path.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid journal config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		config: cfg,
		logger: logging.WithComponent("journal"),
	}

	if latest, err := s.LatestFrame(context.Background()); err == nil {
		metrics.SetJournalLatestFrame(latest)
		s.logger.Info().
			Str("path", cfg.Path).
			Uint64("latest_frame", latest).
			Msg("Frame journal opened")
	} else if errors.Is(err, ErrNoFrames) {
		s.logger.Info().Str("path", cfg.Path).Msg("Frame journal opened empty")
	} else {
		db.Close()
		return nil, fmt.Errorf("read journal state: %w", err)
	}

	return s, nil
}

// checkClosed returns ErrStoreClosed if the store has been closed.
func (s *BadgerStore) checkClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// PersistFrame stores one frame's events as a single batch value.
func (s *BadgerStore) PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	start := time.Now()
	if err := s.checkClosed(); err != nil {
		metrics.RecordJournalPersist(time.Since(start), err)
		return err
	}

	data := event.EncodeBatch(events)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(frame), data)
	})
	metrics.RecordJournalPersist(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("persist frame %d: %w", frame, err)
	}

	// Frames from the dispatcher strictly increase, so the gauge only
	// needs updating on success.
	metrics.SetJournalLatestFrame(frame)
	return nil
}

// ReplayFrame loads and decodes the stored events of one frame.
func (s *BadgerStore) ReplayFrame(ctx context.Context, frame uint64) ([]event.UnifiedEvent, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	var events []event.UnifiedEvent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(frame))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrFrameNotFound
			}
			return fmt.Errorf("get frame %d: %w", frame, err)
		}
		return item.Value(func(val []byte) error {
			decoded, err := event.DecodeBatch(val)
			if err != nil {
				return fmt.Errorf("decode frame %d: %w", frame, err)
			}
			events = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// LoadFrameRange scans stored frames in [start, end] in frame order.
func (s *BadgerStore) LoadFrameRange(ctx context.Context, start, end uint64, maxEvents int) ([]event.UnifiedEvent, error) {
	if start > end {
		return nil, ErrInvalidRange
	}
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	out := make([]event.UnifiedEvent, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(frameKey(start)); it.ValidForPrefix(framePrefix); it.Next() {
			// Check context cancellation during long scans
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			frame, ok := parseFrameKey(it.Item().Key())
			if !ok {
				continue
			}
			if frame > end {
				break
			}

			err := it.Item().Value(func(val []byte) error {
				decoded, err := event.DecodeBatch(val)
				if err != nil {
					return fmt.Errorf("decode frame %d: %w", frame, err)
				}
				for _, ev := range decoded {
					if maxEvents > 0 && len(out) >= maxEvents {
						return nil
					}
					out = append(out, ev)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if maxEvents > 0 && len(out) >= maxEvents {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FrameExists reports whether a frame is stored, without reading its value.
func (s *BadgerStore) FrameExists(ctx context.Context, frame uint64) (bool, error) {
	if err := s.checkClosed(); err != nil {
		return false, err
	}

	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(frameKey(frame))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("get frame %d: %w", frame, err)
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// LatestFrame finds the highest stored frame via a reverse scan.
func (s *BadgerStore) LatestFrame(ctx context.Context) (uint64, error) {
	if err := s.checkClosed(); err != nil {
		return 0, err
	}

	var latest uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse seek positions at the largest key <= target, so seeking
		// the maximum possible frame key lands on the newest frame.
		it.Seek(frameKey(math.MaxUint64))
		if !it.ValidForPrefix(framePrefix) {
			return ErrNoFrames
		}
		frame, ok := parseFrameKey(it.Item().Key())
		if !ok {
			return fmt.Errorf("malformed frame key %q", it.Item().Key())
		}
		latest = frame
		return nil
	})
	if err != nil {
		return 0, err
	}
	return latest, nil
}

// CleanupOldFrames removes frames older than the newest retain frame
// numbers. Deletes run in bounded transactions to stay under BadgerDB's
// transaction size limit.
func (s *BadgerStore) CleanupOldFrames(ctx context.Context, retain uint64) (int, error) {
	if err := s.checkClosed(); err != nil {
		return 0, err
	}

	latest, err := s.LatestFrame(ctx)
	if err != nil {
		if errors.Is(err, ErrNoFrames) {
			return 0, nil
		}
		return 0, err
	}
	if retain > latest {
		return 0, nil
	}
	cutoff := latest - retain + 1

	var keys [][]byte
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(framePrefix); it.ValidForPrefix(framePrefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			frame, ok := parseFrameKey(it.Item().Key())
			if !ok {
				continue
			}
			// Keys iterate in frame order, so the first kept frame ends
			// the scan.
			if frame >= cutoff {
				break
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	const deleteBatchSize = 1000
	removed := 0
	for len(keys) > 0 {
		batch := keys
		if len(batch) > deleteBatchSize {
			batch = keys[:deleteBatchSize]
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			for _, key := range batch {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("delete old frames: %w", err)
		}
		removed += len(batch)
		keys = keys[len(batch):]
	}

	s.logger.Debug().
		Int("removed", removed).
		Uint64("cutoff", cutoff).
		Msg("Removed old frames")
	return removed, nil
}

// RunGC triggers BadgerDB value log garbage collection. This should be
// called periodically to reclaim space freed by retention cleanup.
func (s *BadgerStore) RunGC() error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	// Run GC until no more cleanup is possible
	for {
		err := s.db.RunValueLogGC(s.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the database, bounded by CloseTimeout.
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
			return fmt.Errorf("close journal database: %w", err)
		}
		s.logger.Info().Msg("Frame journal closed")
		return nil
	case <-time.After(s.config.CloseTimeout):
		s.logger.Warn().Dur("timeout", s.config.CloseTimeout).Msg("Journal close timed out")
		return fmt.Errorf("journal close timeout after %v", s.config.CloseTimeout)
	}
}
