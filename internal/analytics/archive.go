// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver
	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

const (
	pingTimeout       = 5 * time.Second
	schemaTimeout     = 60 * time.Second
	checkpointTimeout = 30 * time.Second
)

// Archive is the DuckDB-backed store for analytics-tier events. It keeps
// one append-mostly table, game_events, sized for batch inserts from the
// sink and aggregate reads from the API.
type Archive struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens (or creates) the archive database at cfg.Path and ensures
// the schema exists.
func Open(cfg Config) (*Archive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analytics config: %w", err)
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating archive directory %s: %w", dir, err)
		}
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory,
	)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	err = conn.PingContext(pingCtx)
	cancel()
	if err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("pinging archive database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	a := &Archive{
		conn:   conn,
		logger: logging.WithComponent("analytics"),
	}
	if err := a.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	a.logger.Info().
		Str("path", cfg.Path).
		Int("threads", threads).
		Str("max_memory", cfg.MaxMemory).
		Msg("Analytics archive opened")
	return a, nil
}

func (a *Archive) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS game_events (
			frame BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			priority TEXT NOT NULL,
			actor_id BIGINT NOT NULL,
			target_id BIGINT NOT NULL,
			payload_len SMALLINT NOT NULL,
			ts TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_events_type_ts ON game_events (event_type, ts)`,
	}
	for _, stmt := range statements {
		if _, err := a.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating archive schema: %w", err)
		}
	}
	return nil
}

// InsertEvents writes one batch of events in a single transaction.
// Either every event in the batch is archived or none is.
func (a *Archive) InsertEvents(ctx context.Context, events []event.UnifiedEvent) (err error) {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("insert", "game_events", time.Since(start), err)
	}()

	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				a.logger.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Archive rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO game_events (
		frame, event_type, priority, actor_id, target_id, payload_len, ts
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing archive insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			a.logger.Warn().Err(closeErr).Msg("Failed to close archive insert statement")
		}
	}()

	for i := range events {
		ev := &events[i]
		_, execErr := stmt.ExecContext(ctx,
			int64(ev.Frame),
			ev.Type.String(),
			ev.Priority.String(),
			int64(ev.ActorID),
			int64(ev.TargetID),
			int16(ev.PayloadLen),
			ev.Time(),
		)
		if execErr != nil {
			err = fmt.Errorf("archiving event %d of %d: %w", i+1, len(events), execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing archive batch: %w", err)
	}
	return nil
}

// TypeCount is one row of the per-type archive summary.
type TypeCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// EventTypeCounts returns how many events of each type were archived at
// or after since, most frequent first.
func (a *Archive) EventTypeCounts(ctx context.Context, since time.Time) ([]TypeCount, error) {
	start := time.Now()
	rows, err := a.conn.QueryContext(ctx, `
		SELECT event_type, COUNT(*) AS n
		FROM game_events
		WHERE ts >= ?
		GROUP BY event_type
		ORDER BY n DESC, event_type ASC`, since)
	metrics.RecordDBQuery("select", "game_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying event type counts: %w", err)
	}
	defer closeQuietly(rows)

	var counts []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.EventType, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning event type count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event type counts: %w", err)
	}
	return counts, nil
}

// TotalEvents returns the number of archived events.
func (a *Archive) TotalEvents(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := a.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_events`).Scan(&n)
	metrics.RecordDBQuery("select", "game_events", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("counting archived events: %w", err)
	}
	return n, nil
}

// Ping verifies the archive connection is alive.
func (a *Archive) Ping(ctx context.Context) error {
	if a.conn == nil {
		return fmt.Errorf("archive connection is nil")
	}
	return a.conn.PingContext(ctx)
}

// Close checkpoints the database and closes the connection. DuckDB
// replays its WAL on the next open if the checkpoint is skipped, so a
// checkpoint failure is logged rather than returned.
func (a *Archive) Close() error {
	if a.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	if _, err := a.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to checkpoint archive before close")
	}
	cancel()

	if err := a.conn.Close(); err != nil {
		return fmt.Errorf("closing archive database: %w", err)
	}
	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
