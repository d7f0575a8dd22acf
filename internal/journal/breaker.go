// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// BreakerConfig tunes the journal circuit breaker.
type BreakerConfig struct {
	// Name labels the breaker in metrics and logs.
	Name string

	// MaxRequests is how many probes are allowed in half-open state.
	MaxRequests uint32

	// Interval resets the failure counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the consecutive-failure count that trips the
	// breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the production breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "journal",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore wraps a FrameStore with a circuit breaker so a failing
// disk cannot stall the dispatch path. While the breaker is open, all
// operations fail fast with gobreaker.ErrOpenState; the dispatcher
// already treats persistence as best effort and logs the miss.
//
// Benign lookup misses (ErrFrameNotFound, ErrNoFrames, ErrInvalidRange)
// do not count as failures.
type BreakerStore struct {
	store  FrameStore
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger zerolog.Logger
}

// NewBreakerStore wraps store with a circuit breaker.
func NewBreakerStore(store FrameStore, cfg BreakerConfig) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = "journal"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}

	b := &BreakerStore{
		store:  store,
		name:   cfg.Name,
		logger: logging.WithComponent("journal-breaker"),
	}

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isLookupMiss(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			b.logger.Warn().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Journal circuit breaker state changed")
		},
	})

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(stateToFloat(gobreaker.StateClosed))
	return b
}

// isLookupMiss reports whether err is an expected miss rather than a
// storage failure.
func isLookupMiss(err error) bool {
	return errors.Is(err, ErrFrameNotFound) ||
		errors.Is(err, ErrNoFrames) ||
		errors.Is(err, ErrInvalidRange)
}

// execute runs fn through the breaker and records request metrics.
func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else if isLookupMiss(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// PersistFrame implements FrameStore.
func (b *BreakerStore) PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.store.PersistFrame(ctx, frame, events)
	})
	return err
}

// ReplayFrame implements FrameStore.
func (b *BreakerStore) ReplayFrame(ctx context.Context, frame uint64) ([]event.UnifiedEvent, error) {
	result, err := b.execute(func() (any, error) {
		return b.store.ReplayFrame(ctx, frame)
	})
	if err != nil {
		return nil, err
	}
	return result.([]event.UnifiedEvent), nil
}

// LoadFrameRange implements FrameStore.
func (b *BreakerStore) LoadFrameRange(ctx context.Context, start, end uint64, maxEvents int) ([]event.UnifiedEvent, error) {
	result, err := b.execute(func() (any, error) {
		return b.store.LoadFrameRange(ctx, start, end, maxEvents)
	})
	if err != nil {
		return nil, err
	}
	return result.([]event.UnifiedEvent), nil
}

// FrameExists implements FrameStore.
func (b *BreakerStore) FrameExists(ctx context.Context, frame uint64) (bool, error) {
	result, err := b.execute(func() (any, error) {
		return b.store.FrameExists(ctx, frame)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// LatestFrame implements FrameStore.
func (b *BreakerStore) LatestFrame(ctx context.Context) (uint64, error) {
	result, err := b.execute(func() (any, error) {
		return b.store.LatestFrame(ctx)
	})
	if err != nil {
		return 0, err
	}
	return result.(uint64), nil
}

// CleanupOldFrames implements FrameStore.
func (b *BreakerStore) CleanupOldFrames(ctx context.Context, retain uint64) (int, error) {
	result, err := b.execute(func() (any, error) {
		return b.store.CleanupOldFrames(ctx, retain)
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// Close closes the underlying store. Close bypasses the breaker; shutdown
// must always reach the store.
func (b *BreakerStore) Close() error {
	return b.store.Close()
}

// State returns the current breaker state as a string for health checks.
func (b *BreakerStore) State() string {
	return stateToString(b.cb.State())
}

// stateToFloat converts a breaker state to its metric gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts a breaker state to its metric label value.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
