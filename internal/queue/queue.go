// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package queue

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// Options configures the unified queue.
type Options struct {
	// TierCapacity is the ring capacity per tier; each must be a power of
	// two. Indexed by event.Priority.
	TierCapacity [event.NumPriorities]int

	// AnalyticsDropProbability is the chance in [0,1] that an analytics
	// event is dropped outright when its ring is full.
	AnalyticsDropProbability float64

	// SpinIterations bounds the spin-wait between the two enqueue attempts
	// for the gameplay and AI tiers.
	SpinIterations int

	// MaxBatchPerTier caps how many events one collection drains from a
	// single tier, so a flooded low tier cannot starve collection of the
	// tiers behind it in one call.
	MaxBatchPerTier int

	// DropLogInterval rate-limits overflow warnings to one line per tier
	// per interval.
	DropLogInterval time.Duration
}

// DefaultOptions returns production defaults: 4096-slot gameplay/AI rings,
// 2048 analytics, 1024 telemetry.
func DefaultOptions() Options {
	return Options{
		TierCapacity: [event.NumPriorities]int{
			event.PriorityGameplay:  4096,
			event.PriorityAI:        4096,
			event.PriorityAnalytics: 2048,
			event.PriorityTelemetry: 1024,
		},
		AnalyticsDropProbability: 0.5,
		SpinIterations:           32,
		MaxBatchPerTier:          512,
		DropLogInterval:          5 * time.Second,
	}
}

// tierCounters aggregates per-tier statistics. All fields are monotonic.
type tierCounters struct {
	enqueued  atomic.Uint64
	dropped   atomic.Uint64
	throttled atomic.Uint64
	collected atomic.Uint64
}

// lockedRand guards a seeded rand.Rand for use from concurrent producers.
// Only the analytics overflow path draws from it, so contention is nil in
// steady state.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) float64() float64 {
	l.mu.Lock()
	v := l.r.Float64()
	l.mu.Unlock()
	return v
}

// UnifiedEventQueue owns one ring buffer per priority tier and applies the
// per-tier backpressure policy. Producers are free to call Enqueue from any
// goroutine; collection is single-consumer (the dispatcher tick).
type UnifiedEventQueue struct {
	rings [event.NumPriorities]*LockFreeRingBuffer
	stats [event.NumPriorities]tierCounters

	// frame is the monotonic frame counter stamped into events at enqueue
	// time. AdvanceFrame is its only writer and is called exactly once per
	// dispatcher tick, after collection.
	frame atomic.Uint64

	rng             *lockedRand
	dropProbability float64
	spinIterations  int
	maxBatchPerTier int

	dropLimiters [event.NumPriorities]*rate.Limiter
	logger       zerolog.Logger
}

// New creates the queue. rng drives the analytics throttle; pass a seeded
// source for deterministic tests, or nil to seed from the clock.
func New(opts Options, rng *rand.Rand) (*UnifiedEventQueue, error) {
	if opts.AnalyticsDropProbability < 0 || opts.AnalyticsDropProbability > 1 {
		return nil, fmt.Errorf("analytics drop probability %v outside [0,1]", opts.AnalyticsDropProbability)
	}
	if opts.SpinIterations < 0 {
		return nil, fmt.Errorf("spin iterations must be >= 0, got %d", opts.SpinIterations)
	}
	if opts.MaxBatchPerTier <= 0 {
		return nil, fmt.Errorf("max batch per tier must be > 0, got %d", opts.MaxBatchPerTier)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // throttle jitter, not crypto
	}
	interval := opts.DropLogInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	q := &UnifiedEventQueue{
		rng:             &lockedRand{r: rng},
		dropProbability: opts.AnalyticsDropProbability,
		spinIterations:  opts.SpinIterations,
		maxBatchPerTier: opts.MaxBatchPerTier,
		logger:          logging.WithComponent("queue"),
	}
	for tier := 0; tier < event.NumPriorities; tier++ {
		ring, err := NewRingBuffer(opts.TierCapacity[tier])
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", event.Priority(tier), err)
		}
		q.rings[tier] = ring
		q.dropLimiters[tier] = rate.NewLimiter(rate.Every(interval), 1)
	}
	return q, nil
}

// Enqueue stamps the event's frame and offers it to its tier's ring. On
// overflow the tier's backpressure policy applies; the return value reports
// whether the event was accepted. Enqueue never blocks.
func (q *UnifiedEventQueue) Enqueue(ev event.UnifiedEvent) bool {
	if !ev.Priority.Valid() {
		// Unknown tier: account as a telemetry drop rather than guessing.
		q.recordDrop(event.PriorityTelemetry)
		return false
	}

	tier := ev.Priority
	ev.Frame = q.frame.Load()

	ring := q.rings[tier]
	if ring.TryEnqueue(ev) {
		q.recordEnqueue(tier)
		return true
	}

	// Ring full: apply the tier policy.
	switch tier {
	case event.PriorityTelemetry:
		// Cheapest tier: drop immediately.
		q.recordDrop(tier)
		return false

	case event.PriorityAnalytics:
		// Probabilistic throttle relieves pressure before it reaches the
		// tiers below. Survivors get exactly one more attempt.
		if q.rng.float64() < q.dropProbability {
			q.stats[tier].throttled.Add(1)
			q.recordDrop(tier)
			return false
		}
		if ring.TryEnqueue(ev) {
			q.recordEnqueue(tier)
			return true
		}
		q.recordDrop(tier)
		return false

	default:
		// Gameplay and AI: one bounded spin, then one final attempt. Two
		// attempts total - the caller is never head-of-line blocked.
		for i := 0; i < q.spinIterations; i++ {
			runtime.Gosched()
		}
		if ring.TryEnqueue(ev) {
			q.recordEnqueue(tier)
			return true
		}
		q.recordDrop(tier)
		return false
	}
}

// CollectFrameEvents appends up to maxEvents events to dst, draining tiers
// strictly in priority order (gameplay, AI, analytics, telemetry). Each
// tier contributes at most MaxBatchPerTier events per call. Only the
// dispatcher tick may call this: the rings are single-consumer.
func (q *UnifiedEventQueue) CollectFrameEvents(dst []event.UnifiedEvent, maxEvents int) []event.UnifiedEvent {
	if maxEvents <= 0 {
		return dst
	}

	total := 0
	for tier := 0; tier < event.NumPriorities; tier++ {
		remaining := maxEvents - total
		if remaining <= 0 {
			break
		}
		batch := q.maxBatchPerTier
		if batch > remaining {
			batch = remaining
		}

		start := len(dst)
		need := start + batch
		if cap(dst) < need {
			grown := make([]event.UnifiedEvent, start, need)
			copy(grown, dst)
			dst = grown
		}
		dst = dst[:need]

		got := q.rings[tier].TryDequeueBatch(dst[start:need])
		dst = dst[:start+got]
		total += got

		if got > 0 {
			q.stats[tier].collected.Add(uint64(got))
			metrics.RecordEventsCollected(event.Priority(tier).String(), got)
		}
	}
	return dst
}

// AdvanceFrame increments the frame counter and returns the new value. The
// dispatcher calls this exactly once per tick, after collection; nothing
// else may write the counter.
func (q *UnifiedEventQueue) AdvanceFrame() uint64 {
	return q.frame.Add(1)
}

// CurrentFrame returns the frame that events enqueued now will be stamped
// with.
func (q *UnifiedEventQueue) CurrentFrame() uint64 {
	return q.frame.Load()
}

// TierStats is a point-in-time snapshot of one tier's counters.
type TierStats struct {
	Tier      string `json:"tier"`
	Enqueued  uint64 `json:"enqueued"`
	Dropped   uint64 `json:"dropped"`
	Throttled uint64 `json:"throttled"`
	Collected uint64 `json:"collected"`
	Depth     int    `json:"depth"`
	Capacity  int    `json:"capacity"`
}

// Stats is a snapshot of the whole queue.
type Stats struct {
	Frame uint64      `json:"frame"`
	Tiers []TierStats `json:"tiers"`
}

// Stats returns a consistent-enough snapshot for operational surfaces. The
// counters are read individually; under concurrent producers the numbers
// may be skewed by in-flight operations.
func (q *UnifiedEventQueue) Stats() Stats {
	s := Stats{
		Frame: q.frame.Load(),
		Tiers: make([]TierStats, 0, event.NumPriorities),
	}
	for tier := 0; tier < event.NumPriorities; tier++ {
		c := &q.stats[tier]
		depth := q.rings[tier].Len()
		s.Tiers = append(s.Tiers, TierStats{
			Tier:      event.Priority(tier).String(),
			Enqueued:  c.enqueued.Load(),
			Dropped:   c.dropped.Load(),
			Throttled: c.throttled.Load(),
			Collected: c.collected.Load(),
			Depth:     depth,
			Capacity:  q.rings[tier].Cap(),
		})
		metrics.SetQueueDepth(event.Priority(tier).String(), depth)
	}
	return s
}

func (q *UnifiedEventQueue) recordEnqueue(tier event.Priority) {
	q.stats[tier].enqueued.Add(1)
	metrics.RecordEventEnqueued(tier.String())
}

func (q *UnifiedEventQueue) recordDrop(tier event.Priority) {
	q.stats[tier].dropped.Add(1)
	metrics.RecordEventDropped(tier.String())

	if q.dropLimiters[tier].Allow() {
		q.logger.Warn().
			Str("tier", tier.String()).
			Uint64("dropped_total", q.stats[tier].dropped.Load()).
			Int("depth", q.rings[tier].Len()).
			Msg("Event dropped: tier ring full")
	}
}
