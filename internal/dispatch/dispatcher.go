// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package dispatch

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
	"github.com/Solaireshen97/emberforge/internal/queue"
)

var (
	// ErrNilQueue is returned when constructing a dispatcher without a queue.
	ErrNilQueue = errors.New("dispatch: queue must not be nil")

	// ErrInvalidInterval is returned for a non-positive frame interval.
	ErrInvalidInterval = errors.New("dispatch: frame interval must be positive")

	// ErrAlreadyRunning is returned when Serve is called on a running dispatcher.
	ErrAlreadyRunning = errors.New("dispatch: dispatcher already running")
)

// FrameSink receives each completed frame's events for durable storage.
// Persistence is best effort: errors are logged and never fail the frame.
type FrameSink interface {
	PersistFrame(ctx context.Context, frame uint64, events []event.UnifiedEvent) error
}

// Options configures a Dispatcher.
type Options struct {
	// Interval is the frame tick period and also the soft deadline for
	// each frame's handler work.
	Interval time.Duration

	// Workers is the size of the handler worker pool.
	// Defaults to runtime.NumCPU().
	Workers int

	// MaxEventsPerFrame caps how many events one tick collects.
	MaxEventsPerFrame int

	// PersistTimeout bounds each journal hand-off.
	PersistTimeout time.Duration
}

// DefaultOptions returns production defaults: a 16ms frame with one
// worker per CPU and a 2048-event collection cap.
func DefaultOptions() Options {
	return Options{
		Interval:          16 * time.Millisecond,
		Workers:           runtime.NumCPU(),
		MaxEventsPerFrame: 2048,
		PersistTimeout:    5 * time.Second,
	}
}

// FrameResult describes one completed tick.
type FrameResult struct {
	Frame    uint64
	Events   int
	Groups   int
	TimedOut bool
	Duration time.Duration
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Frames          uint64 `json:"frames"`
	Timeouts        uint64 `json:"timeouts"`
	EventsProcessed uint64 `json:"events_processed"`
	HandlerErrors   uint64 `json:"handler_errors"`
	HandlerPanics   uint64 `json:"handler_panics"`
	Workers         int    `json:"workers"`
	IntervalMs      int64  `json:"interval_ms"`
}

// Dispatcher drains the queue on a fixed tick and fans events out to
// registered handlers through a bounded worker pool.
type Dispatcher struct {
	queue    *queue.UnifiedEventQueue
	registry *HandlerRegistry
	sink     FrameSink
	workers  *workerPool
	pool     *queue.BatchPool
	logger   zerolog.Logger

	interval          time.Duration
	workerCount       int
	maxEventsPerFrame int
	persistTimeout    time.Duration

	// dispatchMu serializes ticks so frames never overlap.
	dispatchMu sync.Mutex
	running    atomic.Bool

	frames          atomic.Uint64
	timeouts        atomic.Uint64
	eventsProcessed atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// New creates a dispatcher over q. sink may be nil to disable frame
// persistence. The worker pool starts immediately; callers own the
// dispatcher's lifecycle and must Close it when done.
func New(q *queue.UnifiedEventQueue, sink FrameSink, opts Options) (*Dispatcher, error) {
	if q == nil {
		return nil, ErrNilQueue
	}
	if opts.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MaxEventsPerFrame <= 0 {
		opts.MaxEventsPerFrame = DefaultOptions().MaxEventsPerFrame
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultOptions().PersistTimeout
	}

	d := &Dispatcher{
		queue:             q,
		registry:          NewHandlerRegistry(),
		sink:              sink,
		pool:              queue.NewBatchPool(opts.MaxEventsPerFrame),
		logger:            logging.WithComponent("dispatcher"),
		interval:          opts.Interval,
		workerCount:       opts.Workers,
		maxEventsPerFrame: opts.MaxEventsPerFrame,
		persistTimeout:    opts.PersistTimeout,
	}
	// Task queue depth of 2x workers keeps submission from blocking on a
	// frame's own groups while still bounding backlog from slow frames.
	d.workers = newWorkerPool(opts.Workers, opts.Workers*2)
	return d, nil
}

// RegisterHandler appends h to the handler chain for t.
func (d *Dispatcher) RegisterHandler(t event.EventType, h Handler) Registration {
	return d.registry.Register(t, h)
}

// UnregisterHandler removes a previously registered handler.
func (d *Dispatcher) UnregisterHandler(reg Registration) bool {
	return d.registry.Unregister(reg)
}

// Serve runs the tick loop until ctx is cancelled. It satisfies the
// suture service contract and returns ctx.Err() on shutdown.
func (d *Dispatcher) Serve(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	d.logger.Info().
		Dur("interval", d.interval).
		Int("workers", d.workerCount).
		Int("max_events_per_frame", d.maxEventsPerFrame).
		Msg("Dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().
				Uint64("frames", d.frames.Load()).
				Msg("Dispatcher stopping")
			return ctx.Err()
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Running reports whether the tick loop is live. Readiness probes use
// this to distinguish a started dispatcher from a constructed one.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// Tick executes exactly one frame and returns its result. It is safe to
// call concurrently with Serve; ticks are serialized by the dispatch
// mutex. Must not be called after Close.
func (d *Dispatcher) Tick() FrameResult {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()
	return d.tick()
}

func (d *Dispatcher) tick() FrameResult {
	start := time.Now()
	frame := d.queue.CurrentFrame()

	buf := d.pool.Get()
	buf = d.queue.CollectFrameEvents(buf, d.maxEventsPerFrame)

	if len(buf) == 0 {
		newFrame := d.queue.AdvanceFrame()
		d.frames.Add(1)
		duration := time.Since(start)
		metrics.RecordFrame(duration, 0, false)
		metrics.SetCurrentFrame(newFrame)
		d.pool.Put(buf)
		return FrameResult{Frame: frame, Duration: duration}
	}

	groups := groupByType(buf)

	var taskWG sync.WaitGroup
	submitted := 0
	for i := range groups {
		g := &groups[i]
		handlers := d.registry.handlersFor(g.typ)
		if len(handlers) == 0 {
			d.logger.Debug().
				Str("event_type", g.typ.String()).
				Int("count", len(g.events)).
				Msg("No handlers registered for event type")
			continue
		}
		taskWG.Add(1)
		d.workers.submit(func() {
			defer taskWG.Done()
			d.runGroup(g, handlers)
		})
		submitted++
	}

	finished := make(chan struct{})
	go func() {
		taskWG.Wait()
		close(finished)
	}()

	timedOut := false
	timer := time.NewTimer(d.interval)
	select {
	case <-finished:
	case <-timer.C:
		timedOut = true
		d.timeouts.Add(1)
		d.logger.Warn().
			Uint64("frame", frame).
			Int("events", len(buf)).
			Int("groups", submitted).
			Dur("budget", d.interval).
			Msg("Frame exceeded soft deadline")
	}
	timer.Stop()

	newFrame := d.queue.AdvanceFrame()
	d.frames.Add(1)

	duration := time.Since(start)
	metrics.RecordFrame(duration, len(buf), timedOut)
	metrics.SetCurrentFrame(newFrame)

	// The journal hand-off and the buffer return both need the frame's
	// handler work to be finished: handlers mutate event flags in place.
	complete := func() {
		d.persistFrame(frame, buf)
		d.pool.Put(buf)
	}
	if timedOut {
		go func() {
			<-finished
			complete()
		}()
	} else {
		complete()
	}

	return FrameResult{
		Frame:    frame,
		Events:   len(buf),
		Groups:   submitted,
		TimedOut: timedOut,
		Duration: duration,
	}
}

func (d *Dispatcher) persistFrame(frame uint64, events []event.UnifiedEvent) {
	if d.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.persistTimeout)
	defer cancel()
	if err := d.sink.PersistFrame(ctx, frame, events); err != nil {
		d.logger.Error().
			Err(err).
			Uint64("frame", frame).
			Int("events", len(events)).
			Msg("Frame persistence failed")
	}
}

func (d *Dispatcher) runGroup(g *typeGroup, handlers []registeredHandler) {
	for _, ev := range g.events {
		for _, rh := range handlers {
			if ev.Flags.Cancelled() {
				break
			}
			d.invoke(rh.h, ev)
		}
		ev.MarkProcessed()
		d.eventsProcessed.Add(1)
	}
}

func (d *Dispatcher) invoke(h Handler, ev *event.UnifiedEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.handlerPanics.Add(1)
			metrics.RecordHandlerPanic(ev.Type.String())
			d.logger.Error().
				Interface("panic", r).
				Str("event_type", ev.Type.String()).
				Uint64("frame", ev.Frame).
				Uint64("actor_id", ev.ActorID).
				Msg("Handler panicked")
		}
	}()

	if err := h.Handle(ev); err != nil {
		d.handlerErrors.Add(1)
		metrics.RecordHandlerError(ev.Type.String())
		d.logger.Error().
			Err(err).
			Str("event_type", ev.Type.String()).
			Uint64("frame", ev.Frame).
			Uint64("actor_id", ev.ActorID).
			Msg("Handler failed")
	}
}

// Stats returns a snapshot of dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Frames:          d.frames.Load(),
		Timeouts:        d.timeouts.Load(),
		EventsProcessed: d.eventsProcessed.Load(),
		HandlerErrors:   d.handlerErrors.Load(),
		HandlerPanics:   d.handlerPanics.Load(),
		Workers:         d.workerCount,
		IntervalMs:      d.interval.Milliseconds(),
	}
}

// Close shuts down the worker pool after in-flight tasks drain.
func (d *Dispatcher) Close() error {
	d.workers.close()
	return nil
}

// typeGroup is one frame's events for a single event type, in collection
// order.
type typeGroup struct {
	typ    event.EventType
	events []*event.UnifiedEvent
}

// groupByType splits a collected batch into per-type groups, preserving
// intra-type FIFO order. Groups appear in first-seen order.
func groupByType(batch []event.UnifiedEvent) []typeGroup {
	index := make(map[event.EventType]int, 8)
	groups := make([]typeGroup, 0, 8)
	for i := range batch {
		t := batch[i].Type
		gi, ok := index[t]
		if !ok {
			gi = len(groups)
			index[t] = gi
			groups = append(groups, typeGroup{typ: t})
		}
		groups[gi].events = append(groups[gi].events, &batch[i])
	}
	return groups
}
