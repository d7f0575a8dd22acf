// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// Handler processes a single event. Implementations must be safe for
// concurrent use: the same handler may run on several worker goroutines
// at once for different event types.
type Handler interface {
	Handle(ev *event.UnifiedEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ev *event.UnifiedEvent) error

// Handle calls f(ev).
func (f HandlerFunc) Handle(ev *event.UnifiedEvent) error {
	return f(ev)
}

// Registration identifies a registered handler so it can be removed later.
// Tokens are never reused within a registry's lifetime.
type Registration struct {
	typ event.EventType
	id  uint64
}

// Type returns the event type the registration was made for.
func (r Registration) Type() event.EventType {
	return r.typ
}

type registeredHandler struct {
	id uint64
	h  Handler
}

type handlerTable map[event.EventType][]registeredHandler

// HandlerRegistry maps event types to ordered handler chains.
//
// Reads load an immutable snapshot of the whole table, so the dispatch
// hot path never takes a lock. Mutations copy the table under a mutex
// and publish the new snapshot atomically. Handlers registered for the
// same type run in registration order.
type HandlerRegistry struct {
	mu     sync.Mutex
	nextID uint64
	table  atomic.Pointer[handlerTable]
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	r := &HandlerRegistry{}
	empty := make(handlerTable)
	r.table.Store(&empty)
	return r
}

// Register appends h to the handler chain for t and returns a token
// for later removal.
func (r *HandlerRegistry) Register(t event.EventType, h Handler) Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	reg := Registration{typ: t, id: r.nextID}

	old := *r.table.Load()
	next := make(handlerTable, len(old)+1)
	for typ, chain := range old {
		next[typ] = chain
	}

	chain := old[t]
	updated := make([]registeredHandler, len(chain), len(chain)+1)
	copy(updated, chain)
	next[t] = append(updated, registeredHandler{id: reg.id, h: h})

	r.table.Store(&next)
	return reg
}

// Unregister removes the handler identified by reg. It returns false if
// the registration is unknown or was already removed.
func (r *HandlerRegistry) Unregister(reg Registration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.table.Load()
	chain, ok := old[reg.typ]
	if !ok {
		return false
	}

	idx := -1
	for i, rh := range chain {
		if rh.id == reg.id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	next := make(handlerTable, len(old))
	for typ, c := range old {
		next[typ] = c
	}

	if len(chain) == 1 {
		delete(next, reg.typ)
	} else {
		updated := make([]registeredHandler, 0, len(chain)-1)
		updated = append(updated, chain[:idx]...)
		updated = append(updated, chain[idx+1:]...)
		next[reg.typ] = updated
	}

	r.table.Store(&next)
	return true
}

// Count returns the number of handlers registered for t.
func (r *HandlerRegistry) Count(t event.EventType) int {
	return len(r.handlersFor(t))
}

// handlersFor returns the current snapshot of the chain for t. The
// returned slice is immutable and must not be modified.
func (r *HandlerRegistry) handlersFor(t event.EventType) []registeredHandler {
	return (*r.table.Load())[t]
}
