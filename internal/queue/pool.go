// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package queue

import (
	"sync"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// BatchPool recycles event collection buffers so the dispatcher's frame
// tick does not allocate. Buffers are returned with length zero and the
// pool's fixed capacity.
type BatchPool struct {
	pool sync.Pool
	size int
}

// NewBatchPool creates a pool of buffers with the given capacity.
func NewBatchPool(size int) *BatchPool {
	if size <= 0 {
		size = 1
	}
	p := &BatchPool{size: size}
	p.pool.New = func() interface{} {
		buf := make([]event.UnifiedEvent, 0, size)
		return &buf
	}
	return p
}

// Get returns an empty buffer with the pool's capacity.
func (p *BatchPool) Get() []event.UnifiedEvent {
	buf := p.pool.Get().(*[]event.UnifiedEvent)
	return (*buf)[:0]
}

// Put returns a buffer to the pool. Buffers grown past the pool capacity
// are dropped so the pool never retains oversized allocations.
func (p *BatchPool) Put(buf []event.UnifiedEvent) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}

// Size returns the fixed buffer capacity.
func (p *BatchPool) Size() int {
	return p.size
}
