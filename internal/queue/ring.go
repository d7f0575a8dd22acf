// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package queue

import (
	"fmt"
	"sync/atomic"

	"github.com/Solaireshen97/emberforge/internal/event"
)

// LockFreeRingBuffer is a fixed-capacity MPSC ring of UnifiedEvent values.
//
// Producers compete for slots with a CAS on head; the winning producer
// writes the slot and then sets its published flag, so the consumer never
// reads a half-written record. The single consumer advances tail with a
// plain atomic store - no CAS needed because only one goroutine dequeues.
//
// head and tail increase monotonically and are never wrapped; the slot
// index is counter & mask. count = head - tail; the ring is full when
// count == capacity.
type LockFreeRingBuffer struct {
	capacity uint64
	mask     uint64

	// head counts producer-claimed slots. Padded onto its own cache line
	// so producer CAS traffic does not false-share with consumer reads.
	_    [48]byte
	head atomic.Uint64
	_    [56]byte

	// tail counts consumer-released slots.
	tail atomic.Uint64
	_    [56]byte

	slots []ringSlot
}

// ringSlot pairs an event with its published flag. The flag is the
// handshake between a claiming producer and the consumer: false means the
// write is still in flight (or the slot is empty).
type ringSlot struct {
	published atomic.Bool
	ev        event.UnifiedEvent
}

// NewRingBuffer creates a ring with the given capacity, which must be a
// power of two greater than zero.
func NewRingBuffer(capacity int) (*LockFreeRingBuffer, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("ring capacity must be a power of two, got %d", capacity)
	}
	return &LockFreeRingBuffer{
		capacity: uint64(capacity),
		mask:     uint64(capacity) - 1,
		slots:    make([]ringSlot, capacity),
	}, nil
}

// TryEnqueue claims a slot and writes ev into it. Returns false without
// blocking when the ring is full.
func (r *LockFreeRingBuffer) TryEnqueue(ev event.UnifiedEvent) bool {
	for {
		head := r.head.Load()
		tail := r.tail.Load()
		if head-tail >= r.capacity {
			return false
		}
		if r.head.CompareAndSwap(head, head+1) {
			slot := &r.slots[head&r.mask]
			slot.ev = ev
			slot.published.Store(true) // publish only after the write completes
			return true
		}
		// Lost the CAS race; reload and retry with fresh counters.
	}
}

// TryDequeue removes and returns the oldest event. The second return is
// false when the ring is empty or the head slot's producer has not yet
// published its write.
func (r *LockFreeRingBuffer) TryDequeue() (event.UnifiedEvent, bool) {
	tail := r.tail.Load()
	if tail >= r.head.Load() {
		return event.UnifiedEvent{}, false
	}
	slot := &r.slots[tail&r.mask]
	if !slot.published.Load() {
		// Producer claimed the slot but has not finished writing.
		return event.UnifiedEvent{}, false
	}
	ev := slot.ev
	slot.published.Store(false)
	r.tail.Store(tail + 1)
	return ev, true
}

// TryDequeueBatch fills dst with up to len(dst) events in FIFO order and
// returns the number written. It stops early at an unpublished slot so a
// mid-flight producer write is never skipped over.
func (r *LockFreeRingBuffer) TryDequeueBatch(dst []event.UnifiedEvent) int {
	tail := r.tail.Load()
	head := r.head.Load()

	available := head - tail
	if available == 0 {
		return 0
	}
	if available > uint64(len(dst)) {
		available = uint64(len(dst))
	}

	n := uint64(0)
	for ; n < available; n++ {
		slot := &r.slots[(tail+n)&r.mask]
		if !slot.published.Load() {
			break
		}
		dst[n] = slot.ev
		slot.published.Store(false)
	}
	if n > 0 {
		r.tail.Store(tail + n)
	}
	return int(n)
}

// Len returns the current number of buffered events. The value is a
// point-in-time snapshot; under concurrent producers it is advisory.
func (r *LockFreeRingBuffer) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	if head < tail {
		return 0
	}
	n := head - tail
	if n > r.capacity {
		n = r.capacity
	}
	return int(n)
}

// Cap returns the ring's fixed capacity.
func (r *LockFreeRingBuffer) Cap() int {
	return int(r.capacity)
}
