// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package event

import (
	"encoding/binary"
	"fmt"
)

// WireVersion is the current batch encoding version. Increment on breaking
// changes to the event wire layout.
const WireVersion = 1

// WireSize is the fixed encoded size of one event in bytes.
const WireSize = 8 + 8 + 8 + 8 + 2 + 1 + 1 + 1 + PayloadCapacity

// batchHeaderSize is version byte + uint32 event count.
const batchHeaderSize = 1 + 4

// AppendWire appends the fixed-width little-endian encoding of e to dst and
// returns the extended slice.
func (e *UnifiedEvent) AppendWire(dst []byte) []byte {
	var buf [WireSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], e.Frame)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.TimestampNs))
	binary.LittleEndian.PutUint64(buf[16:24], e.ActorID)
	binary.LittleEndian.PutUint64(buf[24:32], e.TargetID)
	binary.LittleEndian.PutUint16(buf[32:34], uint16(e.Type))
	buf[34] = uint8(e.Priority)
	buf[35] = uint8(e.Flags)
	buf[36] = e.PayloadLen
	copy(buf[37:], e.Payload[:])
	return append(dst, buf[:]...)
}

// DecodeWire decodes one event from the front of src.
func DecodeWire(src []byte) (UnifiedEvent, error) {
	if len(src) < WireSize {
		return UnifiedEvent{}, fmt.Errorf("event wire: need %d bytes, have %d", WireSize, len(src))
	}
	var e UnifiedEvent
	e.Frame = binary.LittleEndian.Uint64(src[0:8])
	e.TimestampNs = int64(binary.LittleEndian.Uint64(src[8:16]))
	e.ActorID = binary.LittleEndian.Uint64(src[16:24])
	e.TargetID = binary.LittleEndian.Uint64(src[24:32])
	e.Type = EventType(binary.LittleEndian.Uint16(src[32:34]))
	e.Priority = Priority(src[34])
	e.Flags = Flags(src[35])
	e.PayloadLen = src[36]
	if e.PayloadLen > PayloadCapacity {
		return UnifiedEvent{}, fmt.Errorf("event wire: payload length %d exceeds capacity %d", e.PayloadLen, PayloadCapacity)
	}
	copy(e.Payload[:], src[37:37+PayloadCapacity])
	return e, nil
}

// EncodeBatch encodes a batch of events with a version/count header. The
// frame journal stores one batch per frame; the relay forwards the same
// encoding across nodes.
func EncodeBatch(events []UnifiedEvent) []byte {
	dst := make([]byte, batchHeaderSize, batchHeaderSize+len(events)*WireSize)
	dst[0] = WireVersion
	binary.LittleEndian.PutUint32(dst[1:5], uint32(len(events)))
	for i := range events {
		dst = events[i].AppendWire(dst)
	}
	return dst
}

// DecodeBatch decodes a batch produced by EncodeBatch.
func DecodeBatch(src []byte) ([]UnifiedEvent, error) {
	if len(src) < batchHeaderSize {
		return nil, fmt.Errorf("event batch: short header (%d bytes)", len(src))
	}
	if v := src[0]; v != WireVersion {
		return nil, fmt.Errorf("event batch: unsupported version %d", v)
	}
	count := binary.LittleEndian.Uint32(src[1:5])
	want := batchHeaderSize + int(count)*WireSize
	if len(src) < want {
		return nil, fmt.Errorf("event batch: truncated, want %d bytes have %d", want, len(src))
	}
	events := make([]UnifiedEvent, 0, count)
	off := batchHeaderSize
	for i := uint32(0); i < count; i++ {
		ev, err := DecodeWire(src[off:])
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
		off += WireSize
	}
	return events, nil
}
