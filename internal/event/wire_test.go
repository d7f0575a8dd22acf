// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package event

import (
	"testing"
)

func sampleEvent(frame uint64) UnifiedEvent {
	ev := New(TypePlayerAttack, 11, 22)
	ev.Frame = frame
	ev.Flags = ev.Flags.WithProcessed()
	DamagePayload{Amount: 55.5, SkillID: 3, Critical: true}.Encode(&ev, TypePlayerAttack)
	return ev
}

func TestWireRoundTrip(t *testing.T) {
	t.Parallel()

	in := sampleEvent(99)
	buf := in.AppendWire(nil)

	if len(buf) != WireSize {
		t.Fatalf("encoded size = %d, want %d", len(buf), WireSize)
	}

	out, err := DecodeWire(buf)
	if err != nil {
		t.Fatalf("DecodeWire: %v", err)
	}
	if out != in {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestDecodeWireShort(t *testing.T) {
	t.Parallel()

	if _, err := DecodeWire(make([]byte, WireSize-1)); err == nil {
		t.Error("DecodeWire accepted a short buffer")
	}
}

func TestDecodeWireBadPayloadLen(t *testing.T) {
	t.Parallel()

	ev := sampleEvent(1)
	buf := ev.AppendWire(nil)
	buf[36] = PayloadCapacity + 1

	if _, err := DecodeWire(buf); err == nil {
		t.Error("DecodeWire accepted a payload length over capacity")
	}
}

func TestBatchRoundTrip(t *testing.T) {
	t.Parallel()

	in := []UnifiedEvent{sampleEvent(5), sampleEvent(5), sampleEvent(5)}
	in[1].ActorID = 777

	buf := EncodeBatch(in)
	out, err := DecodeBatch(buf)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d events, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("event %d mismatch", i)
		}
	}
}

func TestBatchEmpty(t *testing.T) {
	t.Parallel()

	out, err := DecodeBatch(EncodeBatch(nil))
	if err != nil {
		t.Fatalf("DecodeBatch(empty): %v", err)
	}
	if len(out) != 0 {
		t.Errorf("decoded %d events from empty batch", len(out))
	}
}

func TestBatchErrors(t *testing.T) {
	t.Parallel()

	if _, err := DecodeBatch([]byte{1}); err == nil {
		t.Error("DecodeBatch accepted a short header")
	}

	buf := EncodeBatch([]UnifiedEvent{sampleEvent(1)})
	buf[0] = 99
	if _, err := DecodeBatch(buf); err == nil {
		t.Error("DecodeBatch accepted an unknown version")
	}

	buf = EncodeBatch([]UnifiedEvent{sampleEvent(1)})
	if _, err := DecodeBatch(buf[:len(buf)-4]); err == nil {
		t.Error("DecodeBatch accepted a truncated batch")
	}
}

// FuzzDecodeBatch feeds arbitrary bytes to the batch decoder; it must reject
// garbage with an error, never panic or over-read.
func FuzzDecodeBatch(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{1, 0, 0, 0, 0})
	f.Add(EncodeBatch([]UnifiedEvent{sampleEvent(1)}))
	f.Add(EncodeBatch([]UnifiedEvent{sampleEvent(1), sampleEvent(2)}))

	f.Fuzz(func(t *testing.T, data []byte) {
		events, err := DecodeBatch(data)
		if err != nil {
			return
		}
		// Successful decodes must re-encode to a parseable batch.
		if _, err := DecodeBatch(EncodeBatch(events)); err != nil {
			t.Errorf("re-encode of accepted batch failed: %v", err)
		}
	})
}
