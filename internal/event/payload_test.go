// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package event

import (
	"math"
	"testing"
)

func TestDamagePayload(t *testing.T) {
	t.Parallel()

	var ev UnifiedEvent
	in := DamagePayload{Amount: 123.456, SkillID: 7, Critical: true, Killed: false}
	in.Encode(&ev, TypePlayerAttack)

	if ev.Type != TypePlayerAttack {
		t.Fatalf("Encode set type %v, want player_attack", ev.Type)
	}

	out, err := DecodeDamage(&ev)
	if err != nil {
		t.Fatalf("DecodeDamage: %v", err)
	}
	if out != in {
		t.Errorf("roundtrip = %+v, want %+v", out, in)
	}
}

func TestDamagePayloadLengthMismatch(t *testing.T) {
	t.Parallel()

	var ev UnifiedEvent
	MetricPayload{Key: 1, Value: 2}.Encode(&ev, TypeLatencySample)

	if _, err := DecodeDamage(&ev); err == nil {
		t.Error("DecodeDamage accepted a metric-sized payload")
	}
}

func TestRewardPayload(t *testing.T) {
	t.Parallel()

	var ev UnifiedEvent
	in := RewardPayload{Gold: 4200, Experience: 980, ItemID: 31, Quantity: 3}
	in.Encode(&ev, TypeRewardGrant)

	out, err := DecodeReward(&ev)
	if err != nil {
		t.Fatalf("DecodeReward: %v", err)
	}
	if out != in {
		t.Errorf("roundtrip = %+v, want %+v", out, in)
	}
}

func TestProgressPayload(t *testing.T) {
	t.Parallel()

	var ev UnifiedEvent
	in := ProgressPayload{ActivityKind: 2, CyclesDone: 144, CycleProgress: 0.375}
	in.Encode(&ev, TypeProgressSample)

	out, err := DecodeProgress(&ev)
	if err != nil {
		t.Fatalf("DecodeProgress: %v", err)
	}
	if out != in {
		t.Errorf("roundtrip = %+v, want %+v", out, in)
	}
}

func TestMetricPayloadSpecialFloats(t *testing.T) {
	t.Parallel()

	// NaN and infinities must survive the float64 bit transport.
	for _, v := range []float64{math.Inf(1), math.Inf(-1), 0, -0.0, math.MaxFloat64} {
		var ev UnifiedEvent
		MetricPayload{Key: 9, Value: v}.Encode(&ev, TypeLatencySample)

		out, err := DecodeMetric(&ev)
		if err != nil {
			t.Fatalf("DecodeMetric(%v): %v", v, err)
		}
		if out.Value != v {
			t.Errorf("value roundtrip = %v, want %v", out.Value, v)
		}
	}

	var ev UnifiedEvent
	MetricPayload{Key: 9, Value: math.NaN()}.Encode(&ev, TypeLatencySample)
	out, err := DecodeMetric(&ev)
	if err != nil {
		t.Fatalf("DecodeMetric(NaN): %v", err)
	}
	if !math.IsNaN(out.Value) {
		t.Errorf("NaN roundtrip = %v, want NaN", out.Value)
	}
}
