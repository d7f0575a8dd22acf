// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package event

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Typed payload wire sizes. Each typed payload declares its encoded size
// as a constant and the guard below fails compilation if any of them
// outgrows the inline capacity.
const (
	damageWireSize       = 13
	rewardWireSize       = 14
	progressWireSize     = 13
	metricWireSize       = 10
	battleRewardWireSize = 28
)

// Compile-time capacity guards: an array type with a negative length does
// not compile, so these declarations break the build the moment a typed
// payload outgrows PayloadCapacity.
var (
	_ [PayloadCapacity - damageWireSize]byte
	_ [PayloadCapacity - rewardWireSize]byte
	_ [PayloadCapacity - progressWireSize]byte
	_ [PayloadCapacity - metricWireSize]byte
	_ [PayloadCapacity - battleRewardWireSize]byte
)

// DamagePayload carries the result of one attack resolution.
type DamagePayload struct {
	// Amount is the damage dealt after variance.
	Amount float64
	// SkillID identifies the skill used; zero for a basic attack.
	SkillID uint16
	// Critical marks a critical hit.
	Critical bool
	// Killed marks that the target's health reached zero.
	Killed bool
}

// Encode writes the payload into the event and tags it with t.
func (p DamagePayload) Encode(e *UnifiedEvent, t EventType) {
	var buf [damageWireSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(p.Amount))
	binary.LittleEndian.PutUint16(buf[8:10], p.SkillID)
	buf[10] = boolByte(p.Critical)
	buf[11] = boolByte(p.Killed)
	buf[12] = 0 // reserved
	e.Type = t
	e.SetPayload(buf[:])
}

// DecodeDamage reads a DamagePayload from the event's inline payload.
func DecodeDamage(e *UnifiedEvent) (DamagePayload, error) {
	if e.PayloadLen != damageWireSize {
		return DamagePayload{}, fmt.Errorf("damage payload: want %d bytes, have %d", damageWireSize, e.PayloadLen)
	}
	return DamagePayload{
		Amount:   math.Float64frombits(binary.LittleEndian.Uint64(e.Payload[0:8])),
		SkillID:  binary.LittleEndian.Uint16(e.Payload[8:10]),
		Critical: e.Payload[10] != 0,
		Killed:   e.Payload[11] != 0,
	}, nil
}

// RewardPayload carries a granted reward bundle.
type RewardPayload struct {
	Gold       uint32
	Experience uint32
	ItemID     uint32
	Quantity   uint16
}

// Encode writes the payload into the event and tags it with t.
func (p RewardPayload) Encode(e *UnifiedEvent, t EventType) {
	var buf [rewardWireSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], p.Gold)
	binary.LittleEndian.PutUint32(buf[4:8], p.Experience)
	binary.LittleEndian.PutUint32(buf[8:12], p.ItemID)
	binary.LittleEndian.PutUint16(buf[12:14], p.Quantity)
	e.Type = t
	e.SetPayload(buf[:])
}

// DecodeReward reads a RewardPayload from the event's inline payload.
func DecodeReward(e *UnifiedEvent) (RewardPayload, error) {
	if e.PayloadLen != rewardWireSize {
		return RewardPayload{}, fmt.Errorf("reward payload: want %d bytes, have %d", rewardWireSize, e.PayloadLen)
	}
	return RewardPayload{
		Gold:       binary.LittleEndian.Uint32(e.Payload[0:4]),
		Experience: binary.LittleEndian.Uint32(e.Payload[4:8]),
		ItemID:     binary.LittleEndian.Uint32(e.Payload[8:12]),
		Quantity:   binary.LittleEndian.Uint16(e.Payload[12:14]),
	}, nil
}

// ProgressPayload carries an activity progression sample.
type ProgressPayload struct {
	// ActivityKind matches player.Activity numeric values.
	ActivityKind uint8
	// CyclesDone is the number of completed activity cycles.
	CyclesDone uint32
	// CycleProgress is the fractional progress of the current cycle in [0,1).
	CycleProgress float64
}

// Encode writes the payload into the event and tags it with t.
func (p ProgressPayload) Encode(e *UnifiedEvent, t EventType) {
	var buf [progressWireSize]byte
	buf[0] = p.ActivityKind
	binary.LittleEndian.PutUint32(buf[1:5], p.CyclesDone)
	binary.LittleEndian.PutUint64(buf[5:13], math.Float64bits(p.CycleProgress))
	e.Type = t
	e.SetPayload(buf[:])
}

// DecodeProgress reads a ProgressPayload from the event's inline payload.
func DecodeProgress(e *UnifiedEvent) (ProgressPayload, error) {
	if e.PayloadLen != progressWireSize {
		return ProgressPayload{}, fmt.Errorf("progress payload: want %d bytes, have %d", progressWireSize, e.PayloadLen)
	}
	return ProgressPayload{
		ActivityKind:  e.Payload[0],
		CyclesDone:    binary.LittleEndian.Uint32(e.Payload[1:5]),
		CycleProgress: math.Float64frombits(binary.LittleEndian.Uint64(e.Payload[5:13])),
	}, nil
}

// BattleRewardPayload carries the full payout of a resolved battle,
// including the recipient: player IDs do not fit the 64-bit actor
// fields, so the UUID rides in the payload. It fills the inline
// capacity exactly.
type BattleRewardPayload struct {
	// PlayerID is the recipient's UUID bytes.
	PlayerID   [16]byte
	Gold       uint32
	Experience uint32
	Essence    uint16
	Scrap      uint16
}

// Encode writes the payload into the event and tags it with t.
func (p BattleRewardPayload) Encode(e *UnifiedEvent, t EventType) {
	var buf [battleRewardWireSize]byte
	copy(buf[0:16], p.PlayerID[:])
	binary.LittleEndian.PutUint32(buf[16:20], p.Gold)
	binary.LittleEndian.PutUint32(buf[20:24], p.Experience)
	binary.LittleEndian.PutUint16(buf[24:26], p.Essence)
	binary.LittleEndian.PutUint16(buf[26:28], p.Scrap)
	e.Type = t
	e.SetPayload(buf[:])
}

// DecodeBattleReward reads a BattleRewardPayload from the event's
// inline payload.
func DecodeBattleReward(e *UnifiedEvent) (BattleRewardPayload, error) {
	if e.PayloadLen != battleRewardWireSize {
		return BattleRewardPayload{}, fmt.Errorf("battle reward payload: want %d bytes, have %d", battleRewardWireSize, e.PayloadLen)
	}
	var p BattleRewardPayload
	copy(p.PlayerID[:], e.Payload[0:16])
	p.Gold = binary.LittleEndian.Uint32(e.Payload[16:20])
	p.Experience = binary.LittleEndian.Uint32(e.Payload[20:24])
	p.Essence = binary.LittleEndian.Uint16(e.Payload[24:26])
	p.Scrap = binary.LittleEndian.Uint16(e.Payload[26:28])
	return p, nil
}

// MetricPayload carries one telemetry measurement keyed by a small ID.
type MetricPayload struct {
	Key   uint16
	Value float64
}

// Encode writes the payload into the event and tags it with t.
func (p MetricPayload) Encode(e *UnifiedEvent, t EventType) {
	var buf [metricWireSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], p.Key)
	binary.LittleEndian.PutUint64(buf[2:10], math.Float64bits(p.Value))
	e.Type = t
	e.SetPayload(buf[:])
}

// DecodeMetric reads a MetricPayload from the event's inline payload.
func DecodeMetric(e *UnifiedEvent) (MetricPayload, error) {
	if e.PayloadLen != metricWireSize {
		return MetricPayload{}, fmt.Errorf("metric payload: want %d bytes, have %d", metricWireSize, e.PayloadLen)
	}
	return MetricPayload{
		Key:   binary.LittleEndian.Uint16(e.Payload[0:2]),
		Value: math.Float64frombits(binary.LittleEndian.Uint64(e.Payload[2:10])),
	}, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
