// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package event

import (
	"encoding/base64"
	"fmt"
	"time"
)

// PayloadCapacity is the maximum inline payload size in bytes.
// Typed payloads are checked against this at compile time; raw payloads
// are checked at encode time and panic on violation.
const PayloadCapacity = 28

// Priority is one of the four ordered event tiers. Lower numeric value means
// higher precedence: Gameplay events are always collected before AI, AI
// before Analytics, Analytics before Telemetry.
type Priority uint8

const (
	// PriorityGameplay is the highest tier: combat resolution, rewards,
	// battle lifecycle. Never throttled; bounded retry on overflow.
	PriorityGameplay Priority = iota

	// PriorityAI covers decision and targeting events. Bounded retry on
	// overflow, same as Gameplay.
	PriorityAI

	// PriorityAnalytics covers progression and economy samples. Overflow is
	// throttled probabilistically to protect the lower tiers.
	PriorityAnalytics

	// PriorityTelemetry covers operational measurements. Dropped immediately
	// on overflow.
	PriorityTelemetry

	// NumPriorities is the number of tiers; used to size per-tier arrays.
	NumPriorities = 4
)

// Valid reports whether p is one of the four defined tiers.
func (p Priority) Valid() bool {
	return p < NumPriorities
}

// String returns the lowercase tier name.
func (p Priority) String() string {
	switch p {
	case PriorityGameplay:
		return "gameplay"
	case PriorityAI:
		return "ai"
	case PriorityAnalytics:
		return "analytics"
	case PriorityTelemetry:
		return "telemetry"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// ParsePriority converts a tier name to its Priority value.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "gameplay":
		return PriorityGameplay, nil
	case "ai":
		return PriorityAI, nil
	case "analytics":
		return PriorityAnalytics, nil
	case "telemetry":
		return PriorityTelemetry, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

// EventType is a small integer tag identifying how an event's payload is
// interpreted and which handlers receive it. Types are grouped by tier in
// the high byte: 0x01 gameplay, 0x02 AI, 0x03 analytics, 0x04 telemetry.
type EventType uint16

const (
	// TypeNone is the zero value; never enqueued.
	TypeNone EventType = 0x0000

	// Gameplay tier (0x01xx).
	TypePlayerAttack EventType = 0x0101
	TypeEnemyAttack  EventType = 0x0102
	TypeSkillCast    EventType = 0x0103
	TypeBuffExpire   EventType = 0x0104
	TypeBattleStart  EventType = 0x0105
	TypeBattleEnd    EventType = 0x0106
	TypeRewardGrant  EventType = 0x0107
	TypeCycleDone    EventType = 0x0108

	// AI tier (0x02xx).
	TypeAIDecision  EventType = 0x0201
	TypeAITargeting EventType = 0x0202

	// Analytics tier (0x03xx).
	TypeProgressSample EventType = 0x0301
	TypeEconomySample  EventType = 0x0302

	// Telemetry tier (0x04xx).
	TypeLatencySample EventType = 0x0401
	TypeCounterSample EventType = 0x0402
)

// DefaultPriority returns the tier an event type belongs to, derived from
// the type's high byte. Unknown ranges default to telemetry so that stray
// events can never crowd out gameplay work.
func (t EventType) DefaultPriority() Priority {
	switch t >> 8 {
	case 0x01:
		return PriorityGameplay
	case 0x02:
		return PriorityAI
	case 0x03:
		return PriorityAnalytics
	default:
		return PriorityTelemetry
	}
}

// String returns a stable name for known types and a hex form for others.
func (t EventType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypePlayerAttack:
		return "player_attack"
	case TypeEnemyAttack:
		return "enemy_attack"
	case TypeSkillCast:
		return "skill_cast"
	case TypeBuffExpire:
		return "buff_expire"
	case TypeBattleStart:
		return "battle_start"
	case TypeBattleEnd:
		return "battle_end"
	case TypeRewardGrant:
		return "reward_grant"
	case TypeCycleDone:
		return "cycle_done"
	case TypeAIDecision:
		return "ai_decision"
	case TypeAITargeting:
		return "ai_targeting"
	case TypeProgressSample:
		return "progress_sample"
	case TypeEconomySample:
		return "economy_sample"
	case TypeLatencySample:
		return "latency_sample"
	case TypeCounterSample:
		return "counter_sample"
	default:
		return fmt.Sprintf("type(0x%04x)", uint16(t))
	}
}

// ParseEventType converts a stable type name back to its EventType value.
// Accepts exactly the names String produces for known types.
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "player_attack":
		return TypePlayerAttack, nil
	case "enemy_attack":
		return TypeEnemyAttack, nil
	case "skill_cast":
		return TypeSkillCast, nil
	case "buff_expire":
		return TypeBuffExpire, nil
	case "battle_start":
		return TypeBattleStart, nil
	case "battle_end":
		return TypeBattleEnd, nil
	case "reward_grant":
		return TypeRewardGrant, nil
	case "cycle_done":
		return TypeCycleDone, nil
	case "ai_decision":
		return TypeAIDecision, nil
	case "ai_targeting":
		return TypeAITargeting, nil
	case "progress_sample":
		return TypeProgressSample, nil
	case "economy_sample":
		return TypeEconomySample, nil
	case "latency_sample":
		return TypeLatencySample, nil
	case "counter_sample":
		return TypeCounterSample, nil
	default:
		return TypeNone, fmt.Errorf("unknown event type %q", s)
	}
}

// Flags holds the event's named state bits. The zero value means neither
// cancelled nor processed.
type Flags uint8

const (
	flagCancelled Flags = 1 << 0
	flagProcessed Flags = 1 << 1
)

// Cancelled reports whether the cancellation bit is set.
func (f Flags) Cancelled() bool { return f&flagCancelled != 0 }

// WithCancelled returns a copy of f with the cancellation bit set.
func (f Flags) WithCancelled() Flags { return f | flagCancelled }

// Processed reports whether the processed bit is set.
func (f Flags) Processed() bool { return f&flagProcessed != 0 }

// WithProcessed returns a copy of f with the processed bit set.
func (f Flags) WithProcessed() Flags { return f | flagProcessed }

// UnifiedEvent is the fixed-size unit of work flowing through the queue and
// dispatcher. It is a value type: copies are cheap and slots in the ring
// buffers hold events directly, not pointers.
type UnifiedEvent struct {
	// Frame is the queue's frame counter at enqueue time. Zero until the
	// event passes through UnifiedEventQueue.Enqueue.
	Frame uint64

	// TimestampNs is wall-clock nanoseconds at creation.
	TimestampNs int64

	// ActorID identifies the entity the event originates from.
	ActorID uint64

	// TargetID identifies the entity the event acts on; zero when unused.
	TargetID uint64

	// Type tags how Payload is interpreted and which handlers run.
	Type EventType

	// Priority selects the tier ring buffer and backpressure policy.
	Priority Priority

	// Flags holds the cancelled/processed bits. A handler may set the
	// cancellation bit to stop later handlers of the same event.
	Flags Flags

	// PayloadLen is the number of meaningful bytes in Payload.
	PayloadLen uint8

	// Payload is the inline payload, interpreted per Type.
	Payload [PayloadCapacity]byte
}

// New creates an event of the given type at the type's default priority,
// stamped with the current wall clock. The frame is stamped later, at
// enqueue time.
func New(t EventType, actorID, targetID uint64) UnifiedEvent {
	return UnifiedEvent{
		TimestampNs: time.Now().UnixNano(),
		ActorID:     actorID,
		TargetID:    targetID,
		Type:        t,
		Priority:    t.DefaultPriority(),
	}
}

// NewWithPriority creates an event with an explicit priority override.
func NewWithPriority(t EventType, p Priority, actorID, targetID uint64) UnifiedEvent {
	ev := New(t, actorID, targetID)
	ev.Priority = p
	return ev
}

// SetPayload copies raw into the inline payload. It panics if raw exceeds
// PayloadCapacity: oversized payloads are a programming error caught at
// encode time, never a recoverable runtime condition.
func (e *UnifiedEvent) SetPayload(raw []byte) {
	if len(raw) > PayloadCapacity {
		panic(fmt.Sprintf("event: payload %d bytes exceeds inline capacity %d", len(raw), PayloadCapacity))
	}
	copy(e.Payload[:], raw)
	e.PayloadLen = uint8(len(raw))
}

// PayloadBytes returns the meaningful prefix of the inline payload. The
// returned slice aliases the event; callers must not retain it past the
// event's lifetime.
func (e *UnifiedEvent) PayloadBytes() []byte {
	return e.Payload[:e.PayloadLen]
}

// Cancel sets the cancellation flag. Subsequent handlers registered for the
// same event type skip this event; other type-groups are unaffected.
func (e *UnifiedEvent) Cancel() {
	e.Flags = e.Flags.WithCancelled()
}

// MarkProcessed sets the processed flag.
func (e *UnifiedEvent) MarkProcessed() {
	e.Flags = e.Flags.WithProcessed()
}

// Time returns the creation timestamp as a time.Time in UTC.
func (e *UnifiedEvent) Time() time.Time {
	return time.Unix(0, e.TimestampNs).UTC()
}

// Envelope is the JSON-friendly view of an event used by the WebSocket push
// and API surfaces. Payload bytes are base64-encoded.
type Envelope struct {
	Frame     uint64    `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	ActorID   uint64    `json:"actor_id"`
	TargetID  uint64    `json:"target_id,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Payload   string    `json:"payload,omitempty"`
}

// Envelope builds the JSON-friendly view of the event.
func (e *UnifiedEvent) Envelope() Envelope {
	env := Envelope{
		Frame:     e.Frame,
		Timestamp: e.Time(),
		Type:      e.Type.String(),
		Priority:  e.Priority.String(),
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Cancelled: e.Flags.Cancelled(),
	}
	if e.PayloadLen > 0 {
		env.Payload = base64.StdEncoding.EncodeToString(e.PayloadBytes())
	}
	return env
}
