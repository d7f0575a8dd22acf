// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
// This enables clear observability in logs and metrics.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeEvent       = "event"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeSettlement  = "settlement"
	MessageTypeStatsUpdate = "stats_update"
)

// broadcastBuffer is the hub's pending-broadcast queue depth. Messages
// beyond it are dropped rather than blocking the producer.
const broadcastBuffer = 256

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	cfg        Config
}

// NewHub creates a new Hub. Zero fields in cfg fall back to defaults.
func NewHub(cfg Config) *Hub {
	return &Hub{
		broadcast:  make(chan Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		cfg:        cfg.withDefaults(),
	}
}

// Serve runs the hub until ctx is cancelled, then closes every client
// and returns ctx.Err(). It satisfies the suture service contract so a
// supervisor can restart the hub without leaving orphaned connections.
//
// Selection is priority based to keep behavior predictable when several
// channels are ready at once (Go's select picks randomly otherwise):
//   - Priority 1: context cancellation (shutdown)
//   - Priority 2: client lifecycle events (Register/Unregister)
//   - Priority 3: broadcast messages
//
// Client state is therefore always settled before a message fans out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Priority 1: check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.handleRegister(client)
			continue
		case client := <-h.Unregister:
			h.handleUnregister(client)
			continue
		default:
			// No lifecycle events pending
		}

		// Priority 3: handle broadcast messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// handleRegister admits a client, or refuses it when the hub is at its
// configured capacity. A refused client's send channel is closed, which
// makes its write pump emit a close frame and hang up.
func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	if len(h.clients) >= h.cfg.MaxClients {
		h.mu.Unlock()
		close(client.send)
		metrics.RecordWSClientRejected()
		logging.Warn().
			Int("max_clients", h.cfg.MaxClients).
			Msg("websocket client rejected: hub at capacity")
		return
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.TrackWSConnection(true)
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.TrackWSConnection(false)
		logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// logGracefulShutdown closes all connected clients and logs structured
// shutdown information.
//
// Note: ctx.Err() is NOT logged as an error because context cancellation
// is expected behavior during graceful shutdown. Logging it as .Err()
// would confuse operators monitoring error logs.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()

	h.closeAllClients()

	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		// Fallback for any future context error types
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients in a
// deterministic order. Clients are sorted by their monotonically
// assigned IDs so delivery order is reproducible across runs; a client
// whose send buffer is full is disconnected rather than allowed to
// stall everyone behind it.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.RecordWSMessageSent()
		default:
			// Channel full or closed, mark for removal
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.RecordWSSlowClientDisconnect()
		metrics.TrackWSConnection(false)
	}
	if len(toRemove) > 0 {
		logging.Warn().Int("removed", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

// closeAllClients closes all connected clients in ID order. Called
// during shutdown to ensure clean termination.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.TrackWSConnection(false)
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastEvent queues one event envelope for push delivery.
func (h *Hub) BroadcastEvent(ev *event.UnifiedEvent) {
	message := Message{
		Type: MessageTypeEvent,
		Data: ev.Envelope(),
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().
			Str("event_type", ev.Type.String()).
			Msg("broadcast channel full, dropping event message")
	}
}

// Handle implements the dispatcher handler contract so the hub can be
// registered directly for Gameplay event types. Push delivery is best
// effort: a full broadcast queue drops the message rather than failing
// the frame.
func (h *Hub) Handle(ev *event.UnifiedEvent) error {
	h.BroadcastEvent(ev)
	return nil
}

// BroadcastJSON sends a JSON message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// SettlementData represents data sent with a settlement message
type SettlementData struct {
	Timestamp      string  `json:"timestamp"`
	PlayerID       string  `json:"player_id"`
	Activity       string  `json:"activity"`
	EffectiveHours float64 `json:"effective_hours"`
}

// BroadcastSettlement notifies all clients that an offline settlement
// has completed for a player.
func (h *Hub) BroadcastSettlement(playerID, activity string, effectiveHours float64) {
	data := SettlementData{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		PlayerID:       playerID,
		Activity:       activity,
		EffectiveHours: effectiveHours,
	}

	message := Message{
		Type: MessageTypeSettlement,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().
			Int("clients", h.GetClientCount()).
			Str("player_id", playerID).
			Str("activity", activity).
			Msg("broadcast settlement")
	default:
		logging.Warn().Msg("broadcast channel full, dropping settlement message")
	}
}

// StatsUpdateData represents data sent with a stats_update message
type StatsUpdateData struct {
	Timestamp     string `json:"timestamp"`
	CurrentFrame  uint64 `json:"current_frame"`
	ActiveBattles int    `json:"active_battles"`
}

// BroadcastStatsUpdate notifies all clients that the live simulation
// counters have changed.
func (h *Hub) BroadcastStatsUpdate(currentFrame uint64, activeBattles int) {
	data := StatsUpdateData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		CurrentFrame:  currentFrame,
		ActiveBattles: activeBattles,
	}

	message := Message{
		Type: MessageTypeStatsUpdate,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().
			Int("clients", h.GetClientCount()).
			Uint64("current_frame", currentFrame).
			Msg("broadcast stats_update")
	default:
		logging.Warn().Msg("broadcast channel full, dropping stats_update message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
