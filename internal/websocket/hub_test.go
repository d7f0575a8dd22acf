// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Solaireshen97/emberforge/internal/event"
	"github.com/Solaireshen97/emberforge/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	// Initialize logging for tests with discard output
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates and starts a hub with default config for testing
func setupHub(t *testing.T) *Hub {
	t.Helper()
	return startHub(t, DefaultConfig())
}

// startHub creates a hub with cfg and serves it until the test ends
func startHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	hub := NewHub(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = hub.Serve(ctx)
	}()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient creates a mock client for testing
func createTestClient(hub *Hub) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: nil,
		send: make(chan Message, 256),
	}
}

// registerClient registers a client and waits for registration to complete
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

// sampleAttackEvent creates a gameplay event for broadcast tests
func sampleAttackEvent(frame uint64) event.UnifiedEvent {
	ev := event.New(event.TypePlayerAttack, 7, 9)
	ev.Frame = frame
	return ev
}

func TestNewHub(t *testing.T) {
	hub := NewHub(DefaultConfig())

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
		{"broadcast capacity", cap(hub.broadcast) == broadcastBuffer, "broadcast channel has wrong capacity"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestNewHub_AppliesDefaults(t *testing.T) {
	hub := NewHub(Config{SendBuffer: 8})

	def := DefaultConfig()
	if hub.cfg.SendBuffer != 8 {
		t.Errorf("SendBuffer = %d, want 8", hub.cfg.SendBuffer)
	}
	if hub.cfg.WriteWait != def.WriteWait {
		t.Errorf("WriteWait = %v, want %v", hub.cfg.WriteWait, def.WriteWait)
	}
	if hub.cfg.PongWait != def.PongWait {
		t.Errorf("PongWait = %v, want %v", hub.cfg.PongWait, def.PongWait)
	}
	if hub.cfg.MaxClients != def.MaxClients {
		t.Errorf("MaxClients = %d, want %d", hub.cfg.MaxClients, def.MaxClients)
	}
}

func TestHub_GetClientCount(t *testing.T) {
	hub := NewHub(DefaultConfig())

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients initially, got %d", hub.GetClientCount())
	}

	for i := 0; i < 5; i++ {
		hub.clients[createTestClient(hub)] = true
	}

	if hub.GetClientCount() != 5 {
		t.Errorf("Expected 5 clients, got %d", hub.GetClientCount())
	}
}

func TestHub_BroadcastMethods(t *testing.T) {
	t.Run("BroadcastEvent without clients", func(t *testing.T) {
		hub := setupHub(t)
		ev := sampleAttackEvent(12)
		hub.BroadcastEvent(&ev)
		time.Sleep(10 * time.Millisecond)
	})

	t.Run("BroadcastJSON without clients", func(t *testing.T) {
		hub := setupHub(t)
		hub.BroadcastJSON("test_type", map[string]interface{}{"test_key": "test_value", "count": 42})
		time.Sleep(10 * time.Millisecond)
	})

	t.Run("BroadcastSettlement without clients", func(t *testing.T) {
		hub := setupHub(t)
		hub.BroadcastSettlement("5c52c0b5-2a4c-4e1f-9d53-4f2f3a6b9b01", "combat", 7.5)
		time.Sleep(10 * time.Millisecond)
	})

	t.Run("BroadcastStatsUpdate without clients", func(t *testing.T) {
		hub := setupHub(t)
		hub.BroadcastStatsUpdate(1000, 3)
		time.Sleep(10 * time.Millisecond)
	})
}

func TestHub_ClientRegistration(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	if hub.GetClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.GetClientCount())
	}

	hub.mu.RLock()
	if !hub.clients[client] {
		t.Error("Client should be registered")
	}
	hub.mu.RUnlock()

	// Unregister
	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients after unregister, got %d", hub.GetClientCount())
	}
}

func TestHub_UnregisterNonExistentClient(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.GetClientCount())
	}
}

func TestHub_MaxClientsRejectsOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxClients = 2
	hub := startHub(t, cfg)

	first := createTestClient(hub)
	second := createTestClient(hub)
	third := createTestClient(hub)

	registerClient(hub, first)
	registerClient(hub, second)
	registerClient(hub, third)

	if hub.GetClientCount() != 2 {
		t.Errorf("Expected 2 clients at capacity, got %d", hub.GetClientCount())
	}

	// The refused client's send channel is closed so its write pump
	// hangs up.
	select {
	case _, ok := <-third.send:
		if ok {
			t.Error("Expected closed send channel for rejected client, got a message")
		}
	case <-time.After(500 * time.Millisecond):
		t.Error("Rejected client's send channel was not closed")
	}

	// Capacity frees up after an unregister.
	hub.Unregister <- first
	time.Sleep(20 * time.Millisecond)

	fourth := createTestClient(hub)
	registerClient(hub, fourth)

	if hub.GetClientCount() != 2 {
		t.Errorf("Expected 2 clients after freeing a slot, got %d", hub.GetClientCount())
	}
	hub.mu.RLock()
	admitted := hub.clients[fourth]
	hub.mu.RUnlock()
	if !admitted {
		t.Error("Client should be admitted once capacity frees up")
	}
}

func TestHub_BroadcastToClients(t *testing.T) {
	hub := setupHub(t)

	const numClients = 3
	clients := make([]*Client, numClients)
	var mu sync.Mutex
	received := make([]bool, numClients)
	var wg sync.WaitGroup

	for i := 0; i < numClients; i++ {
		clients[i] = createTestClient(hub)
		registerClient(hub, clients[i])
	}

	if hub.GetClientCount() != numClients {
		t.Fatalf("Expected %d clients, got %d", numClients, hub.GetClientCount())
	}

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(idx int, c *Client) {
			defer wg.Done()
			select {
			case msg := <-c.send:
				if msg.Type == "test_broadcast" {
					mu.Lock()
					received[idx] = true
					mu.Unlock()
				}
			case <-time.After(500 * time.Millisecond):
			}
		}(i, clients[i])
	}

	time.Sleep(20 * time.Millisecond)
	hub.BroadcastJSON("test_broadcast", map[string]string{"message": "hello"})
	wg.Wait()

	mu.Lock()
	for i, r := range received {
		if !r {
			t.Errorf("Client %d did not receive broadcast", i)
		}
	}
	mu.Unlock()
}

func TestHub_BroadcastEventDeliversEnvelope(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	ev := sampleAttackEvent(77)
	hub.BroadcastEvent(&ev)

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeEvent {
			t.Errorf("Type = %q, want %q", msg.Type, MessageTypeEvent)
		}
		env, ok := msg.Data.(event.Envelope)
		if !ok {
			t.Fatalf("Expected event.Envelope, got %T", msg.Data)
		}
		if env.Frame != 77 {
			t.Errorf("Frame = %d, want 77", env.Frame)
		}
		if env.Type != "player_attack" {
			t.Errorf("Type = %q, want player_attack", env.Type)
		}
		if env.Priority != "gameplay" {
			t.Errorf("Priority = %q, want gameplay", env.Priority)
		}
		if env.ActorID != 7 || env.TargetID != 9 {
			t.Errorf("Actor/Target = %d/%d, want 7/9", env.ActorID, env.TargetID)
		}
	case <-time.After(500 * time.Millisecond):
		t.Error("Timeout waiting for event message")
	}
}

func TestHub_HandleNeverFails(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(oldLevel)

	hub := NewHub(DefaultConfig()) // Not served, so the channel fills
	ev := sampleAttackEvent(1)

	for i := 0; i < broadcastBuffer; i++ {
		if err := hub.Handle(&ev); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	// Queue is full now; delivery is best effort so Handle still
	// succeeds without blocking.
	if err := hub.Handle(&ev); err != nil {
		t.Errorf("Handle() with full queue error = %v", err)
	}
}

func TestHub_ConcurrentOperations(t *testing.T) {
	hub := setupHub(t)
	done := make(chan bool)

	go func() {
		for i := 0; i < 10; i++ {
			registerClient(hub, createTestClient(hub))
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 20; i++ {
			hub.BroadcastJSON("test", map[string]int{"i": i})
			time.Sleep(2 * time.Millisecond)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 50; i++ {
			hub.GetClientCount()
			time.Sleep(1 * time.Millisecond)
		}
		done <- true
	}()

	for i := 0; i < 3; i++ {
		<-done
	}
	time.Sleep(100 * time.Millisecond)

	if hub.GetClientCount() != 10 {
		t.Errorf("Expected 10 clients, got %d", hub.GetClientCount())
	}
}

func TestMarshalMessage(t *testing.T) {
	ev := sampleAttackEvent(5)

	tests := []struct {
		name    string
		message Message
	}{
		{"simple message", Message{Type: "ping", Data: nil}},
		{"string data", Message{Type: "test", Data: "hello world"}},
		{"map data", Message{Type: "stats_update", Data: map[string]interface{}{"count": 42}}},
		{"envelope data", Message{Type: MessageTypeEvent, Data: ev.Envelope()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalMessage(tt.message)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(data) == 0 || data[0] != '{' || data[len(data)-1] != '}' {
				t.Error("Invalid JSON output")
			}
		})
	}
}

func TestHub_MessageTypes(t *testing.T) {
	expected := map[string]string{
		MessageTypeEvent:       "event",
		MessageTypePing:        "ping",
		MessageTypePong:        "pong",
		MessageTypeSettlement:  "settlement",
		MessageTypeStatsUpdate: "stats_update",
	}

	for got, want := range expected {
		if got != want {
			t.Errorf("Message type = %q, want %q", got, want)
		}
	}
}

func TestHub_ChannelFullBehavior(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(oldLevel)

	ev := sampleAttackEvent(3)

	tests := []struct {
		name      string
		broadcast func(*Hub)
	}{
		{"BroadcastEvent", func(h *Hub) { h.BroadcastEvent(&ev) }},
		{"BroadcastJSON", func(h *Hub) { h.BroadcastJSON("test", map[string]string{"test": "data"}) }},
		{"BroadcastSettlement", func(h *Hub) { h.BroadcastSettlement("5c52c0b5-2a4c-4e1f-9d53-4f2f3a6b9b01", "gathering", 2.0) }},
		{"BroadcastStatsUpdate", func(h *Hub) { h.BroadcastStatsUpdate(1000, 5) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(DefaultConfig()) // Don't serve so the channel fills

			for i := 0; i < broadcastBuffer; i++ {
				tt.broadcast(hub)
			}
			tt.broadcast(hub) // Should hit default case and not block
		})
	}
}

// TestHub_BroadcastToFullClient tests broadcasting when a client's send channel is full
func TestHub_BroadcastToFullClient(t *testing.T) {
	hub := setupHub(t)

	// Create client with tiny buffer that will fill up
	client := &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: nil,
		send: make(chan Message, 1),
	}
	registerClient(hub, client)

	// Fill the client's send channel
	client.send <- Message{Type: "filler", Data: nil}

	// Now broadcast - the full channel marks the client for removal
	hub.BroadcastJSON("test_overflow", map[string]string{"overflow": "test"})

	// Wait for client removal with polling (more reliable in CI under load)
	var clientCount int
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		clientCount = hub.GetClientCount()
		if clientCount == 0 {
			break
		}
	}

	if clientCount != 0 {
		t.Errorf("Expected 0 clients after overflow handling, got %d", clientCount)
	}
}

// TestHub_Serve tests the context-aware run loop
func TestHub_Serve(t *testing.T) {
	t.Run("shuts down on context cancellation", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := NewHub(DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.Serve(ctx)
		}()

		// Let it start
		time.Sleep(20 * time.Millisecond)

		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not return after context cancellation")
		}
	})

	t.Run("shuts down on context deadline", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := NewHub(DefaultConfig())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.Serve(ctx)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected context.DeadlineExceeded, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not return after deadline")
		}
	})

	t.Run("closes all clients on shutdown", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := NewHub(DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.Serve(ctx)
		}()

		clients := make([]*Client, 3)
		for i := 0; i < 3; i++ {
			clients[i] = createTestClient(hub)
			hub.Register <- clients[i]
		}

		// Wait for registration with polling (more reliable in CI under load)
		var clientCount int
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			clientCount = hub.GetClientCount()
			if clientCount == 3 {
				break
			}
		}

		if clientCount != 3 {
			t.Fatalf("expected 3 clients, got %d", clientCount)
		}

		cancel()

		select {
		case <-errCh:
			// Hub has shut down
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after context cancellation")
		}

		if hub.GetClientCount() != 0 {
			t.Errorf("expected 0 clients after shutdown, got %d", hub.GetClientCount())
		}
	})

	t.Run("handles messages before shutdown", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := NewHub(DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.Serve(ctx)
		}()

		client := createTestClient(hub)
		hub.Register <- client
		time.Sleep(20 * time.Millisecond)

		hub.BroadcastJSON("test_message", map[string]string{"key": "value"})

		select {
		case msg := <-client.send:
			if msg.Type != "test_message" {
				t.Errorf("expected message type 'test_message', got %q", msg.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("did not receive message")
		}

		cancel()
		<-errCh
	})
}

// TestHub_CloseAllClients tests the closeAllClients method
func TestHub_CloseAllClients(t *testing.T) {
	hub := NewHub(DefaultConfig())

	clients := make([]*Client, 5)
	for i := 0; i < 5; i++ {
		clients[i] = createTestClient(hub)
		hub.mu.Lock()
		hub.clients[clients[i]] = true
		hub.mu.Unlock()
	}

	if hub.GetClientCount() != 5 {
		t.Fatalf("expected 5 clients, got %d", hub.GetClientCount())
	}

	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	hub.closeAllClients()
	zerolog.SetGlobalLevel(oldLevel)

	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients after closeAllClients, got %d", hub.GetClientCount())
	}
}

// TestGetShutdownReason verifies shutdown reason detection from context errors.
func TestGetShutdownReason(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		expected ShutdownReason
	}{
		{
			name: "context canceled returns context_canceled",
			setupCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			expected: ShutdownReasonContextCanceled,
		},
		{
			name: "context deadline exceeded returns context_deadline",
			setupCtx: func() context.Context {
				ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
				defer cancel()
				time.Sleep(10 * time.Millisecond) // Ensure deadline passes
				return ctx
			},
			expected: ShutdownReasonContextDeadline,
		},
		{
			name: "active context has no error (edge case)",
			setupCtx: func() context.Context {
				return context.Background()
			},
			expected: ShutdownReasonContextCanceled, // Fallback behavior
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx()
			got := getShutdownReason(ctx)
			if got != tt.expected {
				t.Errorf("getShutdownReason() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestShutdownReason_Constants verifies shutdown reason constant values.
// These values appear in log output and may be parsed by log
// aggregators; changing them would break monitoring systems.
func TestShutdownReason_Constants(t *testing.T) {
	tests := []struct {
		constant ShutdownReason
		expected string
	}{
		{ShutdownReasonContextCanceled, "context_canceled"},
		{ShutdownReasonContextDeadline, "context_deadline"},
	}

	for _, tt := range tests {
		if string(tt.constant) != tt.expected {
			t.Errorf("ShutdownReason constant = %q, want %q", tt.constant, tt.expected)
		}
	}
}

// TestHub_GracefulShutdown_ZeroClients verifies shutdown with no connected clients.
func TestHub_GracefulShutdown_ZeroClients(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(oldLevel)

	hub := NewHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.Serve(ctx)
	}()

	time.Sleep(10 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.GetClientCount())
	}

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("shutdown did not complete in time")
	}
}

// TestHub_logGracefulShutdown_Idempotent verifies calling shutdown multiple times
// doesn't panic (though this shouldn't happen in production).
func TestHub_logGracefulShutdown_Idempotent(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(oldLevel)

	hub := NewHub(DefaultConfig())

	client := createTestClient(hub)
	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Pre-cancel

	// Call shutdown multiple times - should not panic
	hub.logGracefulShutdown(ctx)
	hub.logGracefulShutdown(ctx)
	hub.logGracefulShutdown(ctx)

	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients after shutdown, got %d", hub.GetClientCount())
	}
}

func BenchmarkHub_BroadcastJSON(b *testing.B) {
	hub := NewHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = hub.Serve(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 10; i++ {
		client := createTestClient(hub)
		hub.Register <- client
		go func(c *Client) {
			for range c.send {
			}
		}(client)
	}

	// Allow registrations and goroutines to start (100ms for CI reliability under load)
	time.Sleep(100 * time.Millisecond)

	testData := map[string]interface{}{"test": "data", "count": 42}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.BroadcastJSON("test", testData)
	}
}

func BenchmarkHub_RegisterUnregister(b *testing.B) {
	hub := NewHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = hub.Serve(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client := createTestClient(hub)
		hub.Register <- client
		hub.Unregister <- client
	}
}
