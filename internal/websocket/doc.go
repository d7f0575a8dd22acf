// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package websocket pushes live game updates to connected clients.

The hub fans gameplay event envelopes, settlement notifications and
simulation counters out to every connected frontend. It uses the
gorilla/websocket library with a hub-client architecture so one
dispatch-side write reaches all clients.

Key Components:

  - Hub: central broker that manages client connections and broadcasts
  - Client: one WebSocket connection with read/write goroutines
  - FrameSubscriber: optional bridge replaying relayed frames into the hub

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: reads from the connection, answers application pings
  - writePump: writes hub messages, sends protocol-level keepalive pings

Message Types:

  - event: one gameplay event envelope (frame, type, actor, target)
  - settlement: an offline settlement completed for a player
  - stats_update: live counters changed (current frame, active battles)
  - ping / pong: application-level keepalive

Usage:

	hub := websocket.NewHub(websocket.DefaultConfig())
	go hub.Serve(ctx)

	// Push gameplay events straight from the dispatcher.
	dispatcher.RegisterHandler(event.TypePlayerAttack, hub)

	// HTTP upgrade endpoint (see internal/api).
	client := websocket.NewClient(hub, conn)
	hub.Register <- client
	client.Start()

Client side (JavaScript):

	const ws = new WebSocket('ws://localhost:6250/api/v1/ws');
	ws.onmessage = (e) => {
	    const msg = JSON.parse(e.data);
	    if (msg.type === 'event') {
	        renderCombatLog(msg.data);
	    }
	    if (msg.type === 'settlement') {
	        showOfflineSummary(msg.data);
	    }
	};

Connection Lifecycle:

 1. Client connects via HTTP upgrade
 2. Hub registers the client (or refuses it at MaxClients)
 3. Client starts read/write goroutines
 4. Hub broadcasts messages in client-ID order
 5. Client disconnects, falls behind its send buffer, or the hub shuts down
 6. Hub unregisters the client and closes its channel

Push delivery is best effort by design. A full broadcast queue drops the
message, and a client whose send buffer stays full is disconnected so it
cannot stall the rest. Nothing on this path can block a dispatch frame.

Thread Safety:

The hub goroutine owns the client set; Register/Unregister channels
serialize lifecycle changes, a mutex guards concurrent count reads, and
each client's connection is only written by its own write pump.
*/
package websocket
