// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package relay forwards completed dispatch frames to NATS JetStream so
other nodes (analytics consumers, replica simulations, debugging tools)
can follow the event stream without reading this node's journal.

The full implementation requires the nats build tag:

	go build -tags=nats ./...

Without the tag, stubs compile in that return ErrRelayNotEnabled, which
keeps the default build free of NATS and Watermill dependencies.

When enabled, the relay can either connect to an external NATS server or
run an embedded one (single-binary deployments). Frames are published as
batch-encoded messages with the frame number as the NATS message ID, so
JetStream deduplication makes re-forwarding a frame idempotent within
the duplicate window.

Relay errors never block the simulation: the dispatcher logs and drops
failed forwards.
*/
package relay
