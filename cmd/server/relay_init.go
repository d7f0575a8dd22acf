// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

//go:build nats

// This file provides NATS frame relay integration.
// It is only compiled when the "nats" build tag is enabled.
//
// Build with relay support:
//
//	go build -tags nats -o emberforge ./cmd/server

package main

import (
	"github.com/Solaireshen97/emberforge/internal/config"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/relay"
	"github.com/Solaireshen97/emberforge/internal/supervisor"
	"github.com/Solaireshen97/emberforge/internal/supervisor/services"
)

// initRelay creates the frame relay when NATS_ENABLED=true. With the
// embedded server configured it also starts an in-process NATS server,
// so single-binary deployments need no external broker.
//
// Returns nil, nil when the relay is disabled via config; the dispatcher
// then persists frames to the journal only.
func initRelay(cfg *config.Config) (*relay.Relay, error) {
	if !cfg.Relay.Enabled {
		logging.Info().Msg("Frame relay disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	rly, err := relay.New(relayConfig(cfg), nil)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Str("url", rly.ClientURL()).
		Str("stream", cfg.Relay.StreamName).
		Str("subject", cfg.Relay.Subject).
		Bool("embedded", cfg.Relay.EmbeddedServer).
		Msg("Frame relay initialized")
	return rly, nil
}

// addRelayToSupervisor places the relay under the simulation layer so
// it restarts alongside the dispatcher and hub.
//
// This function is a no-op if rly is nil (relay disabled via config).
func addRelayToSupervisor(tree *supervisor.SupervisorTree, rly *relay.Relay) {
	if rly == nil {
		return
	}
	tree.AddSimService(services.NewRunnerService("frame-relay", rly))
	logging.Info().Msg("Frame relay added to supervisor tree (sim layer)")
}
