// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

//go:build !nats

// This file provides a no-op stub for the NATS frame relay.
// It is only compiled when the "nats" build tag is NOT enabled.
//
// Build without relay support (default):
//
//	go build -o emberforge ./cmd/server

package main

import (
	"github.com/Solaireshen97/emberforge/internal/config"
	"github.com/Solaireshen97/emberforge/internal/logging"
	"github.com/Solaireshen97/emberforge/internal/relay"
	"github.com/Solaireshen97/emberforge/internal/supervisor"
)

// initRelay is a no-op stub for non-NATS builds.
// Returns nil to indicate the relay is not available.
func initRelay(cfg *config.Config) (*relay.Relay, error) {
	if cfg.Relay.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but relay support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// addRelayToSupervisor is a no-op stub for non-NATS builds.
//
// When relay support is not compiled in (no -tags nats), this function
// does nothing. This allows main.go to call addRelayToSupervisor
// unconditionally without build tag conditionals.
func addRelayToSupervisor(_ *supervisor.SupervisorTree, _ *relay.Relay) {
	// No-op: relay not compiled in
}
