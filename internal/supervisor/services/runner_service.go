// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

package services

import (
	"context"
)

// ContextRunner matches components that run until their context ends.
//
// Satisfied by every long-running Emberforge component:
//   - *dispatch.Dispatcher (frame tick loop)
//   - *websocket.Hub (client fan-out loop)
//   - *journal.Sweeper (retention cleanup loop)
//   - *analytics.Sink (batch flush loop)
//   - *relay.Relay (frame forwarder, build tag: nats)
type ContextRunner interface {
	Serve(ctx context.Context) error
}

// RunnerService names a ContextRunner for supervision.
//
// The wrapped component already implements the suture.Service pattern,
// so this wrapper simply delegates to it and provides a stable name for
// suture's event log. Without it, suture would print the component's
// full struct value on every restart.
//
// Example usage:
//
//	svc := services.NewRunnerService("frame-dispatcher", dispatcher)
//	tree.AddSimService(svc)
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService creates a named service wrapper around a ContextRunner.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// Serve implements suture.Service.
//
// This method delegates to the component's Serve, which:
//  1. Runs the component's loop
//  2. Returns when the context is canceled
//  3. Cleans up its own resources on the way out
//
// The method returns ctx.Err() on normal shutdown.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.Serve(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *RunnerService) String() string {
	return s.name
}
