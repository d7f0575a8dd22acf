// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

/*
Package services provides suture.Service wrappers for Emberforge components.

This package adapts application components to the suture v4 supervision
model, translating lifecycle patterns into suture's context-aware Serve
pattern and giving each service a stable name for supervision logs.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (ListenAndServe to Serve pattern)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Context Runners (RunnerService):
  - Names any component with a Serve(ctx) error method
  - Used for the frame dispatcher, WebSocket hub, journal sweeper,
    analytics sink and the NATS relay
  - Pure delegation; the component owns its own shutdown

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/Solaireshen97/emberforge/internal/supervisor"
	    "github.com/Solaireshen97/emberforge/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, dispatcher *dispatch.Dispatcher, hub *websocket.Hub) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 10s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 10*time.Second)
	    tree.AddAPIService(httpSvc)

	    // Frame dispatcher
	    tree.AddSimService(services.NewRunnerService("frame-dispatcher", dispatcher))

	    // WebSocket hub
	    tree.AddSimService(services.NewRunnerService("websocket-hub", hub))

	    // Start supervision
	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles two lifecycle patterns:

Serve Pattern (already suture-shaped):

	type ContextRunner interface {
	    Serve(ctx context.Context) error
	}

	// Wrapped as:
	func (s *RunnerService) Serve(ctx context.Context) error {
	    return s.runner.Serve(ctx)
	}

ListenAndServe Pattern:

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *RunnerService) String() string {
	    return s.name
	}

Suture uses this for log messages:

	INFO frame-dispatcher: starting
	INFO frame-dispatcher: stopped
	ERROR frame-dispatcher: restarting after failure

# Testing

Services can be tested with mock components:

	type MockServer struct {
	    started  bool
	    shutdown bool
	}

	func (m *MockServer) ListenAndServe() error {
	    m.started = true
	    <-time.After(time.Hour) // Block until shutdown
	    return nil
	}

	func (m *MockServer) Shutdown(ctx context.Context) error {
	    m.shutdown = true
	    return nil
	}

# Thread Safety

All service wrappers are safe for concurrent use:
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/dispatch: Frame dispatcher implementation
  - internal/websocket: WebSocket hub implementation
*/
package services
