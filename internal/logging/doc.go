// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package logging provides centralized zerolog-based structured logging for Emberforge.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development. All server components (dispatcher, queue,
// offline settlement, API handlers) log through this package so that output
// format, level filtering, and field naming stay consistent.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with correlation ID propagation
//   - slog adapter for Suture v4 supervision tree integration
//
// # Quick Start
//
//	import "github.com/Solaireshen97/emberforge/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Uint64("frame", frame).Msg("Dispatch complete")
//	logging.Error().Err(err).Uint64("player", id).Msg("Settlement failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Str("request_id", reqID).Msg("Processing")
//
// # Component Loggers
//
// Long-lived components should create a child logger with a component field
// so every line they emit is attributable:
//
//	logger := logging.WithComponent("dispatcher")
//	logger.Info().Int("workers", n).Msg("Worker pool started")
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting:
//
//	logging.Info().Uint64("actor", a).Int("count", n).Msg("processed")  // Correct
//	logging.Info().Msgf("processed %d events for %d", n, a)             // Avoid
package logging
