// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package api provides standardized API response handling.
// All endpoints share one response envelope for consistent client handling.
package api

import "time"

// APIResponse is the standardized response wrapper for all API endpoints.
type APIResponse struct {
	// Status is "success" for successful requests and "error" otherwise.
	Status string `json:"status"`

	// Data contains the response payload (null on error).
	Data interface{} `json:"data"`

	// Metadata carries response timing for observability.
	Metadata Metadata `json:"metadata"`

	// Error contains error details (null on success).
	Error *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	// Timestamp is server time when the response was generated.
	Timestamp time.Time `json:"timestamp"`

	// RequestID is the unique request identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Fields:
//   - Code: Machine-readable error code (e.g., "VALIDATION_ERROR", "NOT_FOUND")
//   - Message: Human-readable error message
//   - Details: Additional context (field names, constraints, etc.)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes for API responses.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_ERROR"
	ErrCodeStorageError       = "STORAGE_ERROR"

	// Settlement rejection codes. Each maps one security check to an
	// explicit, user-facing reason.
	ErrCodeClockRollback      = "CLOCK_ROLLBACK"
	ErrCodeAbsenceTooLong     = "ABSENCE_TOO_LONG"
	ErrCodeSessionActive      = "SESSION_ACTIVE"
	ErrCodeSettlementInFlight = "SETTLEMENT_IN_FLIGHT"
)
