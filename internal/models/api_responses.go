// Beacon - Live Location Sharing Service
// Copyright 2026 Beacon Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/beaconhq/beacon

package models

import "time"

// APIError represents a structured error with a machine-readable code.
//
// Common codes:
//   - VALIDATION_ERROR: request payload failed shape/range validation
//   - UNAUTHENTICATED: missing, invalid, or expired credential
//   - NOT_FOUND: referenced tracker or resource does not exist
//   - CONFLICT: resource already exists (e.g. duplicate email)
//   - INTERNAL_ERROR: unexpected server-side failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIResponse is the uniform envelope for error responses. Successful
// responses return their payload directly so the REST shapes match the
// published contract (e.g. GET /api/trackers -> Tracker[]).
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// NewErrorResponse builds the error envelope for a failed request.
func NewErrorResponse(code, message string) APIResponse {
	return APIResponse{
		Status:   "error",
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error:    &APIError{Code: code, Message: message},
	}
}

// NewErrorResponseWithDetails builds an error envelope carrying
// field-level detail, used for validation failures.
func NewErrorResponseWithDetails(apiErr *APIError) APIResponse {
	return APIResponse{
		Status:   "error",
		Metadata: Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	}
}

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the POST /api/auth/register body.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string  `json:"status"`
	Version  string  `json:"version"`
	Database bool    `json:"database"`
	Uptime   float64 `json:"uptime_seconds"`
}

// SimulationStatus is returned by GET /api/trackers/simulation/status.
type SimulationStatus struct {
	IsActive bool `json:"isActive"`
}
