// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator with one custom tag and
// translates field failures into human-readable messages and the dashboard
// API's error format.
//
// # Where it is used
//
//   - internal/history: every raw recent-play record is checked before it is
//     normalized; rejected records are counted and logged, never fatal.
//   - internal/api: paging query parameters (limit, offset) are bound to a
//     request struct and validated before a generation is read.
//
// # Custom Tags
//
//   - spotify_time: an RFC3339 timestamp with optional fractional seconds,
//     the format Spotify uses for played_at ("2024-01-01T10:00:00.123Z").
//
// # Error Types
//
// ValidationError is a single field failure with Field, Tag, Param, Value and
// a translated message. RequestValidationError aggregates them and converts to
// an APIError with code VALIDATION_ERROR:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Thread Safety
//
// GetValidator initializes the validator once; it caches struct reflection
// data and is safe for concurrent use.
package validation
