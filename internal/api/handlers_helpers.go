// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/snapshot"
	"github.com/tomtom215/spotrank/internal/validation"
)

// sanitizeLogValue escapes control characters so request data cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// loadLatest returns the newest generation of c decoded with decode, serving
// repeat reads from the generation cache.
func loadLatest[T any](h *Handler, store *snapshot.Store, c snapshot.Category, decode func([]byte) (T, error)) (T, snapshot.Generation, error) {
	var zero T

	gen, err := store.Latest(c)
	if err != nil {
		return zero, gen, err
	}
	if v, ok := h.cache.Get(gen.Name); ok {
		if typed, ok := v.(T); ok {
			return typed, gen, nil
		}
	}

	var out T
	err = store.ReadWith(gen, func(data []byte) error {
		var decodeErr error
		out, decodeErr = decode(data)
		return decodeErr
	})
	if err != nil {
		return zero, gen, err
	}
	h.cache.Add(gen.Name, out)
	return out, gen, nil
}

// decodeJSON is the default generation decoder.
func decodeJSON[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// respondLoadError maps snapshot errors to API errors.
func respondLoadError(rw *ResponseWriter, r *http.Request, c snapshot.Category, err error) {
	switch {
	case errors.Is(err, snapshot.ErrNoGeneration):
		rw.NotFound(fmt.Sprintf("No %s generation has been written yet", c))
	case errors.Is(err, snapshot.ErrMalformed):
		rw.MalformedSnapshot(err)
	default:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("category", string(c)).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("Snapshot read failed")
		rw.InternalError("Failed to read snapshot")
	}
}

// validateRequest validates a struct using go-playground/validator and writes
// a validation error response when it fails.
func validateRequest(rw *ResponseWriter, v any) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rw.ValidationError(apiErr.Message, apiErr.Details)
	return false
}

// getIntParam extracts an integer query parameter. A malformed value is
// reported through ok so callers can reject it.
func getIntParam(r *http.Request, key string, defaultValue int) (value int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// paginate slices items by offset and limit.
func paginate[T any](items []T, offset, limit int) ([]T, *PaginationMeta) {
	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)
	page := items[start:end]
	return page, &PaginationMeta{
		Total:   total,
		Count:   len(page),
		Offset:  offset,
		Limit:   limit,
		HasMore: end < total,
	}
}
