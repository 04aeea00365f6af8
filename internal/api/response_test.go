// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spotrank/internal/logging"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return response
}

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-1"))

	NewResponseWriter(w, r).Success(map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	response := decodeResponse(t, w)
	if !response.Success {
		t.Error("Expected Success to be true")
	}
	if response.Error != nil {
		t.Error("Expected Error to be nil")
	}
	if response.Meta == nil {
		t.Fatal("Expected Meta to not be nil")
	}
	if response.Meta.Timestamp.IsZero() {
		t.Error("Expected Timestamp to be set")
	}
	if response.Meta.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", response.Meta.RequestID)
	}
}

func TestResponseWriter_SuccessWithMeta(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).SuccessWithMeta([]string{"item1", "item2"}, &APIMeta{
		Generation: "cleaned-songs-1700000000000.json",
		Pagination: &PaginationMeta{Total: 100, Count: 2, Limit: 2, HasMore: true},
	})

	response := decodeResponse(t, w)
	if response.Meta == nil || response.Meta.Pagination == nil {
		t.Fatal("Expected pagination metadata")
	}
	if response.Meta.Pagination.Total != 100 || !response.Meta.Pagination.HasMore {
		t.Errorf("Pagination = %+v", response.Meta.Pagination)
	}
	if response.Meta.Generation != "cleaned-songs-1700000000000.json" {
		t.Errorf("Generation = %q", response.Meta.Generation)
	}
}

func TestResponseWriter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(rw *ResponseWriter) { rw.BadRequest("invalid input") }, http.StatusBadRequest, ErrCodeBadRequest},
		{"not found", func(rw *ResponseWriter) { rw.NotFound("missing") }, http.StatusNotFound, ErrCodeNotFound},
		{"too many requests", func(rw *ResponseWriter) { rw.TooManyRequests("slow down") }, http.StatusTooManyRequests, ErrCodeTooManyRequests},
		{"internal", func(rw *ResponseWriter) { rw.InternalError("boom") }, http.StatusInternalServerError, ErrCodeInternalError},
		{"malformed snapshot", func(rw *ResponseWriter) { rw.MalformedSnapshot(errors.New("unexpected EOF")) }, http.StatusInternalServerError, ErrCodeMalformedSnapshot},
		{"custom", func(rw *ResponseWriter) {
			rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "later")
		}, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			tt.write(NewResponseWriter(w, r))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			response := decodeResponse(t, w)
			if response.Success {
				t.Error("Expected Success to be false")
			}
			if response.Error == nil {
				t.Fatal("Expected Error to not be nil")
			}
			if response.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", response.Error.Code, tt.wantCode)
			}
			if response.Data != nil {
				t.Errorf("Data = %v, want nil", response.Data)
			}
		})
	}
}

func TestResponseWriter_MalformedSnapshotHidesCause(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).MalformedSnapshot(errors.New("/data/secret/path.json: unexpected EOF"))

	response := decodeResponse(t, w)
	if response.Error.Message != "The latest snapshot could not be read" {
		t.Errorf("Message = %q", response.Error.Message)
	}
}

func TestResponseWriter_ValidationError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).ValidationError("validation failed", map[string]any{"limit": "must be at most 500"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	response := decodeResponse(t, w)
	if response.Error.Code != ErrCodeValidationFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeValidationFailed, response.Error.Code)
	}
	if response.Error.Details == nil {
		t.Error("Expected validation details")
	}
}

func TestResponseWriter_ContentType(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).Success("test")

	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Expected 'application/json; charset=utf-8', got '%s'", got)
	}
}
