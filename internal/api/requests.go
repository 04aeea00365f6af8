// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package api

import "net/http"

// Paging bounds for ranked endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// PageRequest represents the validated paging parameters of the ranked endpoints.
//
// Fields:
//   - Limit: rows per page (1-500, default 50)
//   - Offset: rows to skip (0-100000)
type PageRequest struct {
	Limit  int `validate:"min=1,max=500"`
	Offset int `validate:"min=0,max=100000"`
}

// parsePageRequest reads and validates limit/offset. It writes the error
// response itself and returns false when the request is invalid.
func parsePageRequest(rw *ResponseWriter, r *http.Request) (PageRequest, bool) {
	limit, ok := getIntParam(r, "limit", DefaultPageSize)
	if !ok {
		rw.BadRequest("limit must be an integer")
		return PageRequest{}, false
	}
	offset, ok := getIntParam(r, "offset", 0)
	if !ok {
		rw.BadRequest("offset must be an integer")
		return PageRequest{}, false
	}

	req := PageRequest{Limit: limit, Offset: offset}
	if !validateRequest(rw, &req) {
		return PageRequest{}, false
	}
	return req, true
}
