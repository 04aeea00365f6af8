// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package api

import (
	"time"

	"github.com/tomtom215/spotrank/internal/cache"
	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/snapshot"
)

// Version is reported by the health endpoint. Set at build time with
// -ldflags "-X github.com/tomtom215/spotrank/internal/api.Version=...".
var Version = "dev"

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: generation loading and paging helpers
//   - handlers_health.go: health endpoint
//   - handlers_rankings.go: ranked output and history summary endpoints
type Handler struct {
	history   *snapshot.Store // listening-history and recently-played
	outputs   *snapshot.Store // cleaned-* generations
	cache     *cache.LRU[any]
	startTime time.Time
}

// NewHandler creates a handler reading from the two snapshot stores.
// Decoded generations are cached by file name; generation files are never
// rewritten, so a new generation is a new key.
func NewHandler(history, outputs *snapshot.Store, cfg *config.ServerConfig) *Handler {
	return &Handler{
		history:   history,
		outputs:   outputs,
		cache:     cache.NewLRU[any]("generations", cfg.CacheEntries, cfg.CacheTTL),
		startTime: time.Now(),
	}
}

// ClearCache drops every decoded generation.
func (h *Handler) ClearCache() {
	h.cache.Clear()
	logging.Debug().Msg("Generation cache cleared")
}
