// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/snapshot"
)

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// GenerationStatus describes the newest generation of one category.
type GenerationStatus struct {
	Category   string     `json:"category"`
	Generation string     `json:"generation,omitempty"`
	WrittenAt  *time.Time `json:"written_at,omitempty"`
	Available  bool       `json:"available"`
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status        string             `json:"status"`
	Version       string             `json:"version"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	Generations   []GenerationStatus `json:"generations"`
}

// Health reports uptime and the newest generation of every category.
// The status is degraded until both a history and a full output generation exist.
//
// Method: GET
// Path: /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:        StatusHealthy,
		Version:       Version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	add := func(store *snapshot.Store, c snapshot.Category, required bool) {
		gs := GenerationStatus{Category: string(c)}
		gen, err := store.Latest(c)
		switch {
		case err == nil:
			gs.Generation = gen.Name
			written := gen.Time().UTC()
			gs.WrittenAt = &written
			gs.Available = true
		case errors.Is(err, snapshot.ErrNoGeneration):
			if required {
				status.Status = StatusDegraded
			}
		default:
			logging.Ctx(r.Context()).Warn().Err(err).Str("category", string(c)).Msg("Health check could not list generations")
			status.Status = StatusDegraded
		}
		status.Generations = append(status.Generations, gs)
	}

	add(h.history, snapshot.CategoryHistory, true)
	add(h.history, snapshot.CategoryRecentlyPlayed, false)
	for _, c := range snapshot.OutputCategories {
		add(h.outputs, c, true)
	}

	rw.Success(status)
}
