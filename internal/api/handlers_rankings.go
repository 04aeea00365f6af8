// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package api

import (
	"net/http"

	"github.com/tomtom215/spotrank/internal/history"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/snapshot"
)

// RankedPage is the body of the ranked endpoints: the generation metadata and
// one page of rows.
type RankedPage[T any] struct {
	Metadata models.ProjectionMetadata `json:"metadata"`
	Items    []T                       `json:"items"`
}

// HistorySummary is the body of the history summary endpoint.
type HistorySummary struct {
	Metadata      models.HistoryMetadata `json:"metadata"`
	DistinctSongs int                    `json:"distinct_songs"`
	PlayedSongs   int                    `json:"played_songs"`
}

// serveRanked writes one page of the latest generation of category c.
func serveRanked[T any](h *Handler, w http.ResponseWriter, r *http.Request, c snapshot.Category) {
	rw := NewResponseWriter(w, r)

	page, ok := parsePageRequest(rw, r)
	if !ok {
		return
	}

	proj, gen, err := loadLatest(h, h.outputs, c, decodeJSON[models.Projection[T]])
	if err != nil {
		respondLoadError(rw, r, c, err)
		return
	}

	items, pagination := paginate(proj.Items, page.Offset, page.Limit)
	if items == nil {
		items = []T{}
	}
	rw.SuccessWithMeta(RankedPage[T]{Metadata: proj.Metadata, Items: items}, &APIMeta{
		Generation: gen.Name,
		Pagination: pagination,
	})
}

// Songs returns the top songs.
//
// Method: GET
// Path: /api/v1/songs
// Query: limit (1-500, default 50), offset (default 0)
func (h *Handler) Songs(w http.ResponseWriter, r *http.Request) {
	serveRanked[models.RankedSong](h, w, r, snapshot.CategorySongs)
}

// Albums returns the top albums.
//
// Method: GET
// Path: /api/v1/albums
func (h *Handler) Albums(w http.ResponseWriter, r *http.Request) {
	serveRanked[models.RankedAlbum](h, w, r, snapshot.CategoryAlbums)
}

// Artists returns the top artists.
//
// Method: GET
// Path: /api/v1/artists
func (h *Handler) Artists(w http.ResponseWriter, r *http.Request) {
	serveRanked[models.RankedArtist](h, w, r, snapshot.CategoryArtists)
}

// AlbumsWithSongs returns the top albums with their nested song lists.
//
// Method: GET
// Path: /api/v1/albums-with-songs
func (h *Handler) AlbumsWithSongs(w http.ResponseWriter, r *http.Request) {
	serveRanked[models.RankedAlbumWithSongs](h, w, r, snapshot.CategoryAlbumsWithSongs)
}

// HistorySummary returns the metadata block of the latest history generation.
// Legacy history shapes are upgraded on read.
//
// Method: GET
// Path: /api/v1/history/summary
func (h *Handler) HistorySummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hist, gen, err := loadLatest(h, h.history, snapshot.CategoryHistory, history.Decode)
	if err != nil {
		respondLoadError(rw, r, snapshot.CategoryHistory, err)
		return
	}

	summary := HistorySummary{Metadata: hist.Metadata, DistinctSongs: len(hist.Songs)}
	for _, s := range hist.Songs {
		if s.PlayCount > 0 {
			summary.PlayedSongs++
		}
	}
	rw.SuccessWithMeta(summary, &APIMeta{Generation: gen.Name})
}
