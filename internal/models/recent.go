// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package models

// RawTrack is the track object inside a recently-played item.
type RawTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Album        AlbumRef          `json:"album"`
	DurationMs   int64             `json:"duration_ms"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	PreviewURL   string            `json:"preview_url,omitempty"`
}

// RawRecentPlay is one entry of a recent-plays batch. Two shapes are accepted:
// the flat collector shape {id, name, artists, album, duration_ms, played_at, ...}
// and the Spotify envelope {track: {...}, played_at}. Flatten resolves both.
type RawRecentPlay struct {
	ID           string            `json:"id,omitempty" validate:"required"`
	Name         string            `json:"name,omitempty" validate:"required"`
	Artists      []Artist          `json:"artists,omitempty" validate:"min=1,dive"`
	Album        AlbumRef          `json:"album,omitempty"`
	DurationMs   int64             `json:"duration_ms,omitempty" validate:"gte=0"`
	PlayedAt     string            `json:"played_at" validate:"required,spotify_time"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	PreviewURL   string            `json:"preview_url,omitempty"`
	Track        *RawTrack         `json:"track,omitempty" validate:"-"`
}

// Flatten returns the flat form, lifting the envelope's track fields when present.
func (r RawRecentPlay) Flatten() RawRecentPlay {
	if r.Track == nil {
		return r
	}
	t := r.Track
	return RawRecentPlay{
		ID:           t.ID,
		Name:         t.Name,
		Artists:      t.Artists,
		Album:        t.Album,
		DurationMs:   t.DurationMs,
		PlayedAt:     r.PlayedAt,
		ExternalURLs: t.ExternalURLs,
		PreviewURL:   t.PreviewURL,
	}
}

// RecentPlays is the recently-played snapshot written by the collector.
type RecentPlays struct {
	FetchedAt string          `json:"fetched_at"`
	Items     []RawRecentPlay `json:"items"`
}
