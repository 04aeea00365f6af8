// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/validation"
)

// PlayedAtLayout is the canonical played_at form: RFC3339, UTC, second precision.
const PlayedAtLayout = "2006-01-02T15:04:05Z"

// CanonicalPlayedAt parses an RFC3339 timestamp (fractional seconds and
// offsets allowed) and renders it in PlayedAtLayout.
func CanonicalPlayedAt(s string) (string, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid played_at %q: %w", s, err)
	}
	return t.UTC().Truncate(time.Second).Format(PlayedAtLayout), nil
}

// Normalize validates one raw recent-play record and converts it into a PlayEvent.
func Normalize(raw models.RawRecentPlay) (models.PlayEvent, error) {
	flat := raw.Flatten()

	if verr := validation.ValidateStruct(&flat); verr != nil {
		return models.PlayEvent{}, verr
	}

	playedAt, err := CanonicalPlayedAt(flat.PlayedAt)
	if err != nil {
		return models.PlayEvent{}, err
	}

	artists := make([]models.Artist, len(flat.Artists))
	for i, a := range flat.Artists {
		artists[i] = models.Artist{ID: a.ID, Name: strings.TrimSpace(a.Name)}
	}

	album := flat.Album
	album.Name = strings.TrimSpace(album.Name)
	album.Images = append([]models.Image(nil), album.Images...)

	return models.PlayEvent{
		TrackID:      flat.ID,
		Name:         strings.TrimSpace(flat.Name),
		Artists:      artists,
		Album:        album,
		DurationMs:   flat.DurationMs,
		PlayedAt:     playedAt,
		ExternalURLs: flat.ExternalURLs,
		PreviewURL:   flat.PreviewURL,
	}, nil
}

// NormalizeBatch normalizes a batch of raw records. Invalid records are logged
// and counted, never fatal.
func NormalizeBatch(raws []models.RawRecentPlay) (events []models.PlayEvent, rejected int) {
	events = make([]models.PlayEvent, 0, len(raws))
	for i := range raws {
		ev, err := Normalize(raws[i])
		if err != nil {
			rejected++
			logging.Warn().
				Err(err).
				Int("index", i).
				Str("played_at", raws[i].PlayedAt).
				Msg("Skipping invalid recent play")
			continue
		}
		events = append(events, ev)
	}
	return events, rejected
}

// NewSongFromEvent seeds a one-event SongAggregate. Genres start empty because
// play events do not carry them; the single play counts the full track length.
func NewSongFromEvent(ev models.PlayEvent) *models.SongAggregate {
	s := &models.SongAggregate{
		ID:           ev.TrackID,
		Name:         ev.Name,
		DurationMs:   ev.DurationMs,
		Artists:      append([]models.Artist(nil), ev.Artists...),
		Album:        ev.Album,
		Genres:       []string{},
		PreviewURL:   ev.PreviewURL,
		ExternalURLs: copyURLs(ev.ExternalURLs),
		ListeningEvents: []models.ListeningEvent{
			{PlayedAt: ev.PlayedAt, MsPlayed: ev.DurationMs},
		},
	}
	s.Album.Images = append([]models.Image(nil), ev.Album.Images...)
	s.Recompute()
	return s
}

func copyURLs(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
