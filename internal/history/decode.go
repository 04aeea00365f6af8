// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package history

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tomtom215/spotrank/internal/models"
)

// storedSong is a song as it may appear on disk in any supported schema.
type storedSong struct {
	models.SongAggregate
	// PlayHistory is the schema v1 list of played_at timestamps.
	PlayHistory []string `json:"play_history,omitempty"`
}

type storedHistory struct {
	Metadata *models.HistoryMetadata `json:"metadata"`
	Songs    []storedSong            `json:"songs"`
}

// Decode parses a history snapshot, upgrading legacy shapes to the current
// schema. Derived song fields and metadata totals are always recomputed.
func Decode(data []byte) (*models.History, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty history document")
	}

	var stored storedHistory
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &stored.Songs); err != nil {
			return nil, fmt.Errorf("decode legacy history array: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &stored); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	h := models.NewHistory()
	if stored.Metadata != nil {
		h.Metadata.LastUpdated = stored.Metadata.LastUpdated
	}

	for i := range stored.Songs {
		h.Songs = append(h.Songs, upgradeSong(&stored.Songs[i]))
	}
	h.RecomputeMetadata()

	return h, nil
}

// upgradeSong converts a stored song to the current shape. Schema v1 play
// histories become listening events that count the full track length, and
// every played_at is rewritten in PlayedAtLayout.
func upgradeSong(s *storedSong) *models.SongAggregate {
	song := s.SongAggregate
	if len(song.ListeningEvents) == 0 && len(s.PlayHistory) > 0 {
		song.ListeningEvents = make([]models.ListeningEvent, 0, len(s.PlayHistory))
		for _, playedAt := range s.PlayHistory {
			song.ListeningEvents = append(song.ListeningEvents, models.ListeningEvent{
				PlayedAt: playedAt,
				MsPlayed: song.DurationMs,
			})
		}
	}
	if song.ListeningEvents == nil {
		song.ListeningEvents = []models.ListeningEvent{}
	}
	for i := range song.ListeningEvents {
		// unparseable values stay as stored
		if playedAt, err := CanonicalPlayedAt(song.ListeningEvents[i].PlayedAt); err == nil {
			song.ListeningEvents[i].PlayedAt = playedAt
		}
	}
	if song.Genres == nil {
		song.Genres = []string{}
	}
	song.Recompute()
	return &song
}

// Encode renders a History in the current schema.
func Encode(h *models.History) ([]byte, error) {
	return json.MarshalIndent(h, "", "  ")
}
