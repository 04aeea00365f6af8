// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package models

// HistorySchemaVersion is the current on-disk history shape.
const HistorySchemaVersion = 2

// DateRange is the [Start, End] span of recorded plays (RFC3339 strings).
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HistoryMetadata summarizes a History snapshot.
type HistoryMetadata struct {
	SchemaVersion        int       `json:"schema_version"`
	TotalSongs           int       `json:"total_songs"`
	TotalListeningTimeMs int64     `json:"total_listening_time_ms"`
	TotalListeningEvents int       `json:"total_listening_events"`
	DateRange            DateRange `json:"date_range"`
	LastUpdated          string    `json:"last_updated"`
}

// History is the cumulative, deduplicated per-song play record. It is the
// single source of truth every projection is rebuilt from.
type History struct {
	Metadata HistoryMetadata  `json:"metadata"`
	Songs    []*SongAggregate `json:"songs"`
}

// NewHistory returns an empty history in the current schema.
func NewHistory() *History {
	return &History{
		Metadata: HistoryMetadata{SchemaVersion: HistorySchemaVersion},
		Songs:    []*SongAggregate{},
	}
}

// Clone returns a deep copy of the history.
func (h *History) Clone() *History {
	c := &History{Metadata: h.Metadata, Songs: make([]*SongAggregate, 0, len(h.Songs))}
	for _, s := range h.Songs {
		c.Songs = append(c.Songs, s.Clone())
	}
	return c
}

// RecomputeMetadata refreshes the summary totals and date range from the songs.
// LastUpdated is left to the caller.
func (h *History) RecomputeMetadata() {
	var (
		totalTime   int64
		totalEvents int
		start, end  string
	)
	for _, s := range h.Songs {
		totalTime += s.TotalListeningTimeMs
		totalEvents += len(s.ListeningEvents)
		for _, ev := range s.ListeningEvents {
			// RFC3339 UTC strings with second precision sort lexicographically
			if start == "" || ev.PlayedAt < start {
				start = ev.PlayedAt
			}
			if end == "" || ev.PlayedAt > end {
				end = ev.PlayedAt
			}
		}
	}
	h.Metadata.SchemaVersion = HistorySchemaVersion
	h.Metadata.TotalSongs = len(h.Songs)
	h.Metadata.TotalListeningTimeMs = totalTime
	h.Metadata.TotalListeningEvents = totalEvents
	h.Metadata.DateRange = DateRange{Start: start, End: end}
}
