// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package models

// Artist is a credited artist on a track. Element 0 of a track's artist list
// is the primary artist.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
}

// Image is a cover or artist image as returned by the Spotify Web API.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// AlbumRef is the album reference carried by a play event and a song.
type AlbumRef struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

// PlayEvent is one observed playback of a track. Produced by the recent-plays
// collector, consumed once by the history merge.
type PlayEvent struct {
	TrackID      string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	Album        AlbumRef          `json:"album"`
	DurationMs   int64             `json:"duration_ms"`
	PlayedAt     string            `json:"played_at"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	PreviewURL   string            `json:"preview_url,omitempty"`
}

// PrimaryArtist returns the name of the first credited artist, or "".
func (e *PlayEvent) PrimaryArtist() string {
	if len(e.Artists) == 0 {
		return ""
	}
	return e.Artists[0].Name
}

// Key returns the song identity key of the event.
func (e *PlayEvent) Key() SongKey {
	return NewSongKey(e.Name, e.PrimaryArtist())
}

// ListeningEvent is a single play recorded against a song. PlayedAt is unique
// within a song.
type ListeningEvent struct {
	PlayedAt string `json:"played_at"`
	MsPlayed int64  `json:"ms_played"`
}

// SongAggregate is the cumulative record for one recording in the History.
// PlayCount and TotalListeningTimeMs are derived from ListeningEvents and are
// recomputed (never trusted) whenever the song is touched.
type SongAggregate struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	DurationMs           int64             `json:"duration_ms"`
	Artists              []Artist          `json:"artists"`
	Album                AlbumRef          `json:"album"`
	Genres               []string          `json:"genres"`
	ExternalURLs         map[string]string `json:"external_urls,omitempty"`
	PreviewURL           string            `json:"preview_url,omitempty"`
	PlayCount            int               `json:"play_count"`
	TotalListeningTimeMs int64             `json:"total_listening_time_ms"`
	ListeningEvents      []ListeningEvent  `json:"listening_events"`
}

// PrimaryArtist returns the song's first credited artist, or an empty Artist.
func (s *SongAggregate) PrimaryArtist() Artist {
	if len(s.Artists) == 0 {
		return Artist{}
	}
	return s.Artists[0]
}

// Key returns the song identity key.
func (s *SongAggregate) Key() SongKey {
	return NewSongKey(s.Name, s.PrimaryArtist().Name)
}

// HasEvent reports whether a listening event with playedAt is already recorded.
func (s *SongAggregate) HasEvent(playedAt string) bool {
	for _, ev := range s.ListeningEvents {
		if ev.PlayedAt == playedAt {
			return true
		}
	}
	return false
}

// DedupeEvents removes events sharing a playedAt value (first one wins),
// recomputes the derived totals and returns the number of events removed.
func (s *SongAggregate) DedupeEvents() int {
	seen := make(map[string]struct{}, len(s.ListeningEvents))
	kept := s.ListeningEvents[:0]
	for _, ev := range s.ListeningEvents {
		if _, dup := seen[ev.PlayedAt]; dup {
			continue
		}
		seen[ev.PlayedAt] = struct{}{}
		kept = append(kept, ev)
	}
	removed := len(s.ListeningEvents) - len(kept)
	s.ListeningEvents = kept
	s.Recompute()
	return removed
}

// Recompute derives PlayCount and TotalListeningTimeMs from ListeningEvents.
func (s *SongAggregate) Recompute() {
	var total int64
	for _, ev := range s.ListeningEvents {
		total += ev.MsPlayed
	}
	s.PlayCount = len(s.ListeningEvents)
	s.TotalListeningTimeMs = total
}

// Clone returns a deep copy of the song.
func (s *SongAggregate) Clone() *SongAggregate {
	c := *s
	c.Artists = append([]Artist(nil), s.Artists...)
	c.Album.Images = append([]Image(nil), s.Album.Images...)
	c.Genres = append([]string{}, s.Genres...)
	c.ListeningEvents = append([]ListeningEvent(nil), s.ListeningEvents...)
	if s.ExternalURLs != nil {
		c.ExternalURLs = make(map[string]string, len(s.ExternalURLs))
		for k, v := range s.ExternalURLs {
			c.ExternalURLs[k] = v
		}
	}
	return &c
}
