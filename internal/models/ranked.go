// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package models

import "strings"

// SongInfo describes the track of a ranked song row.
type SongInfo struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DurationMs   int64             `json:"duration_ms"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	PreviewURL   string            `json:"preview_url,omitempty"`
	Popularity   int               `json:"popularity,omitempty"`
}

// AlbumInfo is the descriptive album block of a ranked row. Everything except
// ID and Name may be empty until enrichment fills it.
type AlbumInfo struct {
	ID           EntityID          `json:"id"`
	Name         string            `json:"name"`
	Images       []Image           `json:"images,omitempty"`
	ReleaseDate  string            `json:"release_date,omitempty"`
	TotalTracks  int               `json:"total_tracks,omitempty"`
	Popularity   int               `json:"popularity,omitempty"`
	Genres       []string          `json:"genres,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// ArtistInfo is the descriptive artist block of a ranked row.
type ArtistInfo struct {
	ID           EntityID          `json:"id"`
	Name         string            `json:"name"`
	Images       []Image           `json:"images,omitempty"`
	Genres       []string          `json:"genres,omitempty"`
	Popularity   int               `json:"popularity,omitempty"`
	Followers    int               `json:"followers,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// RankedSong is one row of the top songs projection.
// DurationMs is the track's own runtime and is never summed.
type RankedSong struct {
	Rank              int        `json:"rank"`
	Song              SongInfo   `json:"song"`
	Artist            ArtistInfo `json:"artist"`
	Artists           []Artist   `json:"artists"`
	Album             AlbumInfo  `json:"album"`
	Count             int        `json:"count"`
	DurationMs        int64      `json:"duration_ms"`
	TotalDurationMs   int64      `json:"total_duration_ms"`
	ConsolidatedCount int        `json:"consolidated_count"`
	OriginalSongIDs   []string   `json:"original_songIds"`
}

// Key returns the consolidation key of the row.
func (r *RankedSong) Key() SongKey { return NewSongKey(r.Song.Name, r.Artist.Name) }

// RankedAlbum is one row of the top albums projection.
// DurationMs is the summed runtime of the album's distinct played songs;
// TotalDurationMs is the cumulative listening time. They are different quantities.
type RankedAlbum struct {
	Rank              int        `json:"rank"`
	Album             AlbumInfo  `json:"album"`
	Artist            ArtistInfo `json:"artist"`
	Count             int        `json:"count"`
	TotalCount        int        `json:"total_count"`
	DurationMs        int64      `json:"duration_ms"`
	TotalDurationMs   int64      `json:"total_duration_ms"`
	Differents        int        `json:"differents"`
	ConsolidatedCount int        `json:"consolidated_count"`
	OriginalAlbumIDs  []string   `json:"original_albumIds"`
}

// Key returns the consolidation key of the row.
func (r *RankedAlbum) Key() AlbumKey { return NewAlbumKey(r.Album.Name, r.Artist.Name) }

// RankedArtist is one row of the top artists projection.
type RankedArtist struct {
	Rank              int        `json:"rank"`
	Artist            ArtistInfo `json:"artist"`
	Count             int        `json:"count"`
	TotalCount        int        `json:"total_count"`
	DurationMs        int64      `json:"duration_ms"`
	TotalDurationMs   int64      `json:"total_duration_ms"`
	Differents        int        `json:"differents"`
	ConsolidatedCount int        `json:"consolidated_count"`
	OriginalArtistIDs []string   `json:"original_artistIds"`
}

// Key returns the consolidation key of the row.
func (r *RankedArtist) Key() ArtistKey { return NewArtistKey(r.Artist.Name) }

// AlbumSong is one song nested in an albums-with-songs row.
type AlbumSong struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Artists              []string `json:"artists"`
	DurationMs           int64    `json:"duration_ms"`
	TrackNumber          int      `json:"track_number,omitempty"`
	PlayCount            int      `json:"play_count"`
	TotalListeningTimeMs int64    `json:"total_listening_time_ms"`
}

// Key returns the nested-song merge key: (name, joined artist list).
func (s *AlbumSong) Key() SongKey {
	return NewSongKey(s.Name, strings.Join(s.Artists, ", "))
}

// RankedAlbumWithSongs is one row of the albums-with-songs projection.
type RankedAlbumWithSongs struct {
	Rank                 int         `json:"rank"`
	Album                AlbumInfo   `json:"album"`
	Artist               ArtistInfo  `json:"artist"`
	Count                int         `json:"count"`
	DurationMs           int64       `json:"duration_ms"`
	TotalListeningTimeMs int64       `json:"total_listening_time_ms"`
	Songs                []AlbumSong `json:"songs"`
	TotalSongs           int         `json:"total_songs"`
	PlayedSongs          int         `json:"played_songs"`
	UnplayedSongs        int         `json:"unplayed_songs"`
	ConsolidatedCount    int         `json:"consolidated_count"`
	OriginalAlbumIDs     []string    `json:"original_albumIds"`
}

// Key returns the consolidation key of the row.
func (r *RankedAlbumWithSongs) Key() AlbumKey { return NewAlbumKey(r.Album.Name, r.Artist.Name) }

// RecountSongs recomputes the derived song counters and album totals from the
// nested song list.
func (r *RankedAlbumWithSongs) RecountSongs() {
	var (
		played int
		plays  int
		total  int64
	)
	for _, s := range r.Songs {
		if s.PlayCount > 0 {
			played++
		}
		plays += s.PlayCount
		total += s.TotalListeningTimeMs
	}
	r.TotalSongs = len(r.Songs)
	r.PlayedSongs = played
	r.UnplayedSongs = len(r.Songs) - played
	r.Count = plays
	r.TotalListeningTimeMs = total
}

// ProjectionMetadata is the envelope metadata written with every ranked output.
type ProjectionMetadata struct {
	OriginalCount        int     `json:"original_count"`
	ConsolidatedCount    int     `json:"consolidated_count"`
	DuplicatesRemoved    int     `json:"duplicates_removed"`
	ConsolidationRate    float64 `json:"consolidation_rate"`
	GeneratedAt          string  `json:"generated_at"`
	TotalListeningEvents int     `json:"total_listening_events"`
}

// Projection wraps one ranked output file.
type Projection[T any] struct {
	Metadata ProjectionMetadata `json:"metadata"`
	Items    []T                `json:"items"`
}

// FillFrom copies src values into fields of s that are empty. Popularity 0 is
// treated as unset. It reports whether anything changed.
func (s *SongInfo) FillFrom(src SongInfo) bool {
	changed := fillString(&s.ID, src.ID)
	changed = fillInt64(&s.DurationMs, src.DurationMs) || changed
	changed = fillURLs(&s.ExternalURLs, src.ExternalURLs) || changed
	changed = fillString(&s.PreviewURL, src.PreviewURL) || changed
	changed = fillInt(&s.Popularity, src.Popularity) || changed
	return changed
}

// FillFrom copies src values into empty fields of a. A placeholder ID is
// replaced when src carries a resolved one; a resolved ID is never replaced.
func (a *AlbumInfo) FillFrom(src AlbumInfo) bool {
	changed := fillID(&a.ID, src.ID)
	changed = fillString(&a.Name, src.Name) || changed
	changed = fillImages(&a.Images, src.Images) || changed
	changed = fillString(&a.ReleaseDate, src.ReleaseDate) || changed
	changed = fillInt(&a.TotalTracks, src.TotalTracks) || changed
	changed = fillInt(&a.Popularity, src.Popularity) || changed
	changed = fillStrings(&a.Genres, src.Genres) || changed
	changed = fillURLs(&a.ExternalURLs, src.ExternalURLs) || changed
	return changed
}

// NeedsEnrichment reports whether any descriptive field is still empty.
func (a *AlbumInfo) NeedsEnrichment() bool {
	return a.ID.IsPlaceholder() || len(a.Images) == 0 || len(a.ExternalURLs) == 0 ||
		a.ReleaseDate == "" || a.Popularity == 0
}

// FillFrom copies src values into empty fields of a, with the same ID rule as
// AlbumInfo.FillFrom.
func (a *ArtistInfo) FillFrom(src ArtistInfo) bool {
	changed := fillID(&a.ID, src.ID)
	changed = fillString(&a.Name, src.Name) || changed
	changed = fillImages(&a.Images, src.Images) || changed
	changed = fillStrings(&a.Genres, src.Genres) || changed
	changed = fillInt(&a.Popularity, src.Popularity) || changed
	changed = fillInt(&a.Followers, src.Followers) || changed
	changed = fillURLs(&a.ExternalURLs, src.ExternalURLs) || changed
	return changed
}

// NeedsEnrichment reports whether any descriptive field is still empty.
func (a *ArtistInfo) NeedsEnrichment() bool {
	return a.ID.IsPlaceholder() || len(a.Images) == 0 || len(a.ExternalURLs) == 0 ||
		len(a.Genres) == 0 || a.Popularity == 0
}

func fillID(dst *EntityID, src EntityID) bool {
	if src.IsZero() {
		return false
	}
	if dst.IsZero() || (dst.IsPlaceholder() && !src.IsPlaceholder()) {
		*dst = src
		return true
	}
	return false
}

func fillString(dst *string, src string) bool {
	if *dst != "" || src == "" {
		return false
	}
	*dst = src
	return true
}

func fillInt(dst *int, src int) bool {
	if *dst != 0 || src == 0 {
		return false
	}
	*dst = src
	return true
}

func fillInt64(dst *int64, src int64) bool {
	if *dst != 0 || src == 0 {
		return false
	}
	*dst = src
	return true
}

func fillStrings(dst *[]string, src []string) bool {
	if len(*dst) > 0 || len(src) == 0 {
		return false
	}
	*dst = append([]string(nil), src...)
	return true
}

func fillImages(dst *[]Image, src []Image) bool {
	if len(*dst) > 0 || len(src) == 0 {
		return false
	}
	*dst = append([]Image(nil), src...)
	return true
}

func fillURLs(dst *map[string]string, src map[string]string) bool {
	if len(*dst) > 0 || len(src) == 0 {
		return false
	}
	m := make(map[string]string, len(src))
	for k, v := range src {
		m[k] = v
	}
	*dst = m
	return true
}
