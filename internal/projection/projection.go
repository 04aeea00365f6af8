// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package projection derives the ranked top songs, albums, artists and
// albums-with-songs views from a History.
//
// Projections are pure: they never mutate the History and are rebuilt from
// scratch on every run. Each category is grouped by its identity key, handed
// to the consolidation engine, truncated to its limit and ranked 1..n in
// final sort order.
//
// Albums and artists carry two durations that must not be confused:
// duration_ms is the summed runtime of the group's distinct songs, and
// total_duration_ms is the cumulative listening time.
package projection

import (
	"sort"
	"time"

	"github.com/tomtom215/spotrank/internal/consolidate"
	"github.com/tomtom215/spotrank/internal/models"
)

// Limits caps the number of rows kept per category.
type Limits struct {
	Songs           int
	Albums          int
	Artists         int
	AlbumsWithSongs int
}

// DefaultLimits returns the standard caps: 500 rows for songs, albums and
// artists, 100 for albums-with-songs.
func DefaultLimits() Limits {
	return Limits{Songs: 500, Albums: 500, Artists: 500, AlbumsWithSongs: 100}
}

// Set is one full generation of ranked outputs.
type Set struct {
	Songs           models.Projection[models.RankedSong]
	Albums          models.Projection[models.RankedAlbum]
	Artists         models.Projection[models.RankedArtist]
	AlbumsWithSongs models.Projection[models.RankedAlbumWithSongs]
}

// Build derives every projection from h. now stamps metadata.generated_at.
func Build(h *models.History, limits Limits, now time.Time) Set {
	if h == nil {
		h = models.NewHistory()
	}
	generatedAt := now.UTC().Format(time.RFC3339)
	events := h.Metadata.TotalListeningEvents

	played := playedSongs(h)

	songs, songStats := consolidate.Songs(SongCandidates(played))
	albums, albumStats := consolidate.Albums(AlbumCandidates(played))
	artists, artistStats := consolidate.Artists(ArtistCandidates(played))
	withSongs, withSongsStats := consolidate.AlbumsWithSongs(AlbumWithSongsCandidates(played))

	songs = truncate(songs, limits.Songs)
	albums = truncate(albums, limits.Albums)
	artists = truncate(artists, limits.Artists)
	withSongs = truncate(withSongs, limits.AlbumsWithSongs)

	for i := range songs {
		songs[i].Rank = i + 1
	}
	for i := range albums {
		albums[i].Rank = i + 1
	}
	for i := range artists {
		artists[i].Rank = i + 1
	}
	for i := range withSongs {
		withSongs[i].Rank = i + 1
	}

	return Set{
		Songs:           models.Projection[models.RankedSong]{Metadata: metadata(songStats, generatedAt, events), Items: songs},
		Albums:          models.Projection[models.RankedAlbum]{Metadata: metadata(albumStats, generatedAt, events), Items: albums},
		Artists:         models.Projection[models.RankedArtist]{Metadata: metadata(artistStats, generatedAt, events), Items: artists},
		AlbumsWithSongs: models.Projection[models.RankedAlbumWithSongs]{Metadata: metadata(withSongsStats, generatedAt, events), Items: withSongs},
	}
}

// Restamp refreshes the generation timestamp on every projection of the set.
func (s *Set) Restamp(now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	s.Songs.Metadata.GeneratedAt = ts
	s.Albums.Metadata.GeneratedAt = ts
	s.Artists.Metadata.GeneratedAt = ts
	s.AlbumsWithSongs.Metadata.GeneratedAt = ts
}

func metadata(stats consolidate.Stats, generatedAt string, events int) models.ProjectionMetadata {
	return models.ProjectionMetadata{
		OriginalCount:        stats.Original,
		ConsolidatedCount:    stats.Consolidated,
		DuplicatesRemoved:    stats.DuplicatesRemoved,
		ConsolidationRate:    stats.Rate,
		GeneratedAt:          generatedAt,
		TotalListeningEvents: events,
	}
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// playedSongs returns the songs with at least one play. Groups are driven by
// plays, so a zero-play placeholder row is never produced.
func playedSongs(h *models.History) []*models.SongAggregate {
	out := make([]*models.SongAggregate, 0, len(h.Songs))
	for _, s := range h.Songs {
		if s.PlayCount > 0 {
			out = append(out, s)
		}
	}
	return out
}

// sortByCount stable-sorts rows by count, descending.
func sortByCount[T any](rows []T, count func(*T) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		return count(&rows[i]) > count(&rows[j])
	})
}
