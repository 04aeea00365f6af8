// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package projection

import (
	"github.com/tomtom215/spotrank/internal/models"
)

// albumIDFor returns the song's album ID, or the song ID tagged as a
// placeholder when the history never saw the album ID.
func albumIDFor(s *models.SongAggregate) models.EntityID {
	if s.Album.ID != "" {
		return models.ResolvedID(s.Album.ID)
	}
	return models.PlaceholderID(s.ID)
}

// artistIDFor returns the primary artist's ID, or a song-ID placeholder.
func artistIDFor(s *models.SongAggregate) models.EntityID {
	if id := s.PrimaryArtist().ID; id != "" {
		return models.ResolvedID(id)
	}
	return models.PlaceholderID(s.ID)
}

func copyImages(in []models.Image) []models.Image {
	return append([]models.Image(nil), in...)
}

func copyURLs(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func artistNames(artists []models.Artist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

// SongCandidates builds one row per song, stable-sorted by play count.
func SongCandidates(songs []*models.SongAggregate) []models.RankedSong {
	rows := make([]models.RankedSong, 0, len(songs))
	for _, s := range songs {
		rows = append(rows, models.RankedSong{
			Song: models.SongInfo{
				ID:           s.ID,
				Name:         s.Name,
				DurationMs:   s.DurationMs,
				ExternalURLs: copyURLs(s.ExternalURLs),
				PreviewURL:   s.PreviewURL,
			},
			Artist: models.ArtistInfo{
				ID:   artistIDFor(s),
				Name: s.PrimaryArtist().Name,
			},
			Artists: append([]models.Artist(nil), s.Artists...),
			Album: models.AlbumInfo{
				ID:     albumIDFor(s),
				Name:   s.Album.Name,
				Images: copyImages(s.Album.Images),
			},
			Count:             s.PlayCount,
			DurationMs:        s.DurationMs,
			TotalDurationMs:   s.TotalListeningTimeMs,
			ConsolidatedCount: s.PlayCount,
			OriginalSongIDs:   []string{s.ID},
		})
	}
	sortByCount(rows, func(r *models.RankedSong) int { return r.Count })
	return rows
}

// group is a set of songs sharing a category key, in history order.
type group[K comparable] struct {
	key   K
	songs []*models.SongAggregate
}

// groupBy partitions songs by key, ordering groups by first appearance.
func groupBy[K comparable](songs []*models.SongAggregate, key func(*models.SongAggregate) K) []*group[K] {
	index := make(map[K]*group[K])
	var groups []*group[K]
	for _, s := range songs {
		k := key(s)
		g, ok := index[k]
		if !ok {
			g = &group[K]{key: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.songs = append(g.songs, s)
	}
	return groups
}

func albumKeyOf(s *models.SongAggregate) models.AlbumKey {
	return models.NewAlbumKey(s.Album.Name, s.PrimaryArtist().Name)
}

func artistKeyOf(s *models.SongAggregate) models.ArtistKey {
	return models.NewArtistKey(s.PrimaryArtist().Name)
}

// totals aggregates the numeric columns shared by album and artist rows.
type totals struct {
	plays      int
	runtimeMs  int64
	listenedMs int64
	differents int
	rawIDs     []string
}

func sumGroup(songs []*models.SongAggregate, rawID func(*models.SongAggregate) string) totals {
	var t totals
	seenSongs := make(map[string]struct{}, len(songs))
	seenIDs := make(map[string]struct{})
	for _, s := range songs {
		t.plays += s.PlayCount
		t.runtimeMs += s.DurationMs
		t.listenedMs += s.TotalListeningTimeMs
		if _, ok := seenSongs[s.ID]; !ok {
			seenSongs[s.ID] = struct{}{}
			t.differents++
		}
		if id := rawID(s); id != "" {
			if _, ok := seenIDs[id]; !ok {
				seenIDs[id] = struct{}{}
				t.rawIDs = append(t.rawIDs, id)
			}
		}
	}
	return t
}

// groupAlbumInfo takes the album ID from the first song that has one and
// images from the first song carrying any.
func groupAlbumInfo(songs []*models.SongAggregate) models.AlbumInfo {
	info := models.AlbumInfo{ID: albumIDFor(songs[0]), Name: songs[0].Album.Name}
	for _, s := range songs {
		if info.ID.IsPlaceholder() && s.Album.ID != "" {
			info.ID = models.ResolvedID(s.Album.ID)
		}
		if len(info.Images) == 0 && len(s.Album.Images) > 0 {
			info.Images = copyImages(s.Album.Images)
		}
	}
	return info
}

func groupArtistInfo(songs []*models.SongAggregate) models.ArtistInfo {
	info := models.ArtistInfo{ID: artistIDFor(songs[0]), Name: songs[0].PrimaryArtist().Name}
	for _, s := range songs {
		if info.ID.IsPlaceholder() && s.PrimaryArtist().ID != "" {
			info.ID = models.ResolvedID(s.PrimaryArtist().ID)
		}
	}
	return info
}

// AlbumCandidates groups songs by (album name, first artist).
func AlbumCandidates(songs []*models.SongAggregate) []models.RankedAlbum {
	groups := groupBy(songs, albumKeyOf)
	rows := make([]models.RankedAlbum, 0, len(groups))
	for _, g := range groups {
		t := sumGroup(g.songs, func(s *models.SongAggregate) string { return s.Album.ID })
		rows = append(rows, models.RankedAlbum{
			Album:             groupAlbumInfo(g.songs),
			Artist:            groupArtistInfo(g.songs),
			Count:             t.plays,
			TotalCount:        t.plays,
			DurationMs:        t.runtimeMs,
			TotalDurationMs:   t.listenedMs,
			Differents:        t.differents,
			ConsolidatedCount: t.plays,
			OriginalAlbumIDs:  t.rawIDs,
		})
	}
	sortByCount(rows, func(r *models.RankedAlbum) int { return r.Count })
	return rows
}

// ArtistCandidates groups songs by primary artist name.
func ArtistCandidates(songs []*models.SongAggregate) []models.RankedArtist {
	groups := groupBy(songs, artistKeyOf)
	rows := make([]models.RankedArtist, 0, len(groups))
	for _, g := range groups {
		t := sumGroup(g.songs, func(s *models.SongAggregate) string { return s.PrimaryArtist().ID })
		rows = append(rows, models.RankedArtist{
			Artist:            groupArtistInfo(g.songs),
			Count:             t.plays,
			TotalCount:        t.plays,
			DurationMs:        t.runtimeMs,
			TotalDurationMs:   t.listenedMs,
			Differents:        t.differents,
			ConsolidatedCount: t.plays,
			OriginalArtistIDs: t.rawIDs,
		})
	}
	sortByCount(rows, func(r *models.RankedArtist) int { return r.Count })
	return rows
}

// AlbumWithSongsCandidates groups songs like AlbumCandidates and nests a
// per-song breakdown, most played first.
func AlbumWithSongsCandidates(songs []*models.SongAggregate) []models.RankedAlbumWithSongs {
	groups := groupBy(songs, albumKeyOf)
	rows := make([]models.RankedAlbumWithSongs, 0, len(groups))
	for _, g := range groups {
		t := sumGroup(g.songs, func(s *models.SongAggregate) string { return s.Album.ID })

		nested := make([]models.AlbumSong, 0, len(g.songs))
		for _, s := range g.songs {
			nested = append(nested, models.AlbumSong{
				ID:                   s.ID,
				Name:                 s.Name,
				Artists:              artistNames(s.Artists),
				DurationMs:           s.DurationMs,
				PlayCount:            s.PlayCount,
				TotalListeningTimeMs: s.TotalListeningTimeMs,
			})
		}
		sortByCount(nested, func(s *models.AlbumSong) int { return s.PlayCount })

		row := models.RankedAlbumWithSongs{
			Album:            groupAlbumInfo(g.songs),
			Artist:           groupArtistInfo(g.songs),
			DurationMs:       t.runtimeMs,
			Songs:            nested,
			OriginalAlbumIDs: t.rawIDs,
		}
		row.RecountSongs()
		row.ConsolidatedCount = row.Count
		rows = append(rows, row)
	}
	sortByCount(rows, func(r *models.RankedAlbumWithSongs) int { return r.Count })
	return rows
}
