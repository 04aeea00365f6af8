// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package consolidate

import (
	"github.com/tomtom215/spotrank/internal/models"
)

var songMerge = keyedMerge[models.SongKey, models.RankedSong]{
	key:   func(r *models.RankedSong) models.SongKey { return r.Key() },
	clone: cloneSong,
	seed: func(r *models.RankedSong) {
		r.ConsolidatedCount = r.Count
		r.OriginalSongIDs = appendUnique(r.OriginalSongIDs, r.Song.ID)
	},
	merge: func(dst, src *models.RankedSong) {
		dst.Count += src.Count
		dst.ConsolidatedCount += src.Count
		dst.TotalDurationMs += src.TotalDurationMs
		// duration_ms is the track's own runtime; only backfill it.
		if dst.DurationMs == 0 {
			dst.DurationMs = src.DurationMs
		}
		dst.OriginalSongIDs = appendUnique(dst.OriginalSongIDs, src.Song.ID)
		dst.OriginalSongIDs = appendUnique(dst.OriginalSongIDs, src.OriginalSongIDs...)
		dst.Song.FillFrom(src.Song)
		dst.Artist.FillFrom(src.Artist)
		dst.Album.FillFrom(src.Album)
		if len(dst.Artists) == 0 {
			dst.Artists = append([]models.Artist(nil), src.Artists...)
		}
	},
	count: func(r *models.RankedSong) int { return r.Count },
}

// Songs consolidates song rows by (song name, artist name). Play counts and
// total listening time are summed; duration_ms is kept from the first row.
func Songs(rows []models.RankedSong) ([]models.RankedSong, Stats) {
	return songMerge.apply(rows)
}

var albumMerge = keyedMerge[models.AlbumKey, models.RankedAlbum]{
	key:   func(r *models.RankedAlbum) models.AlbumKey { return r.Key() },
	clone: cloneAlbum,
	seed: func(r *models.RankedAlbum) {
		r.ConsolidatedCount = r.Count
		r.OriginalAlbumIDs = appendUnique(r.OriginalAlbumIDs, rawID(r.Album.ID))
	},
	merge: func(dst, src *models.RankedAlbum) {
		dst.Count += src.Count
		dst.TotalCount += src.TotalCount
		dst.DurationMs += src.DurationMs
		dst.TotalDurationMs += src.TotalDurationMs
		dst.Differents += src.Differents
		dst.ConsolidatedCount += src.Count
		dst.OriginalAlbumIDs = appendUnique(dst.OriginalAlbumIDs, rawID(src.Album.ID))
		dst.OriginalAlbumIDs = appendUnique(dst.OriginalAlbumIDs, src.OriginalAlbumIDs...)
		dst.Album.FillFrom(src.Album)
		dst.Artist.FillFrom(src.Artist)
	},
	count: func(r *models.RankedAlbum) int { return r.Count },
}

// Albums consolidates album rows by (album name, first artist), summing every
// aggregate column.
func Albums(rows []models.RankedAlbum) ([]models.RankedAlbum, Stats) {
	return albumMerge.apply(rows)
}

var artistMerge = keyedMerge[models.ArtistKey, models.RankedArtist]{
	key:   func(r *models.RankedArtist) models.ArtistKey { return r.Key() },
	clone: cloneArtist,
	seed: func(r *models.RankedArtist) {
		r.ConsolidatedCount = r.Count
		r.OriginalArtistIDs = appendUnique(r.OriginalArtistIDs, rawID(r.Artist.ID))
	},
	merge: func(dst, src *models.RankedArtist) {
		dst.Count += src.Count
		dst.TotalCount += src.TotalCount
		dst.DurationMs += src.DurationMs
		dst.TotalDurationMs += src.TotalDurationMs
		dst.Differents += src.Differents
		dst.ConsolidatedCount += src.Count
		dst.OriginalArtistIDs = appendUnique(dst.OriginalArtistIDs, rawID(src.Artist.ID))
		dst.OriginalArtistIDs = appendUnique(dst.OriginalArtistIDs, src.OriginalArtistIDs...)
		dst.Artist.FillFrom(src.Artist)
	},
	count: func(r *models.RankedArtist) int { return r.Count },
}

// Artists consolidates artist rows by artist name alone.
func Artists(rows []models.RankedArtist) ([]models.RankedArtist, Stats) {
	return artistMerge.apply(rows)
}

var albumWithSongsMerge = keyedMerge[models.AlbumKey, models.RankedAlbumWithSongs]{
	key:   func(r *models.RankedAlbumWithSongs) models.AlbumKey { return r.Key() },
	clone: cloneAlbumWithSongs,
	seed: func(r *models.RankedAlbumWithSongs) {
		r.ConsolidatedCount = r.Count
		r.OriginalAlbumIDs = appendUnique(r.OriginalAlbumIDs, rawID(r.Album.ID))
	},
	merge: func(dst, src *models.RankedAlbumWithSongs) {
		dst.ConsolidatedCount += src.Count
		dst.DurationMs += src.DurationMs
		dst.OriginalAlbumIDs = appendUnique(dst.OriginalAlbumIDs, rawID(src.Album.ID))
		dst.OriginalAlbumIDs = appendUnique(dst.OriginalAlbumIDs, src.OriginalAlbumIDs...)
		dst.Album.FillFrom(src.Album)
		dst.Artist.FillFrom(src.Artist)
		dst.Songs = MergeAlbumSongs(dst.Songs, src.Songs)
		dst.RecountSongs()
	},
	count: func(r *models.RankedAlbumWithSongs) int { return r.Count },
}

// AlbumsWithSongs consolidates albums-with-songs rows by (album name, first
// artist) and merges their nested song lists.
func AlbumsWithSongs(rows []models.RankedAlbumWithSongs) ([]models.RankedAlbumWithSongs, Stats) {
	return albumWithSongsMerge.apply(rows)
}

// rawID returns the catalog ID for provenance lists; song-ID placeholders are
// not album or artist IDs and are left out.
func rawID(id models.EntityID) string {
	if id.IsPlaceholder() {
		return ""
	}
	return id.Value
}

// MergeAlbumSongs merges src into dst by (song name, joined artist list),
// summing play_count and total_listening_time_ms. Songs new to dst are
// appended in src order.
func MergeAlbumSongs(dst, src []models.AlbumSong) []models.AlbumSong {
	index := make(map[models.SongKey]int, len(dst))
	for i := range dst {
		k := dst[i].Key()
		if _, ok := index[k]; !ok {
			index[k] = i
		}
	}
	for i := range src {
		s := src[i]
		k := s.Key()
		if pos, ok := index[k]; ok {
			dst[pos].PlayCount += s.PlayCount
			dst[pos].TotalListeningTimeMs += s.TotalListeningTimeMs
			if dst[pos].DurationMs == 0 {
				dst[pos].DurationMs = s.DurationMs
			}
			if dst[pos].TrackNumber == 0 {
				dst[pos].TrackNumber = s.TrackNumber
			}
			continue
		}
		index[k] = len(dst)
		s.Artists = append([]string(nil), s.Artists...)
		dst = append(dst, s)
	}
	return dst
}
