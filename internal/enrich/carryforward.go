// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package enrich

import (
	"github.com/tomtom215/spotrank/internal/metrics"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/projection"
)

// index finds a previous row by identity key first, then by raw ID.
type index[K comparable, T any] struct {
	byKey map[K]*T
	byID  map[string]*T
}

func newIndex[K comparable, T any](rows []T, key func(*T) K, id func(*T) string) index[K, T] {
	idx := index[K, T]{
		byKey: make(map[K]*T, len(rows)),
		byID:  make(map[string]*T, len(rows)),
	}
	for i := range rows {
		row := &rows[i]
		if _, ok := idx.byKey[key(row)]; !ok {
			idx.byKey[key(row)] = row
		}
		if v := id(row); v != "" {
			if _, ok := idx.byID[v]; !ok {
				idx.byID[v] = row
			}
		}
	}
	return idx
}

func (idx index[K, T]) find(key K, id string) *T {
	if row, ok := idx.byKey[key]; ok {
		return row
	}
	if id == "" {
		return nil
	}
	return idx.byID[id]
}

// CarryForward copies descriptive metadata from the previous generation into
// empty fields of set. It returns the number of rows that gained data.
// A nil previous set is a no-op.
func CarryForward(set, previous *projection.Set) int {
	if set == nil || previous == nil {
		return 0
	}

	filled := carrySongs(set.Songs.Items, previous.Songs.Items)
	filled += carryAlbums(set.Albums.Items, previous.Albums.Items)
	filled += carryArtists(set.Artists.Items, previous.Artists.Items)
	filled += carryAlbumsWithSongs(set.AlbumsWithSongs.Items, previous.AlbumsWithSongs.Items)
	return filled
}

func carrySongs(rows, prev []models.RankedSong) int {
	idx := newIndex(prev,
		func(r *models.RankedSong) models.SongKey { return r.Key() },
		func(r *models.RankedSong) string { return r.Song.ID })

	filled := 0
	for i := range rows {
		row := &rows[i]
		p := idx.find(row.Key(), row.Song.ID)
		if p == nil {
			continue
		}
		changed := row.Song.FillFrom(p.Song)
		changed = row.Album.FillFrom(p.Album) || changed
		changed = row.Artist.FillFrom(p.Artist) || changed
		if changed {
			filled++
		}
	}
	recordFilled("songs", sourceCarryForward, filled)
	return filled
}

func carryAlbums(rows, prev []models.RankedAlbum) int {
	idx := newIndex(prev,
		func(r *models.RankedAlbum) models.AlbumKey { return r.Key() },
		func(r *models.RankedAlbum) string { return r.Album.ID.Value })

	filled := 0
	for i := range rows {
		row := &rows[i]
		p := idx.find(row.Key(), row.Album.ID.Value)
		if p == nil {
			continue
		}
		changed := row.Album.FillFrom(p.Album)
		changed = row.Artist.FillFrom(p.Artist) || changed
		if changed {
			filled++
		}
	}
	recordFilled("albums", sourceCarryForward, filled)
	return filled
}

func carryArtists(rows, prev []models.RankedArtist) int {
	idx := newIndex(prev,
		func(r *models.RankedArtist) models.ArtistKey { return r.Key() },
		func(r *models.RankedArtist) string { return r.Artist.ID.Value })

	filled := 0
	for i := range rows {
		row := &rows[i]
		p := idx.find(row.Key(), row.Artist.ID.Value)
		if p == nil {
			continue
		}
		if row.Artist.FillFrom(p.Artist) {
			filled++
		}
	}
	recordFilled("artists", sourceCarryForward, filled)
	return filled
}

func carryAlbumsWithSongs(rows, prev []models.RankedAlbumWithSongs) int {
	idx := newIndex(prev,
		func(r *models.RankedAlbumWithSongs) models.AlbumKey { return r.Key() },
		func(r *models.RankedAlbumWithSongs) string { return r.Album.ID.Value })

	filled := 0
	for i := range rows {
		row := &rows[i]
		p := idx.find(row.Key(), row.Album.ID.Value)
		if p == nil {
			continue
		}
		changed := row.Album.FillFrom(p.Album)
		changed = row.Artist.FillFrom(p.Artist) || changed
		changed = carryUnplayed(row, p.Songs) || changed
		if changed {
			filled++
		}
	}
	recordFilled("albums_with_songs", sourceCarryForward, filled)
	return filled
}

// carryUnplayed copies track numbers onto matching nested songs and appends
// previously known unplayed songs that the current row lacks.
func carryUnplayed(row *models.RankedAlbumWithSongs, prev []models.AlbumSong) bool {
	if len(prev) == 0 {
		return false
	}
	nested := newNestedSongs(row)

	changed := false
	for _, s := range prev {
		if pos, ok := nested.find(s); ok {
			changed = nested.fillTrackNumber(pos, s.TrackNumber) || changed
			continue
		}
		if s.PlayCount != 0 {
			continue
		}
		s.Artists = append([]string(nil), s.Artists...)
		nested.add(s)
		changed = true
	}
	if changed {
		row.RecountSongs()
	}
	return changed
}

// nestedSongs locates songs of an albums-with-songs row by ID, then by
// (name, artists) key.
type nestedSongs struct {
	row   *models.RankedAlbumWithSongs
	byID  map[string]int
	byKey map[models.SongKey]int
}

func newNestedSongs(row *models.RankedAlbumWithSongs) *nestedSongs {
	n := &nestedSongs{
		row:   row,
		byID:  make(map[string]int, len(row.Songs)),
		byKey: make(map[models.SongKey]int, len(row.Songs)),
	}
	for i := range row.Songs {
		n.index(i)
	}
	return n
}

func (n *nestedSongs) index(pos int) {
	s := &n.row.Songs[pos]
	if _, ok := n.byID[s.ID]; s.ID != "" && !ok {
		n.byID[s.ID] = pos
	}
	if _, ok := n.byKey[s.Key()]; !ok {
		n.byKey[s.Key()] = pos
	}
}

func (n *nestedSongs) find(s models.AlbumSong) (int, bool) {
	if s.ID != "" {
		if pos, ok := n.byID[s.ID]; ok {
			return pos, true
		}
	}
	pos, ok := n.byKey[s.Key()]
	return pos, ok
}

func (n *nestedSongs) add(s models.AlbumSong) {
	n.row.Songs = append(n.row.Songs, s)
	n.index(len(n.row.Songs) - 1)
}

func (n *nestedSongs) fillTrackNumber(pos, trackNumber int) bool {
	s := &n.row.Songs[pos]
	if s.TrackNumber != 0 || trackNumber == 0 {
		return false
	}
	s.TrackNumber = trackNumber
	return true
}

const (
	sourceCarryForward = "carry_forward"
	sourceAPI          = "api"
)

func recordFilled(category, source string, n int) {
	if n > 0 {
		metrics.EnrichmentRowsFilled.WithLabelValues(category, source).Add(float64(n))
	}
}
