// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package enrich

import (
	"testing"

	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/projection"
)

func TestCarryForward_Songs(t *testing.T) {
	t.Parallel()

	prev := &projection.Set{}
	prev.Songs.Items = []models.RankedSong{
		{
			Song:   models.SongInfo{ID: "old-id", Name: "Song", Popularity: 60},
			Artist: models.ArtistInfo{ID: models.ResolvedID("ar1"), Name: "Artist"},
			Album: models.AlbumInfo{
				ID:     models.ResolvedID("al1"),
				Name:   "Album",
				Images: []models.Image{{URL: "cover"}},
			},
		},
		{
			Song:  models.SongInfo{ID: "s2", Name: "Old Title", PreviewURL: "preview"},
			Album: models.AlbumInfo{Name: "Other", ReleaseDate: "2001"},
		},
	}

	set := &projection.Set{}
	set.Songs.Items = []models.RankedSong{
		songRow("new-id", "song", "ARTIST"),   // key match despite case and new ID
		songRow("s2", "New Title", "Someone"), // raw ID match
		songRow("s3", "Unknown", "Nobody"),
	}
	set.Songs.Items[0].Song.Popularity = 5

	if n := CarryForward(set, prev); n != 2 {
		t.Errorf("CarryForward() = %d, want 2", n)
	}

	first := set.Songs.Items[0]
	if first.Song.Popularity != 5 {
		t.Errorf("popularity overwritten: %d", first.Song.Popularity)
	}
	if first.Song.ID != "new-id" {
		t.Errorf("song ID overwritten: %q", first.Song.ID)
	}
	if first.Album.ID != models.ResolvedID("al1") || len(first.Album.Images) != 1 {
		t.Errorf("album not carried: %+v", first.Album)
	}
	if first.Artist.ID != models.ResolvedID("ar1") {
		t.Errorf("placeholder artist not replaced by the carried ID: %+v", first.Artist.ID)
	}

	second := set.Songs.Items[1]
	if second.Song.PreviewURL != "preview" || second.Album.ReleaseDate != "2001" {
		t.Errorf("raw ID match not carried: %+v", second)
	}
	if second.Album.Name != "Album" {
		t.Errorf("album name overwritten: %q", second.Album.Name)
	}

	if third := set.Songs.Items[2]; third.Song.PreviewURL != "" || !third.Album.ID.IsPlaceholder() {
		t.Errorf("unmatched row changed: %+v", third)
	}
}

func TestCarryForward_AlbumsAndArtists(t *testing.T) {
	t.Parallel()

	prev := &projection.Set{}
	prev.Albums.Items = []models.RankedAlbum{{
		Album:  models.AlbumInfo{ID: models.ResolvedID("al1"), Name: "Album", Popularity: 40, Genres: []string{"rock"}},
		Artist: models.ArtistInfo{ID: models.ResolvedID("ar1"), Name: "Artist"},
	}}
	prev.Artists.Items = []models.RankedArtist{{
		Artist: models.ArtistInfo{ID: models.ResolvedID("ar1"), Name: "Artist", Followers: 10, Images: []models.Image{{URL: "face"}}},
	}}

	set := &projection.Set{}
	set.Albums.Items = []models.RankedAlbum{{
		Album:  models.AlbumInfo{ID: models.PlaceholderID("s1"), Name: "Album"},
		Artist: models.ArtistInfo{ID: models.PlaceholderID("s1"), Name: "Artist"},
	}}
	set.Artists.Items = []models.RankedArtist{{
		Artist: models.ArtistInfo{ID: models.ResolvedID("ar1"), Name: "Renamed Artist"},
	}}

	if n := CarryForward(set, prev); n != 2 {
		t.Errorf("CarryForward() = %d, want 2", n)
	}
	album := set.Albums.Items[0]
	if album.Album.ID != models.ResolvedID("al1") || album.Album.Popularity != 40 || album.Artist.ID != models.ResolvedID("ar1") {
		t.Errorf("album not carried: %+v", album)
	}
	artist := set.Artists.Items[0]
	if artist.Artist.Followers != 10 || artist.Artist.Name != "Renamed Artist" {
		t.Errorf("artist carry by ID wrong: %+v", artist.Artist)
	}
}

func TestCarryForward_UnplayedSongs(t *testing.T) {
	t.Parallel()

	prev := &projection.Set{}
	prev.AlbumsWithSongs.Items = []models.RankedAlbumWithSongs{{
		Album:  models.AlbumInfo{ID: models.ResolvedID("al1"), Name: "Album", TotalTracks: 3},
		Artist: models.ArtistInfo{Name: "Artist"},
		Songs: []models.AlbumSong{
			{ID: "s1", Name: "One", Artists: []string{"Artist"}, TrackNumber: 1, PlayCount: 2},
			{ID: "s2", Name: "Two", Artists: []string{"Artist"}, TrackNumber: 2},
			{ID: "s3", Name: "Three", Artists: []string{"Artist"}, TrackNumber: 3},
		},
	}}

	row := models.RankedAlbumWithSongs{
		Album:  models.AlbumInfo{ID: models.ResolvedID("al1"), Name: "Album"},
		Artist: models.ArtistInfo{Name: "Artist"},
		Songs: []models.AlbumSong{
			{ID: "s1", Name: "One", Artists: []string{"Artist"}, PlayCount: 5, TotalListeningTimeMs: 500},
			{ID: "s3", Name: "Three", Artists: []string{"Artist"}, PlayCount: 1, TotalListeningTimeMs: 100},
		},
	}
	row.RecountSongs()

	set := &projection.Set{}
	set.AlbumsWithSongs.Items = []models.RankedAlbumWithSongs{row}

	if n := CarryForward(set, prev); n != 1 {
		t.Errorf("CarryForward() = %d, want 1", n)
	}

	got := set.AlbumsWithSongs.Items[0]
	if len(got.Songs) != 3 {
		t.Fatalf("songs = %+v, want 3 entries", got.Songs)
	}
	if got.Songs[0].PlayCount != 5 || got.Songs[0].TrackNumber != 1 {
		t.Errorf("played song = %+v", got.Songs[0])
	}
	if got.Songs[2].ID != "s2" || got.Songs[2].PlayCount != 0 {
		t.Errorf("carried unplayed song = %+v", got.Songs[2])
	}
	if got.TotalSongs != 3 || got.PlayedSongs != 2 || got.UnplayedSongs != 1 || got.Count != 6 {
		t.Errorf("counters = total %d played %d unplayed %d count %d",
			got.TotalSongs, got.PlayedSongs, got.UnplayedSongs, got.Count)
	}
	if got.Album.TotalTracks != 3 {
		t.Errorf("total_tracks not carried: %d", got.Album.TotalTracks)
	}

	// The previous generation must not share backing arrays with the new one.
	got.Songs[2].Artists[0] = "mutated"
	if prev.AlbumsWithSongs.Items[0].Songs[1].Artists[0] != "Artist" {
		t.Error("carried song aliases the previous generation")
	}
}

func TestCarryForward_NilPrevious(t *testing.T) {
	t.Parallel()

	set := &projection.Set{}
	set.Songs.Items = []models.RankedSong{songRow("s1", "Song", "Artist")}
	if n := CarryForward(set, nil); n != 0 {
		t.Errorf("CarryForward(nil) = %d, want 0", n)
	}
}
