// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package consolidate

import (
	"reflect"
	"testing"

	"github.com/tomtom215/spotrank/internal/models"
)

func album(id, name, artist string, count int, durationMs int64) models.RankedAlbum {
	return models.RankedAlbum{
		Album:           models.AlbumInfo{ID: models.ResolvedID(id), Name: name},
		Artist:          models.ArtistInfo{Name: artist},
		Count:           count,
		TotalCount:      count,
		DurationMs:      durationMs,
		TotalDurationMs: int64(count) * 100,
		Differents:      1,
	}
}

func song(id, name, artist string, count int, durationMs int64) models.RankedSong {
	return models.RankedSong{
		Song:            models.SongInfo{ID: id, Name: name, DurationMs: durationMs},
		Artist:          models.ArtistInfo{Name: artist},
		Count:           count,
		DurationMs:      durationMs,
		TotalDurationMs: int64(count) * durationMs,
	}
}

func TestAlbums_AbbeyRoad(t *testing.T) {
	t.Parallel()

	out, stats := Albums([]models.RankedAlbum{
		album("a1", "Abbey Road", "The Beatles", 10, 1000),
		album("a2", "abbey road ", "the beatles", 5, 2000),
	})

	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	r := out[0]
	if r.Count != 15 || r.DurationMs != 3000 || r.ConsolidatedCount != 15 {
		t.Errorf("count=%d duration_ms=%d consolidated_count=%d, want 15/3000/15",
			r.Count, r.DurationMs, r.ConsolidatedCount)
	}
	if r.TotalCount != 15 || r.Differents != 2 || r.TotalDurationMs != 1500 {
		t.Errorf("total_count=%d differents=%d total_duration_ms=%d", r.TotalCount, r.Differents, r.TotalDurationMs)
	}
	if !reflect.DeepEqual(r.OriginalAlbumIDs, []string{"a1", "a2"}) {
		t.Errorf("original_albumIds = %v", r.OriginalAlbumIDs)
	}
	if r.Album.Name != "Abbey Road" {
		t.Errorf("first row should keep its name, got %q", r.Album.Name)
	}
	if stats.Original != 2 || stats.Consolidated != 1 || stats.DuplicatesRemoved != 1 || stats.Rate != 50 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestSongs_DurationIsNotSummed(t *testing.T) {
	t.Parallel()

	out, _ := Songs([]models.RankedSong{
		song("s1", "Come Together", "The Beatles", 4, 259000),
		song("s2", "Come Together", "The Beatles", 2, 259000),
		song("s3", "Something", "The Beatles", 5, 182000),
	})

	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].Song.Name != "Come Together" {
		t.Fatalf("rows not sorted by count: %q first", out[0].Song.Name)
	}
	if out[0].Count != 6 || out[0].DurationMs != 259000 {
		t.Errorf("count=%d duration_ms=%d, want 6/259000", out[0].Count, out[0].DurationMs)
	}
	if out[0].TotalDurationMs != 6*259000 {
		t.Errorf("total_duration_ms = %d", out[0].TotalDurationMs)
	}
	if !reflect.DeepEqual(out[0].OriginalSongIDs, []string{"s1", "s2"}) {
		t.Errorf("original_songIds = %v", out[0].OriginalSongIDs)
	}
}

func TestArtists_FillEmptyDescriptiveFields(t *testing.T) {
	t.Parallel()

	first := models.RankedArtist{
		Artist: models.ArtistInfo{ID: models.PlaceholderID("song9"), Name: "Björk", Popularity: 0},
		Count:  3,
	}
	second := models.RankedArtist{
		Artist: models.ArtistInfo{
			ID:         models.ResolvedID("art1"),
			Name:       "björk",
			Images:     []models.Image{{URL: "img"}},
			Popularity: 70,
		},
		Count: 1,
	}

	out, _ := Artists([]models.RankedArtist{first, second})
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	a := out[0].Artist
	if a.Name != "Björk" || a.ID != models.ResolvedID("art1") || a.Popularity != 70 || len(a.Images) != 1 {
		t.Errorf("unexpected merged artist: %+v", a)
	}
}

func TestAlbumsWithSongs_MergesNestedSongs(t *testing.T) {
	t.Parallel()

	a := models.RankedAlbumWithSongs{
		Album:  models.AlbumInfo{ID: models.ResolvedID("a1"), Name: "Abbey Road"},
		Artist: models.ArtistInfo{Name: "The Beatles"},
		Songs: []models.AlbumSong{
			{ID: "s1", Name: "Come Together", Artists: []string{"The Beatles"}, PlayCount: 3, TotalListeningTimeMs: 300},
			{ID: "s2", Name: "Because", Artists: []string{"The Beatles"}, PlayCount: 0},
		},
	}
	a.RecountSongs()
	b := models.RankedAlbumWithSongs{
		Album:  models.AlbumInfo{ID: models.ResolvedID("a2"), Name: "Abbey Road"},
		Artist: models.ArtistInfo{Name: "The Beatles"},
		Songs: []models.AlbumSong{
			{ID: "s1b", Name: "come together", Artists: []string{"the beatles"}, PlayCount: 2, TotalListeningTimeMs: 200},
			{ID: "s3", Name: "Something", Artists: []string{"The Beatles"}, PlayCount: 1, TotalListeningTimeMs: 100},
		},
	}
	b.RecountSongs()

	out, _ := AlbumsWithSongs([]models.RankedAlbumWithSongs{a, b})
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	r := out[0]
	if len(r.Songs) != 3 {
		t.Fatalf("expected 3 nested songs, got %d", len(r.Songs))
	}
	if r.Songs[0].PlayCount != 5 || r.Songs[0].TotalListeningTimeMs != 500 {
		t.Errorf("merged nested song = %+v", r.Songs[0])
	}
	if r.TotalSongs != 3 || r.PlayedSongs != 2 || r.UnplayedSongs != 1 {
		t.Errorf("song counters = %d/%d/%d", r.TotalSongs, r.PlayedSongs, r.UnplayedSongs)
	}
	if r.Count != 6 || r.ConsolidatedCount != 6 || r.TotalListeningTimeMs != 600 {
		t.Errorf("count=%d consolidated=%d total=%d", r.Count, r.ConsolidatedCount, r.TotalListeningTimeMs)
	}

	if a.Songs[0].PlayCount != 3 || len(a.Songs) != 2 {
		t.Error("input rows were mutated")
	}
}

func TestConsolidation_Properties(t *testing.T) {
	t.Parallel()

	rows := []models.RankedAlbum{
		album("a1", "X", "P", 3, 10),
		album("a2", "Y", "Q", 7, 10),
		album("a3", " x", "p ", 4, 10),
		album("a4", "Z", "R", 7, 10),
		album("a5", "Y", "q", 1, 10),
		album("a6", "W", "S", 2, 10),
	}
	inputCopy := make([]models.RankedAlbum, len(rows))
	copy(inputCopy, rows)

	out, _ := Albums(rows)

	inSum, outSum := 0, 0
	for _, r := range rows {
		inSum += r.Count
	}
	seen := make(map[models.AlbumKey]bool)
	for i, r := range out {
		outSum += r.ConsolidatedCount
		if seen[r.Key()] {
			t.Errorf("duplicate key %v in output", r.Key())
		}
		seen[r.Key()] = true
		if i > 0 && out[i-1].Count < r.Count {
			t.Errorf("output not sorted by count at %d", i)
		}
	}
	if inSum != outSum {
		t.Errorf("count not conserved: in=%d out=%d", inSum, outSum)
	}
	if len(out) > len(rows) {
		t.Errorf("output longer than input")
	}
	if !reflect.DeepEqual(rows, inputCopy) {
		t.Error("input rows were mutated")
	}

	var names []string
	for _, r := range out {
		names = append(names, r.Album.Name)
	}
	if !reflect.DeepEqual(names, []string{"Y", "X", "Z", "W"}) {
		t.Errorf("order = %v, want [Y X Z W]", names)
	}
}

func TestConsolidation_StableTies(t *testing.T) {
	t.Parallel()

	out, _ := Artists([]models.RankedArtist{
		{Artist: models.ArtistInfo{Name: "B"}, Count: 2},
		{Artist: models.ArtistInfo{Name: "A"}, Count: 5},
		{Artist: models.ArtistInfo{Name: "C"}, Count: 2},
	})

	var names []string
	for _, r := range out {
		names = append(names, r.Artist.Name)
	}
	if !reflect.DeepEqual(names, []string{"A", "B", "C"}) {
		t.Errorf("order = %v, want [A B C]", names)
	}
}

func TestStats_EmptyInput(t *testing.T) {
	t.Parallel()

	out, stats := Songs(nil)
	if len(out) != 0 || stats.Rate != 0 || stats.Original != 0 {
		t.Errorf("unexpected result for empty input: %v %+v", out, stats)
	}
}

func TestStats_RateRounding(t *testing.T) {
	t.Parallel()

	if got := newStats(3, 2).Rate; got != 33.33 {
		t.Errorf("rate = %v, want 33.33", got)
	}
	if got := newStats(6, 2).Rate; got != 66.67 {
		t.Errorf("rate = %v, want 66.67", got)
	}
}
