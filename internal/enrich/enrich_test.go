// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/metrics"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/projection"
	"github.com/tomtom215/spotrank/internal/spotify"
)

// fakeCatalog serves canned objects and records requested batches.
type fakeCatalog struct {
	mu      sync.Mutex
	tracks  map[string]*spotify.Track
	albums  map[string]*spotify.Album
	artists map[string]*spotify.Artist
	// albumPages holds the tracklist pages after the first, keyed by album ID.
	albumPages map[string][]spotify.Paging[spotify.SimpleTrack]

	failTrackCall int // 1-based call number that fails; 0 never fails
	trackCalls    [][]string
	albumCalls    [][]string
	artistCalls   [][]string
	pageCalls     []string
	failPageCall  int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks:     map[string]*spotify.Track{},
		albums:     map[string]*spotify.Album{},
		artists:    map[string]*spotify.Artist{},
		albumPages: map[string][]spotify.Paging[spotify.SimpleTrack]{},
	}
}

func lookupAll[T any](m map[string]*T, ids []string) []*T {
	out := make([]*T, len(ids))
	for i, id := range ids {
		out[i] = m[id]
	}
	return out
}

func (f *fakeCatalog) GetTracks(_ context.Context, ids []string) ([]*spotify.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackCalls = append(f.trackCalls, append([]string(nil), ids...))
	if f.failTrackCall == len(f.trackCalls) {
		return nil, spotify.ErrUpstream
	}
	return lookupAll(f.tracks, ids), nil
}

func (f *fakeCatalog) GetAlbums(_ context.Context, ids []string) ([]*spotify.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albumCalls = append(f.albumCalls, append([]string(nil), ids...))
	return lookupAll(f.albums, ids), nil
}

func (f *fakeCatalog) GetArtists(_ context.Context, ids []string) ([]*spotify.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artistCalls = append(f.artistCalls, append([]string(nil), ids...))
	return lookupAll(f.artists, ids), nil
}

func (f *fakeCatalog) GetAlbumTracks(_ context.Context, albumID string, offset int) (*spotify.Paging[spotify.SimpleTrack], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls = append(f.pageCalls, fmt.Sprintf("%s@%d", albumID, offset))
	if f.failPageCall == len(f.pageCalls) {
		return nil, spotify.ErrRateLimited
	}
	pages := f.albumPages[albumID]
	if len(pages) == 0 {
		return &spotify.Paging[spotify.SimpleTrack]{}, nil
	}
	page := pages[0]
	f.albumPages[albumID] = pages[1:]
	return &page, nil
}

func batchSizes(calls [][]string) []int {
	sizes := make([]int, len(calls))
	for i, c := range calls {
		sizes[i] = len(c)
	}
	return sizes
}

func songRow(id, name, artist string) models.RankedSong {
	return models.RankedSong{
		Song:   models.SongInfo{ID: id, Name: name},
		Artist: models.ArtistInfo{ID: models.PlaceholderID(id), Name: artist},
		Album:  models.AlbumInfo{ID: models.PlaceholderID(id), Name: "Album"},
		Count:  1,
	}
}

func catalogTrack(id, albumID, artistID string) *spotify.Track {
	return &spotify.Track{
		ID:           id,
		Name:         "Catalog " + id,
		DurationMs:   200000,
		Popularity:   70,
		ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/" + id},
		Artists:      []spotify.SimpleArtist{{ID: artistID, Name: "Catalog Artist"}},
		Album: spotify.SimpleAlbum{
			ID:     albumID,
			Name:   "Catalog Album",
			Images: []models.Image{{URL: "https://img/" + albumID}},
		},
	}
}

func TestEnrich_NeverOverwrites(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.tracks["s1"] = catalogTrack("s1", "al1", "ar1")

	row := songRow("s1", "Local Name", "Local Artist")
	row.Song.Popularity = 12
	row.Song.ExternalURLs = map[string]string{"spotify": "local"}

	set := &projection.Set{}
	set.Songs.Items = []models.RankedSong{row}

	New(cat).Enrich(context.Background(), set)

	got := set.Songs.Items[0]
	if got.Song.Name != "Local Name" || got.Song.Popularity != 12 || got.Song.ExternalURLs["spotify"] != "local" {
		t.Errorf("non-empty song fields were overwritten: %+v", got.Song)
	}
	if got.Song.DurationMs != 200000 {
		t.Errorf("empty duration not filled: %d", got.Song.DurationMs)
	}
	if got.Album.Name != "Album" || len(got.Album.Images) != 1 {
		t.Errorf("album = %+v, want local name and filled images", got.Album)
	}
	if got.Artist.Name != "Local Artist" {
		t.Errorf("artist name overwritten: %q", got.Artist.Name)
	}
}

func TestEnrich_ResolvesPlaceholders(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.tracks["s1"] = catalogTrack("s1", "al1", "ar1")
	cat.albums["al1"] = &spotify.Album{ID: "al1", Name: "Catalog Album", Popularity: 55, ReleaseDate: "2020-01-01"}
	cat.artists["ar1"] = &spotify.Artist{ID: "ar1", Name: "Catalog Artist", Genres: []string{"indie"}, Followers: spotify.Followers{Total: 900}}

	set := &projection.Set{}
	set.Albums.Items = []models.RankedAlbum{{
		Album:  models.AlbumInfo{ID: models.PlaceholderID("s1"), Name: "Album"},
		Artist: models.ArtistInfo{ID: models.PlaceholderID("s1"), Name: "Artist"},
	}}
	set.Artists.Items = []models.RankedArtist{{
		Artist: models.ArtistInfo{ID: models.PlaceholderID("s1"), Name: "Artist"},
	}}

	report := New(cat).Enrich(context.Background(), set)

	album := set.Albums.Items[0]
	if album.Album.ID != models.ResolvedID("al1") {
		t.Errorf("album ID = %+v, want resolved al1", album.Album.ID)
	}
	if album.Album.Popularity != 55 || album.Album.ReleaseDate != "2020-01-01" {
		t.Errorf("album not enriched after resolution: %+v", album.Album)
	}
	artist := set.Artists.Items[0]
	if artist.Artist.ID != models.ResolvedID("ar1") {
		t.Errorf("artist ID = %+v, want resolved ar1", artist.Artist.ID)
	}
	if artist.Artist.Followers != 900 || len(artist.Artist.Genres) != 1 {
		t.Errorf("artist not enriched after resolution: %+v", artist.Artist)
	}
	if report.IDsResolved != 3 {
		t.Errorf("IDsResolved = %d, want 3", report.IDsResolved)
	}
	if len(cat.trackCalls) != 1 || len(cat.trackCalls[0]) != 1 {
		t.Errorf("placeholders sharing a song ID should be fetched once, got %v", cat.trackCalls)
	}
}

func TestEnrich_AppendsUnplayedTracks(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.albums["al1"] = &spotify.Album{
		ID:          "al1",
		Name:        "Album",
		TotalTracks: 3,
		Tracks: spotify.Paging[spotify.SimpleTrack]{Items: []spotify.SimpleTrack{
			{ID: "s1", Name: "One", TrackNumber: 1, Artists: []spotify.SimpleArtist{{Name: "Artist"}}},
			{ID: "s2", Name: "Two", TrackNumber: 2, DurationMs: 1000, Artists: []spotify.SimpleArtist{{Name: "Artist"}}},
			{ID: "s3-relinked", Name: "Three", TrackNumber: 3, Artists: []spotify.SimpleArtist{{Name: "Artist"}}},
		}},
	}

	row := models.RankedAlbumWithSongs{
		Album:  models.AlbumInfo{ID: models.ResolvedID("al1"), Name: "Album"},
		Artist: models.ArtistInfo{Name: "Artist"},
		Songs: []models.AlbumSong{
			{ID: "s1", Name: "One", Artists: []string{"Artist"}, PlayCount: 4, TotalListeningTimeMs: 400},
			{ID: "s3", Name: "Three", Artists: []string{"Artist"}, PlayCount: 1, TotalListeningTimeMs: 100},
		},
	}
	row.RecountSongs()

	set := &projection.Set{}
	set.AlbumsWithSongs.Items = []models.RankedAlbumWithSongs{row}

	report := New(cat).Enrich(context.Background(), set)

	got := set.AlbumsWithSongs.Items[0]
	if len(got.Songs) != 3 {
		t.Fatalf("songs = %d, want 3: %+v", len(got.Songs), got.Songs)
	}
	if got.Songs[2].ID != "s2" || got.Songs[2].PlayCount != 0 || got.Songs[2].TrackNumber != 2 {
		t.Errorf("appended song = %+v", got.Songs[2])
	}
	if got.Songs[0].TrackNumber != 1 || got.Songs[1].TrackNumber != 3 {
		t.Errorf("track numbers not filled: %+v", got.Songs)
	}
	if got.TotalSongs != 3 || got.PlayedSongs != 2 || got.UnplayedSongs != 1 {
		t.Errorf("counters = %d/%d/%d, want 3/2/1", got.TotalSongs, got.PlayedSongs, got.UnplayedSongs)
	}
	if got.Count != 5 || got.TotalListeningTimeMs != 500 {
		t.Errorf("plays = %d, listening = %d; unplayed songs must not change totals", got.Count, got.TotalListeningTimeMs)
	}
	if report.TracksAppended != 1 {
		t.Errorf("TracksAppended = %d, want 1", report.TracksAppended)
	}
}

func numberedTracks(from, to int) []spotify.SimpleTrack {
	var out []spotify.SimpleTrack
	for n := from; n <= to; n++ {
		out = append(out, spotify.SimpleTrack{
			ID:          fmt.Sprintf("s%d", n),
			Name:        fmt.Sprintf("Track %d", n),
			TrackNumber: n,
			Artists:     []spotify.SimpleArtist{{Name: "Artist"}},
		})
	}
	return out
}

func longAlbumRow() models.RankedAlbumWithSongs {
	row := models.RankedAlbumWithSongs{
		Album:  models.AlbumInfo{ID: models.ResolvedID("long"), Name: "Long Album"},
		Artist: models.ArtistInfo{Name: "Artist"},
		Songs: []models.AlbumSong{
			{ID: "s60", Name: "Track 60", Artists: []string{"Artist"}, PlayCount: 2, TotalListeningTimeMs: 200},
		},
	}
	row.RecountSongs()
	return row
}

func TestEnrich_FollowsTracklistPages(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.albums["long"] = &spotify.Album{
		ID:          "long",
		Name:        "Long Album",
		TotalTracks: 120,
		Tracks: spotify.Paging[spotify.SimpleTrack]{
			Items: numberedTracks(1, 50), Total: 120, Next: "page-2",
		},
	}
	cat.albumPages["long"] = []spotify.Paging[spotify.SimpleTrack]{
		{Items: numberedTracks(51, 100), Total: 120, Next: "page-3"},
		{Items: numberedTracks(101, 120), Total: 120},
	}

	set := &projection.Set{}
	set.AlbumsWithSongs.Items = []models.RankedAlbumWithSongs{longAlbumRow()}

	report := New(cat).Enrich(context.Background(), set)

	got := set.AlbumsWithSongs.Items[0]
	if got.TotalSongs != 120 || got.PlayedSongs != 1 || got.UnplayedSongs != 119 {
		t.Errorf("counters = %d/%d/%d, want 120/1/119", got.TotalSongs, got.PlayedSongs, got.UnplayedSongs)
	}
	if report.TracksAppended != 119 {
		t.Errorf("TracksAppended = %d, want 119", report.TracksAppended)
	}
	want := []string{"long@50", "long@100"}
	if fmt.Sprint(cat.pageCalls) != fmt.Sprint(want) {
		t.Errorf("page requests = %v, want %v", cat.pageCalls, want)
	}
}

func TestEnrich_FailedTracklistPageKeepsFirstPages(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.failPageCall = 2
	cat.albums["long"] = &spotify.Album{
		ID:   "long",
		Name: "Long Album",
		Tracks: spotify.Paging[spotify.SimpleTrack]{
			Items: numberedTracks(1, 50), Total: 120, Next: "page-2",
		},
	}
	cat.albumPages["long"] = []spotify.Paging[spotify.SimpleTrack]{
		{Items: numberedTracks(51, 100), Total: 120, Next: "page-3"},
	}

	set := &projection.Set{}
	set.AlbumsWithSongs.Items = []models.RankedAlbumWithSongs{longAlbumRow()}

	report := New(cat).Enrich(context.Background(), set)

	if got := set.AlbumsWithSongs.Items[0].TotalSongs; got != 100 {
		t.Errorf("total_songs = %d, want the 100 tracks read before the failure", got)
	}
	if report.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", report.FailedBatches)
	}
}

func TestEnrich_FailedBatchSkipped(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.failTrackCall = 1

	set := &projection.Set{}
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("s%02d", i)
		cat.tracks[id] = catalogTrack(id, "al"+id, "ar"+id)
		set.Songs.Items = append(set.Songs.Items, songRow(id, "Song "+id, "Artist"))
	}

	before := testutil.ToFloat64(metrics.EnrichmentBatches.WithLabelValues("tracks", metrics.OutcomeError))
	report := New(cat).Enrich(context.Background(), set)
	after := testutil.ToFloat64(metrics.EnrichmentBatches.WithLabelValues("tracks", metrics.OutcomeError))

	if report.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", report.FailedBatches)
	}
	if after-before < 1 {
		t.Error("failed batch not counted in metrics")
	}
	for i, row := range set.Songs.Items {
		filled := row.Song.Popularity != 0
		if i < 50 && filled {
			t.Errorf("row %d belongs to the failed batch but was filled", i)
		}
		if i >= 50 && !filled {
			t.Errorf("row %d belongs to a successful batch but was not filled", i)
		}
	}
}

func TestEnrich_BatchSizes(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	set := &projection.Set{}
	for i := 0; i < 120; i++ {
		set.Songs.Items = append(set.Songs.Items, songRow(fmt.Sprintf("s%d", i), fmt.Sprintf("Song %d", i), "Artist"))
	}
	for i := 0; i < 25; i++ {
		set.Albums.Items = append(set.Albums.Items, models.RankedAlbum{
			Album:  models.AlbumInfo{ID: models.ResolvedID(fmt.Sprintf("al%d", i)), Name: fmt.Sprintf("Album %d", i)},
			Artist: models.ArtistInfo{ID: models.ResolvedID(fmt.Sprintf("ar%d", i)), Name: fmt.Sprintf("Artist %d", i)},
		})
	}
	for i := 0; i < 60; i++ {
		set.Artists.Items = append(set.Artists.Items, models.RankedArtist{
			Artist: models.ArtistInfo{ID: models.ResolvedID(fmt.Sprintf("x%d", i)), Name: fmt.Sprintf("X %d", i)},
		})
	}

	report := New(cat).Enrich(context.Background(), set)

	if got := fmt.Sprint(batchSizes(cat.trackCalls)); got != "[50 50 20]" {
		t.Errorf("track batches = %s, want [50 50 20]", got)
	}
	if got := fmt.Sprint(batchSizes(cat.albumCalls)); got != "[20 5]" {
		t.Errorf("album batches = %s, want [20 5]", got)
	}
	// 60 artists rows plus 25 album artists
	if got := fmt.Sprint(batchSizes(cat.artistCalls)); got != "[50 35]" {
		t.Errorf("artist batches = %s, want [50 35]", got)
	}
	if report.Batches != 7 {
		t.Errorf("Batches = %d, want 7", report.Batches)
	}
}

func TestEnrich_Cancelled(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	set := &projection.Set{}
	set.Songs.Items = []models.RankedSong{songRow("s1", "Song", "Artist")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(cat).Enrich(ctx, set)
	if report.Batches != 0 || len(cat.trackCalls) != 0 {
		t.Errorf("cancelled run issued %d batches", report.Batches)
	}
}

func TestEnrich_NothingMissing(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	set := &projection.Set{}
	set.Artists.Items = []models.RankedArtist{{
		Artist: models.ArtistInfo{
			ID:           models.ResolvedID("ar1"),
			Name:         "Complete",
			Images:       []models.Image{{URL: "img"}},
			ExternalURLs: map[string]string{"spotify": "url"},
			Genres:       []string{"pop"},
			Popularity:   80,
		},
	}}

	if report := New(cat).Enrich(context.Background(), set); report.Batches != 0 {
		t.Errorf("complete rows should not be fetched, got %d batches", report.Batches)
	}
}

type recordingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	return ctx.Err()
}

type staticTokens struct{}

func (staticTokens) AccessToken(context.Context) (string, error) { return "tok", nil }
func (staticTokens) TestToken(context.Context, string) bool      { return true }

func TestEnrich_RetryAfterThroughClient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tracks" {
			http.NotFound(w, r)
			return
		}
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracks":[{"id":"s1","name":"Song","duration_ms":1000,"popularity":33,
			"artists":[{"id":"ar1","name":"Artist"}],"album":{"id":"al1","name":"Album","images":[{"url":"cover"}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	clock := &recordingClock{}
	client := spotify.NewClient(&config.SpotifyConfig{
		APIBaseURL:     srv.URL,
		Timeout:        5 * time.Second,
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
	}, staticTokens{}, spotify.WithClock(clock))

	set := &projection.Set{}
	set.Songs.Items = []models.RankedSong{songRow("s1", "Song", "Artist")}

	report := New(client).Enrich(context.Background(), set)

	if report.FailedBatches != 0 {
		t.Fatalf("FailedBatches = %d, want 0", report.FailedBatches)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] < 2*time.Second {
		t.Errorf("sleeps = %v, want one wait of at least 2s", clock.sleeps)
	}
	row := set.Songs.Items[0]
	if row.Song.Popularity != 33 || row.Album.ID != models.ResolvedID("al1") {
		t.Errorf("row not enriched after retry: %+v", row)
	}
}

func TestEnrich_ExhaustedRetriesSkipBatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := spotify.NewClient(&config.SpotifyConfig{
		APIBaseURL:     srv.URL,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
	}, staticTokens{}, spotify.WithClock(&recordingClock{}))

	set := &projection.Set{}
	set.Songs.Items = []models.RankedSong{songRow("s1", "Song", "Artist")}

	report := New(client).Enrich(context.Background(), set)
	if report.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", report.FailedBatches)
	}
	got := set.Songs.Items[0]
	if got.Song.Popularity != 0 || got.Song.DurationMs != 0 || !got.Album.ID.IsPlaceholder() {
		t.Errorf("row changed despite the failed batch: %+v", got)
	}
}

var _ Catalog = (*spotify.Client)(nil)
