// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package enrich fills missing descriptive metadata on ranked projections.
//
// Two sources are used, in order: the previous generation of outputs
// (CarryForward) and the Spotify catalog (Enricher.Enrich). Both only fill
// empty fields; a popularity of 0 counts as empty. Placeholder album and
// artist IDs (song IDs standing in) are resolved through the tracks endpoint
// before albums and artists are fetched.
//
// A failed batch is logged and skipped. The remaining batches still run, so a
// partial enrichment is always written rather than none.
package enrich

import (
	"context"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/projection"
	"github.com/tomtom215/spotrank/internal/spotify"
)

// Catalog is the subset of the Spotify client used for enrichment.
// Results are aligned with the requested IDs; unknown IDs yield nil.
type Catalog interface {
	GetTracks(ctx context.Context, ids []string) ([]*spotify.Track, error)
	GetAlbums(ctx context.Context, ids []string) ([]*spotify.Album, error)
	GetArtists(ctx context.Context, ids []string) ([]*spotify.Artist, error)
	GetAlbumTracks(ctx context.Context, albumID string, offset int) (*spotify.Paging[spotify.SimpleTrack], error)
}

// Report summarizes one enrichment run.
type Report struct {
	Batches       int
	FailedBatches int
	// RowsFilled counts row updates; a row filled in two phases counts twice.
	RowsFilled     int
	IDsResolved    int
	TracksAppended int
}

// Enricher fills projections from a Catalog.
type Enricher struct {
	catalog Catalog
}

// New creates an Enricher.
func New(catalog Catalog) *Enricher {
	return &Enricher{catalog: catalog}
}

// Enrich runs the track, album and artist phases in sequence, mutating set in
// place. It stops early when ctx is cancelled.
func (e *Enricher) Enrich(ctx context.Context, set *projection.Set) Report {
	var r Report
	if set == nil {
		return r
	}
	log := logging.Ctx(ctx)

	tracks := fetchAll(ctx, &r, "tracks", trackIDs(set), spotify.MaxTrackBatch, e.catalog.GetTracks)
	applyTracks(set, tracks, &r)

	albums := fetchAll(ctx, &r, "albums", albumIDs(set), spotify.MaxAlbumBatch, e.catalog.GetAlbums)
	e.completeTracklists(ctx, &r, set, albums)
	applyAlbums(set, albums, &r)

	artists := fetchAll(ctx, &r, "artists", artistIDs(set), spotify.MaxArtistBatch, e.catalog.GetArtists)
	applyArtists(set, artists, &r)

	log.Info().
		Int("batches", r.Batches).
		Int("failed_batches", r.FailedBatches).
		Int("rows_filled", r.RowsFilled).
		Int("ids_resolved", r.IDsResolved).
		Int("tracks_appended", r.TracksAppended).
		Msg("Enrichment complete")
	return r
}

// fetchAll requests ids in batches of size and maps each result to the ID it
// was requested under.
func fetchAll[T any](
	ctx context.Context,
	r *Report,
	kind string,
	ids []string,
	size int,
	get func(context.Context, []string) ([]*T, error),
) map[string]*T {
	out := make(map[string]*T, len(ids))
	for start := 0; start < len(ids); start += size {
		if ctx.Err() != nil {
			logging.Ctx(ctx).Warn().Str("kind", kind).Msg("Enrichment cancelled")
			break
		}
		batch := ids[start:min(start+size, len(ids))]
		r.Batches++

		items, err := get(ctx, batch)
		if err != nil {
			r.FailedBatches++
			metrics.EnrichmentBatches.WithLabelValues(kind, metrics.OutcomeError).Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Str("kind", kind).
				Int("batch_size", len(batch)).
				Msg("Enrichment batch failed, skipping")
			continue
		}
		metrics.EnrichmentBatches.WithLabelValues(kind, metrics.OutcomeSuccess).Inc()

		for i, item := range items {
			if item != nil && i < len(batch) {
				out[batch[i]] = item
			}
		}
	}
	return out
}

// completeTracklists reads the remaining tracklist pages of every album in
// the albums-with-songs projection. A failed page keeps the tracks read so far.
func (e *Enricher) completeTracklists(ctx context.Context, r *Report, set *projection.Set, albums map[string]*spotify.Album) {
	done := make(map[string]bool)
	for i := range set.AlbumsWithSongs.Items {
		id := set.AlbumsWithSongs.Items[i].Album.ID
		a, ok := albums[id.Value]
		if !ok || id.IsPlaceholder() || done[id.Value] {
			continue
		}
		done[id.Value] = true

		for a.Tracks.Next != "" && ctx.Err() == nil {
			r.Batches++
			page, err := e.catalog.GetAlbumTracks(ctx, id.Value, len(a.Tracks.Items))
			if err != nil {
				r.FailedBatches++
				metrics.EnrichmentBatches.WithLabelValues("album_tracks", metrics.OutcomeError).Inc()
				logging.Ctx(ctx).Warn().Err(err).
					Str("album_id", id.Value).
					Int("tracks_read", len(a.Tracks.Items)).
					Msg("Album tracklist page failed, keeping the tracks read so far")
				break
			}
			metrics.EnrichmentBatches.WithLabelValues("album_tracks", metrics.OutcomeSuccess).Inc()
			a.Tracks.Next = page.Next
			if len(page.Items) == 0 {
				break
			}
			a.Tracks.Items = append(a.Tracks.Items, page.Items...)
		}
	}
}

// idSet collects unique IDs in first-seen order.
type idSet struct {
	seen map[string]struct{}
	ids  []string
}

func (s *idSet) add(id string) {
	if id == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) addPlaceholder(id models.EntityID) {
	if id.IsPlaceholder() {
		s.add(id.Value)
	}
}

func (s *idSet) addResolved(id models.EntityID) {
	if !id.IsZero() && !id.IsPlaceholder() {
		s.add(id.Value)
	}
}

func songNeedsEnrichment(r *models.RankedSong) bool {
	return r.Song.Popularity == 0 || len(r.Song.ExternalURLs) == 0 ||
		r.Album.ID.IsPlaceholder() || len(r.Album.Images) == 0 ||
		r.Artist.ID.IsPlaceholder()
}

func needsTracklist(r *models.RankedAlbumWithSongs) bool {
	return r.Album.TotalTracks == 0 || len(r.Songs) < r.Album.TotalTracks
}

// trackIDs selects incomplete songs plus every placeholder album/artist ID.
func trackIDs(set *projection.Set) []string {
	var ids idSet
	for i := range set.Songs.Items {
		row := &set.Songs.Items[i]
		if songNeedsEnrichment(row) {
			ids.add(row.Song.ID)
		}
	}
	for i := range set.Albums.Items {
		ids.addPlaceholder(set.Albums.Items[i].Album.ID)
		ids.addPlaceholder(set.Albums.Items[i].Artist.ID)
	}
	for i := range set.Artists.Items {
		ids.addPlaceholder(set.Artists.Items[i].Artist.ID)
	}
	for i := range set.AlbumsWithSongs.Items {
		ids.addPlaceholder(set.AlbumsWithSongs.Items[i].Album.ID)
		ids.addPlaceholder(set.AlbumsWithSongs.Items[i].Artist.ID)
	}
	return ids.ids
}

func albumIDs(set *projection.Set) []string {
	var ids idSet
	for i := range set.Albums.Items {
		row := &set.Albums.Items[i]
		if row.Album.NeedsEnrichment() {
			ids.addResolved(row.Album.ID)
		}
	}
	for i := range set.AlbumsWithSongs.Items {
		row := &set.AlbumsWithSongs.Items[i]
		if row.Album.NeedsEnrichment() || needsTracklist(row) {
			ids.addResolved(row.Album.ID)
		}
	}
	return ids.ids
}

func artistIDs(set *projection.Set) []string {
	var ids idSet
	for i := range set.Artists.Items {
		row := &set.Artists.Items[i]
		if row.Artist.NeedsEnrichment() {
			ids.addResolved(row.Artist.ID)
		}
	}
	for i := range set.Albums.Items {
		row := &set.Albums.Items[i]
		if row.Artist.NeedsEnrichment() {
			ids.addResolved(row.Artist.ID)
		}
	}
	for i := range set.AlbumsWithSongs.Items {
		row := &set.AlbumsWithSongs.Items[i]
		if row.Artist.NeedsEnrichment() {
			ids.addResolved(row.Artist.ID)
		}
	}
	return ids.ids
}

// fillAlbum fills dst from src and counts a placeholder resolution.
func fillAlbum(dst *models.AlbumInfo, src models.AlbumInfo, r *Report) bool {
	wasPlaceholder := dst.ID.IsPlaceholder()
	changed := dst.FillFrom(src)
	if wasPlaceholder && !dst.ID.IsPlaceholder() {
		r.IDsResolved++
	}
	return changed
}

func fillArtist(dst *models.ArtistInfo, src models.ArtistInfo, r *Report) bool {
	wasPlaceholder := dst.ID.IsPlaceholder()
	changed := dst.FillFrom(src)
	if wasPlaceholder && !dst.ID.IsPlaceholder() {
		r.IDsResolved++
	}
	return changed
}

// placeholderTrack returns the track fetched for a placeholder ID.
func placeholderTrack(tracks map[string]*spotify.Track, id models.EntityID) *spotify.Track {
	if !id.IsPlaceholder() {
		return nil
	}
	return tracks[id.Value]
}

func applyTracks(set *projection.Set, tracks map[string]*spotify.Track, r *Report) {
	if len(tracks) == 0 {
		return
	}

	filled := 0
	for i := range set.Songs.Items {
		row := &set.Songs.Items[i]
		t, ok := tracks[row.Song.ID]
		if !ok {
			continue
		}
		changed := row.Song.FillFrom(t.SongInfo())
		changed = fillAlbum(&row.Album, t.AlbumInfo(), r) || changed
		changed = fillArtist(&row.Artist, t.PrimaryArtistInfo(), r) || changed
		if changed {
			filled++
		}
	}
	r.add("songs", filled)

	filled = 0
	for i := range set.Albums.Items {
		row := &set.Albums.Items[i]
		changed := false
		if t := placeholderTrack(tracks, row.Album.ID); t != nil {
			changed = fillAlbum(&row.Album, t.AlbumInfo(), r)
		}
		if t := placeholderTrack(tracks, row.Artist.ID); t != nil {
			changed = fillArtist(&row.Artist, t.PrimaryArtistInfo(), r) || changed
		}
		if changed {
			filled++
		}
	}
	r.add("albums", filled)

	filled = 0
	for i := range set.Artists.Items {
		row := &set.Artists.Items[i]
		if t := placeholderTrack(tracks, row.Artist.ID); t != nil {
			if fillArtist(&row.Artist, t.PrimaryArtistInfo(), r) {
				filled++
			}
		}
	}
	r.add("artists", filled)

	filled = 0
	for i := range set.AlbumsWithSongs.Items {
		row := &set.AlbumsWithSongs.Items[i]
		changed := false
		if t := placeholderTrack(tracks, row.Album.ID); t != nil {
			changed = fillAlbum(&row.Album, t.AlbumInfo(), r)
		}
		if t := placeholderTrack(tracks, row.Artist.ID); t != nil {
			changed = fillArtist(&row.Artist, t.PrimaryArtistInfo(), r) || changed
		}
		if changed {
			filled++
		}
	}
	r.add("albums_with_songs", filled)
}

func applyAlbums(set *projection.Set, albums map[string]*spotify.Album, r *Report) {
	if len(albums) == 0 {
		return
	}

	filled := 0
	for i := range set.Albums.Items {
		row := &set.Albums.Items[i]
		a, ok := albums[row.Album.ID.Value]
		if !ok || row.Album.ID.IsPlaceholder() {
			continue
		}
		changed := fillAlbum(&row.Album, a.Info(), r)
		changed = fillArtist(&row.Artist, a.PrimaryArtistInfo(), r) || changed
		if changed {
			filled++
		}
	}
	r.add("albums", filled)

	filled = 0
	for i := range set.AlbumsWithSongs.Items {
		row := &set.AlbumsWithSongs.Items[i]
		a, ok := albums[row.Album.ID.Value]
		if !ok || row.Album.ID.IsPlaceholder() {
			continue
		}
		changed := fillAlbum(&row.Album, a.Info(), r)
		changed = fillArtist(&row.Artist, a.PrimaryArtistInfo(), r) || changed
		if n := mergeTracklist(row, a.Tracks.Items); n > 0 {
			r.TracksAppended += n
			changed = true
		}
		if changed {
			filled++
		}
	}
	r.add("albums_with_songs", filled)

	// Songs reuse album data already fetched for the other categories.
	filled = 0
	for i := range set.Songs.Items {
		row := &set.Songs.Items[i]
		if a, ok := albums[row.Album.ID.Value]; ok && !row.Album.ID.IsPlaceholder() {
			if fillAlbum(&row.Album, a.Info(), r) {
				filled++
			}
		}
	}
	r.add("songs", filled)
}

// mergeTracklist fills track numbers on known nested songs and appends the
// album's remaining tracks as unplayed. It returns the number appended.
func mergeTracklist(row *models.RankedAlbumWithSongs, tracklist []spotify.SimpleTrack) int {
	if len(tracklist) == 0 {
		return 0
	}
	nested := newNestedSongs(row)

	appended := 0
	for _, t := range tracklist {
		song := models.AlbumSong{
			ID:          t.ID,
			Name:        t.Name,
			Artists:     t.ArtistNames(),
			DurationMs:  t.DurationMs,
			TrackNumber: t.TrackNumber,
		}
		if pos, ok := nested.find(song); ok {
			nested.fillTrackNumber(pos, song.TrackNumber)
			if row.Songs[pos].DurationMs == 0 {
				row.Songs[pos].DurationMs = song.DurationMs
			}
			continue
		}
		nested.add(song)
		appended++
	}
	row.RecountSongs()
	return appended
}

func applyArtists(set *projection.Set, artists map[string]*spotify.Artist, r *Report) {
	if len(artists) == 0 {
		return
	}
	lookup := func(id models.EntityID) (models.ArtistInfo, bool) {
		if id.IsPlaceholder() {
			return models.ArtistInfo{}, false
		}
		a, ok := artists[id.Value]
		if !ok {
			return models.ArtistInfo{}, false
		}
		return a.Info(), true
	}

	filled := 0
	for i := range set.Artists.Items {
		row := &set.Artists.Items[i]
		if info, ok := lookup(row.Artist.ID); ok && row.Artist.FillFrom(info) {
			filled++
		}
	}
	r.add("artists", filled)

	filled = 0
	for i := range set.Albums.Items {
		row := &set.Albums.Items[i]
		if info, ok := lookup(row.Artist.ID); ok && row.Artist.FillFrom(info) {
			filled++
		}
	}
	r.add("albums", filled)

	filled = 0
	for i := range set.AlbumsWithSongs.Items {
		row := &set.AlbumsWithSongs.Items[i]
		if info, ok := lookup(row.Artist.ID); ok && row.Artist.FillFrom(info) {
			filled++
		}
	}
	r.add("albums_with_songs", filled)

	filled = 0
	for i := range set.Songs.Items {
		row := &set.Songs.Items[i]
		if info, ok := lookup(row.Artist.ID); ok && row.Artist.FillFrom(info) {
			filled++
		}
	}
	r.add("songs", filled)
}

func (r *Report) add(category string, filled int) {
	r.RowsFilled += filled
	recordFilled(category, sourceAPI, filled)
}
