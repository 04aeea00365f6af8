// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spotrank/internal/enrich"
	"github.com/tomtom215/spotrank/internal/history"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/projection"
	"github.com/tomtom215/spotrank/internal/snapshot"
)

func (p *Pipeline) collect(ctx context.Context, client Spotify) error {
	recent, err := client.GetRecentlyPlayed(ctx, p.cfg.Spotify.RecentLimit)
	if err != nil {
		return fmt.Errorf("fetch recently played: %w", err)
	}
	if len(recent.Items) == 0 {
		logging.Ctx(ctx).Info().Msg("No recently played tracks returned")
		return ErrNothingToDo
	}

	doc := models.RecentPlays{
		FetchedAt: p.now().UTC().Format(time.RFC3339),
		Items:     make([]models.RawRecentPlay, 0, len(recent.Items)),
	}
	for _, item := range recent.Items {
		doc.Items = append(doc.Items, item.RawRecentPlay())
	}

	gen, err := p.data.Write(snapshot.CategoryRecentlyPlayed, doc)
	if err != nil {
		return err
	}
	if _, err := p.data.Retire(snapshot.CategoryRecentlyPlayed, p.cfg.Storage.HistoryKeep); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to retire old recently-played generations")
	}

	logging.Ctx(ctx).Info().
		Int("plays", len(doc.Items)).
		Str("file", gen.Name).
		Msg("Recently played tracks collected")
	return nil
}

func (p *Pipeline) merge(ctx context.Context) error {
	logger := logging.Ctx(ctx)

	h, _, err := p.loadHistory()
	switch {
	case errors.Is(err, snapshot.ErrNoGeneration):
		logger.Info().Msg("No listening history yet, starting a new one")
		h = models.NewHistory()
	case err != nil:
		return err
	}

	plays, recentGen, err := p.loadRecentPlays()
	if errors.Is(err, snapshot.ErrNoGeneration) {
		logger.Info().Msg("No recently played generation to merge")
		return ErrNothingToDo
	}
	if err != nil {
		return err
	}

	events, rejected := history.NormalizeBatch(plays)
	metrics.RecentPlaysRejected.Add(float64(rejected))
	merged, report := history.Merge(h, events, p.now())
	metrics.RecordMerge(report.Added, report.DuplicatesSkipped, report.SelfHealed, report.NewSongs)

	logger.Info().
		Str("source", recentGen.Name).
		Int("plays", len(plays)).
		Int("rejected", rejected).
		Int("added", report.Added).
		Int("duplicates_skipped", report.DuplicatesSkipped).
		Int("self_healed", report.SelfHealed).
		Int("new_songs", report.NewSongs).
		Msg("Recently played merged")

	if !report.Changed() {
		return ErrNothingToDo
	}

	data, err := history.Encode(merged)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	gen, err := p.data.WriteBytes(snapshot.CategoryHistory, data)
	if err != nil {
		return err
	}
	if _, err := p.data.Retire(snapshot.CategoryHistory, p.cfg.Storage.HistoryKeep); err != nil {
		logger.Warn().Err(err).Msg("Failed to retire old history generations")
	}

	metrics.RecordHistorySize(merged.Metadata.TotalSongs, merged.Metadata.TotalListeningEvents)
	logger.Info().
		Str("file", gen.Name).
		Int("songs", merged.Metadata.TotalSongs).
		Int("events", merged.Metadata.TotalListeningEvents).
		Msg("Listening history written")
	return nil
}

// build writes one full output generation. client may be nil, in which case
// only carry-forward fills metadata.
func (p *Pipeline) build(ctx context.Context, client Spotify) error {
	logger := logging.Ctx(ctx)

	h, histGen, err := p.loadHistory()
	if errors.Is(err, snapshot.ErrNoGeneration) {
		logger.Info().Msg("No listening history to build from")
		return ErrNothingToDo
	}
	if err != nil {
		return err
	}

	set := projection.Build(h, p.limits(), p.now())

	carried := enrich.CarryForward(&set, p.loadPrevious(ctx))

	var report enrich.Report
	if client != nil {
		report = enrich.New(client).Enrich(ctx, &set)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	recordProjection(snapshot.CategorySongs, set.Songs.Metadata, len(set.Songs.Items))
	recordProjection(snapshot.CategoryAlbums, set.Albums.Metadata, len(set.Albums.Items))
	recordProjection(snapshot.CategoryArtists, set.Artists.Metadata, len(set.Artists.Items))
	recordProjection(snapshot.CategoryAlbumsWithSongs, set.AlbumsWithSongs.Metadata, len(set.AlbumsWithSongs.Items))

	written, err := p.outputs.WriteGeneration(documents(&set))
	if err != nil {
		return err
	}

	logger.Info().
		Str("history", histGen.Name).
		Int("songs", len(set.Songs.Items)).
		Int("albums", len(set.Albums.Items)).
		Int("artists", len(set.Artists.Items)).
		Int("albums_with_songs", len(set.AlbumsWithSongs.Items)).
		Int("carried_forward", carried).
		Int("enriched", report.RowsFilled).
		Int("failed_batches", report.FailedBatches).
		Str("generation", written[snapshot.CategorySongs].Name).
		Msg("Projections written")
	return nil
}

func recordProjection(c snapshot.Category, meta models.ProjectionMetadata, rows int) {
	metrics.RecordProjection(string(c), rows, meta.DuplicatesRemoved)
}

func documents(set *projection.Set) map[snapshot.Category]any {
	return map[snapshot.Category]any{
		snapshot.CategorySongs:           set.Songs,
		snapshot.CategoryAlbums:          set.Albums,
		snapshot.CategoryArtists:         set.Artists,
		snapshot.CategoryAlbumsWithSongs: set.AlbumsWithSongs,
	}
}

// loadHistory reads the newest history generation, upgrading legacy shapes.
func (p *Pipeline) loadHistory() (*models.History, snapshot.Generation, error) {
	var h *models.History
	gen, err := p.data.ReadLatestWith(snapshot.CategoryHistory, func(data []byte) error {
		var decodeErr error
		h, decodeErr = history.Decode(data)
		return decodeErr
	})
	return h, gen, err
}

// loadRecentPlays reads the newest recently-played generation. Both the
// {fetched_at, items} document and a bare array of plays are accepted.
func (p *Pipeline) loadRecentPlays() ([]models.RawRecentPlay, snapshot.Generation, error) {
	var plays []models.RawRecentPlay
	gen, err := p.data.ReadLatestWith(snapshot.CategoryRecentlyPlayed, func(data []byte) error {
		var decodeErr error
		plays, decodeErr = decodeRecentPlays(data)
		return decodeErr
	})
	return plays, gen, err
}

func decodeRecentPlays(data []byte) ([]models.RawRecentPlay, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var plays []models.RawRecentPlay
		if err := json.Unmarshal(trimmed, &plays); err != nil {
			return nil, err
		}
		return plays, nil
	}
	var doc models.RecentPlays
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// loadPrevious reads the current output generation for carry-forward. It
// returns nil when no category has one. Unreadable categories are skipped.
func (p *Pipeline) loadPrevious(ctx context.Context) *projection.Set {
	var (
		prev  projection.Set
		found bool
	)
	targets := map[snapshot.Category]any{
		snapshot.CategorySongs:           &prev.Songs,
		snapshot.CategoryAlbums:          &prev.Albums,
		snapshot.CategoryArtists:         &prev.Artists,
		snapshot.CategoryAlbumsWithSongs: &prev.AlbumsWithSongs,
	}
	for _, c := range snapshot.OutputCategories {
		_, err := p.outputs.ReadLatest(c, targets[c])
		switch {
		case err == nil:
			found = true
		case errors.Is(err, snapshot.ErrNoGeneration):
		default:
			logging.Ctx(ctx).Warn().Err(err).Str("category", string(c)).Msg("Previous generation unreadable, not carrying it forward")
		}
	}
	if !found {
		return nil
	}
	return &prev
}
