// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package pipeline runs the batch stages: collect recently played tracks,
// merge them into the listening history, and build the ranked outputs.
//
// Each stage is run-to-completion. A missing input ends a stage early with
// ErrNothingToDo, which callers treat as success. Every stage invocation
// carries a correlation ID in its context and is recorded in the
// pipeline_runs_total and pipeline_duration_seconds metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/enrich"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
	"github.com/tomtom215/spotrank/internal/projection"
	"github.com/tomtom215/spotrank/internal/snapshot"
	"github.com/tomtom215/spotrank/internal/spotify"
)

// ErrNothingToDo reports that a stage found no input to process. It is a
// valid steady state, not a failure.
var ErrNothingToDo = errors.New("pipeline: nothing to do")

// Stage names used as the "stage" metric label.
const (
	StageCollect = "collect"
	StageMerge   = "merge"
	StageBuild   = "build"
	StageRun     = "run"
	StageCheck   = "check"
)

// Spotify is the part of the Web API the pipeline calls.
type Spotify interface {
	enrich.Catalog
	GetRecentlyPlayed(ctx context.Context, limit int) (*spotify.RecentlyPlayed, error)
}

// ClientFactory builds a Spotify client for a verified token provider.
type ClientFactory func(tokens spotify.TokenProvider) Spotify

// Pipeline holds the stores and credentials shared by every stage.
type Pipeline struct {
	cfg       *config.Config
	data      *snapshot.Store // listening-history and recently-played
	outputs   *snapshot.Store // cleaned-* projections
	creds     spotify.Credentials
	newClient ClientFactory
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClientFactory replaces the Spotify client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(p *Pipeline) { p.newClient = f }
}

// WithClock overrides the clock that stamps merges and projections.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline. Empty credentials are valid: collection and
// enrichment are then skipped.
func New(cfg *config.Config, data, outputs *snapshot.Store, creds spotify.Credentials, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		data:    data,
		outputs: outputs,
		creds:   creds,
		now:     time.Now,
	}
	p.newClient = func(tokens spotify.TokenProvider) Spotify {
		return spotify.NewClient(&p.cfg.Spotify, tokens)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// connect verifies the credentials and returns a client.
func (p *Pipeline) connect(ctx context.Context) (Spotify, error) {
	tokens, err := p.creds.Verify(ctx)
	if err != nil {
		return nil, err
	}
	return p.newClient(tokens), nil
}

// Collect fetches the most recent plays and stores them as a
// recently-played generation.
func (p *Pipeline) Collect(ctx context.Context) error {
	return p.runStage(ctx, StageCollect, func(ctx context.Context) error {
		client, err := p.connect(ctx)
		if errors.Is(err, spotify.ErrNoCredentials) {
			logging.Ctx(ctx).Info().Msg("No Spotify credentials configured, nothing to collect")
			return ErrNothingToDo
		}
		if err != nil {
			return fmt.Errorf("verify spotify credentials: %w", err)
		}
		return p.collect(ctx, client)
	})
}

// Merge folds the latest recently-played generation into the history.
func (p *Pipeline) Merge(ctx context.Context) error {
	return p.runStage(ctx, StageMerge, p.merge)
}

// Build rebuilds every projection from the latest history, enriching it
// when enabled and the credentials verify.
func (p *Pipeline) Build(ctx context.Context) error {
	return p.runStage(ctx, StageBuild, func(ctx context.Context) error {
		return p.build(ctx, p.enrichmentClient(ctx, nil))
	})
}

// Run collects (when credentials are available), merges and builds.
// A failed collection is logged and the run continues with the data on disk.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.runStage(ctx, StageRun, func(ctx context.Context) error {
		client, err := p.connect(ctx)
		switch {
		case err == nil:
			cerr := p.runStage(ctx, StageCollect, func(ctx context.Context) error {
				return p.collect(ctx, client)
			})
			if cerr != nil && !errors.Is(cerr, ErrNothingToDo) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Ctx(ctx).Warn().Err(cerr).Msg("Collection failed, continuing with stored plays")
			}
		case errors.Is(err, spotify.ErrNoCredentials):
			logging.Ctx(ctx).Info().Msg("No Spotify credentials configured, skipping collection and enrichment")
		default:
			logging.Ctx(ctx).Warn().Err(err).Msg("Spotify credentials failed verification, skipping collection and enrichment")
		}

		if err := p.runStage(ctx, StageMerge, p.merge); err != nil && !errors.Is(err, ErrNothingToDo) {
			return err
		}

		return p.runStage(ctx, StageBuild, func(ctx context.Context) error {
			return p.build(ctx, p.enrichmentClient(ctx, client))
		})
	})
}

// enrichmentClient returns the client to enrich with, or nil when
// enrichment is disabled or unavailable. A non-nil connected client is reused.
func (p *Pipeline) enrichmentClient(ctx context.Context, connected Spotify) Spotify {
	if !p.cfg.Enrichment.Enabled {
		return nil
	}
	if connected != nil {
		return connected
	}
	client, err := p.connect(ctx)
	switch {
	case err == nil:
		return client
	case errors.Is(err, spotify.ErrNoCredentials):
		logging.Ctx(ctx).Info().Msg("No Spotify credentials configured, skipping enrichment")
	default:
		logging.Ctx(ctx).Warn().Err(err).Msg("Spotify credentials failed verification, skipping enrichment")
	}
	return nil
}

// runStage wraps fn with a correlation ID, logging and metrics.
func (p *Pipeline) runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	logger := logging.Ctx(ctx)

	start := time.Now()
	logger.Debug().Str("stage", stage).Msg("Pipeline stage started")

	err := fn(ctx)
	duration := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordPipelineRun(stage, metrics.OutcomeSuccess, duration)
		logger.Info().Str("stage", stage).Dur("duration", duration).Msg("Pipeline stage complete")
	case errors.Is(err, ErrNothingToDo):
		metrics.RecordPipelineRun(stage, metrics.OutcomeNothingToDo, duration)
		logger.Info().Str("stage", stage).Dur("duration", duration).Msg("Pipeline stage had nothing to do")
	default:
		metrics.RecordPipelineRun(stage, metrics.OutcomeError, duration)
		logger.Error().Err(err).Str("stage", stage).Dur("duration", duration).Msg("Pipeline stage failed")
	}
	return err
}

func (p *Pipeline) limits() projection.Limits {
	return projection.Limits{
		Songs:           p.cfg.Projection.SongsLimit,
		Albums:          p.cfg.Projection.AlbumsLimit,
		Artists:         p.cfg.Projection.ArtistsLimit,
		AlbumsWithSongs: p.cfg.Projection.AlbumsWithSongsLimit,
	}
}
