// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package pipeline

import (
	"context"
	"time"

	"github.com/tomtom215/spotrank/internal/history"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
)

// CheckForNew reports whether Spotify has plays newer than the newest play in
// the stored history. Any failure or ambiguity answers true: an unneeded run
// is cheaper than a missed one.
func (p *Pipeline) CheckForNew(ctx context.Context) bool {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	start := time.Now()

	newer, reason := p.checkForNew(ctx)

	outcome := metrics.OutcomeSuccess
	if !newer {
		outcome = metrics.OutcomeNothingToDo
	}
	metrics.RecordPipelineRun(StageCheck, outcome, time.Since(start))
	logging.Ctx(ctx).Info().Bool("new_data", newer).Str("reason", reason).Msg("Checked for new plays")
	return newer
}

func (p *Pipeline) checkForNew(ctx context.Context) (bool, string) {
	logger := logging.Ctx(ctx)

	client, err := p.connect(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot verify Spotify credentials for the check")
		return true, "credentials unavailable"
	}

	recent, err := client.GetRecentlyPlayed(ctx, 1)
	if err != nil {
		logger.Warn().Err(err).Msg("Recently played check failed")
		return true, "fetch failed"
	}
	if len(recent.Items) == 0 {
		return false, "no recent plays"
	}

	newest, err := time.Parse(time.RFC3339Nano, recent.Items[0].PlayedAt)
	if err != nil {
		logger.Warn().Err(err).Str("played_at", recent.Items[0].PlayedAt).Msg("Unparseable played_at from Spotify")
		return true, "unparseable played_at"
	}

	h, _, err := p.loadHistory()
	if err != nil {
		logger.Warn().Err(err).Msg("No readable history to compare against")
		return true, "history unavailable"
	}
	latest, ok := history.LatestPlayedAt(h)
	if !ok {
		return true, "history has no plays"
	}

	// stored plays are second precision
	if newest.Truncate(time.Second).After(latest) {
		return true, "newer plays available"
	}
	return false, "up to date"
}
