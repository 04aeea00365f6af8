// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/pipeline"
)

// DefaultSchedulerInterval is used when the configured interval is not positive.
const DefaultSchedulerInterval = 30 * time.Minute

// Pipeline is the part of *pipeline.Pipeline the scheduler drives.
type Pipeline interface {
	CheckForNew(ctx context.Context) bool
	Run(ctx context.Context) error
}

// SchedulerService checks for new plays on a fixed interval and runs the
// pipeline when there are any. The first check happens immediately.
//
//	svc := services.NewSchedulerService(p, cfg.Scheduler.Interval)
//	tree.AddJobService(svc)
type SchedulerService struct {
	pipeline Pipeline
	interval time.Duration
	name     string
}

// NewSchedulerService creates a scheduler for p.
func NewSchedulerService(p Pipeline, interval time.Duration) *SchedulerService {
	if interval <= 0 {
		interval = DefaultSchedulerInterval
	}
	return &SchedulerService{
		pipeline: p,
		interval: interval,
		name:     "pipeline-scheduler",
	}
}

// Serve implements suture.Service. Pipeline failures are logged and retried
// on the next tick; Serve only returns on cancellation.
func (s *SchedulerService) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", s.interval).Msg("Pipeline scheduler started")

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Pipeline scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SchedulerService) tick(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx)

	if !s.pipeline.CheckForNew(ctx) {
		logger.Debug().Msg("No new plays, skipping scheduled run")
		return
	}

	err := s.pipeline.Run(ctx)
	switch {
	case err == nil, errors.Is(err, pipeline.ErrNothingToDo):
	case ctx.Err() != nil:
		// shutting down
	default:
		logger.Error().Err(err).Msg("Scheduled pipeline run failed")
	}
}

// String names the service in supervisor events.
func (s *SchedulerService) String() string {
	return s.name
}
