// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/spotrank/internal/api"
	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/pipeline"
	"github.com/tomtom215/spotrank/internal/snapshot"
	"github.com/tomtom215/spotrank/internal/supervisor"
	"github.com/tomtom215/spotrank/internal/supervisor/services"
)

// serve runs the dashboard API, and the pipeline scheduler when enabled,
// under the supervisor tree until ctx is canceled.
func serve(ctx context.Context, cfg *config.Config, data, outputs *snapshot.Store, p *pipeline.Pipeline) error {
	// sutureslog needs slog; the adapter writes through zerolog
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	handler := api.NewHandler(data, outputs, &cfg.Server)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromServer(&cfg.Server))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if cfg.Scheduler.Enabled {
		tree.AddJobService(services.NewSchedulerService(p, cfg.Scheduler.Interval))
		logging.Info().Dur("interval", cfg.Scheduler.Interval).Msg("Pipeline scheduler added")
	} else {
		logging.Info().Msg("Pipeline scheduler disabled (ENABLE_SCHEDULER=false)")
	}

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	serveErr := <-errCh
	if serveErr != nil && (ctx.Err() != nil || errors.Is(serveErr, context.Canceled)) {
		serveErr = nil
	}
	if serveErr != nil {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
	return serveErr
}
