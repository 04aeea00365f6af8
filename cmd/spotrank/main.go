// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tomtom215/spotrank/internal/api"
	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
	"github.com/tomtom215/spotrank/internal/pipeline"
	"github.com/tomtom215/spotrank/internal/snapshot"
	"github.com/tomtom215/spotrank/internal/spotify"
)

// Exit codes.
const (
	exitOK        = 0
	exitNoNewData = 1
	exitFatal     = 2
)

const usage = `usage: spotrank <command> [flags]

commands:
  check    exit 0 when newer plays exist (or it cannot tell), 1 when not
  collect  fetch recently played tracks
  merge    merge recently played tracks into the history
  build    rebuild the rankings
  run      collect, merge and build
  serve    serve the dashboard API
`

var commands = map[string]bool{
	"check": true, "collect": true, "merge": true, "build": true, "run": true, "serve": true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, loads configuration and executes one command.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	if len(args) == 0 || !commands[args[0]] {
		fmt.Fprint(stderr, usage)
		return exitFatal
	}
	name := args[0]

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	logLevel := fs.String("log-level", "", "override logging.level")
	if err := fs.Parse(args[1:]); err != nil {
		return exitFatal
	}

	if *configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, *configPath); err != nil {
			fmt.Fprintf(stderr, "spotrank: %v\n", err)
			return exitFatal
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "spotrank: %v\n", err)
		return exitFatal
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	return execute(ctx, name, cfg, spotify.CredentialsFromConfig(&cfg.Spotify))
}

// execute runs a command against an already loaded configuration.
func execute(ctx context.Context, name string, cfg *config.Config, creds spotify.Credentials) int {
	data, err := snapshot.NewStore(cfg.Storage.DataDir)
	if err != nil {
		logging.Error().Err(err).Str("dir", cfg.Storage.DataDir).Msg("Cannot open data directory")
		return exitFatal
	}
	outputs, err := snapshot.NewStore(cfg.Storage.OutputDir)
	if err != nil {
		logging.Error().Err(err).Str("dir", cfg.Storage.OutputDir).Msg("Cannot open output directory")
		return exitFatal
	}

	p := pipeline.New(cfg, data, outputs, creds)

	switch name {
	case "check":
		if p.CheckForNew(ctx) {
			return exitOK
		}
		return exitNoNewData
	case "collect":
		return exitCode(p.Collect(ctx))
	case "merge":
		return exitCode(p.Merge(ctx))
	case "build":
		return exitCode(p.Build(ctx))
	case "run":
		return exitCode(p.Run(ctx))
	case "serve":
		return exitCode(serve(ctx, cfg, data, outputs, p))
	default:
		logging.Error().Str("command", name).Msg("Unknown command")
		return exitFatal
	}
}

func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, pipeline.ErrNothingToDo):
		return exitOK
	case errors.Is(err, snapshot.ErrMalformed):
		logging.Error().Err(err).Msg("Malformed snapshot, refusing to overwrite it")
		return exitFatal
	case errors.Is(err, context.Canceled):
		logging.Warn().Msg("Interrupted")
		return exitFatal
	default:
		logging.Error().Err(err).Msg("Command failed")
		return exitFatal
	}
}
