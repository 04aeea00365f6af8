// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/models"
	"github.com/tomtom215/spotrank/internal/pipeline"
	"github.com/tomtom215/spotrank/internal/snapshot"
	"github.com/tomtom215/spotrank/internal/spotify"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.OutputDir = t.TempDir()
	return cfg
}

func seedRecentPlays(t *testing.T, cfg *config.Config) {
	t.Helper()
	store, err := snapshot.NewStore(cfg.Storage.DataDir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	doc := models.RecentPlays{
		FetchedAt: "2024-03-01T00:00:00Z",
		Items: []models.RawRecentPlay{{
			ID:         "t1",
			Name:       "Song A",
			Artists:    []models.Artist{{ID: "a1", Name: "Artist"}},
			Album:      models.AlbumRef{ID: "al1", Name: "Album"},
			DurationMs: 180000,
			PlayedAt:   "2024-02-01T10:00:00Z",
		}},
	}
	if _, err := store.Write(snapshot.CategoryRecentlyPlayed, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"deploy"}},
		{"unknown flag", []string{"build", "-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stderr); code != exitFatal {
				t.Errorf("exit code = %d, want %d", code, exitFatal)
			}
			if stderr.Len() == 0 {
				t.Error("nothing written to stderr")
			}
		})
	}
}

func TestRun_UsageListsCommands(t *testing.T) {
	var stderr bytes.Buffer
	run(context.Background(), nil, &stderr)
	for name := range commands {
		if !strings.Contains(stderr.String(), name) {
			t.Errorf("usage does not mention %q", name)
		}
	}
}

func TestExecute_EmptyStoresHaveNothingToDo(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"collect", "merge", "build", "run"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if code := execute(context.Background(), name, testConfig(t), spotify.NoCredentials()); code != exitOK {
				t.Errorf("exit code = %d, want %d", code, exitOK)
			}
		})
	}
}

func TestExecute_RunBuildsOutputs(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedRecentPlays(t, cfg)

	if code := execute(context.Background(), "run", cfg, spotify.NoCredentials()); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}

	outputs, err := snapshot.NewStore(cfg.Storage.OutputDir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, c := range snapshot.OutputCategories {
		if _, err := outputs.Latest(c); err != nil {
			t.Errorf("%s not written: %v", c, err)
		}
	}
}

func TestExecute_MalformedHistoryIsFatal(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	seedRecentPlays(t, cfg)
	store, err := snapshot.NewStore(cfg.Storage.DataDir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.WriteBytes(snapshot.CategoryHistory, []byte("not json")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	if code := execute(context.Background(), "merge", cfg, spotify.NoCredentials()); code != exitFatal {
		t.Errorf("exit code = %d, want %d", code, exitFatal)
	}
}

func TestExecute_CheckWithoutCredentialsSaysNew(t *testing.T) {
	t.Parallel()

	if code := execute(context.Background(), "check", testConfig(t), spotify.NoCredentials()); code != exitOK {
		t.Errorf("exit code = %d, want %d", code, exitOK)
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{pipeline.ErrNothingToDo, exitOK},
		{fmt.Errorf("stage: %w", pipeline.ErrNothingToDo), exitOK},
		{fmt.Errorf("%w: listening-history-1.json", snapshot.ErrMalformed), exitFatal},
		{context.Canceled, exitFatal},
		{errors.New("disk full"), exitFatal},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
