// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file, a .env file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. .env: loaded into the process environment if present (godotenv)
//  2. Defaults: Built-in sensible defaults for all optional settings
//  3. Config File: Optional YAML config file (spotrank.yaml, config.yaml)
//  4. Environment Variables: Override any setting via environment variables
//
// Example - Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	store, err := snapshot.NewStore(cfg.Storage.OutputDir)
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Spotify    SpotifyConfig    `koanf:"spotify"`
	Storage    StorageConfig    `koanf:"storage"`
	Projection ProjectionConfig `koanf:"projection"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Server     ServerConfig     `koanf:"server"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// SpotifyConfig holds Spotify Web API credentials and client tuning.
//
// Credentials are optional. With no refresh token and no access token the
// pipeline still produces complete rankings, only without enrichment and
// without collecting recently played tracks.
//
// Environment Variables:
//   - SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET: app credentials for the refresh grant
//   - SPOTIFY_REFRESH_TOKEN: long-lived user refresh token
//   - SPOTIFY_ACCESS_TOKEN: static bearer token (used when no refresh token is set)
//   - SPOTIFY_API_BASE_URL: Web API base URL (default: https://api.spotify.com)
//   - SPOTIFY_ACCOUNTS_URL: accounts service base URL (default: https://accounts.spotify.com)
//   - SPOTIFY_MAX_RETRIES: HTTP 429 retry ceiling (default: 5)
//   - SPOTIFY_BATCH_PAUSE: courtesy pause between batches (default: 100ms)
type SpotifyConfig struct {
	ClientID       string        `koanf:"client_id"`
	ClientSecret   string        `koanf:"client_secret"`
	RefreshToken   string        `koanf:"refresh_token"`
	AccessToken    string        `koanf:"access_token"`
	APIBaseURL     string        `koanf:"api_base_url"`
	AccountsURL    string        `koanf:"accounts_url"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`
	BatchPause     time.Duration `koanf:"batch_pause"`
	RecentLimit    int           `koanf:"recent_limit"`
}

// HasRefreshCredentials reports whether the refresh-token grant can be used.
func (s SpotifyConfig) HasRefreshCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RefreshToken != ""
}

// StorageConfig holds snapshot directory settings.
type StorageConfig struct {
	DataDir     string `koanf:"data_dir"`     // listening-history and recently-played generations
	OutputDir   string `koanf:"output_dir"`   // cleaned-* generations
	HistoryKeep int    `koanf:"history_keep"` // history generations retained after a merge
}

// ProjectionConfig holds the per-category truncation limits.
type ProjectionConfig struct {
	SongsLimit           int `koanf:"songs_limit"`
	AlbumsLimit          int `koanf:"albums_limit"`
	ArtistsLimit         int `koanf:"artists_limit"`
	AlbumsWithSongsLimit int `koanf:"albums_with_songs_limit"`
}

// EnrichmentConfig toggles the metadata enrichment pass.
type EnrichmentConfig struct {
	Enabled bool `koanf:"enabled"`
}

// ServerConfig holds dashboard API settings for serve mode.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CacheEntries    int           `koanf:"cache_entries"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// SchedulerConfig controls the periodic check-and-run job in serve mode.
type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}
