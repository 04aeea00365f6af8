// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"spotrank.yaml",
	"config.yaml",
	"config.yml",
	"/etc/spotrank/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is the credentials file loaded into the environment before the
// environment layer is read. A missing file is not an error.
var DotEnvFile = ".env"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			APIBaseURL:     "https://api.spotify.com",
			AccountsURL:    "https://accounts.spotify.com",
			Timeout:        30 * time.Second,
			MaxRetries:     5,
			InitialBackoff: time.Second,
			MaxBackoff:     60 * time.Second,
			BatchPause:     100 * time.Millisecond,
			RecentLimit:    50,
		},
		Storage: StorageConfig{
			DataDir:     "data",
			OutputDir:   "data/cleaned",
			HistoryKeep: 3,
		},
		Projection: ProjectionConfig{
			SongsLimit:           500,
			AlbumsLimit:          500,
			ArtistsLimit:         500,
			AlbumsWithSongsLimit: 100,
		},
		Enrichment: EnrichmentConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3858,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CacheEntries:    32,
			CacheTTL:        5 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Interval: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Defaults returns the built-in configuration without reading any source.
func Defaults() *Config {
	return defaultConfig()
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. .env file merged into the process environment (existing variables win)
//  2. Defaults: Built-in sensible defaults
//  3. Config File: Optional YAML config file (if exists)
//  4. Environment Variables: Override any setting
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// SPOTIFY_REFRESH_TOKEN -> spotify.refresh_token
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv merges a .env file into the environment without overriding
// variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Spotify credentials and client
	"spotify_client_id":       "spotify.client_id",
	"spotify_client_secret":   "spotify.client_secret",
	"spotify_refresh_token":   "spotify.refresh_token",
	"spotify_access_token":    "spotify.access_token",
	"spotify_api_base_url":    "spotify.api_base_url",
	"spotify_accounts_url":    "spotify.accounts_url",
	"spotify_timeout":         "spotify.timeout",
	"spotify_max_retries":     "spotify.max_retries",
	"spotify_initial_backoff": "spotify.initial_backoff",
	"spotify_max_backoff":     "spotify.max_backoff",
	"spotify_batch_pause":     "spotify.batch_pause",
	"spotify_recent_limit":    "spotify.recent_limit",

	// Snapshot storage
	"data_dir":     "storage.data_dir",
	"output_dir":   "storage.output_dir",
	"history_keep": "storage.history_keep",

	// Projection limits
	"top_songs_limit":             "projection.songs_limit",
	"top_albums_limit":            "projection.albums_limit",
	"top_artists_limit":           "projection.artists_limit",
	"top_albums_with_songs_limit": "projection.albums_with_songs_limit",

	"enable_enrichment": "enrichment.enabled",

	// Dashboard server
	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",
	"cache_entries":     "server.cache_entries",
	"cache_ttl":         "server.cache_ttl",

	"enable_scheduler":   "scheduler.enabled",
	"scheduler_interval": "scheduler.interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SPOTIFY_REFRESH_TOKEN -> spotify.refresh_token
//   - TOP_SONGS_LIMIT -> projection.songs_limit
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Unmapped keys are skipped so unrelated environment variables never leak into config
	return ""
}
