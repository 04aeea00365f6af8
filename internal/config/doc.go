// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package config provides centralized configuration management for Spotrank.

Configuration is layered with Koanf v2: built-in defaults, then an optional
YAML file (spotrank.yaml, config.yaml, /etc/spotrank/config.yaml or the path in
CONFIG_PATH), then environment variables. A .env file in the working directory
is merged into the process environment first, so Spotify credentials can live
next to the data directory without being exported in the shell.

# Environment Variables

Spotify (SpotifyConfig):
  - SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, SPOTIFY_REFRESH_TOKEN: refresh-token grant
  - SPOTIFY_ACCESS_TOKEN: static bearer token alternative
  - SPOTIFY_MAX_RETRIES: HTTP 429 retry ceiling (default: 5)
  - SPOTIFY_INITIAL_BACKOFF / SPOTIFY_MAX_BACKOFF: 429 backoff bounds (default: 1s / 60s)
  - SPOTIFY_BATCH_PAUSE: pause between enrichment batches (default: 100ms)
  - SPOTIFY_RECENT_LIMIT: recently-played page size, 1..50 (default: 50)

Storage (StorageConfig):
  - DATA_DIR: history and recently-played generations (default: data)
  - OUTPUT_DIR: ranked output generations (default: data/cleaned)
  - HISTORY_KEEP: history generations kept after a merge (default: 3)

Projection (ProjectionConfig):
  - TOP_SONGS_LIMIT, TOP_ALBUMS_LIMIT, TOP_ARTISTS_LIMIT (default: 500)
  - TOP_ALBUMS_WITH_SONGS_LIMIT (default: 100)

Serve mode (ServerConfig, SchedulerConfig):
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:3858), HTTP_TIMEOUT
  - CORS_ORIGINS: comma-separated origins (default: *)
  - RATE_LIMIT_REQS / RATE_LIMIT_WINDOW: per-IP limit (default: 100 per 1m)
  - CACHE_ENTRIES / CACHE_TTL: decoded generation cache (default: 32 / 5m)
  - ENABLE_SCHEDULER / SCHEDULER_INTERVAL: periodic check-and-run (default: off / 30m)

Logging (LoggingConfig):
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)
  - LOG_CALLER: include caller file:line

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}
	client := spotify.NewClient(&cfg.Spotify, tokens)

# Thread Safety

The Config struct is immutable after Load() returns and safe for concurrent reads.
*/
package config
