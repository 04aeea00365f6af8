// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that configuration values are present and in range
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateProjection(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateScheduler(); err != nil {
		return err
	}

	return c.validateLogging()
}

// maxRecentLimit is the Spotify recently-played page size ceiling.
const maxRecentLimit = 50

func (c *Config) validateSpotify() error {
	s := c.Spotify

	if err := validateHTTPURL(s.APIBaseURL, "SPOTIFY_API_BASE_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(s.AccountsURL, "SPOTIFY_ACCOUNTS_URL"); err != nil {
		return err
	}
	if s.RefreshToken != "" && (s.ClientID == "" || s.ClientSecret == "") {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required when SPOTIFY_REFRESH_TOKEN is set")
	}
	if containsPlaceholder(s.ClientSecret) || containsPlaceholder(s.RefreshToken) {
		return fmt.Errorf("spotify credentials contain a placeholder value, set real credentials or leave them empty")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("SPOTIFY_TIMEOUT must be positive, got %v", s.Timeout)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("SPOTIFY_MAX_RETRIES must be non-negative, got %d", s.MaxRetries)
	}
	if s.InitialBackoff <= 0 {
		return fmt.Errorf("SPOTIFY_INITIAL_BACKOFF must be positive, got %v", s.InitialBackoff)
	}
	if s.MaxBackoff < s.InitialBackoff {
		return fmt.Errorf("SPOTIFY_MAX_BACKOFF (%v) must be at least SPOTIFY_INITIAL_BACKOFF (%v)", s.MaxBackoff, s.InitialBackoff)
	}
	if s.BatchPause < 0 {
		return fmt.Errorf("SPOTIFY_BATCH_PAUSE must be non-negative, got %v", s.BatchPause)
	}
	if s.RecentLimit < 1 || s.RecentLimit > maxRecentLimit {
		return fmt.Errorf("SPOTIFY_RECENT_LIMIT must be between 1 and %d, got %d", maxRecentLimit, s.RecentLimit)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Storage.HistoryKeep < 1 {
		return fmt.Errorf("HISTORY_KEEP must be at least 1, got %d", c.Storage.HistoryKeep)
	}
	return nil
}

func (c *Config) validateProjection() error {
	limits := []struct {
		name  string
		value int
	}{
		{"TOP_SONGS_LIMIT", c.Projection.SongsLimit},
		{"TOP_ALBUMS_LIMIT", c.Projection.AlbumsLimit},
		{"TOP_ARTISTS_LIMIT", c.Projection.ArtistsLimit},
		{"TOP_ALBUMS_WITH_SONGS_LIMIT", c.Projection.AlbumsWithSongsLimit},
	}
	for _, l := range limits {
		if l.value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", l.name, l.value)
		}
	}
	return nil
}

// validateServer validates dashboard server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got %d", c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Server.RateLimitWindow)
	}
	if c.Server.CacheEntries < 1 {
		return fmt.Errorf("CACHE_ENTRIES must be at least 1, got %d", c.Server.CacheEntries)
	}
	if c.Server.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.Server.CacheTTL)
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.Enabled && c.Scheduler.Interval < time.Minute {
		return fmt.Errorf("SCHEDULER_INTERVAL must be at least 1m, got %v", c.Scheduler.Interval)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_CLIENT",
	"PLACEHOLDER",
}

// containsPlaceholder checks if a value contains a common placeholder pattern.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
