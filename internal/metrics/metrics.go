// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeNothingToDo = "nothing_to_do"
	OutcomeError       = "error"
)

var (
	// Pipeline Metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline stage runs",
		},
		[]string{"stage", "outcome"}, // stage: collect, merge, build, run, check
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful full pipeline run",
		},
	)

	// History Merge Metrics
	MergeEventsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_merge_events_added_total",
			Help: "Total number of listening events appended to the history",
		},
	)

	MergeDuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_merge_duplicates_skipped_total",
			Help: "Total number of incoming plays skipped because played_at was already recorded",
		},
	)

	MergeSelfHealed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_merge_self_healed_total",
			Help: "Total number of duplicate listening events removed from loaded histories",
		},
	)

	MergeNewSongs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_merge_new_songs_total",
			Help: "Total number of songs created by history merges",
		},
	)

	RecentPlaysRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recent_plays_rejected_total",
			Help: "Total number of raw recent plays rejected by validation",
		},
	)

	HistorySongs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_songs",
			Help: "Number of songs in the latest history generation",
		},
	)

	HistoryListeningEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "history_listening_events",
			Help: "Number of listening events in the latest history generation",
		},
	)

	// Projection Metrics
	ProjectionRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "projection_rows",
			Help: "Number of ranked rows in the latest projection",
		},
		[]string{"category"},
	)

	ConsolidationDuplicatesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consolidation_duplicates_removed_total",
			Help: "Total number of near-duplicate rows folded by consolidation",
		},
		[]string{"category"},
	)

	// Spotify Web API Metrics
	SpotifyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_api_requests_total",
			Help: "Total number of Spotify Web API requests",
		},
		[]string{"endpoint", "status_code"},
	)

	SpotifyRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotify_api_request_duration_seconds",
			Help:    "Spotify Web API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	SpotifyRateLimitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_api_rate_limit_retries_total",
			Help: "Total number of retries after HTTP 429 responses",
		},
		[]string{"endpoint"},
	)

	SpotifyRateLimitExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_api_rate_limit_exhausted_total",
			Help: "Total number of calls that gave up after exhausting the 429 retry budget",
		},
		[]string{"endpoint"},
	)

	SpotifyTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_token_refreshes_total",
			Help: "Total number of access token refresh attempts",
		},
		[]string{"outcome"},
	)

	// Enrichment Metrics
	EnrichmentBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_batches_total",
			Help: "Total number of enrichment batches by outcome",
		},
		[]string{"kind", "outcome"}, // kind: tracks, albums, album_tracks, artists
	)

	EnrichmentRowsFilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_rows_filled_total",
			Help: "Total number of ranked rows that gained metadata",
		},
		[]string{"category", "source"}, // source: carry_forward, api
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Snapshot Store Metrics
	SnapshotGenerationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_generations_written_total",
			Help: "Total number of snapshot generations written",
		},
		[]string{"category"},
	)

	SnapshotGenerationsRetired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_generations_retired_total",
			Help: "Total number of old snapshot generations deleted",
		},
		[]string{"category"},
	)

	SnapshotWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_write_errors_total",
			Help: "Total number of failed snapshot writes",
		},
		[]string{"category"},
	)

	// Dashboard API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Generation Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordPipelineRun records one pipeline stage execution.
func RecordPipelineRun(stage, outcome string, duration time.Duration) {
	PipelineRuns.WithLabelValues(stage, outcome).Inc()
	PipelineDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if stage == "run" && outcome == OutcomeSuccess {
		PipelineLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordMerge records the counters of one history merge.
func RecordMerge(added, duplicatesSkipped, selfHealed, newSongs int) {
	MergeEventsAdded.Add(float64(added))
	MergeDuplicatesSkipped.Add(float64(duplicatesSkipped))
	MergeSelfHealed.Add(float64(selfHealed))
	MergeNewSongs.Add(float64(newSongs))
}

// RecordHistorySize updates the history size gauges.
func RecordHistorySize(songs, events int) {
	HistorySongs.Set(float64(songs))
	HistoryListeningEvents.Set(float64(events))
}

// RecordProjection records the row count and consolidation result of one category.
func RecordProjection(category string, rows, duplicatesRemoved int) {
	ProjectionRows.WithLabelValues(category).Set(float64(rows))
	ConsolidationDuplicatesRemoved.WithLabelValues(category).Add(float64(duplicatesRemoved))
}

// RecordSpotifyRequest records one Spotify Web API round trip.
func RecordSpotifyRequest(endpoint, statusCode string, duration time.Duration) {
	SpotifyRequests.WithLabelValues(endpoint, statusCode).Inc()
	SpotifyRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordAPIRequest records a dashboard API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
