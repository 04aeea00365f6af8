// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics when spotrank runs in serve mode:

	curl http://localhost:8080/metrics

Batch commands (collect, merge, build, run) record into the same collectors;
they are only scraped when the scheduler runs them inside the serve process.

# Available Metrics

Pipeline:
  - pipeline_runs_total{stage, outcome}: stage runs (success, nothing_to_do, error)
  - pipeline_duration_seconds{stage}: stage duration (histogram)
  - pipeline_last_success_timestamp: last successful full run

History merge:
  - history_merge_events_added_total, history_merge_duplicates_skipped_total
  - history_merge_self_healed_total, history_merge_new_songs_total
  - recent_plays_rejected_total
  - history_songs, history_listening_events (gauges)

Projections:
  - projection_rows{category}
  - consolidation_duplicates_removed_total{category}

Spotify Web API:
  - spotify_api_requests_total{endpoint, status_code}
  - spotify_api_request_duration_seconds{endpoint}
  - spotify_api_rate_limit_retries_total{endpoint}
  - spotify_api_rate_limit_exhausted_total{endpoint}
  - spotify_token_refreshes_total{outcome}
  - enrichment_batches_total{kind, outcome}, enrichment_rows_filled_total{category, source}

Circuit breaker:
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name, result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_transitions_total{name, from, to}

Snapshot store:
  - snapshot_generations_written_total{category}
  - snapshot_generations_retired_total{category}
  - snapshot_write_errors_total{category}

Dashboard API and cache:
  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests, api_rate_limit_hits_total{endpoint}
  - cache_hits_total, cache_misses_total, cache_evictions_total, cache_entries {cache}

# Usage

	start := time.Now()
	err := p.Merge(ctx)
	metrics.RecordPipelineRun("merge", outcomeOf(err), time.Since(start))
*/
package metrics
