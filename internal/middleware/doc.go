// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package middleware provides chi-compatible HTTP middleware for the dashboard API.

Key Components:
  - RequestID: request and correlation IDs for log tracing
  - PrometheusMetrics: request count, latency and in-flight gauge per route pattern
  - Compression: pooled gzip encoding for clients that accept it

All middleware has the func(http.Handler) http.Handler shape and is installed
with chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

PrometheusMetrics labels requests with the matched route pattern
(for example "/api/v1/songs"), never the raw path.

See Also:
  - internal/api: handlers and router
  - internal/metrics: metric definitions
*/
package middleware
