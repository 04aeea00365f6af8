// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package spotify is the Spotify Web API client used for collecting recently
played tracks and for metadata enrichment.

# Resilience

Every batch call passes through three layers:

  - A courtesy pause between successive batches (golang.org/x/time/rate)
  - A circuit breaker (sony/gobreaker) that opens after at least 5 requests
    with a failure rate of 60% or more
  - An HTTP 429 retry state machine: Attempt, Wait, then Retry or Fail.
    Backoff starts at 1s and doubles up to 60s; a Retry-After header replaces
    the computed wait. After MaxRetries retries the call fails with ErrRateLimited.

Waits go through an injected Clock so retry timing is testable without timers.

# Credentials

TokenProvider is the credential capability. RefreshTokenProvider performs the
refresh-token grant against the accounts service (go-resty) and caches the
access token until shortly before expiry; StaticTokenProvider serves a fixed
token. Credentials carries an optional provider so callers never pass nil.

# Errors

  - ErrRateLimited: 429 retry budget exhausted
  - ErrUnauthorized: HTTP 401 or a rejected token refresh
  - ErrUpstream: any other non-200 status
*/
package spotify
