// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
)

var (
	// ErrRateLimited is returned when HTTP 429 persists past the retry ceiling.
	ErrRateLimited = errors.New("spotify: rate limit retries exhausted")

	// ErrUnauthorized is returned for HTTP 401 and failed token refreshes.
	ErrUnauthorized = errors.New("spotify: unauthorized")

	// ErrUpstream is returned for any other non-200 status.
	ErrUpstream = errors.New("spotify: upstream error")
)

// maxErrorBodySize limits the amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB).
// Returns a placeholder message if reading fails.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// Clock suspends the caller between retry attempts. Tests inject a fake that
// records the requested waits instead of sleeping.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// Sleep waits for d or until ctx is done.
func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client talks to the Spotify Web API.
//
// Features:
//   - Bearer token per request from a TokenProvider
//   - HTTP 429 handling with exponential backoff (1s, 2s, 4s ... capped at 60s)
//     honoring Retry-After, up to MaxRetries retries, then ErrRateLimited
//   - Courtesy pause between successive batch calls (x/time/rate limiter)
//   - Circuit breaker around each batch call
//
// Thread Safety: Safe for concurrent use, though the pipeline calls it sequentially.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
	clock   Clock
	limiter *rate.Limiter
	breaker *breaker
	retry   retryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the clock used for backoff waits.
func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Web API client from configuration.
func NewClient(cfg *config.SpotifyConfig, tokens TokenProvider, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.BatchPause > 0 {
		limit = rate.Every(cfg.BatchPause)
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		clock:   realClock{},
		limiter: rate.NewLimiter(limit, 1),
		breaker: newBreaker("spotify-api"),
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			initial:    cfg.InitialBackoff,
			max:        cfg.MaxBackoff,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryPolicy holds the bounds of the 429 state machine.
type retryPolicy struct {
	maxRetries int
	initial    time.Duration
	max        time.Duration
}

// backoff returns initial * 2^attempt, capped at max.
func (p retryPolicy) backoff(attempt int) time.Duration {
	d := p.initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.max {
			return p.max
		}
	}
	if d > p.max {
		return p.max
	}
	return d
}

// wait returns the delay before the next attempt. A Retry-After header in
// seconds replaces the computed backoff.
func (p retryPolicy) wait(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(retryAfter) + "s"); err == nil && d >= 0 {
			return d
		}
	}
	return p.backoff(attempt)
}

// retryPhase is a state of the 429 retry loop.
type retryPhase int

const (
	phaseAttempt retryPhase = iota
	phaseWait
	phaseFail
)

// doRequest performs a GET with HTTP 429 handling. The loop is an explicit
// state machine: Attempt sends the request and either returns the response or
// moves to Wait (retries left) or Fail (ceiling reached); Wait sleeps through
// the injected clock and moves back to Attempt.
func (c *Client) doRequest(ctx context.Context, endpoint, reqURL, token string) (*http.Response, error) {
	var (
		phase   = phaseAttempt
		attempt int
		delay   time.Duration
	)

	for {
		switch phase {
		case phaseAttempt:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			resp, err := c.send(ctx, endpoint, reqURL, token)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusTooManyRequests {
				return resp, nil
			}
			delay = c.retry.wait(attempt, resp.Header.Get("Retry-After"))
			_ = resp.Body.Close() // Explicitly ignore error - will retry anyway
			if attempt >= c.retry.maxRetries {
				phase = phaseFail
			} else {
				phase = phaseWait
			}

		case phaseWait:
			metrics.SpotifyRateLimitRetries.WithLabelValues(endpoint).Inc()
			logging.Ctx(ctx).Debug().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Spotify rate limited, backing off")
			if err := c.clock.Sleep(ctx, delay); err != nil {
				return nil, err
			}
			attempt++
			phase = phaseAttempt

		case phaseFail:
			metrics.SpotifyRateLimitExhausted.WithLabelValues(endpoint).Inc()
			return nil, fmt.Errorf("%s: %w after %d retries (HTTP 429)", endpoint, ErrRateLimited, attempt)
		}
	}
}

// send performs one HTTP attempt and records its metrics.
func (c *Client) send(ctx context.Context, endpoint, reqURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordSpotifyRequest(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	metrics.RecordSpotifyRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	return resp, nil
}

// getJSON fetches path and decodes a 200 response into result.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, result any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%s: access token: %w", endpoint, err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.doRequest(ctx, endpoint, reqURL, token)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request: %w: %s", endpoint, ErrUnauthorized, string(body))
	case resp.StatusCode != http.StatusOK:
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %w: %s", endpoint, resp.StatusCode, ErrUpstream, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// call runs one batch through the courtesy pause and the circuit breaker.
func (c *Client) call(ctx context.Context, endpoint, path string, params url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.breaker.execute(func() error {
		return c.getJSON(ctx, endpoint, path, params, result)
	})
}
