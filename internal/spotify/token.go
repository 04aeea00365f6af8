// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/spotrank/internal/config"
	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
)

// TokenProvider supplies bearer tokens for the Web API.
type TokenProvider interface {
	// AccessToken returns a currently valid access token.
	AccessToken(ctx context.Context) (string, error)
	// TestToken reports whether token is accepted by the Web API.
	TestToken(ctx context.Context, token string) bool
}

// Credentials is an optional TokenProvider. The zero value holds none.
type Credentials struct {
	provider TokenProvider
}

// NoCredentials returns empty credentials; enrichment and collection are skipped.
func NoCredentials() Credentials {
	return Credentials{}
}

// WithProvider wraps a provider. A nil provider yields empty credentials.
func WithProvider(p TokenProvider) Credentials {
	return Credentials{provider: p}
}

// Available reports whether a provider is present.
func (c Credentials) Available() bool {
	return c.provider != nil
}

// Provider returns the wrapped provider and whether one is present.
func (c Credentials) Provider() (TokenProvider, bool) {
	return c.provider, c.provider != nil
}

// ErrNoCredentials is returned by Verify on empty credentials.
var ErrNoCredentials = errors.New("spotify: no credentials configured")

// Verify obtains a token and tests it against the Web API.
func (c Credentials) Verify(ctx context.Context) (TokenProvider, error) {
	if c.provider == nil {
		return nil, ErrNoCredentials
	}
	token, err := c.provider.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if !c.provider.TestToken(ctx, token) {
		return nil, fmt.Errorf("%w: access token rejected", ErrUnauthorized)
	}
	return c.provider, nil
}

// CredentialsFromConfig picks the refresh-token grant when configured, then a
// static access token, else no credentials.
func CredentialsFromConfig(cfg *config.SpotifyConfig) Credentials {
	switch {
	case cfg.HasRefreshCredentials():
		return WithProvider(NewRefreshTokenProvider(cfg))
	case cfg.AccessToken != "":
		return WithProvider(NewStaticTokenProvider(cfg, cfg.AccessToken))
	default:
		return NoCredentials()
	}
}

func newRestyClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
}

// testToken calls /v1/me with token.
func testToken(ctx context.Context, client *resty.Client, apiBaseURL, token string) bool {
	resp, err := client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(apiBaseURL + "/v1/me")
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Spotify token test failed")
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

// StaticTokenProvider serves a fixed access token.
type StaticTokenProvider struct {
	token      string
	apiBaseURL string
	client     *resty.Client
}

// NewStaticTokenProvider creates a provider for a pre-issued access token.
func NewStaticTokenProvider(cfg *config.SpotifyConfig, token string) *StaticTokenProvider {
	return &StaticTokenProvider{
		token:      token,
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client:     newRestyClient(cfg.Timeout),
	}
}

// AccessToken returns the configured token.
func (p *StaticTokenProvider) AccessToken(context.Context) (string, error) {
	return p.token, nil
}

// TestToken reports whether token is accepted by the Web API.
func (p *StaticTokenProvider) TestToken(ctx context.Context, token string) bool {
	return testToken(ctx, p.client, p.apiBaseURL, token)
}

// expiryLeeway refreshes tokens slightly before they expire.
const expiryLeeway = 60 * time.Second

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// RefreshTokenProvider exchanges a long-lived refresh token for access tokens
// at the accounts service and caches each until shortly before expiry.
type RefreshTokenProvider struct {
	client       *resty.Client
	accountsURL  string
	apiBaseURL   string
	clientID     string
	clientSecret string
	now          func() time.Time

	mu           sync.Mutex
	refreshToken string
	token        string
	expiry       time.Time
}

// NewRefreshTokenProvider creates a provider from Spotify configuration.
func NewRefreshTokenProvider(cfg *config.SpotifyConfig) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		client:       newRestyClient(cfg.Timeout),
		accountsURL:  strings.TrimRight(cfg.AccountsURL, "/"),
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		now:          time.Now,
	}
}

// AccessToken returns the cached token, refreshing it when missing or about to expire.
func (p *RefreshTokenProvider) AccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expiry.Add(-expiryLeeway)) {
		return p.token, nil
	}

	var (
		result tokenResponse
		apiErr tokenError
	)
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.clientID, p.clientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": p.refreshToken,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(p.accountsURL + "/api/token")
	if err != nil {
		metrics.SpotifyTokenRefreshes.WithLabelValues("error").Inc()
		return "", fmt.Errorf("token refresh request failed: %w", err)
	}
	if resp.IsError() {
		metrics.SpotifyTokenRefreshes.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: token refresh failed with status %d: %s %s",
			ErrUnauthorized, resp.StatusCode(), apiErr.Error, apiErr.Description)
	}
	if result.AccessToken == "" {
		metrics.SpotifyTokenRefreshes.WithLabelValues("error").Inc()
		return "", fmt.Errorf("token refresh returned no access token")
	}

	// The accounts service may rotate the refresh token
	if result.RefreshToken != "" {
		p.refreshToken = result.RefreshToken
	}
	p.token = result.AccessToken
	p.expiry = p.now().Add(time.Duration(result.ExpiresIn) * time.Second)

	metrics.SpotifyTokenRefreshes.WithLabelValues("success").Inc()
	logging.Ctx(ctx).Debug().Time("expires_at", p.expiry).Msg("Spotify access token refreshed")
	return p.token, nil
}

// TestToken reports whether token is accepted by the Web API.
func (p *RefreshTokenProvider) TestToken(ctx context.Context, token string) bool {
	return testToken(ctx, p.client, p.apiBaseURL, token)
}
