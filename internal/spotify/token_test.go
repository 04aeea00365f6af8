// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// accountsServer serves /api/token and /v1/me.
func accountsServer(t *testing.T, refreshes *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad client"}`))
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		n := refreshes.Add(1)
		if n > 1 && r.PostForm.Get("refresh_token") != "rotated" {
			t.Errorf("rotated refresh token not used, got %q", r.PostForm.Get("refresh_token"))
		}
		writeJSON(w, `{"access_token":"access-`+string(rune('0'+n))+`","token_type":"Bearer","expires_in":3600,"refresh_token":"rotated"}`)
	})
	mux.HandleFunc("/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, `{"id":"user","display_name":"User"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshTokenProvider_CachesUntilExpiry(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := accountsServer(t, &refreshes)

	cfg := testConfig(srv.URL)
	cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken = "client", "secret", "initial"
	p := NewRefreshTokenProvider(cfg)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	ctx := context.Background()
	tok, err := p.AccessToken(ctx)
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	if tok != "access-1" {
		t.Errorf("token = %q, want access-1", tok)
	}

	now = now.Add(30 * time.Minute)
	if tok, _ = p.AccessToken(ctx); tok != "access-1" || refreshes.Load() != 1 {
		t.Errorf("cached token expected, got %q after %d refreshes", tok, refreshes.Load())
	}

	// inside the leeway window
	now = now.Add(29*time.Minute + 30*time.Second)
	if tok, _ = p.AccessToken(ctx); tok != "access-2" {
		t.Errorf("token = %q, want access-2 after expiry", tok)
	}
}

func TestRefreshTokenProvider_Rejected(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := accountsServer(t, &refreshes)

	cfg := testConfig(srv.URL)
	cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken = "client", "wrong", "initial"

	_, err := NewRefreshTokenProvider(cfg).AccessToken(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if refreshes.Load() != 0 {
		t.Errorf("refreshes = %d, want 0", refreshes.Load())
	}
}

func TestStaticTokenProvider_TestToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := accountsServer(t, &refreshes)
	cfg := testConfig(srv.URL)

	good := NewStaticTokenProvider(cfg, "good")
	ctx := context.Background()
	if !good.TestToken(ctx, "good") {
		t.Error("good token should pass")
	}
	if good.TestToken(ctx, "bad") {
		t.Error("bad token should fail")
	}
}

func TestCredentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	none := NoCredentials()
	if none.Available() {
		t.Error("NoCredentials should not be available")
	}
	if _, err := none.Verify(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Verify() = %v, want ErrNoCredentials", err)
	}
	if WithProvider(nil).Available() {
		t.Error("nil provider should yield empty credentials")
	}

	creds := WithProvider(fixedTokens("tok"))
	p, err := creds.Verify(ctx)
	if err != nil || p == nil {
		t.Fatalf("Verify() = %v, %v", p, err)
	}
}

func TestCredentials_VerifyRejected(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	srv := accountsServer(t, &refreshes)

	creds := WithProvider(NewStaticTokenProvider(testConfig(srv.URL), "expired"))
	if _, err := creds.Verify(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Verify() = %v, want ErrUnauthorized", err)
	}
}

func TestCredentialsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://api.example")
	if CredentialsFromConfig(cfg).Available() {
		t.Error("empty config should give no credentials")
	}

	cfg.AccessToken = "static"
	p, ok := CredentialsFromConfig(cfg).Provider()
	if _, isStatic := p.(*StaticTokenProvider); !ok || !isStatic {
		t.Errorf("access token should give a static provider, got %T", p)
	}

	cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken = "id", "secret", "refresh"
	p, _ = CredentialsFromConfig(cfg).Provider()
	if _, isRefresh := p.(*RefreshTokenProvider); !isRefresh {
		t.Errorf("refresh credentials should win, got %T", p)
	}
}
