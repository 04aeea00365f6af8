// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct{ ms int64 }

func (c *fakeClock) now() time.Time { return time.UnixMilli(c.ms) }

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

type doc struct {
	Value string `json:"value"`
}

func TestParseFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category Category
		name     string
		wantTS   int64
		wantOK   bool
	}{
		{CategoryAlbums, "cleaned-albums-1700000000000.json", 1700000000000, true},
		{CategoryAlbums, "cleaned-albums-with-songs-1700000000000.json", 0, false},
		{CategoryAlbumsWithSongs, "cleaned-albums-with-songs-1700000000000.json", 1700000000000, true},
		{CategoryAlbums, "cleaned-albums-1700000000000.json.tmp", 0, false},
		{CategoryAlbums, "cleaned-albums-.json", 0, false},
		{CategoryHistory, "listening-history-12ab.json", 0, false},
	}

	for _, tt := range tests {
		ts, ok := parseFileName(tt.category, tt.name)
		if ok != tt.wantOK || ts != tt.wantTS {
			t.Errorf("parseFileName(%s, %q) = (%d, %v), want (%d, %v)", tt.category, tt.name, ts, ok, tt.wantTS, tt.wantOK)
		}
	}
}

func TestLatest_NoGeneration(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, &fakeClock{ms: 1000})

	if _, err := s.Latest(CategoryHistory); !errors.Is(err, ErrNoGeneration) {
		t.Errorf("expected ErrNoGeneration, got %v", err)
	}
	var d doc
	if _, err := s.ReadLatest(CategoryHistory, &d); !errors.Is(err, ErrNoGeneration) {
		t.Errorf("expected ErrNoGeneration from ReadLatest, got %v", err)
	}
}

func TestWriteAndReadLatest(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{ms: 1000}
	s := newTestStore(t, clock)

	if _, err := s.Write(CategoryHistory, doc{Value: "first"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	clock.ms = 5000
	gen, err := s.Write(CategoryHistory, doc{Value: "second"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if gen.Name != "listening-history-5000.json" {
		t.Errorf("name = %q", gen.Name)
	}

	var d doc
	latest, err := s.ReadLatest(CategoryHistory, &d)
	if err != nil {
		t.Fatalf("ReadLatest: %v", err)
	}
	if d.Value != "second" || latest.Timestamp != 5000 {
		t.Errorf("read %q from %d, want second from 5000", d.Value, latest.Timestamp)
	}
}

func TestWrite_NeverOverwrites(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{ms: 1000}
	s := newTestStore(t, clock)

	a, err := s.Write(CategorySongs, doc{Value: "a"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, err := s.Write(CategorySongs, doc{Value: "b"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if a.Name == b.Name || b.Timestamp != 1001 {
		t.Errorf("second write in the same millisecond should be bumped: %s then %s", a.Name, b.Name)
	}

	// A clock that goes backwards still sorts the new file last.
	clock.ms = 10
	c, err := s.Write(CategorySongs, doc{Value: "c"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if c.Timestamp != 1002 {
		t.Errorf("timestamp = %d, want 1002", c.Timestamp)
	}

	var d doc
	if _, err := s.ReadLatest(CategorySongs, &d); err != nil || d.Value != "c" {
		t.Errorf("latest = %q (%v), want c", d.Value, err)
	}
}

func TestReadLatest_Malformed(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, &fakeClock{ms: 1000})
	path := filepath.Join(s.Dir(), FileName(CategoryRecentlyPlayed, 42))
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var d doc
	if _, err := s.ReadLatest(CategoryRecentlyPlayed, &d); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestRetire(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{ms: 1000}
	s := newTestStore(t, clock)

	for i := 0; i < 5; i++ {
		clock.ms += 100
		if _, err := s.Write(CategoryHistory, doc{Value: "v"}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	stale := filepath.Join(s.Dir(), FileName(CategoryHistory, 1)+tmpExt)
	if err := os.WriteFile(stale, []byte("partial"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	removed, err := s.Retire(CategoryHistory, 3)
	if err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	gens, _ := s.List(CategoryHistory)
	if len(gens) != 3 || gens[0].Timestamp != 1300 {
		t.Errorf("remaining generations = %+v", gens)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale temp file should be removed")
	}
}

func TestWriteGeneration_RetiresPrevious(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{ms: 1000}
	s := newTestStore(t, clock)

	docs := map[Category]any{
		CategorySongs:           doc{Value: "songs"},
		CategoryAlbums:          doc{Value: "albums"},
		CategoryArtists:         doc{Value: "artists"},
		CategoryAlbumsWithSongs: doc{Value: "aws"},
	}
	if _, err := s.WriteGeneration(docs); err != nil {
		t.Fatalf("WriteGeneration: %v", err)
	}
	// An unrelated category must not be touched.
	if _, err := s.Write(CategoryHistory, doc{Value: "h"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	clock.ms = 2000
	written, err := s.WriteGeneration(docs)
	if err != nil {
		t.Fatalf("WriteGeneration: %v", err)
	}
	if len(written) != 4 {
		t.Errorf("written = %d, want 4", len(written))
	}

	for _, c := range OutputCategories {
		gens, _ := s.List(c)
		if len(gens) != 1 || gens[0].Timestamp != 2000 {
			t.Errorf("%s generations = %+v, want only 2000", c, gens)
		}
	}
	if gens, _ := s.List(CategoryHistory); len(gens) != 1 {
		t.Errorf("history generations = %d, want 1", len(gens))
	}
}

func TestWriteGeneration_AllOrNothing(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{ms: 1000}
	s := newTestStore(t, clock)

	docs := map[Category]any{
		CategorySongs:           doc{Value: "songs"},
		CategoryAlbums:          doc{Value: "albums"},
		CategoryArtists:         doc{Value: "artists"},
		CategoryAlbumsWithSongs: doc{Value: "aws"},
	}
	if _, err := s.WriteGeneration(docs); err != nil {
		t.Fatalf("WriteGeneration: %v", err)
	}

	// Block the temp path of the last category written (cleaned-songs) so its write fails.
	clock.ms = 2000
	blocker := filepath.Join(s.Dir(), FileName(CategorySongs, 2000)+tmpExt)
	if err := os.Mkdir(blocker, 0o750); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	if _, err := s.WriteGeneration(docs); err == nil {
		t.Fatal("expected WriteGeneration to fail")
	}

	for _, c := range OutputCategories {
		gens, _ := s.List(c)
		if len(gens) != 1 || gens[0].Timestamp != 1000 {
			t.Errorf("%s generations = %+v, want only the previous generation", c, gens)
		}
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	if c, err := ParseCategory("cleaned-artists"); err != nil || c != CategoryArtists {
		t.Errorf("ParseCategory = %q, %v", c, err)
	}
	if _, err := ParseCategory("cleaned-genres"); err == nil {
		t.Error("expected error for unknown category")
	}
}
