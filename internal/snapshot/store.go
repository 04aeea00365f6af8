// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
)

// Category names one family of generations.
type Category string

// Snapshot categories.
const (
	CategoryHistory         Category = "listening-history"
	CategoryRecentlyPlayed  Category = "recently-played"
	CategorySongs           Category = "cleaned-songs"
	CategoryAlbums          Category = "cleaned-albums"
	CategoryArtists         Category = "cleaned-artists"
	CategoryAlbumsWithSongs Category = "cleaned-albums-with-songs"
)

// OutputCategories are the four ranked outputs written together as one generation.
var OutputCategories = []Category{CategorySongs, CategoryAlbums, CategoryArtists, CategoryAlbumsWithSongs}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryHistory, CategoryRecentlyPlayed, CategorySongs, CategoryAlbums, CategoryArtists, CategoryAlbumsWithSongs:
		return c, nil
	}
	return "", fmt.Errorf("unknown snapshot category %q", s)
}

var (
	// ErrNoGeneration is returned when a category has no generation yet.
	ErrNoGeneration = errors.New("no snapshot generation found")
	// ErrMalformed is returned when the newest generation cannot be decoded.
	ErrMalformed = errors.New("malformed snapshot")
)

const (
	fileExt = ".json"
	tmpExt  = ".tmp"
)

// Generation is one snapshot file.
type Generation struct {
	Category  Category `json:"category"`
	Timestamp int64    `json:"timestamp"` // Unix milliseconds
	Name      string   `json:"name"`
	Path      string   `json:"-"`
}

// Time returns the generation timestamp.
func (g Generation) Time() time.Time {
	return time.UnixMilli(g.Timestamp).UTC()
}

// FileName returns the file name for a category and timestamp.
func FileName(c Category, ts int64) string {
	return string(c) + "-" + strconv.FormatInt(ts, 10) + fileExt
}

// parseFileName extracts the timestamp from a generation file name. The
// remainder after the category prefix must be all digits, so
// "cleaned-albums-with-songs-1.json" never matches "cleaned-albums".
func parseFileName(c Category, name string) (int64, bool) {
	prefix := string(c) + "-"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), fileExt)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	ts, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Store is a directory of snapshot generations.
type Store struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to name new generations.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore opens (and creates when missing) a snapshot directory.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory %s: %w", dir, err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// List returns the generations of a category, oldest first.
func (s *Store) List(c Category) ([]Generation, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots in %s: %w", s.dir, err)
	}

	var gens []Generation
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts, ok := parseFileName(c, e.Name())
		if !ok {
			continue
		}
		gens = append(gens, Generation{
			Category:  c,
			Timestamp: ts,
			Name:      e.Name(),
			Path:      filepath.Join(s.dir, e.Name()),
		})
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i].Timestamp < gens[j].Timestamp })
	return gens, nil
}

// Latest returns the newest generation of a category, or ErrNoGeneration.
func (s *Store) Latest(c Category) (Generation, error) {
	gens, err := s.List(c)
	if err != nil {
		return Generation{}, err
	}
	if len(gens) == 0 {
		return Generation{}, fmt.Errorf("%w: %s in %s", ErrNoGeneration, c, s.dir)
	}
	return gens[len(gens)-1], nil
}

// ReadLatestWith reads the newest generation and hands its bytes to decode.
// A decode failure is reported as ErrMalformed.
func (s *Store) ReadLatestWith(c Category, decode func(data []byte) error) (Generation, error) {
	gen, err := s.Latest(c)
	if err != nil {
		return Generation{}, err
	}
	return gen, s.ReadWith(gen, decode)
}

// ReadWith reads one generation and hands its bytes to decode.
func (s *Store) ReadWith(gen Generation, decode func(data []byte) error) error {
	data, err := os.ReadFile(gen.Path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", gen.Name, err)
	}
	if err := decode(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, gen.Name, err)
	}
	return nil
}

// ReadLatest decodes the newest generation of a category into v.
func (s *Store) ReadLatest(c Category, v any) (Generation, error) {
	return s.ReadLatestWith(c, func(data []byte) error {
		return json.Unmarshal(data, v)
	})
}

// Write stores v as a new generation of c and returns it.
func (s *Store) Write(c Category, v any) (Generation, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Generation{}, fmt.Errorf("encode %s snapshot: %w", c, err)
	}
	return s.WriteBytes(c, data)
}

// WriteBytes stores pre-encoded JSON as a new generation of c.
func (s *Store) WriteBytes(c Category, data []byte) (Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen, err := s.writeLocked(c, data)
	if err != nil {
		metrics.SnapshotWriteErrors.WithLabelValues(string(c)).Inc()
		return Generation{}, err
	}
	metrics.SnapshotGenerationsWritten.WithLabelValues(string(c)).Inc()
	return gen, nil
}

func (s *Store) writeLocked(c Category, data []byte) (Generation, error) {
	ts, err := s.nextTimestamp(c)
	if err != nil {
		return Generation{}, err
	}

	name := FileName(c, ts)
	path := filepath.Join(s.dir, name)
	tmp := path + tmpExt

	if err := writeFileSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return Generation{}, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Generation{}, fmt.Errorf("publish %s: %w", name, err)
	}

	logging.Debug().
		Str("category", string(c)).
		Str("file", name).
		Int("bytes", len(data)).
		Msg("Snapshot generation written")

	return Generation{Category: c, Timestamp: ts, Name: name, Path: path}, nil
}

// nextTimestamp returns the current Unix-millisecond time, bumped past the
// newest existing generation so a new file never overwrites or sorts before
// an older one.
func (s *Store) nextTimestamp(c Category) (int64, error) {
	ts := s.now().UnixMilli()
	gens, err := s.List(c)
	if err != nil {
		return 0, err
	}
	if n := len(gens); n > 0 && gens[n-1].Timestamp >= ts {
		ts = gens[n-1].Timestamp + 1
	}
	for {
		if _, err := os.Stat(filepath.Join(s.dir, FileName(c, ts))); errors.Is(err, os.ErrNotExist) {
			return ts, nil
		}
		ts++
	}
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
