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
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/spotrank/internal/logging"
	"github.com/tomtom215/spotrank/internal/metrics"
)

// WriteGeneration writes every document as a new generation of its category.
// If any write fails, the files already written by this call are removed and
// the error is returned; nothing is retired. On success every older
// generation of those categories is retired.
func (s *Store) WriteGeneration(docs map[Category]any) (map[Category]Generation, error) {
	order := sortedCategories(docs)
	encoded := make(map[Category][]byte, len(docs))
	for _, c := range order {
		data, err := json.MarshalIndent(docs[c], "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s snapshot: %w", c, err)
		}
		encoded[c] = data
	}

	written := make(map[Category]Generation, len(encoded))
	for _, c := range order {
		gen, err := s.WriteBytes(c, encoded[c])
		if err != nil {
			s.rollback(written)
			return nil, fmt.Errorf("write generation: %w", err)
		}
		written[c] = gen
	}

	for c := range written {
		if _, err := s.Retire(c, 1); err != nil {
			// The new generation is complete; a failed cleanup only leaves extra files.
			logging.Warn().Err(err).Str("category", string(c)).Msg("Failed to retire old snapshot generations")
		}
	}

	return written, nil
}

func (s *Store) rollback(written map[Category]Generation) {
	for c, gen := range written {
		if err := os.Remove(gen.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Error().Err(err).Str("file", gen.Name).Msg("Failed to roll back partial snapshot generation")
			continue
		}
		logging.Warn().Str("category", string(c)).Str("file", gen.Name).Msg("Rolled back partial snapshot generation")
	}
}

// Retire deletes all but the newest keep generations of a category, plus any
// leftover temporary files, and returns the number of generations removed.
func (s *Store) Retire(c Category, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gens, err := s.List(c)
	if err != nil {
		return 0, err
	}

	s.removeTemps(c)

	if len(gens) <= keep {
		return 0, nil
	}

	var (
		removed int
		errs    []error
	)
	for _, gen := range gens[:len(gens)-keep] {
		if err := os.Remove(gen.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", gen.Name, err))
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.SnapshotGenerationsRetired.WithLabelValues(string(c)).Add(float64(removed))
		logging.Info().
			Str("category", string(c)).
			Int("removed", removed).
			Int("kept", keep).
			Msg("Retired old snapshot generations")
	}

	return removed, errors.Join(errs...)
}

// removeTemps deletes temporary files left by an interrupted write.
func (s *Store) removeTemps(c Category) {
	matches, err := filepath.Glob(filepath.Join(s.dir, string(c)+"-*"+fileExt+tmpExt))
	if err != nil {
		return
	}
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), tmpExt)
		if _, ok := parseFileName(c, base); !ok {
			continue
		}
		if err := os.Remove(m); err == nil {
			logging.Debug().Str("file", filepath.Base(m)).Msg("Removed stale snapshot temp file")
		}
	}
}

func sortedCategories(docs map[Category]any) []Category {
	out := make([]Category, 0, len(docs))
	for c := range docs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
