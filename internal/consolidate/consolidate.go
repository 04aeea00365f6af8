// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package consolidate folds near-duplicate ranked rows that reach the same
// real-world song, album or artist through different Spotify IDs.
//
// Each category supplies an identity key and a merge rule to a generic
// ordered keyed merge. The first row seen for a key keeps its descriptive
// fields; later rows only fill fields that are still empty. Output is stable
// sorted by count, descending, so ties keep their input order.
//
// After consolidation every row's consolidated_count equals the sum of the
// count values of the input rows folded into it, and no two rows share a key.
// Inputs are never mutated.
package consolidate

import (
	"math"
	"sort"
)

// Stats describes one consolidation pass.
type Stats struct {
	Original          int     `json:"original_count"`
	Consolidated      int     `json:"consolidated_count"`
	DuplicatesRemoved int     `json:"duplicates_removed"`
	Rate              float64 `json:"consolidation_rate"`
}

func newStats(original, consolidated int) Stats {
	s := Stats{
		Original:          original,
		Consolidated:      consolidated,
		DuplicatesRemoved: original - consolidated,
	}
	if original > 0 {
		s.Rate = math.Round(float64(s.DuplicatesRemoved)/float64(original)*100*100) / 100
	}
	return s
}

// keyedMerge folds rows sharing an identity key into the first row seen.
type keyedMerge[K comparable, T any] struct {
	key   func(*T) K
	clone func(T) T
	// seed prepares the first row of a group, merge folds a later row into it.
	seed  func(*T)
	merge func(dst, src *T)
	count func(*T) int
}

func (m keyedMerge[K, T]) apply(rows []T) ([]T, Stats) {
	index := make(map[K]int, len(rows))
	out := make([]T, 0, len(rows))

	for i := range rows {
		k := m.key(&rows[i])
		if pos, ok := index[k]; ok {
			m.merge(&out[pos], &rows[i])
			continue
		}
		index[k] = len(out)
		row := m.clone(rows[i])
		m.seed(&row)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return m.count(&out[i]) > m.count(&out[j])
	})

	return out, newStats(len(rows), len(out))
}

// appendUnique appends ids not already present in dst.
func appendUnique(dst []string, ids ...string) []string {
	for _, id := range ids {
		if id == "" {
			continue
		}
		dup := false
		for _, have := range dst {
			if have == id {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, id)
		}
	}
	return dst
}
