// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package history maintains the cumulative listening History.
//
// Raw recently-played records are validated and normalized into PlayEvents,
// then merged into the previous History generation:
//
//	recently-played JSON
//	       ↓
//	NormalizeBatch (validation, played_at canonicalization)
//	       ↓
//	Merge (identity match on name + primary artist, played_at dedup)
//	       ↓
//	listening-history generation (internal/snapshot)
//
// # Identity
//
// Songs are matched by models.SongKey, the lowercased and trimmed
// (name, primary artist) pair, not by Spotify track ID. A re-release of the
// same recording under a new track ID therefore keeps accumulating plays on
// the existing song.
//
// # Guarantees
//
//   - Merging the same batch twice yields the same History as merging it once.
//   - The result depends only on the set of events, not their order.
//   - PlayCount and TotalListeningTimeMs are recomputed from listening events
//     whenever a song is touched; the loaded values are never trusted.
//   - The input History is never mutated.
//
// # Legacy Shapes
//
// Decode upgrades two older on-disk shapes: a bare JSON array of songs, and
// objects without metadata.schema_version whose songs carry play_history
// timestamp lists instead of listening_events.
package history
