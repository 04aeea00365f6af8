// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

// Package snapshot implements the append-only generation store.
//
// Every document spotrank reads or writes is a whole-file JSON snapshot named
// <category>-<unixMillis>.json inside one directory. Readers always take the
// generation with the highest timestamp; writers always create a new file and
// never overwrite an existing one.
//
// # Write Protocol
//
//  1. Marshal the document.
//  2. Write <name>.json.tmp and fsync it.
//  3. Rename it to <name>.json.
//
// WriteGeneration applies this to a set of categories and removes every new
// file again if any write fails, so a generation is either complete or
// absent. Old generations are retired only after the new ones are in place,
// which keeps a readable prior generation on disk if the process dies
// mid-write.
//
// # Errors
//
//   - ErrNoGeneration: no file exists for the category. Callers treat this as
//     "nothing to do yet", not as a failure.
//   - ErrMalformed: the newest file could not be parsed. This is fatal for
//     the run because prior state cannot be guessed.
//
// The store assumes a single writer; callers must not run overlapping
// pipelines against the same directory.
package snapshot
