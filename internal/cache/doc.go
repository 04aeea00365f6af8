// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package cache provides a generic, thread-safe LRU cache with TTL expiration.

The dashboard API uses it to hold decoded snapshot generations. Generation
files are immutable once written, so entries are keyed by file name and a new
generation simply misses the cache; the TTL bounds memory held by superseded
generations.

# Usage

	c := cache.NewLRU[*Page]("generations", 32, 5*time.Minute)

	if page, ok := c.Get(name); ok {
	    return page
	}
	page := decode(name)
	c.Add(name, page)

# Metrics

Every cache reports under its name label:

  - cache_hits_total / cache_misses_total
  - cache_evictions_total (capacity evictions only, not TTL expiry)
  - cache_entries

# Thread Safety

All methods are safe for concurrent use. Get mutates recency order, so a
single mutex guards both reads and writes.
*/
package cache
