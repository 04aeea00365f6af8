// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package api serves the latest snapshot generations as a read-only JSON API.

Endpoints:

	GET /api/v1/health              uptime and newest generation per category
	GET /api/v1/songs               top songs (limit/offset paging)
	GET /api/v1/albums              top albums
	GET /api/v1/artists             top artists
	GET /api/v1/albums-with-songs   top albums with nested songs
	GET /api/v1/history/summary     listening history metadata
	GET /metrics                    Prometheus metrics

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "generation": "cleaned-songs-1700000000000.json"}}

A category with no generation yet answers 404. A generation that cannot be
decoded answers 500 with code MALFORMED_SNAPSHOT.

Decoded generations are held in an LRU keyed by generation file name, so a
newly written generation is picked up on the next request without invalidation.
*/
package api
