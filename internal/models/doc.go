// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

/*
Package models defines the documents Spotrank reads and writes.

Key Components:

  - RawRecentPlay, RecentPlays: recently played records as collected, in either
    the flat or the nested {track: {...}} shape (see Flatten)
  - PlayEvent: one normalized play, played_at canonical to the second in UTC
  - SongAggregate, History: the listening history document, one aggregate per
    song ID with its ordered listening events
  - RankedSong, RankedAlbum, RankedArtist, RankedAlbumWithSongs: output rows
  - Projection: an output document (metadata plus ranked items)

Identity:

Rows consolidate on normalized keys rather than Spotify IDs. Keys are
trimmed and lower-cased:

	NewSongKey(name, primaryArtist)
	NewAlbumKey(name, firstArtist)
	NewArtistKey(name)

EntityID carries an album or artist ID together with its kind. When the real
ID is unknown a song ID stands in, and enrichment replaces it once resolved:

	{"id": "4uLU6hMCjMI75M1A2tKUQC", "kind": "song"}

A bare string decodes as a resolved ID.

Fill semantics:

The FillFrom methods on SongInfo, AlbumInfo and ArtistInfo copy a field only
when the destination is empty and the source is not. Existing values are
never overwritten.

JSON field names match the files written by earlier versions (including
original_songIds and the other camel-cased lineage lists), so old generations
load unchanged.
*/
package models
