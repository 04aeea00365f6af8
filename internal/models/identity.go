// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package models

import (
	"strings"

	"github.com/goccy/go-json"
)

// normalizeKeyPart lowercases and trims one component of an identity key.
func normalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SongKey identifies a recording across merges: normalized (name, primary artist).
// Build it with NewSongKey; the zero value only matches songs with no name and no artist.
type SongKey struct {
	Name   string
	Artist string
}

// NewSongKey builds a normalized song identity key.
func NewSongKey(name, artist string) SongKey {
	return SongKey{Name: normalizeKeyPart(name), Artist: normalizeKeyPart(artist)}
}

func (k SongKey) String() string { return k.Name + "|" + k.Artist }

// AlbumKey identifies an album across raw album IDs: normalized (album name, first artist).
type AlbumKey struct {
	Name   string
	Artist string
}

// NewAlbumKey builds a normalized album identity key.
func NewAlbumKey(name, firstArtist string) AlbumKey {
	return AlbumKey{Name: normalizeKeyPart(name), Artist: normalizeKeyPart(firstArtist)}
}

func (k AlbumKey) String() string { return k.Name + "|" + k.Artist }

// ArtistKey identifies an artist by normalized name alone.
type ArtistKey struct {
	Name string
}

// NewArtistKey builds a normalized artist identity key.
func NewArtistKey(name string) ArtistKey {
	return ArtistKey{Name: normalizeKeyPart(name)}
}

func (k ArtistKey) String() string { return k.Name }

// IDKind tells whether an album or artist ID is the real catalog ID or a
// song ID standing in until enrichment resolves it.
type IDKind string

const (
	// IDKindResolved marks a real album/artist catalog ID.
	IDKindResolved IDKind = "resolved"
	// IDKindSongPlaceholder marks a song ID used in place of the album/artist ID.
	IDKindSongPlaceholder IDKind = "song"
)

// EntityID is a tagged album or artist identifier.
type EntityID struct {
	Value string
	Kind  IDKind
}

// ResolvedID returns a resolved catalog ID.
func ResolvedID(id string) EntityID {
	return EntityID{Value: id, Kind: IDKindResolved}
}

// PlaceholderID returns a song ID standing in for an album/artist ID.
func PlaceholderID(songID string) EntityID {
	return EntityID{Value: songID, Kind: IDKindSongPlaceholder}
}

// IsZero reports whether no ID is set.
func (id EntityID) IsZero() bool { return id.Value == "" }

// IsPlaceholder reports whether the ID is a song ID standing in.
func (id EntityID) IsPlaceholder() bool {
	return id.Value != "" && id.Kind == IDKindSongPlaceholder
}

// String renders the raw ID value.
func (id EntityID) String() string { return id.Value }

type entityIDJSON struct {
	ID   string `json:"id"`
	Kind IDKind `json:"kind,omitempty"`
}

// MarshalJSON encodes the ID as {"id": "...", "kind": "resolved|song"}.
func (id EntityID) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityIDJSON{ID: id.Value, Kind: id.Kind})
}

// UnmarshalJSON accepts both the tagged object form and a bare string; a bare
// string is treated as a resolved ID.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*id = ResolvedID(raw)
		if raw == "" {
			id.Kind = ""
		}
		return nil
	}
	var tagged entityIDJSON
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if tagged.Kind == "" && tagged.ID != "" {
		tagged.Kind = IDKindResolved
	}
	*id = EntityID{Value: tagged.ID, Kind: tagged.Kind}
	return nil
}
