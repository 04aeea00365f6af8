// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Batch size ceilings of the several-IDs endpoints.
const (
	MaxTrackBatch  = 50
	MaxAlbumBatch  = 20
	MaxArtistBatch = 50
	MaxRecentLimit = 50
	// MaxAlbumTracksPage is the page size of /v1/albums/{id}/tracks.
	MaxAlbumTracksPage = 50
)

func checkBatch(endpoint string, ids []string, limit int) error {
	if len(ids) == 0 {
		return fmt.Errorf("%s: empty batch", endpoint)
	}
	if len(ids) > limit {
		return fmt.Errorf("%s: batch of %d exceeds limit %d", endpoint, len(ids), limit)
	}
	return nil
}

func idsParam(ids []string) url.Values {
	return url.Values{"ids": {strings.Join(ids, ",")}}
}

// GetTracks fetches up to 50 tracks. Unknown IDs yield nil entries, aligned
// with the request order.
func (c *Client) GetTracks(ctx context.Context, ids []string) ([]*Track, error) {
	if err := checkBatch("tracks", ids, MaxTrackBatch); err != nil {
		return nil, err
	}
	var out tracksResponse
	if err := c.call(ctx, "tracks", "/v1/tracks", idsParam(ids), &out); err != nil {
		return nil, err
	}
	return out.Tracks, nil
}

// GetAlbums fetches up to 20 albums including the first page of each tracklist.
func (c *Client) GetAlbums(ctx context.Context, ids []string) ([]*Album, error) {
	if err := checkBatch("albums", ids, MaxAlbumBatch); err != nil {
		return nil, err
	}
	var out albumsResponse
	if err := c.call(ctx, "albums", "/v1/albums", idsParam(ids), &out); err != nil {
		return nil, err
	}
	return out.Albums, nil
}

// GetAlbumTracks fetches one page of an album's tracklist starting at offset.
// Follow Next until it is empty to read albums longer than one page.
func (c *Client) GetAlbumTracks(ctx context.Context, albumID string, offset int) (*Paging[SimpleTrack], error) {
	if albumID == "" {
		return nil, fmt.Errorf("album-tracks: empty album ID")
	}
	if offset < 0 {
		return nil, fmt.Errorf("album-tracks: negative offset %d", offset)
	}
	var out Paging[SimpleTrack]
	params := url.Values{
		"limit":  {strconv.Itoa(MaxAlbumTracksPage)},
		"offset": {strconv.Itoa(offset)},
	}
	path := "/v1/albums/" + url.PathEscape(albumID) + "/tracks"
	if err := c.call(ctx, "album-tracks", path, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetArtists fetches up to 50 artists.
func (c *Client) GetArtists(ctx context.Context, ids []string) ([]*Artist, error) {
	if err := checkBatch("artists", ids, MaxArtistBatch); err != nil {
		return nil, err
	}
	var out artistsResponse
	if err := c.call(ctx, "artists", "/v1/artists", idsParam(ids), &out); err != nil {
		return nil, err
	}
	return out.Artists, nil
}

// GetRecentlyPlayed fetches the user's most recent plays, newest first.
func (c *Client) GetRecentlyPlayed(ctx context.Context, limit int) (*RecentlyPlayed, error) {
	if limit < 1 || limit > MaxRecentLimit {
		return nil, fmt.Errorf("recently-played: limit must be between 1 and %d, got %d", MaxRecentLimit, limit)
	}
	var out RecentlyPlayed
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.call(ctx, "recently-played", "/v1/me/player/recently-played", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMe fetches the current user's profile.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, "me", "/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
