// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package spotify

import "github.com/tomtom215/spotrank/internal/models"

// SimpleArtist is the artist reference embedded in track and album objects.
type SimpleArtist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// SimpleAlbum is the album reference embedded in a track object.
type SimpleAlbum struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	AlbumType    string            `json:"album_type,omitempty"`
	Artists      []SimpleArtist    `json:"artists,omitempty"`
	Images       []models.Image    `json:"images,omitempty"`
	ReleaseDate  string            `json:"release_date,omitempty"`
	TotalTracks  int               `json:"total_tracks,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// Track is a full track object from /v1/tracks.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []SimpleArtist    `json:"artists"`
	Album        SimpleAlbum       `json:"album"`
	DurationMs   int64             `json:"duration_ms"`
	TrackNumber  int               `json:"track_number,omitempty"`
	Popularity   int               `json:"popularity,omitempty"`
	PreviewURL   string            `json:"preview_url,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// SimpleTrack is a track inside an album's tracklist.
type SimpleTrack struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Artists     []SimpleArtist `json:"artists"`
	DurationMs  int64          `json:"duration_ms"`
	TrackNumber int            `json:"track_number"`
}

// ArtistNames returns the credited artist names in order.
func (t SimpleTrack) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// Paging is one page of a list. Next is empty on the last page.
type Paging[T any] struct {
	Items []T    `json:"items"`
	Total int    `json:"total"`
	Next  string `json:"next,omitempty"`
}

// Album is a full album object from /v1/albums.
type Album struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []SimpleArtist      `json:"artists"`
	Images       []models.Image      `json:"images,omitempty"`
	ReleaseDate  string              `json:"release_date,omitempty"`
	TotalTracks  int                 `json:"total_tracks,omitempty"`
	Popularity   int                 `json:"popularity,omitempty"`
	Genres       []string            `json:"genres,omitempty"`
	ExternalURLs map[string]string   `json:"external_urls,omitempty"`
	Tracks       Paging[SimpleTrack] `json:"tracks"`
}

// Followers is the follower block of an artist object.
type Followers struct {
	Total int `json:"total"`
}

// Artist is a full artist object from /v1/artists.
type Artist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Images       []models.Image    `json:"images,omitempty"`
	Genres       []string          `json:"genres,omitempty"`
	Popularity   int               `json:"popularity,omitempty"`
	Followers    Followers         `json:"followers"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// PlayHistory is one item of the recently-played endpoint.
type PlayHistory struct {
	Track    Track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

// RecentlyPlayed is the response of /v1/me/player/recently-played.
type RecentlyPlayed struct {
	Items []PlayHistory `json:"items"`
	Next  string        `json:"next,omitempty"`
}

// User is the current user's profile from /v1/me.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Batch response wrappers. Unknown IDs come back as JSON null entries.
type tracksResponse struct {
	Tracks []*Track `json:"tracks"`
}

type albumsResponse struct {
	Albums []*Album `json:"albums"`
}

type artistsResponse struct {
	Artists []*Artist `json:"artists"`
}

// SongInfo converts the track into ranked-row song info.
func (t *Track) SongInfo() models.SongInfo {
	return models.SongInfo{
		ID:           t.ID,
		Name:         t.Name,
		DurationMs:   t.DurationMs,
		ExternalURLs: t.ExternalURLs,
		PreviewURL:   t.PreviewURL,
		Popularity:   t.Popularity,
	}
}

// AlbumInfo converts the track's embedded album into ranked-row album info.
func (t *Track) AlbumInfo() models.AlbumInfo {
	return models.AlbumInfo{
		ID:           resolved(t.Album.ID),
		Name:         t.Album.Name,
		Images:       t.Album.Images,
		ReleaseDate:  t.Album.ReleaseDate,
		TotalTracks:  t.Album.TotalTracks,
		ExternalURLs: t.Album.ExternalURLs,
	}
}

// PrimaryArtistInfo returns the first credited artist as ranked-row artist info.
func (t *Track) PrimaryArtistInfo() models.ArtistInfo {
	return primaryArtist(t.Artists)
}

// PrimaryArtistInfo returns the album's first credited artist.
func (a *Album) PrimaryArtistInfo() models.ArtistInfo {
	return primaryArtist(a.Artists)
}

func primaryArtist(artists []SimpleArtist) models.ArtistInfo {
	if len(artists) == 0 {
		return models.ArtistInfo{}
	}
	return models.ArtistInfo{
		ID:           resolved(artists[0].ID),
		Name:         artists[0].Name,
		ExternalURLs: artists[0].ExternalURLs,
	}
}

// Info converts the album into ranked-row album info.
func (a *Album) Info() models.AlbumInfo {
	return models.AlbumInfo{
		ID:           resolved(a.ID),
		Name:         a.Name,
		Images:       a.Images,
		ReleaseDate:  a.ReleaseDate,
		TotalTracks:  a.TotalTracks,
		Popularity:   a.Popularity,
		Genres:       a.Genres,
		ExternalURLs: a.ExternalURLs,
	}
}

// Info converts the artist into ranked-row artist info.
func (a *Artist) Info() models.ArtistInfo {
	return models.ArtistInfo{
		ID:           resolved(a.ID),
		Name:         a.Name,
		Images:       a.Images,
		Genres:       a.Genres,
		Popularity:   a.Popularity,
		Followers:    a.Followers.Total,
		ExternalURLs: a.ExternalURLs,
	}
}

// RawRecentPlay converts a recently-played item into the collector record
// stored in recently-played generations.
func (p PlayHistory) RawRecentPlay() models.RawRecentPlay {
	t := p.Track
	artists := make([]models.Artist, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name})
	}
	return models.RawRecentPlay{
		ID:           t.ID,
		Name:         t.Name,
		Artists:      artists,
		Album:        models.AlbumRef{ID: t.Album.ID, Name: t.Album.Name, Images: t.Album.Images},
		DurationMs:   t.DurationMs,
		PlayedAt:     p.PlayedAt,
		ExternalURLs: t.ExternalURLs,
		PreviewURL:   t.PreviewURL,
	}
}

func resolved(id string) models.EntityID {
	if id == "" {
		return models.EntityID{}
	}
	return models.ResolvedID(id)
}
