// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package consolidate

import "github.com/tomtom215/spotrank/internal/models"

// The clone helpers copy every slice a merge may append to, so folding rows
// never writes through to the caller's backing arrays.

func cloneSong(r models.RankedSong) models.RankedSong {
	r.OriginalSongIDs = append([]string(nil), r.OriginalSongIDs...)
	r.Artists = append([]models.Artist(nil), r.Artists...)
	return r
}

func cloneAlbum(r models.RankedAlbum) models.RankedAlbum {
	r.OriginalAlbumIDs = append([]string(nil), r.OriginalAlbumIDs...)
	return r
}

func cloneArtist(r models.RankedArtist) models.RankedArtist {
	r.OriginalArtistIDs = append([]string(nil), r.OriginalArtistIDs...)
	return r
}

func cloneAlbumWithSongs(r models.RankedAlbumWithSongs) models.RankedAlbumWithSongs {
	r.OriginalAlbumIDs = append([]string(nil), r.OriginalAlbumIDs...)
	songs := make([]models.AlbumSong, len(r.Songs))
	for i, s := range r.Songs {
		s.Artists = append([]string(nil), s.Artists...)
		songs[i] = s
	}
	r.Songs = songs
	return r
}
