// Spotrank - Spotify Listening History Rankings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spotrank

package history

import (
	"sort"
	"time"

	"github.com/tomtom215/spotrank/internal/models"
)

// MergeReport summarizes what a Merge changed.
type MergeReport struct {
	// Added is the number of listening events appended.
	Added int `json:"added"`
	// DuplicatesSkipped counts incoming events whose played_at was already recorded.
	DuplicatesSkipped int `json:"duplicates_skipped"`
	// SelfHealed counts duplicate events removed from the loaded history.
	SelfHealed int `json:"self_healed"`
	// NewSongs counts songs created by this merge.
	NewSongs int `json:"new_songs"`
	// DurationsBackfilled counts songs whose unknown duration was filled in.
	DurationsBackfilled int `json:"durations_backfilled"`
}

// Changed reports whether the merge produced a History different from its input.
func (r MergeReport) Changed() bool {
	return r.Added > 0 || r.SelfHealed > 0 || r.DurationsBackfilled > 0
}

// songIndex maps identity keys to songs. When a loaded history holds two songs
// with the same key, the first one receives all new plays.
type songIndex map[models.SongKey]*models.SongAggregate

func buildIndex(songs []*models.SongAggregate) songIndex {
	idx := make(songIndex, len(songs))
	for _, s := range songs {
		key := s.Key()
		if _, ok := idx[key]; !ok {
			idx[key] = s
		}
	}
	return idx
}

// Merge folds a batch of play events into a copy of h and returns it with a
// report. A nil h is treated as an empty history. now stamps
// metadata.last_updated and is only applied when the merge changed something,
// so replaying a batch leaves the History byte-identical.
func Merge(h *models.History, events []models.PlayEvent, now time.Time) (*models.History, MergeReport) {
	var report MergeReport

	var out *models.History
	if h == nil {
		out = models.NewHistory()
	} else {
		out = h.Clone()
	}

	for _, s := range out.Songs {
		report.SelfHealed += s.DedupeEvents()
	}

	idx := buildIndex(out.Songs)

	for _, ev := range sortedEvents(events) {
		key := ev.Key()
		song, ok := idx[key]
		if !ok {
			song = NewSongFromEvent(ev)
			idx[key] = song
			out.Songs = append(out.Songs, song)
			report.NewSongs++
			report.Added++
			continue
		}

		if song.HasEvent(ev.PlayedAt) {
			report.DuplicatesSkipped++
			continue
		}

		song.ListeningEvents = append(song.ListeningEvents, models.ListeningEvent{
			PlayedAt: ev.PlayedAt,
			MsPlayed: ev.DurationMs,
		})
		if song.DurationMs == 0 && ev.DurationMs > 0 {
			song.DurationMs = ev.DurationMs
			report.DurationsBackfilled++
		}
		song.Recompute()
		report.Added++
	}

	out.RecomputeMetadata()
	if report.Changed() || out.Metadata.LastUpdated == "" {
		out.Metadata.LastUpdated = now.UTC().Format(time.RFC3339)
	}

	return out, report
}

// sortedEvents returns a copy of events ordered by played_at, then identity
// key, then track ID, so the merge result does not depend on input order.
func sortedEvents(events []models.PlayEvent) []models.PlayEvent {
	out := append([]models.PlayEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PlayedAt != b.PlayedAt {
			return a.PlayedAt < b.PlayedAt
		}
		ka, kb := a.Key().String(), b.Key().String()
		if ka != kb {
			return ka < kb
		}
		return a.TrackID < b.TrackID
	})
	return out
}

// LatestPlayedAt returns the newest recorded play in h.
func LatestPlayedAt(h *models.History) (time.Time, bool) {
	if h == nil {
		return time.Time{}, false
	}
	var latest time.Time
	for _, s := range h.Songs {
		for _, ev := range s.ListeningEvents {
			t, err := time.Parse(time.RFC3339Nano, ev.PlayedAt)
			if err != nil {
				continue
			}
			if t.After(latest) {
				latest = t
			}
		}
	}
	return latest, !latest.IsZero()
}
