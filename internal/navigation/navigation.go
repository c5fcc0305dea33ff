// Package navigation computes next and previous tracks over an ordered track list.
//
// The functions are pure: they hold no state and never mutate the list.
// Tracks are matched by TrackID, so a stale copy of the current track still resolves.
package navigation

import "github.com/desertthunder/lark/internal/models"

// Index returns the first position of current in tracks, or -1.
func Index(current models.Track, tracks []models.Track) int {
	for i, t := range tracks {
		if t.TrackID == current.TrackID {
			return i
		}
	}
	return -1
}

// Next returns the track after current, wrapping from the last to the first.
// ok is false when tracks is empty or does not contain current.
func Next(current models.Track, tracks []models.Track) (next models.Track, ok bool) {
	return step(current, tracks, 1)
}

// Previous returns the track before current, wrapping from the first to the last.
// ok is false when tracks is empty or does not contain current.
func Previous(current models.Track, tracks []models.Track) (prev models.Track, ok bool) {
	return step(current, tracks, -1)
}

func step(current models.Track, tracks []models.Track, delta int) (models.Track, bool) {
	n := len(tracks)
	if n == 0 {
		return models.Track{}, false
	}
	i := Index(current, tracks)
	if i < 0 {
		return models.Track{}, false
	}
	// Go's % keeps the sign of the dividend, so add n before reducing.
	return tracks[(i+delta+n)%n], true
}
