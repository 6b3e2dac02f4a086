package matcher

import (
	"github.com/desertthunder/plsync/internal/models"
)

const (
	// Threshold is the minimum [Similarity] accepted for titles and albums.
	Threshold = 0.8
	// DurationTolerance is the accepted difference in whole seconds.
	DurationTolerance = 1
)

// Matches reports whether a and b denote the same recording.
//
// Matching ISRCs are authoritative when both tracks carry one. Otherwise titles, durations and,
// unless either track is a single, album names are compared. The relation is not transitive.
func Matches(a, b models.Track) bool {
	if a.ISRC != "" && b.ISRC != "" {
		return a.ISRC == b.ISRC
	}

	if Similarity(ComparisonTitle(a.Title), ComparisonTitle(b.Title)) < Threshold {
		return false
	}

	da, db := a.DurationMS/1000, b.DurationMS/1000
	if diff := da - db; diff > DurationTolerance || diff < -DurationTolerance {
		return false
	}

	if a.HasAlbum() && b.HasAlbum() && !a.IsSingle() && !b.IsSingle() {
		if Similarity(Normalize(a.Album.Name), Normalize(b.Album.Name)) < Threshold {
			return false
		}
	}

	return true
}

// Contains reports whether any track in list matches t.
func Contains(list []models.Track, t models.Track) bool {
	return Index(list, t) >= 0
}

// Index returns the position of the first track in list matching t, or -1.
func Index(list []models.Track, t models.Track) int {
	for i, candidate := range list {
		if Matches(candidate, t) {
			return i
		}
	}
	return -1
}
