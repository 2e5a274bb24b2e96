// This file implements the aggregation helpers shared by the playlist
// handlers and the importer: total playlist duration, its human readable
// rendering and the like/dislike ratio.

package music

import (
	"fmt"
	"strings"
)

// Durationer is satisfied by any record that knows its length in whole
// seconds.
type Durationer interface {
	DurationSeconds() int
}

// TotalDuration sums the durations of the provided songs in seconds. An empty
// sequence yields 0.
func TotalDuration[T Durationer](songs []T) int {
	total := 0
	for _, s := range songs {
		total += s.DurationSeconds()
	}
	return total
}

// FormatDuration renders a second count as a space-joined sequence of
// non-zero components, e.g. "1 hr 1 min 1 sec" or "59 sec". Zero-valued hour
// and minute components are omitted; the seconds component is always present
// when it is non-zero or when nothing else is.
func FormatDuration(totalSeconds int) string {
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d min", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d sec", seconds))
	}
	return strings.Join(parts, " ")
}

// RatingRatio returns likes divided by dislikes, treating a dislike count of
// zero as one so the ratio is always defined.
func RatingRatio(likes, dislikes int) float64 {
	if dislikes < 1 {
		dislikes = 1
	}
	return float64(likes) / float64(dislikes)
}

// DurationSeconds converts the track's millisecond duration to whole seconds,
// flooring partial seconds the same way the importer stores them.
func (t Track) DurationSeconds() int {
	return t.DurationMS / 1000
}

// JoinedArtists returns the track's artist names joined with ", " in source
// order, matching the persisted Song.Artist field.
func (t Track) JoinedArtists() string {
	return strings.Join(t.Artists, ", ")
}
