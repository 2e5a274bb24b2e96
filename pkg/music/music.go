// Package music defines the catalog-neutral data structures and interfaces
// used by the rest of the application. Implementations can wrap Spotify or
// any other remote catalog. By depending on this package the handlers and the
// importer remain agnostic about the underlying platform.
package music

import (
	"context"
	"errors"
)

// Track represents a track returned by a remote catalog. Durations are kept
// in milliseconds as reported by the source; persistence converts to whole
// seconds.
type Track struct {
	ExternalID string   `json:"spotify_id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	DurationMS int      `json:"duration_ms"`
	PreviewURL string   `json:"preview_url,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// PlaylistInfo describes a remote playlist's metadata without its tracks.
type PlaylistInfo struct {
	ExternalID string
	Name       string
	ImageURL   string
	TrackTotal int
}

// TrackPage is one page of a playlist's track listing. Items may contain nil
// entries for tracks the remote no longer serves (deleted or region
// restricted); callers are expected to skip those. HasMore reports whether
// another page should be requested starting at NextOffset.
type TrackPage struct {
	Items      []*Track
	NextOffset int
	HasMore    bool
}

// ErrNotFound is returned when the remote catalog does not know the requested
// track or playlist.
var ErrNotFound = errors.New("not found in catalog")

// ErrNoTracks indicates a search produced no results.
var ErrNoTracks = errors.New("no tracks found")

// Catalog exposes the remote catalog operations the application needs. The
// context is used for request cancellation and timeout propagation on every
// call.
type Catalog interface {
	// SearchTracks returns up to limit tracks matching the query.
	// ErrNoTracks is returned when nothing matches.
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)

	// GetTrack fetches a single track by its external identifier.
	GetTrack(ctx context.Context, id string) (*Track, error)

	// GetPlaylist fetches a remote playlist's metadata.
	GetPlaylist(ctx context.Context, id string) (*PlaylistInfo, error)

	// GetPlaylistTracks fetches one page of the playlist's track listing
	// starting at offset.
	GetPlaylistTracks(ctx context.Context, id string, offset int) (*TrackPage, error)
}
