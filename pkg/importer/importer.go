// Package importer builds local playlist and song records from a remote
// catalog playlist. It follows the listing page by page, reuses songs already
// known locally (dedup on the external identifier) and derives the playlist's
// total duration once the listing is exhausted.
//
// Imports are not transactional: cancellation or a remote failure part way
// through leaves the records inserted so far in place. Re-running the import
// is safe with respect to songs (dedup) but creates a fresh playlist record.

package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"Mumundo-Go/pkg/db"
	"Mumundo-Go/pkg/music"
)

// SongStore is the slice of the persistence layer the importer needs for
// songs.
type SongStore interface {
	FindSongByExternalID(ctx context.Context, spotifyID string) (*db.Song, error)
	CreateSong(ctx context.Context, s *db.Song) error
}

// PlaylistStore is the slice of the persistence layer the importer needs for
// playlists.
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, p *db.Playlist) error
	AppendPlaylistSong(ctx context.Context, playlistID, songID primitive.ObjectID) error
	SetPlaylistDuration(ctx context.Context, id primitive.ObjectID, seconds int) error
}

const (
	// defaultMaxPages bounds the pagination loop so a misbehaving remote
	// that keeps reporting more pages cannot spin the importer forever.
	defaultMaxPages = 50

	// defaultPageTimeout bounds each individual round-trip.
	defaultPageTimeout = 10 * time.Second
)

// Importer copies a remote playlist into the local store.
type Importer struct {
	Songs     SongStore
	Playlists PlaylistStore
	Catalog   music.Catalog

	// MaxPages and PageTimeout default to defaultMaxPages and
	// defaultPageTimeout when zero.
	MaxPages    int
	PageTimeout time.Duration

	Log *logrus.Entry
}

// Result summarises a finished import.
type Result struct {
	Playlist      *db.Playlist
	TrackCount    int
	Skipped       int
	TotalDuration int
	// Truncated is set when the defensive page bound stopped the loop
	// before the remote reported the listing exhausted.
	Truncated bool
}

// Import retrieves the remote playlist identified by externalID and builds a
// new local playlist owned by ownerID. Cancelling ctx stops further
// pagination requests but leaves already-inserted records in place; the
// derived duration then covers the tracks imported so far.
func (im *Importer) Import(ctx context.Context, ownerID primitive.ObjectID, externalID string, isPublic bool) (*Result, error) {
	maxPages := im.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	pageTimeout := im.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}

	info, err := im.fetchPlaylist(ctx, externalID, pageTimeout)
	if err != nil {
		return nil, err
	}

	playlist := &db.Playlist{
		Title:     CleanTitle(info.Name),
		OwnerID:   ownerID,
		SpotifyID: info.ExternalID,
		IsPublic:  isPublic,
		ImageURL:  info.ImageURL,
	}
	if err := im.Playlists.CreatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}

	res := &Result{Playlist: playlist}
	var songs []db.Song

	offset := 0
	for page := 0; ; page++ {
		if page >= maxPages {
			res.Truncated = true
			im.logger().WithFields(logrus.Fields{
				"playlist": info.ExternalID,
				"pages":    page,
			}).Warn("import stopped at page bound")
			break
		}
		if ctx.Err() != nil {
			// Client gave up; keep the partial import.
			break
		}

		tp, err := im.fetchPage(ctx, externalID, offset, pageTimeout)
		if err != nil {
			if ctx.Err() != nil {
				// Parent context ended, not the per-page deadline:
				// stop paginating and keep the partial import.
				break
			}
			return nil, fmt.Errorf("fetch playlist page at offset %d: %w", offset, err)
		}

		for _, item := range tp.Items {
			if item == nil {
				res.Skipped++
				continue
			}
			song, err := im.resolveSong(ctx, item)
			if err != nil {
				return nil, err
			}
			if err := im.Playlists.AppendPlaylistSong(ctx, playlist.ID, song.ID); err != nil {
				return nil, fmt.Errorf("append song: %w", err)
			}
			// Mirror the stored document so the result reflects what was
			// committed.
			playlist.Songs = append(playlist.Songs, song.ID)
			songs = append(songs, *song)
			res.TrackCount++
		}

		if !tp.HasMore {
			break
		}
		offset = tp.NextOffset
	}

	total := music.TotalDuration(songs)
	// The records above are already committed, so derive the duration even
	// when the client has disconnected.
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pageTimeout)
	defer cancel()
	if err := im.Playlists.SetPlaylistDuration(setCtx, playlist.ID, total); err != nil {
		return nil, fmt.Errorf("set playlist duration: %w", err)
	}
	playlist.TotalDuration = total
	res.TotalDuration = total
	return res, nil
}

// resolveSong returns the local song for a catalog track, creating it when
// the external identifier is unknown. Optional track fields default rather
// than failing the import.
func (im *Importer) resolveSong(ctx context.Context, t *music.Track) (*db.Song, error) {
	existing, err := im.Songs.FindSongByExternalID(ctx, t.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("look up song %s: %w", t.ExternalID, err)
	}

	song := &db.Song{
		SpotifyID:  t.ExternalID,
		Title:      t.Title,
		Artist:     t.JoinedArtists(),
		Album:      t.Album,
		Duration:   t.DurationSeconds(),
		PreviewURL: t.PreviewURL,
		ImageURL:   t.ImageURL,
	}
	if err := im.Songs.CreateSong(ctx, song); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			// Concurrent import created it first; use that record.
			return im.Songs.FindSongByExternalID(ctx, t.ExternalID)
		}
		return nil, fmt.Errorf("create song %s: %w", t.ExternalID, err)
	}
	return song, nil
}

func (im *Importer) fetchPlaylist(ctx context.Context, id string, timeout time.Duration) (*music.PlaylistInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return im.Catalog.GetPlaylist(ctx, id)
}

func (im *Importer) fetchPage(ctx context.Context, id string, offset int, timeout time.Duration) (*music.TrackPage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return im.Catalog.GetPlaylistTracks(ctx, id, offset)
}

func (im *Importer) logger() *logrus.Entry {
	if im.Log != nil {
		return im.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// CleanTitle strips characters that break links and file names out of a
// remote playlist title.
func CleanTitle(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, s)
}
