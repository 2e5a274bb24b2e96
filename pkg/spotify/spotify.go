// Package spotify wraps the official Spotify client library providing the
// music.Catalog implementation used by the web application. Authentication
// uses the client credentials flow so the catalog can be searched and
// playlists read without a user login.
//
// All exported methods accept a context parameter. The wrapped library does
// not provide context support so cancellation is checked explicitly before
// each call.

package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2/clientcredentials"

	"Mumundo-Go/pkg/music"
)

// ErrNotConfigured is returned by New when the API credentials are missing.
var ErrNotConfigured = errors.New("spotify credentials not configured")

// defaultPageLimit is the page size requested from the playlist track
// listing. 100 is the API maximum.
const defaultPageLimit = 100

// catalogAPI defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type catalogAPI interface {
	SearchOpt(query string, t spotify.SearchType, opt *spotify.Options) (*spotify.SearchResult, error)
	GetTrack(id spotify.ID) (*spotify.FullTrack, error)
	GetPlaylist(playlistID spotify.ID) (*spotify.FullPlaylist, error)
	GetPlaylistTracksOpt(playlistID spotify.ID, opt *spotify.Options, fields string) (*spotify.PlaylistTrackPage, error)
}

// Client wraps the official Spotify client behind the music.Catalog
// interface.
type Client struct {
	client    catalogAPI
	pageLimit int
}

// Compile-time interface check.
var _ music.Catalog = (*Client)(nil)

// New authenticates using the client credentials flow and returns a Client
// ready for API calls. ErrNotConfigured is returned when either credential is
// empty so callers can surface a configuration error instead of a generic
// failure.
func New(clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}
	token, err := config.Token(context.Background())
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}
	c := spotify.Authenticator{}.NewClient(token)
	return &Client{client: &c, pageLimit: defaultPageLimit}, nil
}

// SearchTracks implements music.Catalog by querying the Spotify search API.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]music.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	opt := &spotify.Options{Limit: &limit}
	results, err := c.client.SearchOpt(query, spotify.SearchTypeTrack, opt)
	if err != nil {
		return nil, classify(err)
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, music.ErrNoTracks
	}
	tracks := make([]music.Track, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		tracks = append(tracks, *convertTrack(&results.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// GetTrack fetches a single track by its Spotify ID.
func (c *Client) GetTrack(ctx context.Context, id string) (*music.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := c.client.GetTrack(spotify.ID(id))
	if err != nil {
		return nil, classify(err)
	}
	return convertTrack(t), nil
}

// GetPlaylist fetches a remote playlist's metadata.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*music.PlaylistInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.client.GetPlaylist(spotify.ID(id))
	if err != nil {
		return nil, classify(err)
	}
	info := &music.PlaylistInfo{
		ExternalID: string(p.ID),
		Name:       p.Name,
		TrackTotal: p.Tracks.Total,
	}
	if len(p.Images) > 0 {
		info.ImageURL = p.Images[0].URL
	}
	return info, nil
}

// GetPlaylistTracks fetches one page of the playlist's track listing. Tracks
// the remote no longer serves come back as nil items so the caller can skip
// them while keeping source order for the rest.
func (c *Client) GetPlaylistTracks(ctx context.Context, id string, offset int) (*music.TrackPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := c.pageLimit
	opt := &spotify.Options{Limit: &limit, Offset: &offset}
	page, err := c.client.GetPlaylistTracksOpt(spotify.ID(id), opt, "")
	if err != nil {
		return nil, classify(err)
	}

	items := make([]*music.Track, 0, len(page.Tracks))
	for i := range page.Tracks {
		t := &page.Tracks[i].Track
		if t.ID == "" {
			// Removed or region-restricted placeholder.
			items = append(items, nil)
			continue
		}
		items = append(items, convertTrack(t))
	}
	next := offset + len(page.Tracks)
	return &music.TrackPage{
		Items:      items,
		NextOffset: next,
		HasMore:    len(page.Tracks) > 0 && next < page.Total,
	}, nil
}

// convertTrack maps a Spotify track onto the catalog-neutral representation.
func convertTrack(t *spotify.FullTrack) *music.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}
	out := &music.Track{
		ExternalID: string(t.ID),
		Title:      t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMS: t.Duration,
		PreviewURL: t.PreviewURL,
	}
	if len(t.Album.Images) > 0 {
		out.ImageURL = t.Album.Images[0].URL
	}
	return out
}

// classify maps API errors onto the music package sentinels where the status
// code is unambiguous.
func classify(err error) error {
	var se spotify.Error
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", music.ErrNotFound, se.Message)
	}
	return err
}

// ExtractPlaylistID pulls the playlist identifier out of an open.spotify.com
// URL, a spotify: URI or a bare ID. Query parameters are dropped.
func ExtractPlaylistID(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "playlist/"); i >= 0 {
		s = s[i+len("playlist/"):]
	} else if i := strings.Index(s, "playlist:"); i >= 0 {
		s = s[i+len("playlist:"):]
	} else if strings.ContainsAny(s, "/:") {
		// A link or URI without a playlist segment is something else.
		return ""
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return s
}
