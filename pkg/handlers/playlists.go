// Package handlers groups HTTP handlers for Mumundo-Go. This file covers
// playlist management: CRUD, visibility, membership changes with duration
// upkeep, the Spotify import endpoint and moderation reports.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"Mumundo-Go/pkg/db"
	"Mumundo-Go/pkg/importer"
	"Mumundo-Go/pkg/music"
	"Mumundo-Go/pkg/spotify"
)

// importDeadline bounds a whole Spotify playlist import, on top of the
// importer's per-page timeout.
const importDeadline = 2 * time.Minute

// playlistSummary is the listing payload. TotalTime is the human formatting
// of the stored duration; RatingRatio is derived on read.
type playlistSummary struct {
	db.Playlist
	TrackCount  int     `json:"track_count"`
	TotalTime   string  `json:"total_time"`
	RatingRatio float64 `json:"rating_ratio"`
}

func summarizePlaylist(p db.Playlist) playlistSummary {
	return playlistSummary{
		Playlist:    p,
		TrackCount:  len(p.Songs),
		TotalTime:   music.FormatDuration(p.TotalDuration),
		RatingRatio: music.RatingRatio(p.Likes, p.Dislikes),
	}
}

// playlistDetail extends the summary with the resolved song documents and the
// caller's own rating.
type playlistDetail struct {
	playlistSummary
	SongDocs   []db.Song `json:"song_details"`
	UserRating string    `json:"user_rating,omitempty"`
}

// CreatePlaylist creates an empty playlist owned by the caller. Titles get
// the same character sanitization imported playlist names do.
func (app *Application) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Title    string `json:"title"`
		IsPublic bool   `json:"is_public"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := importer.CleanTitle(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "title is required")
		return
	}
	playlist := &db.Playlist{
		Title:    title,
		OwnerID:  user.ID,
		IsPublic: req.IsPublic,
	}
	if err := app.DB.CreatePlaylist(r.Context(), playlist); err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	respondJSON(w, http.StatusCreated, summarizePlaylist(*playlist))
}

// PublicPlaylists lists every playlist marked public, newest first.
func (app *Application) PublicPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := app.DB.ListPublicPlaylists(r.Context())
	if err != nil {
		respondStoreError(w, err, "playlists")
		return
	}
	out := make([]playlistSummary, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, summarizePlaylist(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// MyPlaylists lists the caller's playlists regardless of visibility.
func (app *Application) MyPlaylists(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	playlists, err := app.DB.ListPlaylistsByOwner(r.Context(), user.ID)
	if err != nil {
		respondStoreError(w, err, "playlists")
		return
	}
	out := make([]playlistSummary, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, summarizePlaylist(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// PlaylistDetail returns a playlist with its songs resolved. Private
// playlists are only visible to their owner and administrators.
func (app *Application) PlaylistDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	playlist, err := app.DB.FindPlaylistByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	if !playlist.IsPublic && playlist.OwnerID != user.ID && !user.IsAdmin {
		respondJSONError(w, http.StatusForbidden, "playlist is private")
		return
	}
	songs, err := app.DB.FindSongsByIDs(r.Context(), playlist.Songs)
	if err != nil {
		respondStoreError(w, err, "songs")
		return
	}
	kind, err := app.DB.PlaylistRatingOf(r.Context(), id, user.ID)
	if err != nil {
		respondStoreError(w, err, "rating")
		return
	}
	respondJSON(w, http.StatusOK, playlistDetail{
		playlistSummary: summarizePlaylist(*playlist),
		SongDocs:        songs,
		UserRating:      string(kind),
	})
}

// requireOwnedPlaylist loads the playlist and enforces that the caller owns
// it (administrators pass when adminOverride is set). Failures are written to
// w.
func (app *Application) requireOwnedPlaylist(w http.ResponseWriter, r *http.Request, user *db.User, adminOverride bool) (*db.Playlist, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	playlist, err := app.DB.FindPlaylistByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "playlist")
		return nil, false
	}
	if playlist.OwnerID != user.ID && !(adminOverride && user.IsAdmin) {
		respondJSONError(w, http.StatusForbidden, "not the playlist owner")
		return nil, false
	}
	return playlist, true
}

// UpdatePlaylistVisibility flips a playlist between public and private.
func (app *Application) UpdatePlaylistVisibility(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	playlist, ok := app.requireOwnedPlaylist(w, r, user, false)
	if !ok {
		return
	}
	var req struct {
		IsPublic *bool `json:"is_public"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsPublic == nil {
		respondJSONError(w, http.StatusBadRequest, "is_public is required")
		return
	}
	if err := app.DB.UpdatePlaylist(r.Context(), playlist.ID, db.PlaylistUpdate{IsPublic: req.IsPublic}); err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	playlist.IsPublic = *req.IsPublic
	respondJSON(w, http.StatusOK, summarizePlaylist(*playlist))
}

// DeletePlaylist removes a playlist. The owner may delete their own;
// administrators may delete any (moderation).
func (app *Application) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	playlist, ok := app.requireOwnedPlaylist(w, r, user, true)
	if !ok {
		return
	}
	if err := app.DB.DeletePlaylist(r.Context(), playlist.ID); err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPlaylistSong appends a song reference to the playlist and brings the
// stored total duration back in line with the membership.
func (app *Application) AddPlaylistSong(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	playlist, ok := app.requireOwnedPlaylist(w, r, user, false)
	if !ok {
		return
	}
	songID, ok := pathID(w, r, "songID")
	if !ok {
		return
	}
	if _, err := app.DB.FindSongByID(r.Context(), songID); err != nil {
		respondStoreError(w, err, "song")
		return
	}
	if err := app.DB.AppendPlaylistSong(r.Context(), playlist.ID, songID); err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	total, err := app.refreshDuration(r.Context(), playlist.ID)
	if err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total_duration": total,
		"total_time":     music.FormatDuration(total),
	})
}

// RemovePlaylistSong removes every reference to the song from the playlist
// and recomputes the duration.
func (app *Application) RemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	playlist, ok := app.requireOwnedPlaylist(w, r, user, false)
	if !ok {
		return
	}
	songID, ok := pathID(w, r, "songID")
	if !ok {
		return
	}
	if err := app.DB.RemovePlaylistSong(r.Context(), playlist.ID, songID); err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	total, err := app.refreshDuration(r.Context(), playlist.ID)
	if err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total_duration": total,
		"total_time":     music.FormatDuration(total),
	})
}

// refreshDuration recomputes a playlist's total duration from its current
// membership and stores it. Recomputing from the source songs avoids drift
// when a song appears in the playlist more than once.
func (app *Application) refreshDuration(ctx context.Context, playlistID primitive.ObjectID) (int, error) {
	playlist, err := app.DB.FindPlaylistByID(ctx, playlistID)
	if err != nil {
		return 0, err
	}
	songs, err := app.DB.FindSongsByIDs(ctx, playlist.Songs)
	if err != nil {
		return 0, err
	}
	total := music.TotalDuration(songs)
	if err := app.DB.SetPlaylistDuration(ctx, playlistID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// ImportSpotifyPlaylist copies a Spotify playlist into the caller's account.
// The URL forms users paste (open.spotify.com links, spotify: URIs, bare ids)
// are all accepted.
func (app *Application) ImportSpotifyPlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		PlaylistURL string `json:"playlist_url"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	externalID := spotify.ExtractPlaylistID(req.PlaylistURL)
	if externalID == "" {
		respondJSONError(w, http.StatusBadRequest, "playlist_url is not a recognised Spotify playlist link")
		return
	}
	if app.Importer == nil {
		respondJSONError(w, http.StatusInternalServerError, "spotify credentials not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), importDeadline)
	defer cancel()
	res, err := app.Importer.Import(ctx, user.ID, externalID, req.IsPublic)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "spotify playlist not found")
			return
		}
		log.WithError(err).WithField("playlist", externalID).Error("spotify import")
		respondJSONError(w, http.StatusBadGateway, "music catalog unavailable")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"playlist":    summarizePlaylist(*res.Playlist),
		"track_count": res.TrackCount,
		"skipped":     res.Skipped,
		"truncated":   res.Truncated,
	})
}

// ReportPlaylist files a moderation report against a playlist.
func (app *Application) ReportPlaylist(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := app.DB.FindPlaylistByID(r.Context(), id); err != nil {
		respondStoreError(w, err, "playlist")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Reason == "" {
		respondJSONError(w, http.StatusBadRequest, "reason is required")
		return
	}
	report := &db.Report{
		PlaylistID: id,
		UserID:     user.ID,
		Reason:     req.Reason,
	}
	if err := app.DB.CreateReport(r.Context(), report); err != nil {
		respondStoreError(w, err, "report")
		return
	}
	respondJSON(w, http.StatusCreated, report)
}
