// Package handlers groups HTTP handlers for Mumundo-Go. This file implements
// the like/dislike endpoints shared by songs and playlists. Rating is an
// idempotent upsert: repeating the same rating changes nothing, switching
// sides adjusts both counters in a single store update.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"Mumundo-Go/pkg/db"
	"Mumundo-Go/pkg/music"
)

// rateFunc matches the store's Rate{Song,Playlist} methods.
type rateFunc func(ctx context.Context, targetID, userID primitive.ObjectID, kind db.RatingKind) (bool, error)

// unrateFunc matches the store's Unrate{Song,Playlist} methods.
type unrateFunc func(ctx context.Context, targetID, userID primitive.ObjectID) error

// existsFunc reports whether the rating target exists, as an error.
type existsFunc func(ctx context.Context, id primitive.ObjectID) error

// rate decodes the {type} payload and applies fn for the authenticated user.
// exists guards against orphan ratings: the store layer does not verify the
// target document before incrementing its counters.
func (app *Application) rate(w http.ResponseWriter, r *http.Request, what string, exists existsFunc, fn rateFunc) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Type db.RatingKind `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Type.Valid() {
		respondJSONError(w, http.StatusBadRequest, "type must be 'like' or 'dislike'")
		return
	}
	if err := exists(r.Context(), id); err != nil {
		respondStoreError(w, err, what)
		return
	}
	changed, err := fn(r.Context(), id, user.ID, req.Type)
	if err != nil {
		respondStoreError(w, err, what)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// unrate removes the caller's rating via fn. A missing rating is a 404 so
// clients can tell a stale toggle from success.
func (app *Application) unrate(w http.ResponseWriter, r *http.Request, fn unrateFunc) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := fn(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "rating not found")
			return
		}
		respondStoreError(w, err, "rating")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ratingSummary is the payload returned by the rating read endpoints.
type ratingSummary struct {
	Likes      int     `json:"likes"`
	Dislikes   int     `json:"dislikes"`
	Ratio      float64 `json:"rating_ratio"`
	UserRating string  `json:"user_rating,omitempty"`
}

func summarize(likes, dislikes int, kind db.RatingKind) ratingSummary {
	return ratingSummary{
		Likes:      likes,
		Dislikes:   dislikes,
		Ratio:      music.RatingRatio(likes, dislikes),
		UserRating: string(kind),
	}
}

// RateSong records the caller's like or dislike of a song.
func (app *Application) RateSong(w http.ResponseWriter, r *http.Request) {
	app.rate(w, r, "song", app.songExists, app.DB.RateSong)
}

func (app *Application) songExists(ctx context.Context, id primitive.ObjectID) error {
	_, err := app.DB.FindSongByID(ctx, id)
	return err
}

func (app *Application) playlistExists(ctx context.Context, id primitive.ObjectID) error {
	_, err := app.DB.FindPlaylistByID(ctx, id)
	return err
}

// UnrateSong removes the caller's rating of a song.
func (app *Application) UnrateSong(w http.ResponseWriter, r *http.Request) {
	app.unrate(w, r, app.DB.UnrateSong)
}

// SongRatings returns the song's counters, their ratio and the caller's own
// rating when present.
func (app *Application) SongRatings(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	song, err := app.DB.FindSongByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "song")
		return
	}
	kind, err := app.DB.SongRatingOf(r.Context(), id, user.ID)
	if err != nil {
		respondStoreError(w, err, "rating")
		return
	}
	respondJSON(w, http.StatusOK, summarize(song.Likes, song.Dislikes, kind))
}

// RatePlaylist records the caller's like or dislike of a playlist.
func (app *Application) RatePlaylist(w http.ResponseWriter, r *http.Request) {
	app.rate(w, r, "playlist", app.playlistExists, app.DB.RatePlaylist)
}

// UnratePlaylist removes the caller's rating of a playlist.
func (app *Application) UnratePlaylist(w http.ResponseWriter, r *http.Request) {
	app.unrate(w, r, app.DB.UnratePlaylist)
}

// PlaylistRatings returns the playlist's counters, their ratio and the
// caller's own rating when present.
func (app *Application) PlaylistRatings(w http.ResponseWriter, r *http.Request) {
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
	kind, err := app.DB.PlaylistRatingOf(r.Context(), id, user.ID)
	if err != nil {
		respondStoreError(w, err, "rating")
		return
	}
	respondJSON(w, http.StatusOK, summarize(playlist.Likes, playlist.Dislikes, kind))
}
