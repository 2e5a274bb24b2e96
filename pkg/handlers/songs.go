// Package handlers groups HTTP handlers for Mumundo-Go. This file covers the
// song catalog endpoints: importing a single track from the music catalog,
// listing and fetching songs, and the typed update and delete operations.

package handlers

import (
	"errors"
	"net/http"

	"Mumundo-Go/pkg/db"
	"Mumundo-Go/pkg/music"
)

// CreateSong imports the catalog track identified by spotify_id, or returns
// the existing song when it was imported before. The external identifier is
// the dedup key, so repeated imports never create duplicate records.
func (app *Application) CreateSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	var req struct {
		SpotifyID string `json:"spotify_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SpotifyID == "" {
		respondJSONError(w, http.StatusBadRequest, "spotify_id is required")
		return
	}

	existing, err := app.DB.FindSongByExternalID(r.Context(), req.SpotifyID)
	if err == nil {
		respondJSON(w, http.StatusOK, existing)
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		respondStoreError(w, err, "song")
		return
	}

	if app.Catalog == nil {
		respondJSONError(w, http.StatusInternalServerError, "spotify credentials not configured")
		return
	}
	track, err := app.Catalog.GetTrack(r.Context(), req.SpotifyID)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "track not found")
			return
		}
		log.WithError(err).WithField("spotify_id", req.SpotifyID).Error("catalog track lookup")
		respondJSONError(w, http.StatusBadGateway, "music catalog unavailable")
		return
	}

	song := &db.Song{
		SpotifyID:  track.ExternalID,
		Title:      track.Title,
		Artist:     track.JoinedArtists(),
		Album:      track.Album,
		Duration:   track.DurationSeconds(),
		PreviewURL: track.PreviewURL,
		ImageURL:   track.ImageURL,
	}
	if err := app.DB.CreateSong(r.Context(), song); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			// A concurrent request imported the same track first.
			if existing, ferr := app.DB.FindSongByExternalID(r.Context(), req.SpotifyID); ferr == nil {
				respondJSON(w, http.StatusOK, existing)
				return
			}
		}
		respondStoreError(w, err, "song")
		return
	}
	respondJSON(w, http.StatusCreated, song)
}

// ListSongs returns every song in the catalog.
func (app *Application) ListSongs(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	songs, err := app.DB.ListSongs(r.Context())
	if err != nil {
		respondStoreError(w, err, "songs")
		return
	}
	respondJSON(w, http.StatusOK, songs)
}

// GetSong returns a single song by id.
func (app *Application) GetSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
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
	respondJSON(w, http.StatusOK, song)
}

// UpdateSong applies a typed update to a song. Only the fields present in the
// payload are written; unknown fields are rejected at decode time.
func (app *Application) UpdateSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ImageURL *string `json:"image_url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := app.DB.UpdateSong(r.Context(), id, db.SongUpdate{ImageURL: req.ImageURL}); err != nil {
		respondStoreError(w, err, "song")
		return
	}
	song, err := app.DB.FindSongByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "song")
		return
	}
	respondJSON(w, http.StatusOK, song)
}

// DeleteSong removes a song from the catalog. Restricted to administrators
// because songs are shared between playlists of different users.
func (app *Application) DeleteSong(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireAdmin(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := app.DB.DeleteSong(r.Context(), id); err != nil {
		respondStoreError(w, err, "song")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
