// Package handlers groups HTTP handlers for Mumundo-Go. This file manages
// user profiles: reading and updating the profile fields and storing the
// uploaded profile picture on disk under a generated filename.

package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"Mumundo-Go/pkg/db"
)

// maxUploadBytes caps a profile update request, picture included.
const maxUploadBytes = 8 << 20 // 8MB

// defaultProfilePicture is served when the user never uploaded one or the
// stored file has gone missing.
const defaultProfilePicture = "default.jpg"

// Profile returns the caller's own account document.
func (app *Application) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile applies a multipart form update to the caller's profile.
// Only the form fields actually present are written; an optional 'picture'
// file is stored under a random filename so uploads cannot collide or
// overwrite each other.
func (app *Application) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondJSONError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	var upd db.ProfileUpdate
	if vals, present := r.MultipartForm.Value["username"]; present && len(vals) > 0 {
		username := strings.TrimSpace(vals[0])
		if username == "" {
			respondJSONError(w, http.StatusBadRequest, "username cannot be empty")
			return
		}
		upd.Username = &username
	}
	if vals, present := r.MultipartForm.Value["bio"]; present && len(vals) > 0 {
		upd.Bio = &vals[0]
	}

	if file, header, err := r.FormFile("picture"); err == nil {
		defer file.Close()
		name, err := app.savePicture(file, header.Filename)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.ProfilePicture = &name
	}

	if err := app.DB.UpdateProfile(r.Context(), user.ID, upd); err != nil {
		respondStoreError(w, err, "user")
		return
	}
	updated, err := app.DB.FindUserByID(r.Context(), user.ID)
	if err != nil {
		respondStoreError(w, err, "user")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// savePicture writes the uploaded image into the upload directory and
// returns the generated filename.
func (app *Application) savePicture(src io.Reader, original string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return "", errors.New("picture must be a jpg, png or gif")
	}
	if err := os.MkdirAll(app.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(app.UploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

// ProfilePicture serves the stored picture for any user, falling back to the
// bundled default image. The stored name is reduced to its base so a
// tampered document cannot read outside the upload directory.
func (app *Application) ProfilePicture(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	user, err := app.DB.FindUserByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "user")
		return
	}
	name := filepath.Base(user.ProfilePicture)
	if name == "." || name == string(filepath.Separator) {
		name = defaultProfilePicture
	}
	path := filepath.Join(app.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(app.UploadDir, defaultProfilePicture)
		if _, err := os.Stat(path); err != nil {
			respondJSONError(w, http.StatusNotFound, "profile picture not found")
			return
		}
	}
	http.ServeFile(w, r, path)
}
