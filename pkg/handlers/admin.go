// Package handlers groups HTTP handlers for Mumundo-Go. This file contains
// the moderation endpoints. Reports move from pending to dismissed (no action
// taken) or reviewed (the reported playlist was deleted), always recording
// which administrator resolved them.

package handlers

import (
	"errors"
	"net/http"

	"Mumundo-Go/pkg/db"
)

// ListReports returns every playlist report, newest first.
func (app *Application) ListReports(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireAdmin(w, r); !ok {
		return
	}
	reports, err := app.DB.ListReports(r.Context())
	if err != nil {
		respondStoreError(w, err, "reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// DismissReport marks a report as resolved without touching the playlist.
func (app *Application) DismissReport(w http.ResponseWriter, r *http.Request) {
	admin, ok := app.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := app.DB.FindReportByID(r.Context(), id); err != nil {
		respondStoreError(w, err, "report")
		return
	}
	if err := app.DB.ResolveReport(r.Context(), id, db.ReportDismissed, admin.ID); err != nil {
		respondStoreError(w, err, "report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteReportedPlaylist deletes the playlist a report points at and marks
// the report reviewed. The report resolution still succeeds when the playlist
// is already gone, since duplicate reports against one playlist are common.
func (app *Application) DeleteReportedPlaylist(w http.ResponseWriter, r *http.Request) {
	admin, ok := app.requireAdmin(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	report, err := app.DB.FindReportByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "report")
		return
	}
	if err := app.DB.DeletePlaylist(r.Context(), report.PlaylistID); err != nil && !errors.Is(err, db.ErrNotFound) {
		respondStoreError(w, err, "playlist")
		return
	}
	if err := app.DB.ResolveReport(r.Context(), id, db.ReportReviewed, admin.ID); err != nil {
		respondStoreError(w, err, "report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
