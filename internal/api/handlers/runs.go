package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/srt-flow/backend/internal/db"
	"github.com/srt-flow/backend/internal/storage"
)

// RunsHandler serves the persisted run history.
type RunsHandler struct {
	db    *db.Database
	store *storage.Store
}

func NewRunsHandler(database *db.Database, store *storage.Store) *RunsHandler {
	return &RunsHandler{db: database, store: store}
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.db.ListRuns()
	if err != nil {
		jsonError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	jsonResponse(w, runs, http.StatusOK)
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.db.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "run not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load run", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, run, http.StatusOK)
}

// DownloadOutput serves the stored document of a completed run.
func (h *RunsHandler) DownloadOutput(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.db.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "run not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load run", http.StatusInternalServerError)
		return
	}
	if run.Status != "completed" || run.OutputPath == "" {
		jsonError(w, "run has no output", http.StatusNotFound)
		return
	}

	content, err := h.store.ReadOutput(run.OutputPath)
	if err != nil {
		jsonError(w, "output file not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(run.OutputPath)))
	w.Write(content)
}

// Delete removes a run record and its stored output file, if any.
func (h *RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.db.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "run not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load run", http.StatusInternalServerError)
		return
	}

	if run.OutputPath != "" {
		if err := h.store.RemoveOutput(run.OutputPath); err != nil {
			log.Warn().Err(err).Str("run_id", id).Msg("failed to remove run output")
		}
	}

	if err := h.db.DeleteRun(id); err != nil {
		jsonError(w, "failed to delete run", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"}, http.StatusOK)
}
