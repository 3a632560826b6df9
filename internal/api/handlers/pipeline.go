package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/srt-flow/backend/internal/pipeline"
	"github.com/srt-flow/backend/internal/storage"
)

// maxUploadBytes caps uploaded subtitle files. SRT documents are text; even
// feature-length files stay well below this.
const maxUploadBytes = 16 << 20

// PipelineHandler exposes the translation pipeline over HTTP: upload a
// source file, start a run, poll the snapshot, download the result, reset.
type PipelineHandler struct {
	pipe  *pipeline.Pipeline
	store *storage.Store
}

func NewPipelineHandler(pipe *pipeline.Pipeline, store *storage.Store) *PipelineHandler {
	return &PipelineHandler{pipe: pipe, store: store}
}

// Status returns the live pipeline snapshot.
func (h *PipelineHandler) Status(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, h.pipe.Snapshot(), http.StatusOK)
}

// Upload stages a subtitle file for translation. The file must carry a
// .srt suffix; anything else drives the pipeline into its error state and
// returns 400.
func (h *PipelineHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.pipe.SelectFile(header.Filename, content); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidFileType):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, pipeline.ErrBusy):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if h.store != nil {
		if _, err := h.store.SaveUpload(header.Filename, content); err != nil {
			jsonError(w, "failed to store upload: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	jsonResponse(w, h.pipe.Snapshot(), http.StatusOK)
}

// Translate starts a run for the staged file.
func (h *PipelineHandler) Translate(w http.ResponseWriter, r *http.Request) {
	if err := h.pipe.Start(r.Context()); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoFile):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, pipeline.ErrBusy):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	jsonResponse(w, h.pipe.Snapshot(), http.StatusAccepted)
}

// Download serves the translated document under the original file name.
// Available only once the pipeline is done; an error or in-flight run never
// exposes partial output.
func (h *PipelineHandler) Download(w http.ResponseWriter, r *http.Request) {
	content, fileName, ok := h.pipe.Output()
	if !ok {
		jsonError(w, "no translated document available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.SanitizeName(fileName)))
	w.Write([]byte(content))
}

// Reset returns the pipeline to idle, discarding all run state.
func (h *PipelineHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.pipe.Reset()
	jsonResponse(w, h.pipe.Snapshot(), http.StatusOK)
}
