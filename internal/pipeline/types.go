// Package pipeline drives a subtitle translation run: parse the uploaded
// SRT document, stream it through the configured translation engine while
// aggregating live progress, post-process and reconstruct the result, and
// surface failures as a single user-facing state.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/srt-flow/backend/internal/srt"
	"github.com/srt-flow/backend/internal/translate"
)

// Status is the pipeline state. A run moves idle -> parsing -> translating
// -> done|error; done and error return to idle only through an explicit
// reset.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusParsing     Status = "parsing"
	StatusTranslating Status = "translating"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

// ServiceStatus reflects the external translation service as the UI sees
// it: ready to accept work, actively translating, or unavailable.
type ServiceStatus string

const (
	ServiceReady  ServiceStatus = "ready"
	ServiceActive ServiceStatus = "active"
	ServiceError  ServiceStatus = "error"
)

var (
	// ErrInvalidFileType rejects selections without a .srt suffix.
	ErrInvalidFileType = errors.New("only .srt subtitle files are supported")
	// ErrEmptyDocument rejects files that parse to zero valid cues.
	ErrEmptyDocument = errors.New("no valid subtitle cues found in the file")
	// ErrNoFile rejects a start without a selected file.
	ErrNoFile = errors.New("no subtitle file selected")
	// ErrBusy rejects operations while a run is in flight.
	ErrBusy = errors.New("a translation run is already in progress")
)

// TranslationService is the boundary to the external translation engines.
// *translate.Service satisfies it; tests substitute stubs.
type TranslationService interface {
	Translate(ctx context.Context, blocks []srt.Block, onProgress translate.ProgressFunc, logf translate.LogFunc) (map[int]string, error)
}

// Settings is the persisted key-value configuration the pipeline reads
// header/footer and run metadata from.
type Settings interface {
	GetSetting(key, fallback string) string
}

// RunStore persists run history. All methods are best-effort: the pipeline
// logs store failures but never fails a run over them.
type RunStore interface {
	InsertRun(id, fileName, engine, model, targetLang string) error
	UpdateRunProgress(id string, translated, total int) error
	CompleteRun(id string, elapsedSeconds int, outputPath string) error
	FailRun(id string, elapsedSeconds int, errMsg string) error
}

// OutputStore writes the reconstructed document for download.
type OutputStore interface {
	WriteOutput(runID, fileName, content string) (path string, err error)
}

// LogEntry is one line of the user-visible run log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// View is a read-only snapshot of the pipeline for the status API.
type View struct {
	Status          Status         `json:"status"`
	ServiceStatus   ServiceStatus  `json:"service_status"`
	Online          bool           `json:"online"`
	RunID           string         `json:"run_id,omitempty"`
	FileName        string         `json:"file_name,omitempty"`
	CueCount        int            `json:"cue_count"`
	TranslatedCount int            `json:"translated_count"`
	ElapsedSeconds  int            `json:"elapsed_seconds"`
	Error           string         `json:"error,omitempty"`
	Logs            []LogEntry     `json:"logs"`
	Live            map[int]string `json:"live,omitempty"`
	HasOutput       bool           `json:"has_output"`
}
