package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/srt-flow/backend/internal/srt"
	"github.com/srt-flow/backend/internal/storage"
)

// Pipeline is the translation orchestrator. All mutable run state is owned
// here; collaborators read snapshots and emit intents (select, start,
// reset), never mutate state directly.
//
// Every run takes a fresh generation number. Callbacks created for a run
// carry its generation and are discarded once the counter moves on, so a
// late progress batch or service resolution from a reset run can never
// corrupt the state of a newer one.
type Pipeline struct {
	service  TranslationService
	settings Settings
	store    RunStore    // optional
	outputs  OutputStore // optional

	mu         sync.Mutex
	generation uint64
	cancelRun  context.CancelFunc
	online     bool

	status        Status
	serviceStatus ServiceStatus
	runID         string
	fileName      string
	source        string
	blocks        []srt.Block
	live          map[int]string
	logs          []LogEntry
	elapsed       int
	errMsg        string
	output        string
}

// Config wires the pipeline's collaborators. Store and Outputs may be nil.
type Config struct {
	Service  TranslationService
	Settings Settings
	Store    RunStore
	Outputs  OutputStore
}

func New(cfg Config) *Pipeline {
	return &Pipeline{
		service:       cfg.Service,
		settings:      cfg.Settings,
		store:         cfg.Store,
		outputs:       cfg.Outputs,
		online:        true,
		status:        StatusIdle,
		serviceStatus: ServiceReady,
	}
}

// SelectFile stages an uploaded subtitle file for the next run. A name
// without a case-insensitive .srt suffix resets the pipeline and enters the
// error state without ever touching parsing or translating.
func (p *Pipeline) SelectFile(name string, content []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status == StatusParsing || p.status == StatusTranslating {
		return ErrBusy
	}

	if !storage.IsSubtitleFile(name) {
		p.clearLocked()
		p.status = StatusError
		p.errMsg = ErrInvalidFileType.Error()
		p.serviceStatus = ServiceError
		return ErrInvalidFileType
	}

	p.clearLocked()
	p.fileName = name
	p.source = string(content)
	return nil
}

// Start begins a translation run for the selected file. The run proceeds
// asynchronously; callers observe it through Snapshot. The run's context is
// detached from the caller's (an HTTP handler returns long before the run
// ends) and is cancelled only by Reset or a new selection.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()

	if p.status == StatusParsing || p.status == StatusTranslating {
		p.mu.Unlock()
		return ErrBusy
	}
	if p.fileName == "" {
		p.mu.Unlock()
		return ErrNoFile
	}

	p.generation++
	gen := p.generation

	p.runID = uuid.New().String()
	p.logs = nil
	p.live = nil
	p.elapsed = 0
	p.errMsg = ""
	p.output = ""
	p.blocks = nil
	p.status = StatusParsing
	p.serviceStatus = ServiceActive
	p.logs = append(p.logs, LogEntry{Time: time.Now(), Message: "Translation started: " + p.fileName})

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancelRun = cancel

	runID, fileName, source := p.runID, p.fileName, p.source
	p.mu.Unlock()

	if p.store != nil {
		engine := p.settings.GetSetting("engine", "gemini")
		model := p.settings.GetSetting(engine+"_model", "")
		target := p.settings.GetSetting("target_lang", "en")
		if err := p.store.InsertRun(runID, fileName, engine, model, target); err != nil {
			log.Warn().Err(err).Str("run", runID).Msg("failed to record run")
		}
	}

	go p.run(runCtx, gen, runID, fileName, source)
	return nil
}

func (p *Pipeline) run(ctx context.Context, gen uint64, runID, fileName, source string) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(gen, runID, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	blocks := srt.Parse(source)
	p.appendLog(gen, fmt.Sprintf("Parsed %d cues from %s", len(blocks), fileName))
	if len(blocks) == 0 {
		p.fail(gen, runID, ErrEmptyDocument)
		return
	}

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return
	}
	p.blocks = blocks
	p.live = make(map[int]string)
	p.status = StatusTranslating
	p.mu.Unlock()

	go p.tickElapsed(gen)

	onProgress := func(batch map[int]string) { p.applyProgress(gen, runID, batch) }
	logf := func(msg string) { p.appendLog(gen, msg) }

	result, err := p.service.Translate(ctx, blocks, onProgress, logf)
	if err != nil {
		// Service failure reasons are surfaced verbatim.
		p.fail(gen, runID, err)
		return
	}
	p.applyProgress(gen, runID, result)

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return
	}
	translations := p.live
	p.mu.Unlock()

	merged := ApplyTranslations(blocks, translations)
	final, err := srt.ApplyHeaderFooter(merged, srt.HeaderFooter{
		HeaderText:  p.settings.GetSetting("header_text", ""),
		HeaderColor: p.settings.GetSetting("header_color", "#00ffff"),
		FooterText:  p.settings.GetSetting("footer_text", ""),
		FooterColor: p.settings.GetSetting("footer_color", "#00ffff"),
	})
	if err != nil {
		p.fail(gen, runID, err)
		return
	}
	text := srt.Reconstruct(final)

	outputPath := ""
	if p.outputs != nil {
		outputPath, err = p.outputs.WriteOutput(runID, fileName, text)
		if err != nil {
			p.fail(gen, runID, fmt.Errorf("write output: %w", err))
			return
		}
	}

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return
	}
	p.output = text
	p.status = StatusDone
	p.releaseRunLocked()
	if p.online {
		p.serviceStatus = ServiceReady
	} else {
		p.serviceStatus = ServiceError
	}
	p.logs = append(p.logs, LogEntry{Time: time.Now(), Message: fmt.Sprintf("Translation finished: %d cues in %ds", len(blocks), p.elapsed)})
	elapsed := p.elapsed
	p.mu.Unlock()

	log.Info().Str("run", runID).Int("cues", len(blocks)).Int("elapsed", elapsed).Msg("translation run finished")
	if p.store != nil {
		if err := p.store.CompleteRun(runID, elapsed, outputPath); err != nil {
			log.Warn().Err(err).Str("run", runID).Msg("failed to complete run record")
		}
	}
}

// fail moves the run to the error state. Whatever partial output exists is
// discarded; the error state never exposes a download.
func (p *Pipeline) fail(gen uint64, runID string, err error) {
	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return
	}
	p.status = StatusError
	p.serviceStatus = ServiceError
	p.errMsg = err.Error()
	p.output = ""
	p.releaseRunLocked()
	p.logs = append(p.logs, LogEntry{Time: time.Now(), Message: "Error: " + err.Error()})
	elapsed := p.elapsed
	p.mu.Unlock()

	log.Error().Err(err).Str("run", runID).Msg("translation run failed")
	if p.store != nil {
		if storeErr := p.store.FailRun(runID, elapsed, err.Error()); storeErr != nil {
			log.Warn().Err(storeErr).Str("run", runID).Msg("failed to record run failure")
		}
	}
}

// applyProgress merges a partial batch into the live progress map. Batches
// from a stale generation are discarded.
func (p *Pipeline) applyProgress(gen uint64, runID string, batch map[int]string) {
	if len(batch) == 0 {
		return
	}
	p.mu.Lock()
	if p.generation != gen || p.status != StatusTranslating {
		p.mu.Unlock()
		return
	}
	p.live = Merge(p.live, batch)
	translated, total := len(p.live), len(p.blocks)
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.UpdateRunProgress(runID, translated, total); err != nil {
			log.Warn().Err(err).Str("run", runID).Msg("failed to record run progress")
		}
	}
}

func (p *Pipeline) appendLog(gen uint64, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return
	}
	p.logs = append(p.logs, LogEntry{Time: time.Now(), Message: msg})
}

// tickElapsed increments the elapsed counter once a second for as long as
// this generation is still translating.
func (p *Pipeline) tickElapsed(gen uint64) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		p.mu.Lock()
		if p.generation != gen || p.status != StatusTranslating {
			p.mu.Unlock()
			return
		}
		p.elapsed++
		p.mu.Unlock()
	}
}

// Reset returns the pipeline to idle, discarding the selected file, logs,
// timers and live progress. An in-flight run becomes stale: its callbacks
// are discarded by the generation guard.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

// releaseRunLocked cancels and drops the current run context. Callers hold
// the mutex. Cancelling a finished run's context is a no-op; cancelling a
// live one aborts its in-flight engine requests.
func (p *Pipeline) releaseRunLocked() {
	if p.cancelRun != nil {
		p.cancelRun()
		p.cancelRun = nil
	}
}

func (p *Pipeline) clearLocked() {
	p.generation++
	p.releaseRunLocked()
	p.status = StatusIdle
	p.runID = ""
	p.fileName = ""
	p.source = ""
	p.blocks = nil
	p.live = nil
	p.logs = nil
	p.elapsed = 0
	p.errMsg = ""
	p.output = ""
	if p.online {
		p.serviceStatus = ServiceReady
	} else {
		p.serviceStatus = ServiceError
	}
}

// SetOnline records connectivity changes. Going offline while translating
// marks the service unavailable without aborting the run; the run is left
// to fail or finish on its own.
func (p *Pipeline) SetOnline(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.online == online {
		return
	}
	p.online = online

	if !online {
		p.serviceStatus = ServiceError
		return
	}
	switch p.status {
	case StatusParsing, StatusTranslating:
		p.serviceStatus = ServiceActive
	case StatusError:
		p.serviceStatus = ServiceError
	default:
		p.serviceStatus = ServiceReady
	}
}

// Snapshot returns a copy of the current pipeline state.
func (p *Pipeline) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := View{
		Status:          p.status,
		ServiceStatus:   p.serviceStatus,
		Online:          p.online,
		RunID:           p.runID,
		FileName:        p.fileName,
		CueCount:        len(p.blocks),
		TranslatedCount: len(p.live),
		ElapsedSeconds:  p.elapsed,
		Error:           p.errMsg,
		Logs:            append([]LogEntry(nil), p.logs...),
		HasOutput:       p.status == StatusDone && p.output != "",
	}
	if len(p.live) > 0 && p.status == StatusTranslating {
		view.Live = make(map[int]string, len(p.live))
		for k, v := range p.live {
			view.Live[k] = v
		}
	}
	if view.Logs == nil {
		view.Logs = []LogEntry{}
	}
	return view
}

// Output returns the reconstructed document and original filename, but only
// in the done state: partial results are never downloadable.
func (p *Pipeline) Output() (content, fileName string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusDone || p.output == "" {
		return "", "", false
	}
	return p.output, p.fileName, true
}
