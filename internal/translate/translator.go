// Package translate provides the external translation engines (Gemini,
// OpenAI, DeepL) behind a common interface, plus a settings-driven service
// that picks the engine and streams partial results back to the caller.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/srt-flow/backend/internal/srt"
)

const (
	// batchSize is the number of cues sent per engine request.
	batchSize = 20
	// concurrency bounds parallel batch requests for engines that allow it.
	concurrency = 3
)

// ProgressFunc receives a partial mapping of cue index to translated text.
// Engines may call it any number of times, in any order; callers must merge
// batches without assuming completeness.
type ProgressFunc func(partial map[int]string)

// LogFunc receives human-readable progress lines for the run log.
type LogFunc func(msg string)

// Options configures a translation request.
type Options struct {
	SourceLang   string
	TargetLang   string
	Preset       string
	CustomPrompt string
	Model        string
}

// Translator is the common interface for all translation engines. The
// returned map is keyed by cue index and may be partial if the engine could
// not cover every cue; it is never nil on success.
type Translator interface {
	Translate(ctx context.Context, blocks []srt.Block, opts Options, onProgress ProgressFunc, logf LogFunc) (map[int]string, error)
	Name() string
}

// splitBatches cuts blocks into batchSize chunks, preserving order.
func splitBatches(blocks []srt.Block) [][]srt.Block {
	var batches [][]srt.Block
	for i := 0; i < len(blocks); i += batchSize {
		end := i + batchSize
		if end > len(blocks) {
			end = len(blocks)
		}
		batches = append(batches, blocks[i:end])
	}
	return batches
}

// decodeTranslationArray parses an engine response expected to be a JSON
// array of strings with exactly want entries. Markdown code fences around
// the array are tolerated.
func decodeTranslationArray(raw string, want int) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, fmt.Errorf("parse translation response: %w", err)
	}
	if len(texts) != want {
		return nil, fmt.Errorf("expected %d translations, got %d", want, len(texts))
	}
	return texts, nil
}

// batchResult maps a translated batch back to cue indices.
func batchResult(batch []srt.Block, texts []string) map[int]string {
	result := make(map[int]string, len(batch))
	for i, b := range batch {
		result[b.Index] = texts[i]
	}
	return result
}

// isTransientError reports whether an engine error is worth one retry.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"status 429", "status 500", "status 502", "status 503", "timeout", "connection reset", "EOF"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func noopProgress(map[int]string) {}

func noopLog(string) {}

// normalize fills nil sinks so engines can call them unconditionally.
func normalize(onProgress ProgressFunc, logf LogFunc) (ProgressFunc, LogFunc) {
	if onProgress == nil {
		onProgress = noopProgress
	}
	if logf == nil {
		logf = noopLog
	}
	return onProgress, logf
}
