package translate

import (
	"context"
	"fmt"

	"github.com/srt-flow/backend/internal/srt"
)

// Settings is the key-value view of persisted configuration the service
// reads engine selection and credentials from.
type Settings interface {
	GetSetting(key, fallback string) string
}

// Service resolves the configured engine, credential and model at call time
// and delegates translation to it. Resolving per call means settings changes
// apply to the next run without a restart.
type Service struct {
	settings Settings
}

func NewService(settings Settings) *Service {
	return &Service{settings: settings}
}

// Engine returns the currently configured engine name.
func (s *Service) Engine() string {
	return s.settings.GetSetting("engine", "gemini")
}

// Options builds translation options from persisted settings.
func (s *Service) Options() Options {
	return Options{
		SourceLang:   s.settings.GetSetting("source_lang", "auto"),
		TargetLang:   s.settings.GetSetting("target_lang", "en"),
		Preset:       s.settings.GetSetting("preset", "movie"),
		CustomPrompt: s.settings.GetSetting("custom_prompt", ""),
		Model:        s.model(),
	}
}

func (s *Service) model() string {
	switch s.Engine() {
	case "gemini":
		return s.settings.GetSetting("gemini_model", defaultGeminiModel)
	case "openai":
		return s.settings.GetSetting("openai_model", defaultOpenAIModel)
	default:
		return ""
	}
}

// Translate runs the full block sequence through the configured engine.
func (s *Service) Translate(ctx context.Context, blocks []srt.Block, onProgress ProgressFunc, logf LogFunc) (map[int]string, error) {
	engine, err := s.translator()
	if err != nil {
		return nil, err
	}
	return engine.Translate(ctx, blocks, s.Options(), onProgress, logf)
}

func (s *Service) translator() (Translator, error) {
	switch name := s.Engine(); name {
	case "gemini":
		return NewGeminiTranslator(s.settings.GetSetting("gemini_api_key", "")), nil
	case "openai":
		return NewOpenAITranslator(s.settings.GetSetting("openai_api_key", "")), nil
	case "deepl":
		return NewDeepLTranslator(s.settings.GetSetting("deepl_api_key", "")), nil
	default:
		return nil, fmt.Errorf("unknown translation engine: %s", name)
	}
}
