package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srt-flow/backend/internal/srt"
)

const deeplAPIURL = "https://api-free.deepl.com/v2/translate"

// DeepLTranslator translates subtitle cues through the DeepL API.
type DeepLTranslator struct {
	apiKey     string
	httpClient *http.Client
}

func NewDeepLTranslator(apiKey string) *DeepLTranslator {
	return &DeepLTranslator{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 1 * time.Minute,
		},
	}
}

func (d *DeepLTranslator) Name() string {
	return "deepl"
}

func (d *DeepLTranslator) Translate(ctx context.Context, blocks []srt.Block, opts Options, onProgress ProgressFunc, logf LogFunc) (map[int]string, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("DeepL API key not configured")
	}
	onProgress, logf = normalize(onProgress, logf)

	batches := splitBatches(blocks)
	log.Info().Int("cues", len(blocks)).Int("batches", len(batches)).Msg("deepl translation started")

	result := make(map[int]string, len(blocks))
	for i, batch := range batches {
		logf(fmt.Sprintf("DeepL: translating batch %d/%d (%d cues)", i+1, len(batches), len(batch)))

		texts, err := d.translateBatch(ctx, batch, opts)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i+1, err)
		}

		partial := batchResult(batch, texts)
		for k, v := range partial {
			result[k] = v
		}
		onProgress(partial)
	}

	logf(fmt.Sprintf("DeepL: translated %d cues", len(result)))
	return result, nil
}

func (d *DeepLTranslator) translateBatch(ctx context.Context, batch []srt.Block, opts Options) ([]string, error) {
	form := url.Values{}
	for _, b := range batch {
		form.Add("text", b.Text)
	}
	form.Set("target_lang", deeplLangCode(opts.TargetLang))
	if opts.SourceLang != "" && opts.SourceLang != "auto" {
		form.Set("source_lang", deeplLangCode(opts.SourceLang))
	}
	form.Set("tag_handling", "xml")

	switch opts.Preset {
	case "documentary":
		form.Set("formality", "more")
	case "anime":
		form.Set("formality", "less")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", deeplAPIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("DeepL API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DeepL API error (status %d): %s", resp.StatusCode, string(body))
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return nil, fmt.Errorf("parse DeepL response: %w", err)
	}
	if len(deeplResp.Translations) != len(batch) {
		return nil, fmt.Errorf("expected %d translations, got %d", len(batch), len(deeplResp.Translations))
	}

	texts := make([]string, len(deeplResp.Translations))
	for i, tr := range deeplResp.Translations {
		texts[i] = tr.Text
	}
	return texts, nil
}

func deeplLangCode(code string) string {
	// DeepL expects upper-case codes and a few region-qualified variants.
	switch strings.ToLower(code) {
	case "en":
		return "EN-US"
	case "pt":
		return "PT-BR"
	default:
		return strings.ToUpper(code)
	}
}
