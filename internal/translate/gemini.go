package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srt-flow/backend/internal/srt"
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiTranslator translates subtitle cues through the Google Gemini API.
type GeminiTranslator struct {
	apiKey     string
	httpClient *http.Client
}

func NewGeminiTranslator(apiKey string) *GeminiTranslator {
	return &GeminiTranslator{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (g *GeminiTranslator) Name() string {
	return "gemini"
}

func (g *GeminiTranslator) Translate(ctx context.Context, blocks []srt.Block, opts Options, onProgress ProgressFunc, logf LogFunc) (map[int]string, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	onProgress, logf = normalize(onProgress, logf)

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	prompt := systemPrompt(opts.Preset, opts.SourceLang, opts.TargetLang)
	if opts.CustomPrompt != "" {
		prompt += "\n\nUser instructions: " + opts.CustomPrompt
	}

	batches := splitBatches(blocks)
	log.Info().Str("model", model).Int("cues", len(blocks)).Int("batches", len(batches)).Msg("gemini translation started")

	result := make(map[int]string, len(blocks))
	for i, batch := range batches {
		logf(fmt.Sprintf("Gemini: translating batch %d/%d (%d cues)", i+1, len(batches), len(batch)))

		texts, err := g.translateBatch(ctx, model, prompt, batch)
		if err != nil && isTransientError(err) {
			log.Warn().Err(err).Int("batch", i+1).Msg("gemini batch failed, retrying once")
			time.Sleep(5 * time.Second)
			texts, err = g.translateBatch(ctx, model, prompt, batch)
		}
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i+1, err)
		}

		partial := batchResult(batch, texts)
		for k, v := range partial {
			result[k] = v
		}
		onProgress(partial)
	}

	logf(fmt.Sprintf("Gemini: translated %d cues", len(result)))
	return result, nil
}

func (g *GeminiTranslator) translateBatch(ctx context.Context, model, prompt string, batch []srt.Block) ([]string, error) {
	userPrompt := buildNumberedPrompt(batch)

	reqBody := map[string]interface{}{
		"system_instruction": map[string]interface{}{
			"parts": []map[string]string{{"text": prompt}},
		},
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": userPrompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.3,
			"responseMimeType": "application/json",
		},
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiAPIBase, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Gemini API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("parse Gemini response: %w", err)
	}

	if geminiResp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("Gemini blocked the request: %s", geminiResp.PromptFeedback.BlockReason)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("Gemini returned no candidates")
	}

	return decodeTranslationArray(geminiResp.Candidates[0].Content.Parts[0].Text, len(batch))
}
