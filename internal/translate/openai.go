package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/srt-flow/backend/internal/srt"
)

const openAIChatURL = "https://api.openai.com/v1/chat/completions"

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAITranslator translates subtitle cues through the OpenAI Chat API,
// running batches concurrently.
type OpenAITranslator struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenAITranslator(apiKey string) *OpenAITranslator {
	return &OpenAITranslator{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (o *OpenAITranslator) Name() string {
	return "openai"
}

func (o *OpenAITranslator) Translate(ctx context.Context, blocks []srt.Block, opts Options, onProgress ProgressFunc, logf LogFunc) (map[int]string, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}
	onProgress, logf = normalize(onProgress, logf)

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	prompt := systemPrompt(opts.Preset, opts.SourceLang, opts.TargetLang)
	if opts.CustomPrompt != "" {
		prompt += "\n\nUser instructions: " + opts.CustomPrompt
	}

	batches := splitBatches(blocks)
	log.Info().Str("model", model).Int("cues", len(blocks)).Int("batches", len(batches)).Int("concurrent", concurrency).Msg("openai translation started")

	type outcome struct {
		partial map[int]string
		err     error
	}

	outcomes := make([]outcome, len(batches))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for idx, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, batch []srt.Block) {
			defer wg.Done()
			defer func() { <-sem }()

			texts, err := o.translateBatch(ctx, model, prompt, batch)
			if err != nil && isTransientError(err) {
				log.Warn().Err(err).Int("batch", idx+1).Msg("openai batch failed, retrying once")
				time.Sleep(5 * time.Second)
				texts, err = o.translateBatch(ctx, model, prompt, batch)
			}
			if err != nil {
				outcomes[idx] = outcome{err: fmt.Errorf("batch %d: %w", idx+1, err)}
				return
			}

			partial := batchResult(batch, texts)
			outcomes[idx] = outcome{partial: partial}
			onProgress(partial)
			logf(fmt.Sprintf("OpenAI: batch %d/%d done (%d cues)", idx+1, len(batches), len(batch)))
		}(idx, batch)
	}

	wg.Wait()

	result := make(map[int]string, len(blocks))
	for _, oc := range outcomes {
		if oc.err != nil {
			return nil, oc.err
		}
		for k, v := range oc.partial {
			result[k] = v
		}
	}

	logf(fmt.Sprintf("OpenAI: translated %d cues", len(result)))
	return result, nil
}

func (o *OpenAITranslator) translateBatch(ctx context.Context, model, prompt string, batch []srt.Block) ([]string, error) {
	reqBody := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt},
			{"role": "user", "content": buildNumberedPrompt(batch)},
		},
		"temperature": 0.3,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", openAIChatURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parse OpenAI response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	return decodeTranslationArray(chatResp.Choices[0].Message.Content, len(batch))
}

// buildNumberedPrompt lists batch cues as "[index] text" lines and asks for
// a JSON array answer matching the batch size.
func buildNumberedPrompt(batch []srt.Block) string {
	var sb strings.Builder
	sb.WriteString("Translate the following subtitle cues. Return ONLY a JSON array of strings with one translation per cue, in the same order.\n\n")
	for _, b := range batch {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", b.Index, b.Text))
	}
	sb.WriteString(fmt.Sprintf("\nReturn exactly %d translations as a JSON array of strings.", len(batch)))
	return sb.String()
}
