package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/srt-flow/backend/internal/db"
)

const modelCacheTTL = time.Hour

// GeminiModel is the frontend-friendly model info.
type GeminiModel struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

type GeminiModelsHandler struct {
	database *db.Database

	mu           sync.Mutex
	cachedModels []GeminiModel
	cacheTime    time.Time
}

func NewGeminiModelsHandler(database *db.Database) *GeminiModelsHandler {
	return &GeminiModelsHandler{database: database}
}

// ListModels fetches available Gemini text models from the Google API.
// Returns an empty list when no API key is configured.
func (h *GeminiModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	apiKey := h.database.GetSetting("gemini_api_key", "")
	if apiKey == "" {
		jsonResponse(w, []GeminiModel{}, http.StatusOK)
		return
	}

	models, err := h.getModels(apiKey)
	if err != nil {
		jsonError(w, "failed to fetch Gemini models: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, models, http.StatusOK)
}

func (h *GeminiModelsHandler) getModels(apiKey string) ([]GeminiModel, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.cachedModels) > 0 && time.Since(h.cacheTime) < modelCacheTTL {
		return h.copyCache(), nil
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models?key=%s&pageSize=100", apiKey)

	resp, err := client.Get(url)
	if err != nil {
		// Serve a stale cache rather than fail when Google is unreachable.
		if len(h.cachedModels) > 0 {
			return h.copyCache(), nil
		}
		return nil, fmt.Errorf("google api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if len(h.cachedModels) > 0 {
			return h.copyCache(), nil
		}
		return nil, fmt.Errorf("google api: status %d", resp.StatusCode)
	}

	var apiResp struct {
		Models []struct {
			Name                       string   `json:"name"`
			DisplayName                string   `json:"displayName"`
			Description                string   `json:"description"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("parse google api response: %w", err)
	}

	var models []GeminiModel
	seen := make(map[string]bool)

	for _, m := range apiResp.Models {
		supportsGenerate := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				supportsGenerate = true
				break
			}
		}
		if !supportsGenerate {
			continue
		}

		id := strings.TrimPrefix(m.Name, "models/")
		if !strings.HasPrefix(id, "gemini-") {
			continue
		}
		// Skip non-text model families.
		if strings.Contains(id, "embedding") ||
			strings.Contains(id, "aqa") ||
			strings.Contains(id, "imagen") ||
			strings.Contains(id, "veo") {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		models = append(models, GeminiModel{
			ID:          id,
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}

	// Newer versions first.
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	h.cachedModels = models
	h.cacheTime = time.Now()
	return h.copyCache(), nil
}

func (h *GeminiModelsHandler) copyCache() []GeminiModel {
	result := make([]GeminiModel, len(h.cachedModels))
	copy(result, h.cachedModels)
	return result
}
