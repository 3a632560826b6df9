package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/srt-flow/backend/internal/db"
)

const secretMask = "••••••••"

// settingsKeys defines which keys are allowed and their display metadata.
var settingsKeys = []SettingDef{
	{Key: "engine", Label: "Translation Engine", Group: "translation", Placeholder: "gemini", Secret: false},
	{Key: "gemini_api_key", Label: "Gemini API Key", Group: "translation", Placeholder: "AIza...", Secret: true},
	{Key: "gemini_model", Label: "Gemini Model", Group: "translation", Placeholder: "gemini-2.0-flash", Secret: false},
	{Key: "openai_api_key", Label: "OpenAI API Key", Group: "translation", Placeholder: "sk-...", Secret: true},
	{Key: "openai_model", Label: "OpenAI Model", Group: "translation", Placeholder: "gpt-4o-mini", Secret: false},
	{Key: "deepl_api_key", Label: "DeepL API Key", Group: "translation", Placeholder: "xxxxxxxx-xxxx-...", Secret: true},
	{Key: "source_lang", Label: "Source Language", Group: "languages", Placeholder: "en", Secret: false},
	{Key: "target_lang", Label: "Target Language", Group: "languages", Placeholder: "pt", Secret: false},
	{Key: "preset", Label: "Style Preset", Group: "style", Placeholder: "movie", Secret: false},
	{Key: "custom_prompt", Label: "Custom Instructions", Group: "style", Placeholder: "", Secret: false},
	{Key: "header_text", Label: "Header Text", Group: "branding", Placeholder: "", Secret: false},
	{Key: "header_color", Label: "Header Color", Group: "branding", Placeholder: "#00ffff", Secret: false},
	{Key: "footer_text", Label: "Footer Text", Group: "branding", Placeholder: "", Secret: false},
	{Key: "footer_color", Label: "Footer Color", Group: "branding", Placeholder: "#00ffff", Secret: false},
}

type SettingDef struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Group       string `json:"group"`
	Placeholder string `json:"placeholder"`
	Secret      bool   `json:"secret"`
}

type SettingsHandler struct {
	database *db.Database
}

func NewSettingsHandler(database *db.Database) *SettingsHandler {
	return &SettingsHandler{database: database}
}

// GetSettings returns all settings with secrets masked to their last 4 chars.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.database.GetAllSettings()
	if err != nil {
		jsonError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	type SettingResponse struct {
		SettingDef
		Value    string `json:"value"`
		HasValue bool   `json:"has_value"`
	}

	result := make([]SettingResponse, 0, len(settingsKeys))
	for _, def := range settingsKeys {
		val := all[def.Key]
		hasValue := val != ""
		if def.Secret && hasValue {
			if len(val) > 4 {
				val = secretMask + val[len(val)-4:]
			} else {
				val = secretMask
			}
		}
		result = append(result, SettingResponse{
			SettingDef: def,
			Value:      val,
			HasValue:   hasValue,
		})
	}

	jsonResponse(w, result, http.StatusOK)
}

// UpdateSettings saves settings from the request body. Unknown keys are
// ignored; masked secret values are skipped so redisplayed masks never
// overwrite the stored key. An empty value clears the setting.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	allowed := make(map[string]bool, len(settingsKeys))
	for _, def := range settingsKeys {
		allowed[def.Key] = true
	}

	for key, value := range updates {
		if !allowed[key] {
			continue
		}
		if strings.HasPrefix(value, secretMask) {
			continue
		}
		if err := h.database.SetSetting(key, value); err != nil {
			jsonError(w, "failed to save setting: "+key, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
