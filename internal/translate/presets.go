package translate

import "fmt"

// systemPrompt builds the translation system prompt for a preset.
func systemPrompt(preset, sourceLang, targetLang string) string {
	base := fmt.Sprintf(
		"You are a professional subtitle translator. Translate subtitle cues from %s to %s. "+
			"Preserve the meaning, keep lines short enough for on-screen display, and keep any "+
			"markup tags (such as <font> or <i>) exactly where they appear. "+
			"Return only the translated text for each cue, in the same order and count.",
		langName(sourceLang), langName(targetLang),
	)

	switch preset {
	case "anime":
		return base + "\n\nUse casual, natural dialogue. Preserve honorifics and character name consistency, and match the emotional tone of each line."
	case "movie":
		return base + "\n\nUse natural conversational style. Carry idioms over with equivalent expressions and keep the original formal/informal register."
	case "documentary":
		return base + "\n\nUse formal, precise language. Keep technical terms, proper nouns, numbers and measurements accurate."
	default:
		return base
	}
}

func langName(code string) string {
	names := map[string]string{
		"en":   "English",
		"ko":   "Korean",
		"ja":   "Japanese",
		"zh":   "Chinese",
		"es":   "Spanish",
		"fr":   "French",
		"de":   "German",
		"pt":   "Portuguese",
		"it":   "Italian",
		"ru":   "Russian",
		"vi":   "Vietnamese",
		"th":   "Thai",
		"id":   "Indonesian",
		"auto": "the auto-detected language",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
