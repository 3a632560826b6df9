package pipeline

import "github.com/srt-flow/backend/internal/srt"

// Merge folds a partial batch into the current progress map and returns a
// new map. Per key the newest write wins; no key is ever removed, so merging
// is commutative across batches regardless of delivery order.
func Merge(current, batch map[int]string) map[int]string {
	out := make(map[int]string, len(current)+len(batch))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range batch {
		out[k] = v
	}
	return out
}

// ApplyTranslations substitutes translated text into the original cue
// sequence. Cues without a translation keep their original text; a partial
// result produces a best-effort merged document, never a dropped cue.
func ApplyTranslations(blocks []srt.Block, translations map[int]string) []srt.Block {
	out := make([]srt.Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		if text, ok := translations[out[i].Index]; ok {
			out[i].Text = text
		}
	}
	return out
}
