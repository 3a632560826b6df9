package srt

import (
	"fmt"
	"strings"
)

// Header cues occupy a fixed window at the start of the document; footer
// cues open one second after the last cue ends and stay up for five.
const (
	headerStartMs = 1000
	headerEndMs   = 6000
	footerGapMs   = 1000
	footerHoldMs  = 5000
)

// HeaderFooter configures optional header/footer cue injection. Empty or
// whitespace-only text disables the corresponding cue.
type HeaderFooter struct {
	HeaderText  string
	HeaderColor string
	FooterText  string
	FooterColor string
}

// ApplyHeaderFooter injects the configured header and footer cues into a
// translated sequence, recomputing indices and timestamps so the result is
// still a valid document. The input slice is not modified.
//
// The header takes index 1 and shifts every existing cue up by one. The
// footer is positioned after any header re-indexing: its start is the
// current last cue's end plus one second, its index the last index plus one.
func ApplyHeaderFooter(blocks []Block, opts HeaderFooter) ([]Block, error) {
	out := make([]Block, len(blocks))
	copy(out, blocks)

	if header := strings.TrimSpace(opts.HeaderText); header != "" {
		for i := range out {
			out[i].Index++
		}
		out = append([]Block{{
			Index:     1,
			Timestamp: FormatRange(headerStartMs, headerEndMs),
			Text:      colorSpan(header, opts.HeaderColor),
		}}, out...)
	}

	if footer := strings.TrimSpace(opts.FooterText); footer != "" && len(out) > 0 {
		last := out[len(out)-1]
		_, end, err := SplitRange(last.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("footer placement: %w", err)
		}
		endMs, err := ParseTimestamp(end)
		if err != nil {
			return nil, fmt.Errorf("footer placement: %w", err)
		}
		startMs := endMs + footerGapMs
		out = append(out, Block{
			Index:     last.Index + 1,
			Timestamp: FormatRange(startMs, startMs+footerHoldMs),
			Text:      colorSpan(footer, opts.FooterColor),
		})
	}

	return out, nil
}

func colorSpan(text, color string) string {
	if color == "" {
		return text
	}
	return fmt.Sprintf(`<font color="%s">%s</font>`, color, text)
}
