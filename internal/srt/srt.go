// Package srt implements a lossless SubRip (SRT) codec: a millisecond
// timestamp codec, a fault-tolerant parser and a reconstructor. Parsing and
// reconstruction round-trip index values, timestamp strings and cue text.
package srt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Block is a single subtitle cue: its ordinal index, the raw
// "HH:MM:SS,mmm --> HH:MM:SS,mmm" range, and the cue text (may span
// multiple lines and carry markup; opaque to the parser).
type Block struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

var (
	timestampRe = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)
	rangeRe     = regexp.MustCompile(`^(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})$`)
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n+`)
)

// ParseTimestamp converts "HH:MM:SS,mmm" to a millisecond offset.
// Malformed input fails fast with an error; callers decide whether a bad
// timestamp is fatal for their document.
func ParseTimestamp(ts string) (int, error) {
	m := timestampRe.FindStringSubmatch(strings.TrimSpace(ts))
	if m == nil {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])
	return ((h*60+min)*60+sec)*1000 + ms, nil
}

// FormatTimestamp converts a millisecond offset back to "HH:MM:SS,mmm".
// ParseTimestamp(FormatTimestamp(ms)) == ms for every non-negative ms.
func FormatTimestamp(ms int) string {
	h := ms / 3600000
	ms %= 3600000
	min := ms / 60000
	ms %= 60000
	sec := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, min, sec, ms)
}

// SplitRange splits "start --> end" into its two timestamps.
func SplitRange(r string) (start, end string, err error) {
	m := rangeRe.FindStringSubmatch(strings.TrimSpace(r))
	if m == nil {
		return "", "", fmt.Errorf("malformed timestamp range %q", r)
	}
	return m[1], m[2], nil
}

// FormatRange joins two millisecond offsets into a timestamp range.
func FormatRange(startMs, endMs int) string {
	return FormatTimestamp(startMs) + " --> " + FormatTimestamp(endMs)
}

// Parse converts raw SRT text into cue blocks in document order.
//
// Cue groups are separated by blank lines. The first line of a group is the
// numeric index, the second the timestamp range, the rest the cue text.
// Groups with a missing or non-numeric index, or without a valid range, are
// skipped so one corrupt cue never loses the rest of the file. Numeric index
// values are kept as found; out-of-order documents parse in file order.
func Parse(content string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var blocks []Block
	for _, group := range blankLineRe.Split(content, -1) {
		lines := strings.Split(strings.TrimSpace(group), "\n")
		if len(lines) < 2 {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil || index <= 0 {
			continue
		}

		start, end, err := SplitRange(lines[1])
		if err != nil {
			continue
		}

		blocks = append(blocks, Block{
			Index:     index,
			Timestamp: start + " --> " + end,
			Text:      strings.Join(lines[2:], "\n"),
		})
	}
	return blocks
}

// Reconstruct converts cue blocks back into SRT text. Blocks are emitted in
// slice order with their stored index values; callers that changed the
// structure must renumber before reconstructing.
func Reconstruct(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(strconv.Itoa(b.Index))
		sb.WriteString("\n")
		sb.WriteString(b.Timestamp)
		sb.WriteString("\n")
		sb.WriteString(b.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
