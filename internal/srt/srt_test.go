package srt

import (
	"strings"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00:00,000", 0, false},
		{"00:00:01,000", 1000, false},
		{"00:01:00,500", 60500, false},
		{"01:02:03,004", 3723004, false},
		{"99:59:59,999", 359999999, false},
		{"100:00:00,000", 360000000, false},
		{"00:00:00", 0, true},
		{"0:00:00,000", 0, true},
		{"00:00:00.000", 0, true},
		{"not a timestamp", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00:00,000"},
		{1, "00:00:00,001"},
		{61001, "00:01:01,001"},
		{3600000, "01:00:00,000"},
		{359999999, "99:59:59,999"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Errorf("FormatTimestamp(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	// Sample across the full representable range up to ~99 hours.
	for ms := 0; ms <= 359999999; ms += 777779 {
		got, err := ParseTimestamp(FormatTimestamp(ms))
		if err != nil {
			t.Fatalf("round trip of %d: %v", ms, err)
		}
		if got != ms {
			t.Fatalf("round trip of %d: got %d", ms, got)
		}
	}
}

const sampleSRT = "1\n00:00:01,000 --> 00:00:03,500\nHello there.\n\n" +
	"2\n00:00:04,000 --> 00:00:06,000\n<font color=\"#ffff00\">Line one</font>\nLine two\n\n" +
	"3\n00:00:07,250 --> 00:00:09,000\nGoodbye.\n"

func TestParse(t *testing.T) {
	blocks := Parse(sampleSRT)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}

	if blocks[0].Index != 1 || blocks[0].Timestamp != "00:00:01,000 --> 00:00:03,500" || blocks[0].Text != "Hello there." {
		t.Errorf("unexpected first block: %+v", blocks[0])
	}
	if blocks[1].Text != "<font color=\"#ffff00\">Line one</font>\nLine two" {
		t.Errorf("multi-line text not preserved: %q", blocks[1].Text)
	}
	if blocks[2].Index != 3 {
		t.Errorf("expected index 3, got %d", blocks[2].Index)
	}
}

func TestParseCRLFAndExtraBlankLines(t *testing.T) {
	doc := strings.ReplaceAll(sampleSRT, "\n", "\r\n")
	doc = strings.Replace(doc, "\r\n\r\n", "\r\n\r\n\r\n", 1)
	blocks := Parse(doc)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "Hello there." {
		t.Errorf("unexpected text: %q", blocks[0].Text)
	}
}

func TestParseSkipsMalformedGroups(t *testing.T) {
	doc := "1\n00:00:01,000 --> 00:00:02,000\nfirst\n\n" +
		"not a number\n00:00:03,000 --> 00:00:04,000\nbroken index\n\n" +
		"3\nno arrow here\nbroken range\n\n" +
		"4\n00:00:05,000 --> 00:00:06,000\nlast\n"

	blocks := Parse(doc)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 valid blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "first" || blocks[1].Text != "last" {
		t.Errorf("wrong blocks survived: %+v", blocks)
	}
	if blocks[1].Index != 4 {
		t.Errorf("index not preserved: %d", blocks[1].Index)
	}
}

func TestParsePreservesFileOrder(t *testing.T) {
	doc := "5\n00:00:01,000 --> 00:00:02,000\nfive\n\n" +
		"2\n00:00:03,000 --> 00:00:04,000\ntwo\n"
	blocks := Parse(doc)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Index != 5 || blocks[1].Index != 2 {
		t.Errorf("file order not preserved: %+v", blocks)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, doc := range []string{"", "   \n\n  ", "garbage without structure"} {
		if blocks := Parse(doc); len(blocks) != 0 {
			t.Errorf("Parse(%q) = %d blocks, want 0", doc, len(blocks))
		}
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	blocks := Parse(sampleSRT)
	again := Parse(Reconstruct(blocks))

	if len(again) != len(blocks) {
		t.Fatalf("round trip changed block count: %d -> %d", len(blocks), len(again))
	}
	for i := range blocks {
		if again[i] != blocks[i] {
			t.Errorf("block %d changed in round trip: %+v != %+v", i, again[i], blocks[i])
		}
	}
}

func TestReconstructFormat(t *testing.T) {
	out := Reconstruct([]Block{{Index: 7, Timestamp: "00:00:01,000 --> 00:00:02,000", Text: "hi"}})
	want := "7\n00:00:01,000 --> 00:00:02,000\nhi\n\n"
	if out != want {
		t.Errorf("Reconstruct = %q, want %q", out, want)
	}
}
