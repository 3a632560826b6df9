package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSubtitleFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"movie.srt", true},
		{"MOVIE.SRT", true},
		{"movie.en.Srt", true},
		{"movie.vtt", false},
		{"movie.srt.txt", false},
		{"srt", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSubtitleFile(tt.name); got != tt.want {
			t.Errorf("IsSubtitleFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"movie.srt", "movie.srt"},
		{"../../etc/passwd", "passwd"},
		{"dir/movie.srt", "movie.srt"},
		{"we?ird*.srt", "we_ird_.srt"},
		{"..", "subtitle.srt"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(filepath.Join(base, "uploads"), filepath.Join(base, "output"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.SaveUpload("movie.srt", []byte("1\n00:00:01,000 --> 00:00:02,000\nhi\n")); err != nil {
		t.Fatal(err)
	}

	path, err := store.WriteOutput("run-1", "movie.srt", "translated")
	if err != nil {
		t.Fatal(err)
	}

	data, err := store.ReadOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "translated" {
		t.Errorf("output content = %q", data)
	}

	if err := store.RemoveOutput(path); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveOutput(path); err != nil {
		t.Errorf("removing a missing output should not fail: %v", err)
	}
}

func TestReadOutputRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(filepath.Join(base, "uploads"), filepath.Join(base, "output"))
	if err != nil {
		t.Fatal(err)
	}

	outside := filepath.Join(base, "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ReadOutput(outside); err == nil {
		t.Error("path outside the output dir was readable")
	}
	if _, err := store.ReadOutput(filepath.Join(base, "output", "..", "secret.txt")); err == nil {
		t.Error("traversal path was readable")
	}
}
