// Package storage keeps uploaded subtitle sources and translated outputs on
// disk under the data directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IsSubtitleFile reports whether a file name carries the .srt suffix,
// case-insensitively.
func IsSubtitleFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".srt")
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._ -]`)

// SanitizeName strips path components and unsafe characters from an
// uploaded file name.
func SanitizeName(name string) string {
	name = filepath.Base(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "subtitle.srt"
	}
	return name
}

// Store persists run files under a base directory, one subdirectory per
// concern (uploads, output).
type Store struct {
	uploadDir string
	outputDir string
}

func NewStore(uploadDir, outputDir string) (*Store, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &Store{uploadDir: uploadDir, outputDir: outputDir}, nil
}

// SaveUpload writes an uploaded subtitle source to the upload directory and
// returns its path.
func (s *Store) SaveUpload(name string, content []byte) (string, error) {
	path := filepath.Join(s.uploadDir, SanitizeName(name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// WriteOutput writes a translated document for a run and returns its path.
// Outputs are keyed by run ID so history entries keep distinct files even
// when the same source is translated twice.
func (s *Store) WriteOutput(runID, fileName, content string) (string, error) {
	name := fmt.Sprintf("%s_%s", runID, SanitizeName(fileName))
	path := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return path, nil
}

// ReadOutput returns a previously written output document. The path must
// resolve inside the output directory.
func (s *Store) ReadOutput(path string) ([]byte, error) {
	absBase, err := filepath.Abs(s.outputDir)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return nil, os.ErrPermission
	}
	return os.ReadFile(absPath)
}

// RemoveOutput deletes a run's output file; missing files are not an error.
func (s *Store) RemoveOutput(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
