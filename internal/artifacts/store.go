package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes artifacts. Parent directories are created on write.
type Store struct {
	layout Layout
}

// NewStore creates a Store over the given layout.
func NewStore(layout Layout) *Store {
	return &Store{layout: layout}
}

// Layout returns the store's path layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Exists reports whether an artifact exists at path.
func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteJSON writes v as indented JSON at path.
func (s *Store) WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return s.WriteRaw(path, buf.Bytes())
}

// ReadJSON reads the JSON artifact at path into v.
func (s *Store) ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteText writes a text artifact at path.
func (s *Store) WriteText(path, content string) error {
	return s.WriteRaw(path, []byte(content))
}

// WriteRaw writes bytes at path, creating parent directories.
func (s *Store) WriteRaw(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadRaw reads the artifact bytes at path.
func (s *Store) ReadRaw(path string) ([]byte, error) {
	return os.ReadFile(path)
}
