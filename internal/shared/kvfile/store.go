// Package kvfile keeps one JSON document per file and replaces it atomically on save.
package kvfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/samber/oops"
)

// Store loads and saves a document of type T at a fixed path.
type Store[T any] struct {
	path string
	mu   sync.Mutex
}

// New creates a store for the document at path. The file is not touched until Save.
func New[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Read returns the raw document. A missing file yields errors.ErrNotFound.
func (s *Store[T]) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, oops.With("path", s.path).Wrap(sharedErrors.ErrNotFound)
		}
		return nil, oops.With("path", s.path, "context", "failed to read document").Wrap(err)
	}
	return data, nil
}

// Load decodes the document. A missing file yields errors.ErrNotFound.
func (s *Store[T]) Load() (T, error) {
	var v T
	data, err := s.Read()
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, oops.With("path", s.path, "context", "failed to unmarshal document").Wrap(err)
	}
	return v, nil
}

// Save writes the whole document to a temp file and renames it over the old one.
func (s *Store[T]) Save(v T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return oops.With("path", s.path, "context", "failed to marshal document").Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return oops.With("dir", dir, "context", "failed to create data directory").Wrap(err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return oops.With("path", tmp, "context", "failed to write document").Wrap(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return oops.With("path", s.path, "context", "failed to replace document").Wrap(err)
	}
	return nil
}
