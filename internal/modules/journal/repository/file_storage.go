package repository

import (
	"errors"
	"sync"

	"github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/domain"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/kvfile"
	"github.com/samber/oops"
)

// FileStorage implements journal.Repository on one JSON array, newest entry first
type FileStorage struct {
	store *kvfile.Store[[]*domain.Entry]
	limit int
	mu    sync.RWMutex
}

// NewFileStorage creates a file-backed journal keeping at most domain.MaxEntries runs.
func NewFileStorage(path string) Repository {
	return &FileStorage{store: kvfile.New[[]*domain.Entry](path), limit: domain.MaxEntries}
}

func (s *FileStorage) load() ([]*domain.Entry, error) {
	entries, err := s.store.Load()
	if err != nil {
		if errors.Is(err, sharedErrors.ErrNotFound) {
			return []*domain.Entry{}, nil
		}
		return nil, oops.In("journal").With("path", s.store.Path()).Wrap(err)
	}
	return entries, nil
}

func (s *FileStorage) Append(entry *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = append([]*domain.Entry{entry}, entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	if err := s.store.Save(entries); err != nil {
		return oops.In("journal").With("entry_id", entry.ID).Wrap(err)
	}
	return nil
}

func (s *FileStorage) List(limit int) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
