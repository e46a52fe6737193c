package repository

import (
	"errors"

	"github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/kvfile"
	"github.com/samber/oops"
)

// FileStorage implements stats.Repository on a single JSON document
type FileStorage struct {
	store *kvfile.Store[domain.Stats]
}

// NewFileStorage creates a file-backed stats repository. The file is created on first save.
func NewFileStorage(path string) Repository {
	return &FileStorage{store: kvfile.New[domain.Stats](path)}
}

func (s *FileStorage) Load() (domain.Stats, error) {
	stats, err := s.store.Load()
	if err != nil {
		if errors.Is(err, sharedErrors.ErrNotFound) {
			return domain.Stats{}, nil
		}
		return nil, oops.In("stats").With("path", s.store.Path()).Wrap(err)
	}
	if stats == nil {
		stats = domain.Stats{}
	}
	return stats, nil
}

func (s *FileStorage) Save(stats domain.Stats) error {
	if err := s.store.Save(stats); err != nil {
		return oops.In("stats").With("path", s.store.Path()).Wrap(err)
	}
	return nil
}
