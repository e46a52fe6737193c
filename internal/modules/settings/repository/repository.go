package repository

import (
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/domain"
)

// Repository persists the whole settings document. There is no partial update:
// callers load, mutate and save.
type Repository interface {
	// Load returns defaults when nothing has been saved yet.
	Load() (*domain.Settings, error)
	Save(settings *domain.Settings) error
}
