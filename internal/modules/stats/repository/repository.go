package repository

import "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"

// Repository defines persistence of the whole activity document
type Repository interface {
	Load() (domain.Stats, error)
	Save(stats domain.Stats) error
}
