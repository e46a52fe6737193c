package repository

import "github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/domain"

// Repository defines the interface for run journal persistence
type Repository interface {
	Append(entry *domain.Entry) error
	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(limit int) ([]*domain.Entry, error)
}
