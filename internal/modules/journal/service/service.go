package service

import (
	"context"

	"github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/domain"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/repository"
	topicsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/domain"
	"github.com/samber/oops"
)

// Service keeps the history of provisioning runs
type Service struct {
	repo repository.Repository
}

// New creates a new journal service
func New(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Append journals a finished run.
func (s *Service) Append(_ context.Context, outcome topicsDomain.Outcome) error {
	entry := domain.NewEntry(outcome)
	if err := s.repo.Append(entry); err != nil {
		return oops.With("chat_id", outcome.ChatID, "context", "failed to journal run").Wrap(err)
	}
	return nil
}

// List returns recent runs, newest first.
func (s *Service) List(limit int) ([]*domain.Entry, error) {
	return s.repo.List(limit)
}
