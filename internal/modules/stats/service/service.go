package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/repository"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
	"github.com/samber/oops"
)

// Service counts message kinds per user and chat
type Service struct {
	repo   repository.Repository
	client platform.Client
	inv    *invoker.Invoker
	logger *slog.Logger

	mu    sync.Mutex
	stats domain.Stats
}

// New loads the persisted statistics.
func New(repo repository.Repository, client platform.Client, inv *invoker.Invoker, logger *slog.Logger) (*Service, error) {
	stats, err := repo.Load()
	if err != nil {
		return nil, oops.In("stats").With("context", "failed to load statistics").Wrap(err)
	}
	return &Service{
		repo:   repo,
		client: client,
		inv:    inv,
		logger: logger,
		stats:  stats,
	}, nil
}

// Record increments one counter and persists the whole document.
// A failed write is logged; the in-memory counter still advances.
func (s *Service) Record(ctx context.Context, chat domain.ChatID, user domain.UserID, kind domain.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.stats.Increment(chat, user, kind)
	if err := s.repo.Save(s.stats); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist statistics", "chat_id", chat, "user_id", user, "error", err)
	}
	return n
}

// RecordMessage counts every kind present on msg. Messages from bots are ignored.
func (s *Service) RecordMessage(ctx context.Context, msg *models.Message) []domain.Kind {
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}
	kinds := Classify(msg)
	for _, kind := range kinds {
		s.Record(ctx, domain.ChatID(msg.Chat.ID), domain.UserID(msg.From.ID), kind)
	}
	return kinds
}

// Ranking returns the top users of chat without display names.
func (s *Service) Ranking(chat domain.ChatID) domain.Report {
	s.mu.Lock()
	ranked := domain.Rank(s.stats.Chat(chat))
	s.mu.Unlock()
	return domain.Top(chat, ranked, domain.TopSize)
}

// Report returns the top users of chat with names resolved on the platform.
// A name that cannot be resolved falls back to "User <id>".
func (s *Service) Report(ctx context.Context, chat domain.ChatID) domain.Report {
	report := s.Ranking(chat)
	for i := range report.Entries {
		e := &report.Entries[i]
		name, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "get_chat_member", func(ctx context.Context) (string, error) {
			return s.client.GetChatMember(ctx, int64(chat), int64(e.UserID))
		})
		if err != nil || name == "" {
			s.logger.Debug("Could not resolve member name", "chat_id", chat, "user_id", e.UserID, "error", err)
			name = fmt.Sprintf("User %d", e.UserID)
		}
		e.Name = name
	}
	return report
}

// FormatReport renders a report as the /stats reply.
func FormatReport(report domain.Report) string {
	if len(report.Entries) == 0 {
		return "📊 No statistics for this chat yet."
	}

	var b strings.Builder
	b.WriteString("📊 User activity statistics:\n\n")
	for i, e := range report.Entries {
		fmt.Fprintf(&b, "%d. %s: %d messages\n", i+1, e.Name, e.Total)
		fmt.Fprintf(&b, "   📝 Text: %d, 🖼 Photo: %d, 🎞 Video: %d, 🎭 Stickers: %d, 📊 GIF: %d\n",
			e.Counts[domain.KindText], e.Counts[domain.KindPhoto], e.Counts[domain.KindVideo],
			e.Counts[domain.KindSticker], e.Counts[domain.KindAnimation])
	}
	if report.Remainder > 0 {
		fmt.Fprintf(&b, "\n...and %d more users", report.Remainder)
	}
	return b.String()
}
