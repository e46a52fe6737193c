package service

import (
	"context"
	"strings"

	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
)

// Member is a user that joined a chat.
type Member struct {
	ID        int64
	IsBot     bool
	Username  string
	FirstName string
	LastName  string
}

// DisplayName is "@username" when set, otherwise the full name.
func (m Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		return textFallbackFriend
	}
	return name
}

// SelfID returns the bot's own user id. It is asked from the platform until a call succeeds.
func (s *Service) SelfID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	id := s.selfID
	s.mu.Unlock()
	if id != 0 {
		return id, nil
	}

	id, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "get_me", s.client.GetMe)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.selfID = id
	s.mu.Unlock()
	return id, nil
}

// MembersJoined handles a new-members update: onboarding when the bot itself was
// added, then a greeting for every human newcomer.
func (s *Service) MembersJoined(ctx context.Context, chatID int64, members []Member, templates []string) {
	selfID, err := s.SelfID(ctx)
	if err != nil {
		s.logger.Error("Failed to resolve bot identity", "chat_id", chatID, "error", err)
		return
	}

	var humans []Member
	botAdded := false
	for _, m := range members {
		switch {
		case m.ID == selfID:
			botAdded = true
		case !m.IsBot:
			humans = append(humans, m)
		}
	}

	if botAdded {
		s.Onboard(ctx, chatID, templates)
	}
	s.Greet(ctx, chatID, humans)
}

// Onboard posts the template messages into a group the bot was just added to,
// then tells whether topics can be created there. Failures are logged and skipped.
func (s *Service) Onboard(ctx context.Context, chatID int64, templates []string) {
	s.logger.Info("Bot added to group", "chat_id", chatID)

	for i, text := range templates {
		if _, err := s.send(ctx, chatID, text); err != nil {
			s.logger.Error("Failed to send template message", "chat_id", chatID, "index", i, "error", err)
		}
		if i < len(templates)-1 {
			if err := s.inv.Pause(ctx, s.pacing.BetweenTemplates); err != nil {
				return
			}
		}
	}

	if err := s.inv.Pause(ctx, s.pacing.BetweenTemplates); err != nil {
		return
	}
	info, err := invoker.Do(ctx, s.inv, s.inv.Policy(), "get_chat", func(ctx context.Context) (platform.ChatInfo, error) {
		return s.client.GetChat(ctx, chatID)
	})
	if err != nil {
		s.logger.Error("Failed to check group type", "chat_id", chatID, "error", err)
		return
	}

	hint := textEnableTopics
	if info.IsForum {
		hint = textForumHint
	}
	if _, err := s.send(ctx, chatID, hint); err != nil {
		s.logger.Error("Failed to send forum hint", "chat_id", chatID, "error", err)
	}
}

// Greet welcomes each member in turn.
func (s *Service) Greet(ctx context.Context, chatID int64, members []Member) {
	for _, m := range members {
		if m.IsBot {
			continue
		}
		if _, err := s.send(ctx, chatID, textGreeting(m.DisplayName())); err != nil {
			s.logger.Error("Failed to greet member", "chat_id", chatID, "user_id", m.ID, "error", err)
		} else {
			s.logger.Info("Greeted new member", "chat_id", chatID, "user_id", m.ID)
		}
		if err := s.inv.Pause(ctx, s.pacing.BetweenGreetings); err != nil {
			return
		}
	}
}

func (s *Service) send(ctx context.Context, chatID int64, text string) (int, error) {
	return invoker.Do(ctx, s.inv, s.inv.Policy(), "send_message", func(ctx context.Context) (int, error) {
		return s.client.SendMessage(ctx, chatID, 0, 0, text)
	})
}
