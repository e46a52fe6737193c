package telegram

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	settingsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/service"
	statsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/service"
	topicsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/service"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/config"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
	"github.com/samber/lo"
)

// Messenger is the platform client plus the Telegram-only calls the handler needs.
type Messenger interface {
	platform.Client
	SendKeyboard(ctx context.Context, chatID int64, replyTo int, text string, keyboard [][]models.InlineKeyboardButton) (int, error)
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Handler handles Telegram bot interactions
type Handler struct {
	cfg       *config.Config
	client    Messenger
	inv       *invoker.Invoker
	settings  *settingsService.Service
	stats     *statsService.Service
	topics    *topicsService.Service
	logger    *slog.Logger
	startedAt time.Time

	// spawn starts a provisioning run in the background.
	spawn func(func())
}

// New creates a new Telegram handler
func New(cfg *config.Config, client Messenger, inv *invoker.Invoker, settings *settingsService.Service, stats *statsService.Service, topics *topicsService.Service) *Handler {
	return &Handler{
		cfg:       cfg,
		client:    client,
		inv:       inv,
		settings:  settings,
		stats:     stats,
		topics:    topics,
		logger:    slog.Default(),
		startedAt: time.Now(),
		spawn:     func(f func()) { go f() },
	}
}

// SetLogger sets the logger
func (h *Handler) SetLogger(logger *slog.Logger) {
	h.logger = logger
}

// RegisterCommands registers bot commands
func (h *Handler) RegisterCommands(b *bot.Bot) {
	commands := map[string]bot.HandlerFunc{
		"start":       h.handleStart,
		"help":        h.handleHelp,
		"create":      h.handleCreate,
		"status":      h.handleStatus,
		"stats":       h.handleStats,
		"settings":    h.handleSettings,
		"list_themes": h.handleListThemes,
		"add":         h.handleAddTheme,
		"delete":      h.handleDeleteTheme,
		"edit_theme":  h.handleEditTheme,
		"edit_hello":  h.handleEditHello,
	}
	for name, fn := range commands {
		b.RegisterHandlerMatchFunc(matchCommand(name), fn)
	}
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, settingsCallbackPrefix, bot.MatchTypePrefix, h.handleSettingsCallback)
}

// HandleUpdate processes updates no command matched: member joins and activity counting.
func (h *Handler) HandleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if len(msg.NewChatMembers) > 0 {
		members := lo.Map(msg.NewChatMembers, func(u models.User, _ int) topicsService.Member {
			return topicsService.Member{
				ID:        u.ID,
				IsBot:     u.IsBot,
				Username:  u.Username,
				FirstName: u.FirstName,
				LastName:  u.LastName,
			}
		})
		h.topics.MembersJoined(ctx, msg.Chat.ID, members, h.settings.Snapshot().TemplateMessages)
		return
	}

	// Unregistered commands are not activity.
	if isCommand(msg) {
		return
	}

	if kinds := h.stats.RecordMessage(ctx, msg); len(kinds) > 0 {
		h.logger.Debug("Activity recorded", "chat_id", msg.Chat.ID, "kinds", kinds)
	}
}

// parseCommand splits "/name@bot args" into the lower-cased name and the raw argument text.
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, rest = head[:i], head[i+1:]
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// isCommand reports whether msg starts with a bot command entity.
func isCommand(msg *models.Message) bool {
	return len(msg.Entities) > 0 &&
		msg.Entities[0].Type == models.MessageEntityTypeBotCommand &&
		msg.Entities[0].Offset == 0
}

func matchCommand(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		cmd, _, ok := parseCommand(update.Message.Text)
		return ok && cmd == name
	}
}

func commandArgs(msg *models.Message) string {
	_, args, _ := parseCommand(msg.Text)
	return args
}

func (h *Handler) authorized(ctx context.Context, msg *models.Message) bool {
	if msg.From != nil && h.cfg.IsAllowed(msg.From.ID) {
		return true
	}
	h.reply(ctx, msg, "❌ Unauthorized")
	return false
}

// reply answers msg in the same chat and topic.
func (h *Handler) reply(ctx context.Context, msg *models.Message, text string) {
	topicID := 0
	if msg.IsTopicMessage {
		topicID = msg.MessageThreadID
	}
	_, err := invoker.Do(ctx, h.inv, h.inv.Policy(), "reply", func(ctx context.Context) (int, error) {
		return h.client.SendMessage(ctx, msg.Chat.ID, topicID, msg.ID, text)
	})
	if err != nil {
		h.logger.Error("Failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}
