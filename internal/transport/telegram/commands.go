package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	statsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
	statsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/service"
	topicsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/service"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
)

const startText = `Hi! I am a bot for Telegram forums.
• I create discussion topics in forums
• I track user activity
• I let you manage topics on the fly

Use /help to see the list of commands.`

const helpText = `📋 Bot commands:

🎯 MAIN COMMANDS:
/start - Start working with the bot
/help - Show this help
/create - Create discussion topics from the template
/settings - Configure the bot
/status - Show current status and settings
/stats - Show user activity statistics

📝 TOPIC MANAGEMENT:
/list_themes - Show all topics
/add [name] - Add a new topic
/delete [number/name] - Delete a topic
/edit_theme [number] [new_name] - Rename a topic
/edit_hello [number] [new_message] - Change a welcome message

💡 EXAMPLES:
/add Discussions | Here we discuss important questions
/delete 3
/edit_theme 1 Main news`

func (h *Handler) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	h.reply(ctx, update.Message, startText)
}

func (h *Handler) handleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	h.reply(ctx, update.Message, helpText)
}

func (h *Handler) handleCreate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.authorized(ctx, msg) {
		return
	}

	req := topicsService.NewRequest(msg.Chat.ID, chatKind(msg.Chat.Type), msg.ID, h.settings.Snapshot())
	h.logger.Info("Provisioning requested", "chat_id", msg.Chat.ID, "topics", len(req.Topics))
	h.spawn(func() {
		h.topics.Provision(ctx, req)
	})
}

func (h *Handler) handleStatus(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	snap := h.settings.Snapshot()

	running := "no"
	if h.topics.Running(msg.Chat.ID) {
		running = "yes"
	}

	text := fmt.Sprintf(`📊 Bot status:

• Telegram bot: active
• Date and time: %s
• Uptime: %s
• Main topic name: %s
• Topics: %d
• Welcome messages: %d
• Activity tracking: enabled
• Topic creation running here: %s
• Data directory: %s`,
		time.Now().Format("2006-01-02 15:04:05"),
		time.Since(h.startedAt).Round(time.Second),
		snap.MainName,
		len(snap.Themes),
		len(snap.HelloMessages),
		running,
		h.cfg.DataDir,
	)
	h.reply(ctx, msg, text)
}

func (h *Handler) handleStats(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	report := h.stats.Report(ctx, statsDomain.ChatID(msg.Chat.ID))
	h.reply(ctx, msg, statsService.FormatReport(report))
}

func (h *Handler) handleListThemes(ctx context.Context, _ *bot.Bot, update *models.Update) {
	snap := h.settings.Snapshot()
	if len(snap.Themes) == 0 {
		h.reply(ctx, update.Message, "📝 The topic list is empty. Use /add to add topics.")
		return
	}

	var text strings.Builder
	fmt.Fprintf(&text, "📋 Topics (%d):\n\n", len(snap.Themes))
	for i, theme := range snap.Themes {
		hello := "No message"
		if i < len(snap.HelloMessages) && snap.HelloMessages[i] != "" {
			hello = snap.HelloMessages[i]
		}
		fmt.Fprintf(&text, "%d. %s\n   💬 %s\n\n", i+1, theme, hello)
	}
	text.WriteString("Management commands:\n")
	text.WriteString("/add [name] - add a topic\n")
	text.WriteString("/delete [number/name] - delete a topic\n")
	text.WriteString("/edit_theme [number] [new_name] - rename a topic\n")
	text.WriteString("/edit_hello [number] [new_message] - change a welcome message")

	h.reply(ctx, update.Message, text.String())
}

func (h *Handler) handleAddTheme(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.authorized(ctx, msg) {
		return
	}

	args := commandArgs(msg)
	if args == "" {
		h.reply(ctx, msg, "Give the name of the new topic.\nExample: /add New topic\nOr with a welcome message:\n/add New topic | Welcome to the new topic!")
		return
	}

	name, hello, _ := strings.Cut(args, " | ")
	name = strings.TrimSpace(name)
	if err := h.settings.AddTheme(name, hello); err != nil {
		if errors.Is(err, sharedErrors.ErrThemeExists) {
			h.reply(ctx, msg, fmt.Sprintf("⚠️ Topic '%s' already exists.", name))
			return
		}
		h.reply(ctx, msg, fmt.Sprintf("❌ Failed to add topic: %v", err))
		return
	}

	snap := h.settings.Snapshot()
	h.reply(ctx, msg, fmt.Sprintf("✅ Topic '%s' added!\n📝 Welcome message: %s\n📊 Total topics: %d",
		name, snap.WelcomeFor(len(snap.Themes)-1), len(snap.Themes)))
}

func (h *Handler) handleDeleteTheme(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.authorized(ctx, msg) {
		return
	}

	query := commandArgs(msg)
	if query == "" {
		h.reply(ctx, msg, "Give the number or the name of the topic to delete.\nExamples:\n/delete 3 - delete topic #3\n/delete Board - delete topic 'Board'\nUse /list_themes to see all topics")
		return
	}

	removed, err := h.settings.DeleteTheme(query)
	switch {
	case errors.Is(err, sharedErrors.ErrInvalidIndex):
		h.reply(ctx, msg, fmt.Sprintf("⚠️ Invalid topic number. Available numbers: 1-%d", len(h.settings.Snapshot().Themes)))
		return
	case errors.Is(err, sharedErrors.ErrNotFound):
		h.reply(ctx, msg, fmt.Sprintf("⚠️ Topic '%s' not found.", query))
		return
	case err != nil:
		h.reply(ctx, msg, fmt.Sprintf("❌ Failed to delete topic: %v", err))
		return
	}

	h.reply(ctx, msg, fmt.Sprintf("✅ Topic '%s' deleted!\n📊 Topics left: %d", removed, len(h.settings.Snapshot().Themes)))
}

func (h *Handler) handleEditTheme(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.authorized(ctx, msg) {
		return
	}

	n, name, ok := indexAndText(commandArgs(msg))
	if !ok {
		h.reply(ctx, msg, "Give the topic number and the new name.\nExample: /edit_theme 2 New name")
		return
	}

	old, err := h.settings.EditTheme(n, name)
	if err != nil {
		h.reply(ctx, msg, h.indexError(err))
		return
	}
	h.reply(ctx, msg, fmt.Sprintf("✅ Topic #%d renamed:\nWas: '%s'\nNow: '%s'", n, old, name))
}

func (h *Handler) handleEditHello(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.authorized(ctx, msg) {
		return
	}

	n, text, ok := indexAndText(commandArgs(msg))
	if !ok {
		h.reply(ctx, msg, "Give the topic number and the new welcome message.\nExample: /edit_hello 2 Welcome to the updated topic!")
		return
	}

	old, err := h.settings.EditHello(n, text)
	if err != nil {
		h.reply(ctx, msg, h.indexError(err))
		return
	}
	theme := ""
	if themes := h.settings.Snapshot().Themes; n <= len(themes) {
		theme = themes[n-1]
	}
	h.reply(ctx, msg, fmt.Sprintf("✅ Welcome message for topic '%s' updated:\nWas: %s\nNow: %s", theme, old, text))
}

func (h *Handler) indexError(err error) string {
	if errors.Is(err, sharedErrors.ErrInvalidIndex) {
		return fmt.Sprintf("⚠️ Invalid topic number. Available numbers: 1-%d", len(h.settings.Snapshot().Themes))
	}
	return fmt.Sprintf("❌ %v", err)
}

// indexAndText parses "<number> <text...>".
func indexAndText(args string) (int, string, bool) {
	first, rest, found := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	if !found || rest == "" {
		return 0, "", false
	}
	n, err := strconv.Atoi(first)
	if err != nil {
		return 0, "", false
	}
	return n, rest, true
}
