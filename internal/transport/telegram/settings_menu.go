package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
)

const settingsCallbackPrefix = "settings_"

const (
	callbackToken    = settingsCallbackPrefix + "token"
	callbackMainName = settingsCallbackPrefix + "main_name"
	callbackThemes   = settingsCallbackPrefix + "themes"
	callbackHello    = settingsCallbackPrefix + "hello"
)

const settingsUsage = "⚠️ Wrong command format. Use:\n/settings set [parameter] [value]\nor just /settings for the interactive menu"

func settingsKeyboard() [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{{Text: "Change bot token", CallbackData: callbackToken}},
		{{Text: "Change main topic name", CallbackData: callbackMainName}},
		{{Text: "Manage topics", CallbackData: callbackThemes}},
		{{Text: "Manage welcome messages", CallbackData: callbackHello}},
	}
}

func (h *Handler) handleSettings(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if !h.authorized(ctx, msg) {
		return
	}

	args := strings.Fields(commandArgs(msg))
	switch {
	case len(args) == 0:
		h.showSettingsMenu(ctx, msg)
	case len(args) >= 3 && args[0] == "set":
		param := args[1]
		value := strings.Join(args[2:], " ")
		h.reply(ctx, msg, h.applySetting(param, value))
	default:
		h.reply(ctx, msg, settingsUsage)
	}
}

func (h *Handler) showSettingsMenu(ctx context.Context, msg *models.Message) {
	snap := h.settings.Snapshot()
	token := "not configured"
	if snap.BotToken != "" || h.cfg.TelegramBotToken != "" {
		token = "configured"
	}

	text := fmt.Sprintf(`⚙️ Bot settings

• Bot token: %s
• Main topic name: %s
• Topics: %d
• Template messages: %d

Pick a parameter to change or use the command:
/settings set [parameter] [value]

Examples:
/settings set bot_token YOUR_TOKEN_HERE
/settings set main_name Main topic name`, token, snap.MainName, len(snap.Themes), len(snap.TemplateMessages))

	_, err := invoker.Do(ctx, h.inv, h.inv.Policy(), "send_settings_menu", func(ctx context.Context) (int, error) {
		return h.client.SendKeyboard(ctx, msg.Chat.ID, msg.ID, text, settingsKeyboard())
	})
	if err != nil {
		h.logger.Error("Failed to send settings menu", "chat_id", msg.Chat.ID, "error", err)
	}
}

// applySetting updates one parameter and returns the reply text.
func (h *Handler) applySetting(param, value string) string {
	err := h.settings.Apply(param, value)
	switch {
	case err == nil:
	case errors.Is(err, sharedErrors.ErrUnknownParam):
		return fmt.Sprintf("⚠️ Unknown parameter: %s", param)
	case errors.Is(err, sharedErrors.ErrInvalidIndex):
		return fmt.Sprintf("⚠️ Invalid index. Available indexes: 1-%d", len(h.settings.Snapshot().Themes))
	default:
		return fmt.Sprintf("❌ Failed to update %s: %v", param, err)
	}

	switch {
	case param == "bot_token":
		return "✅ Bot token updated\n⚠️ Restart the bot to apply it"
	case param == "main_name":
		return fmt.Sprintf("✅ Main topic name changed to: %s", value)
	case strings.HasPrefix(param, "theme_"):
		return fmt.Sprintf("✅ Topic #%s changed to: %s", strings.TrimPrefix(param, "theme_"), value)
	default:
		return fmt.Sprintf("✅ Welcome message #%s changed", strings.TrimPrefix(param, "hello_"))
	}
}

func (h *Handler) handleSettingsCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	if err := h.inv.Exec(ctx, h.inv.Policy(), "answer_callback", func(ctx context.Context) error {
		return h.client.AnswerCallback(ctx, query.ID)
	}); err != nil {
		h.logger.Warn("Failed to answer callback", "callback_id", query.ID, "error", err)
	}

	chatID, ok := callbackChatID(query)
	if !ok || !h.cfg.IsAllowed(query.From.ID) {
		return
	}

	text := h.callbackText(query.Data)
	if _, err := invoker.Do(ctx, h.inv, h.inv.Policy(), "send_message", func(ctx context.Context) (int, error) {
		return h.client.SendMessage(ctx, chatID, 0, 0, text)
	}); err != nil {
		h.logger.Error("Failed to answer settings menu", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) callbackText(data string) string {
	snap := h.settings.Snapshot()
	switch data {
	case callbackToken:
		return "Enter the new bot token with the command:\n/settings set bot_token YOUR_TOKEN_HERE"
	case callbackMainName:
		return "Enter the new main topic name with the command:\n/settings set main_name New name"
	case callbackThemes:
		return fmt.Sprintf("📋 Topic management:\n\nUse these commands:\n/list_themes - show all topics\n/add [name] - add a topic\n/delete [number] - delete a topic\n/edit_theme [number] [name] - rename a topic\n\nCurrent number of topics: %d", len(snap.Themes))
	case callbackHello:
		return fmt.Sprintf("📋 Welcome message management:\n\nUse these commands:\n/edit_hello [number] [text] - change a message\n/list_themes - see all messages\n\nCurrent number of messages: %d", len(snap.HelloMessages))
	default:
		return "⚠️ Unknown command"
	}
}

func callbackChatID(q *models.CallbackQuery) (int64, bool) {
	switch {
	case q.Message.Message != nil:
		return q.Message.Message.Chat.ID, true
	case q.Message.InaccessibleMessage != nil:
		return q.Message.InaccessibleMessage.Chat.ID, true
	}
	return 0, false
}
