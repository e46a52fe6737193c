package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

// Client adapts *bot.Bot to platform.Client. Every call waits on a shared rate
// limiter and translates throttling into invoker.RateLimited.
type Client struct {
	b       *bot.Bot
	limiter *rate.Limiter
}

var _ platform.Client = (*Client)(nil)

// NewClient creates a client allowing ratePerSec calls per second. Zero or less disables the limit.
func NewClient(b *bot.Bot, ratePerSec int) *Client {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Client{b: b, limiter: rate.NewLimiter(limit, max(ratePerSec, 1))}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return oops.With("context", "rate limiter").Wrap(err)
	}
	return nil
}

func (c *Client) GetChat(ctx context.Context, chatID int64) (platform.ChatInfo, error) {
	if err := c.wait(ctx); err != nil {
		return platform.ChatInfo{}, err
	}
	chat, err := c.b.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return platform.ChatInfo{}, translate(err)
	}
	return platform.ChatInfo{
		ID:      chat.ID,
		Title:   chat.Title,
		Kind:    chatKind(chat.Type),
		IsForum: chat.IsForum,
	}, nil
}

func (c *Client) RenameTopic(ctx context.Context, chatID int64, topicID int, name string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	var err error
	if topicID == platform.GeneralTopicID {
		_, err = c.b.EditGeneralForumTopic(ctx, &bot.EditGeneralForumTopicParams{ChatID: chatID, Name: name})
	} else {
		_, err = c.b.EditForumTopic(ctx, &bot.EditForumTopicParams{ChatID: chatID, MessageThreadID: topicID, Name: name})
	}
	return translate(err)
}

func (c *Client) CreateTopic(ctx context.Context, chatID int64, name string) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	topic, err := c.b.CreateForumTopic(ctx, &bot.CreateForumTopicParams{ChatID: chatID, Name: name})
	if err != nil {
		return 0, translate(err)
	}
	return topic.MessageThreadID, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, topicID int, replyTo int, text string) (int, error) {
	return c.send(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		MessageThreadID: topicID,
		Text:            text,
		ReplyParameters: replyParameters(replyTo),
	})
}

// SendKeyboard posts text with an inline keyboard under it.
func (c *Client) SendKeyboard(ctx context.Context, chatID int64, replyTo int, text string, keyboard [][]models.InlineKeyboardButton) (int, error) {
	return c.send(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: replyParameters(replyTo),
		ReplyMarkup:     &models.InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
}

func (c *Client) send(ctx context.Context, params *bot.SendMessageParams) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	msg, err := c.b.SendMessage(ctx, params)
	if err != nil {
		return 0, translate(err)
	}
	return msg.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.b.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: chatID, MessageID: messageID, Text: text})
	return translate(err)
}

func (c *Client) PinMessage(ctx context.Context, chatID int64, messageID int, silent bool) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.b.PinChatMessage(ctx, &bot.PinChatMessageParams{ChatID: chatID, MessageID: messageID, DisableNotification: silent})
	return translate(err)
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	member, err := c.b.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		return "", translate(err)
	}
	user := memberUser(member)
	if user == nil {
		return "", oops.With("chat_id", chatID, "user_id", userID).Errorf("chat member has no user")
	}
	return FullName(user), nil
}

func (c *Client) GetMe(ctx context.Context) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	me, err := c.b.GetMe(ctx)
	if err != nil {
		return 0, translate(err)
	}
	return me.ID, nil
}

// AnswerCallback acknowledges a callback query so the client stops its spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID})
	return translate(err)
}

// go-telegram/bot flattens transport errors into plain strings, so failures are
// recognised by the prefixes it writes.
const (
	prefixDoRequest   = "error do request for method"
	prefixReadBody    = "error read response body for method"
	prefixAPIResponse = "error response from telegram for method"
)

// translate marks throttling, network failures and server-side hiccups so the
// invoker can retry them. Client errors pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var tooMany *bot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return invoker.RateLimited(err, time.Duration(tooMany.RetryAfter)*time.Second)
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, prefixDoRequest), strings.HasPrefix(msg, prefixReadBody):
		return invoker.Transient(err)
	case strings.HasPrefix(msg, prefixAPIResponse):
		if serverErrorCode(msg) {
			return invoker.Transient(err)
		}
	case strings.Contains(msg, "Internal Server Error"),
		strings.Contains(msg, "Bad Gateway"),
		strings.Contains(msg, "Gateway Timeout"):
		return invoker.Transient(err)
	}
	return err
}

// serverErrorCode reports whether "error response from telegram for method m, <code> ..."
// carries a 5xx code.
func serverErrorCode(msg string) bool {
	_, rest, ok := strings.Cut(msg, ", ")
	if !ok {
		return false
	}
	code, _, _ := strings.Cut(rest, " ")
	n, err := strconv.Atoi(code)
	return err == nil && n >= 500 && n < 600
}

func replyParameters(replyTo int) *models.ReplyParameters {
	if replyTo == 0 {
		return nil
	}
	return &models.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
}

func chatKind(t models.ChatType) platform.ChatKind {
	kind, err := platform.ParseChatKind(string(t))
	if err != nil {
		return platform.ChatKindPrivate
	}
	return kind
}

func memberUser(m *models.ChatMember) *models.User {
	if m == nil {
		return nil
	}
	switch {
	case m.Owner != nil:
		return m.Owner.User
	case m.Administrator != nil:
		return &m.Administrator.User
	case m.Member != nil:
		return m.Member.User
	case m.Restricted != nil:
		return m.Restricted.User
	case m.Left != nil:
		return m.Left.User
	case m.Banned != nil:
		return m.Banned.User
	}
	return nil
}

// FullName joins first and last name, falling back to the username.
func FullName(u *models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		return "@" + u.Username
	}
	return name
}
