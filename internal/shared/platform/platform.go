//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// Package platform describes the chat platform capabilities the bot relies on.
package platform

import "context"

// GeneralTopicID addresses the always-present default topic of a forum.
const GeneralTopicID = 1

// ChatKind is the platform chat type
// ENUM(private,group,supergroup,channel)
type ChatKind string

// IsGroup reports whether the chat is a multi-user group.
func (k ChatKind) IsGroup() bool {
	return k == ChatKindGroup || k == ChatKindSupergroup
}

// ChatInfo is the chat metadata needed for provisioning.
type ChatInfo struct {
	ID      int64
	Title   string
	Kind    ChatKind
	IsForum bool
}

// Client is the remote platform surface. Implementations report rate limiting
// with invoker.RateLimited and network failures with invoker.Transient.
type Client interface {
	GetChat(ctx context.Context, chatID int64) (ChatInfo, error)
	RenameTopic(ctx context.Context, chatID int64, topicID int, name string) error
	CreateTopic(ctx context.Context, chatID int64, name string) (int, error)
	// SendMessage posts text; topicID 0 means the chat itself. replyTo 0 means no reply.
	SendMessage(ctx context.Context, chatID int64, topicID int, replyTo int, text string) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	PinMessage(ctx context.Context, chatID int64, messageID int, silent bool) error
	// GetChatMember returns the member's display name.
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
	GetMe(ctx context.Context) (int64, error)
}
