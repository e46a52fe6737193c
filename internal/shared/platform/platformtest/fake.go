// Package platformtest provides an in-memory platform.Client and a recording
// sleeper for tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
	"github.com/samber/lo"
)

// Call is one recorded client call.
type Call struct {
	Method    string
	ChatID    int64
	TopicID   int
	MessageID int
	ReplyTo   int
	Text      string
}

// Client is a scripted platform.Client. Zero value is usable.
type Client struct {
	mu sync.Mutex

	Chat    platform.ChatInfo
	SelfID  int64
	Members map[int64]string

	// Errors queues errors per method; each call pops the head.
	Errors map[string][]error
	// FailTopics makes CreateTopic fail every time for the named topics.
	FailTopics map[string]error

	calls     []Call
	messageID int
	topicID   int
}

var _ platform.Client = (*Client)(nil)

// Calls returns recorded calls, all of them or only of the given methods.
func (c *Client) Calls(methods ...string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(methods) == 0 {
		return append([]Call(nil), c.calls...)
	}
	return lo.Filter(c.calls, func(call Call, _ int) bool {
		return lo.Contains(methods, call.Method)
	})
}

// Count is the number of calls of method.
func (c *Client) Count(method string) int {
	return len(c.Calls(method))
}

// Fail queues err for the next call of method.
func (c *Client) Fail(method string, errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Errors == nil {
		c.Errors = map[string][]error{}
	}
	c.Errors[method] = append(c.Errors[method], errs...)
}

func (c *Client) record(call Call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	if queue := c.Errors[call.Method]; len(queue) > 0 {
		c.Errors[call.Method] = queue[1:]
		return queue[0]
	}
	return nil
}

func (c *Client) GetChat(_ context.Context, chatID int64) (platform.ChatInfo, error) {
	if err := c.record(Call{Method: "GetChat", ChatID: chatID}); err != nil {
		return platform.ChatInfo{}, err
	}
	info := c.Chat
	info.ID = chatID
	return info, nil
}

func (c *Client) RenameTopic(_ context.Context, chatID int64, topicID int, name string) error {
	return c.record(Call{Method: "RenameTopic", ChatID: chatID, TopicID: topicID, Text: name})
}

func (c *Client) CreateTopic(_ context.Context, chatID int64, name string) (int, error) {
	if err := c.record(Call{Method: "CreateTopic", ChatID: chatID, Text: name}); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.FailTopics[name]; ok {
		return 0, err
	}
	c.topicID++
	return 100 + c.topicID, nil
}

func (c *Client) SendMessage(_ context.Context, chatID int64, topicID int, replyTo int, text string) (int, error) {
	if err := c.record(Call{Method: "SendMessage", ChatID: chatID, TopicID: topicID, ReplyTo: replyTo, Text: text}); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageID++
	return c.messageID, nil
}

func (c *Client) EditMessage(_ context.Context, chatID int64, messageID int, text string) error {
	return c.record(Call{Method: "EditMessage", ChatID: chatID, MessageID: messageID, Text: text})
}

func (c *Client) PinMessage(_ context.Context, chatID int64, messageID int, _ bool) error {
	return c.record(Call{Method: "PinMessage", ChatID: chatID, MessageID: messageID})
}

func (c *Client) GetChatMember(_ context.Context, chatID, userID int64) (string, error) {
	if err := c.record(Call{Method: "GetChatMember", ChatID: chatID, Text: fmt.Sprint(userID)}); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.Members[userID]
	if !ok {
		return "", errors.New("Bad Request: user not found")
	}
	return name, nil
}

func (c *Client) GetMe(context.Context) (int64, error) {
	if err := c.record(Call{Method: "GetMe"}); err != nil {
		return 0, err
	}
	return c.SelfID, nil
}

// Sleeper records requested waits instead of sleeping.
type Sleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

// Sleep matches invoker.SleepFunc.
func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Waits returns every recorded duration in order.
func (s *Sleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}
