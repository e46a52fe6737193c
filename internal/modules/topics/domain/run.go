package domain

import (
	"time"

	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
)

// Topic is one discussion topic to create with the text pinned inside it.
type Topic struct {
	Name    string `json:"name"`
	Welcome string `json:"welcome"`
}

// Request starts a provisioning run.
type Request struct {
	ChatID   int64
	ChatKind platform.ChatKind
	// ReplyTo is the command message the status message answers.
	ReplyTo  int
	MainName string
	Topics   []Topic
}

// Failure records a topic that could not be fully provisioned.
type Failure struct {
	Topic string `json:"topic"`
	Error string `json:"error"`
}

// Outcome is the result of one run.
type Outcome struct {
	ChatID     int64     `json:"chat_id"`
	State      State     `json:"state"`
	Created    int       `json:"created"`
	Total      int       `json:"total"`
	Renamed    bool      `json:"renamed"`
	Failures   []Failure `json:"failures,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Err is the precondition or abort cause, nil for a finished run.
	Err error `json:"-"`
}
