package domain

import (
	"time"

	"github.com/google/uuid"
	topicsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/domain"
)

// MaxEntries is how many runs the journal keeps.
const MaxEntries = 200

// Entry is one journaled provisioning run
type Entry struct {
	ID         uuid.UUID              `json:"id"`
	ChatID     int64                  `json:"chat_id"`
	State      topicsDomain.State     `json:"state"`
	Created    int                    `json:"created"`
	Total      int                    `json:"total"`
	Renamed    bool                   `json:"renamed"`
	Failures   []topicsDomain.Failure `json:"failures,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// NewEntry assigns a fresh id to a run outcome.
func NewEntry(o topicsDomain.Outcome) *Entry {
	return &Entry{
		ID:         uuid.New(),
		ChatID:     o.ChatID,
		State:      o.State,
		Created:    o.Created,
		Total:      o.Total,
		Renamed:    o.Renamed,
		Failures:   o.Failures,
		Reason:     o.Reason,
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
	}
}

// Duration is how long the run took.
func (e *Entry) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}
