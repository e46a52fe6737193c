package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/domain"
	topicsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/domain"
	"github.com/samber/oops"
)

// FeedSize is how many runs a feed carries.
const FeedSize = 50

// Feed builds an RSS/Atom feed of recent provisioning runs
func (s *Service) Feed(baseURL string) (*feeds.Feed, error) {
	entries, err := s.repo.List(FeedSize)
	if err != nil {
		return nil, oops.With("context", "failed to list runs").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       "Forum topic provisioning runs",
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/runs", baseURL)},
		Description: "Outcome of every topic creation run",
	}
	if len(entries) > 0 {
		feed.Updated = entries[0].FinishedAt
		feed.Created = entries[len(entries)-1].StartedAt
	}

	feed.Items = make([]*feeds.Item, 0, len(entries))
	for _, entry := range entries {
		feed.Items = append(feed.Items, entryToFeedItem(entry, baseURL))
	}
	return feed, nil
}

func entryToFeedItem(e *domain.Entry, baseURL string) *feeds.Item {
	title := fmt.Sprintf("Chat %d: created %d/%d topics", e.ChatID, e.Created, e.Total)
	if e.State == topicsDomain.StateAborted {
		title = fmt.Sprintf("Chat %d: aborted", e.ChatID)
	}

	var description strings.Builder
	fmt.Fprintf(&description, "State: %s\nDuration: %s\n", e.State, e.Duration().Round(time.Millisecond))
	if e.Reason != "" {
		fmt.Fprintf(&description, "Reason: %s\n", e.Reason)
	}
	for _, f := range e.Failures {
		fmt.Fprintf(&description, "Failed topic %s: %s\n", f.Topic, f.Error)
	}

	content := fmt.Sprintf("<p>%s</p>", strings.ReplaceAll(html.EscapeString(description.String()), "\n", "<br>"))

	return &feeds.Item{
		Title:       title,
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/runs#%s", baseURL, e.ID)},
		Description: description.String(),
		Content:     content,
		Created:     e.StartedAt,
		Updated:     e.FinishedAt,
		Id:          e.ID.String(),
	}
}
