package domain

import (
	"slices"

	"github.com/samber/lo"
)

// TopSize is how many users a report lists.
const TopSize = 10

// Entry is one ranked user.
type Entry struct {
	UserID UserID `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Total  int    `json:"total"`
	Counts Counts `json:"counts"`
}

// Report is the top of a ranking plus how many users did not fit.
type Report struct {
	ChatID    ChatID  `json:"chat_id"`
	Entries   []Entry `json:"entries"`
	Remainder int     `json:"remainder"`
}

// Rank orders users by total descending. Equal totals keep first-seen order.
func Rank(cs *ChatStats) []Entry {
	if cs == nil {
		return []Entry{}
	}
	entries := lo.Map(cs.order, func(id UserID, _ int) Entry {
		counts := cs.users[id].Clone()
		return Entry{UserID: id, Total: counts.Total(), Counts: counts}
	})
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Total - a.Total
	})
	return entries
}

// Top cuts a ranking to n entries and counts the rest.
func Top(chat ChatID, ranked []Entry, n int) Report {
	if len(ranked) <= n {
		return Report{ChatID: chat, Entries: ranked}
	}
	return Report{ChatID: chat, Entries: ranked[:n], Remainder: len(ranked) - n}
}
