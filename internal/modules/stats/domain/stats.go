package domain

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/samber/lo"
	"github.com/samber/oops"
)

type (
	ChatID int64
	UserID int64
)

// Counts holds per-kind counters of one user. Unknown kinds read from disk are kept as is.
type Counts map[Kind]int

// Total sums every counter.
func (c Counts) Total() int {
	return lo.Sum(lo.Values(c))
}

// Clone returns a copy of the counters.
func (c Counts) Clone() Counts {
	return lo.Assign(Counts{}, c)
}

// ChatStats maps users of one chat to their counters and remembers the order
// in which users were first counted.
type ChatStats struct {
	order []UserID
	users map[UserID]Counts
}

// NewChatStats returns an empty ChatStats.
func NewChatStats() *ChatStats {
	return &ChatStats{users: map[UserID]Counts{}}
}

// Increment adds one to the user's counter for kind and returns the new value.
func (c *ChatStats) Increment(user UserID, kind Kind) int {
	if c.users == nil {
		c.users = map[UserID]Counts{}
	}
	counts, ok := c.users[user]
	if !ok {
		counts = Counts{}
		c.users[user] = counts
		c.order = append(c.order, user)
	}
	counts[kind]++
	return counts[kind]
}

// Users returns user ids in first-seen order.
func (c *ChatStats) Users() []UserID {
	return append([]UserID(nil), c.order...)
}

// Counts returns the counters of user, nil when the user was never counted.
func (c *ChatStats) Counts(user UserID) Counts {
	return c.users[user]
}

// Len is the number of counted users.
func (c *ChatStats) Len() int {
	return len(c.order)
}

// Clone returns a deep copy.
func (c *ChatStats) Clone() *ChatStats {
	out := &ChatStats{
		order: append([]UserID(nil), c.order...),
		users: make(map[UserID]Counts, len(c.users)),
	}
	for id, counts := range c.users {
		out.users[id] = counts.Clone()
	}
	return out
}

// MarshalJSON writes users as an object keyed by decimal id, in first-seen order.
func (c *ChatStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.FormatInt(int64(id), 10)))
		buf.WriteByte(':')
		data, err := json.Marshal(c.users[id])
		if err != nil {
			return nil, oops.With("user_id", id).Wrap(err)
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores users in the key order found in the document.
func (c *ChatStats) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return oops.Wrapf(err, "reading chat stats")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return oops.Errorf("chat stats: expected object, got %v", tok)
	}

	c.order = nil
	c.users = map[UserID]Counts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return oops.Wrapf(err, "reading user id")
		}
		key, _ := tok.(string)
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return oops.With("key", key).Wrapf(err, "invalid user id")
		}

		var counts Counts
		if err := dec.Decode(&counts); err != nil {
			return oops.With("user_id", id).Wrapf(err, "reading user counters")
		}
		if counts == nil {
			counts = Counts{}
		}
		if _, seen := c.users[UserID(id)]; !seen {
			c.order = append(c.order, UserID(id))
		}
		c.users[UserID(id)] = counts
	}

	if _, err := dec.Token(); err != nil {
		return oops.Wrapf(err, "reading chat stats")
	}
	return nil
}

// Stats is the whole activity document: chat -> user -> kind -> count.
type Stats map[ChatID]*ChatStats

// Increment counts one message of kind for user in chat and returns the new counter value.
func (s Stats) Increment(chat ChatID, user UserID, kind Kind) int {
	cs, ok := s[chat]
	if !ok || cs == nil {
		cs = NewChatStats()
		s[chat] = cs
	}
	return cs.Increment(user, kind)
}

// Chat returns the stats of one chat, nil when nothing was counted there.
func (s Stats) Chat(chat ChatID) *ChatStats {
	return s[chat]
}

// Clone returns a deep copy.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for id, cs := range s {
		if cs != nil {
			out[id] = cs.Clone()
		}
	}
	return out
}
