package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChatStats_IncrementTracksFirstSeenOrder(t *testing.T) {
	cs := NewChatStats()
	cs.Increment(30, KindText)
	cs.Increment(10, KindPhoto)
	cs.Increment(30, KindText)
	cs.Increment(20, KindSticker)

	got := cs.Users()
	want := []UserID{30, 10, 20}
	if len(got) != len(want) {
		t.Fatalf("users = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("users = %v, want %v", got, want)
		}
	}
	if n := cs.Counts(30)[KindText]; n != 2 {
		t.Fatalf("text count = %d, want 2", n)
	}
}

func TestStats_JSONKeepsUserOrder(t *testing.T) {
	s := Stats{}
	s.Increment(-100, 7, KindText)
	s.Increment(-100, 3, KindPhoto)
	s.Increment(-100, 5, KindText)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `{"-100":{"7":{"text":1},"3":{"photo":1},"5":{"text":1}}}`) {
		t.Fatalf("unexpected encoding: %s", data)
	}

	var back Stats
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	users := back.Chat(-100).Users()
	if len(users) != 3 || users[0] != 7 || users[1] != 3 || users[2] != 5 {
		t.Fatalf("order lost: %v", users)
	}
}

func TestStats_DecodeKeepsUnknownKinds(t *testing.T) {
	var s Stats
	if err := json.Unmarshal([]byte(`{"1":{"2":{"text":4,"poll":1}}}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	counts := s.Chat(1).Counts(2)
	if counts[Kind("poll")] != 1 || counts.Total() != 5 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestStats_DecodeRejectsBadUserID(t *testing.T) {
	var s Stats
	if err := json.Unmarshal([]byte(`{"1":{"abc":{"text":1}}}`), &s); err == nil {
		t.Fatal("expected error for non-numeric user id")
	}
}

func TestRank_TotalDescendingStableOnTies(t *testing.T) {
	cs := NewChatStats()
	// A and B tie at 2, C has 3; A was seen before B.
	cs.Increment(1, KindText)
	cs.Increment(2, KindText)
	cs.Increment(1, KindPhoto)
	cs.Increment(2, KindVideo)
	cs.Increment(3, KindText)
	cs.Increment(3, KindText)
	cs.Increment(3, KindText)

	ranked := Rank(cs)
	order := []UserID{ranked[0].UserID, ranked[1].UserID, ranked[2].UserID}
	if order[0] != 3 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("rank order = %v, want [3 1 2]", order)
	}
	if ranked[0].Total != 3 {
		t.Fatalf("total = %d", ranked[0].Total)
	}
}

func TestTop(t *testing.T) {
	cs := NewChatStats()
	for i := 1; i <= 13; i++ {
		cs.Increment(UserID(i), KindText)
	}
	report := Top(5, Rank(cs), TopSize)
	if len(report.Entries) != 10 || report.Remainder != 3 {
		t.Fatalf("entries=%d remainder=%d", len(report.Entries), report.Remainder)
	}

	small := Top(5, Rank(cs)[:4], TopSize)
	if len(small.Entries) != 4 || small.Remainder != 0 {
		t.Fatalf("entries=%d remainder=%d", len(small.Entries), small.Remainder)
	}
}

func TestStats_CloneIsIndependent(t *testing.T) {
	s := Stats{}
	s.Increment(1, 1, KindText)
	c := s.Clone()
	c.Increment(1, 1, KindText)
	c.Increment(1, 2, KindText)
	if s.Chat(1).Counts(1)[KindText] != 1 || s.Chat(1).Len() != 1 {
		t.Fatal("clone shares state with original")
	}
}
