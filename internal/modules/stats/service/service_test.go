package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/repository"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform/platformtest"
)

type failingRepo struct{ saves int }

func (r *failingRepo) Load() (domain.Stats, error) { return domain.Stats{}, nil }
func (r *failingRepo) Save(domain.Stats) error {
	r.saves++
	return errors.New("read-only file system")
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newService(t *testing.T, repo repository.Repository, client *platformtest.Client) *Service {
	t.Helper()
	sleeper := &platformtest.Sleeper{}
	inv := invoker.New(invoker.WithSleep(sleeper.Sleep), invoker.WithLogger(discard()))
	s, err := New(repo, client, inv, discard())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return s
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  *models.Message
		want []domain.Kind
	}{
		{"nil", nil, nil},
		{"text", &models.Message{Text: "hi"}, []domain.Kind{domain.KindText}},
		{"photo with caption", &models.Message{Caption: "look", Photo: []models.PhotoSize{{FileID: "p"}}}, []domain.Kind{domain.KindPhoto}},
		{"animation with document", &models.Message{Animation: &models.Animation{FileID: "a"}, Document: &models.Document{FileID: "d"}},
			[]domain.Kind{domain.KindAnimation, domain.KindDocument}},
		{"sticker", &models.Message{Sticker: &models.Sticker{FileID: "s"}}, []domain.Kind{domain.KindSticker}},
		{"voice and audio", &models.Message{Voice: &models.Voice{FileID: "v"}, Audio: &models.Audio{FileID: "a"}},
			[]domain.Kind{domain.KindVoice, domain.KindAudio}},
		{"video", &models.Message{Video: &models.Video{FileID: "v"}}, []domain.Kind{domain.KindVideo}},
		{"service message", &models.Message{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.msg)
			if len(got) != len(tt.want) {
				t.Fatalf("Classify = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Classify = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestService_RecordPersistsEveryIncrement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_stats.json")
	s := newService(t, repository.NewFileStorage(path), &platformtest.Client{})

	ctx := context.Background()
	if n := s.Record(ctx, -1, 10, domain.KindText); n != 1 {
		t.Fatalf("first increment = %d", n)
	}
	if n := s.Record(ctx, -1, 10, domain.KindText); n != 2 {
		t.Fatalf("second increment = %d", n)
	}

	loaded, err := repository.NewFileStorage(path).Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := loaded.Chat(-1).Counts(10)[domain.KindText]; got != 2 {
		t.Fatalf("persisted count = %d, want 2", got)
	}
}

func TestService_RecordSurvivesSaveFailure(t *testing.T) {
	repo := &failingRepo{}
	s := newService(t, repo, &platformtest.Client{})

	s.Record(context.Background(), 1, 2, domain.KindPhoto)
	s.Record(context.Background(), 1, 2, domain.KindPhoto)

	if repo.saves != 2 {
		t.Fatalf("saves = %d, want 2", repo.saves)
	}
	if got := s.Ranking(1).Entries[0].Counts[domain.KindPhoto]; got != 2 {
		t.Fatalf("in-memory count = %d, want 2", got)
	}
}

func TestService_RecordMessageSkipsBots(t *testing.T) {
	s := newService(t, &failingRepo{}, &platformtest.Client{})
	ctx := context.Background()

	bot := &models.Message{Chat: models.Chat{ID: 5}, From: &models.User{ID: 1, IsBot: true}, Text: "beep"}
	if kinds := s.RecordMessage(ctx, bot); kinds != nil {
		t.Fatalf("bot message recorded: %v", kinds)
	}
	anonymous := &models.Message{Chat: models.Chat{ID: 5}, Text: "who"}
	if kinds := s.RecordMessage(ctx, anonymous); kinds != nil {
		t.Fatalf("message without sender recorded: %v", kinds)
	}

	human := &models.Message{
		Chat:      models.Chat{ID: 5},
		From:      &models.User{ID: 2},
		Animation: &models.Animation{FileID: "a"},
		Document:  &models.Document{FileID: "d"},
	}
	s.RecordMessage(ctx, human)
	entry := s.Ranking(5).Entries[0]
	if entry.Total != 2 || entry.Counts[domain.KindAnimation] != 1 || entry.Counts[domain.KindDocument] != 1 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestService_ReportResolvesNamesWithFallback(t *testing.T) {
	client := &platformtest.Client{Members: map[int64]string{1: "Alice"}}
	s := newService(t, &failingRepo{}, client)
	ctx := context.Background()

	s.Record(ctx, 9, 1, domain.KindText)
	s.Record(ctx, 9, 2, domain.KindText)
	s.Record(ctx, 9, 2, domain.KindText)

	report := s.Report(ctx, 9)
	if len(report.Entries) != 2 {
		t.Fatalf("entries = %d", len(report.Entries))
	}
	if report.Entries[0].Name != "User 2" || report.Entries[1].Name != "Alice" {
		t.Fatalf("names = %q, %q", report.Entries[0].Name, report.Entries[1].Name)
	}

	text := FormatReport(report)
	if !strings.Contains(text, "1. User 2: 2 messages") || !strings.Contains(text, "2. Alice: 1 messages") {
		t.Fatalf("unexpected report text:\n%s", text)
	}
}

func TestService_ReportTopTen(t *testing.T) {
	s := newService(t, &failingRepo{}, &platformtest.Client{})
	ctx := context.Background()
	for u := 1; u <= 12; u++ {
		s.Record(ctx, 3, domain.UserID(u), domain.KindText)
	}

	report := s.Report(ctx, 3)
	if len(report.Entries) != 10 || report.Remainder != 2 {
		t.Fatalf("entries=%d remainder=%d", len(report.Entries), report.Remainder)
	}
	if !strings.Contains(FormatReport(report), "...and 2 more users") {
		t.Fatal("remainder line missing")
	}
}

func TestFormatReport_Empty(t *testing.T) {
	s := newService(t, &failingRepo{}, &platformtest.Client{})
	if got := FormatReport(s.Report(context.Background(), 404)); !strings.Contains(got, "No statistics") {
		t.Fatalf("unexpected text: %q", got)
	}
}
