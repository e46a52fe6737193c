package telegram

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-telegram/bot/models"
	settingsRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/repository"
	settingsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/service"
	statsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
	statsRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/repository"
	statsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/service"
	topicsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/service"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/config"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform/platformtest"
)

type fakeMessenger struct {
	*platformtest.Client

	mu        sync.Mutex
	keyboards []string
	answered  []string
}

func (f *fakeMessenger) SendKeyboard(_ context.Context, _ int64, _ int, text string, _ [][]models.InlineKeyboardButton) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboards = append(f.keyboards, text)
	return 1, nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

const groupID = int64(-100500)

func newHandler(t *testing.T, allowed ...int64) (*Handler, *fakeMessenger) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	client := &fakeMessenger{Client: &platformtest.Client{
		Chat:    platform.ChatInfo{Kind: platform.ChatKindSupergroup, IsForum: true},
		SelfID:  1,
		Members: map[int64]string{7: "Alice"},
	}}
	sleeper := &platformtest.Sleeper{}
	inv := invoker.New(invoker.WithSleep(sleeper.Sleep), invoker.WithLogger(logger))

	sRepo, err := settingsRepo.NewFileStorage(filepath.Join(dir, "bot_config.json"))
	if err != nil {
		t.Fatal(err)
	}
	settings, err := settingsService.New(sRepo, logger)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := statsService.New(statsRepo.NewFileStorage(filepath.Join(dir, "user_stats.json")), client, inv, logger)
	if err != nil {
		t.Fatal(err)
	}
	topics := topicsService.New(client, inv, topicsService.WithLogger(logger))

	cfg := &config.Config{DataDir: dir, AllowedUsers: allowed}
	h := New(cfg, client, inv, settings, stats, topics)
	h.SetLogger(logger)
	h.spawn = func(f func()) { f() }
	return h, client
}

func command(text string, from int64) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   10,
		Chat: models.Chat{ID: groupID, Type: models.ChatTypeSupergroup},
		From: &models.User{ID: from, FirstName: "Op"},
		Text: text,
	}}
}

func lastSent(c *fakeMessenger) string {
	calls := c.Calls("SendMessage")
	if len(calls) == 0 {
		return ""
	}
	return calls[len(calls)-1].Text
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text, name, args string
		ok               bool
	}{
		{"/create", "create", "", true},
		{"/create@ForumBot", "create", "", true},
		{"/ADD News | Daily news", "add", "News | Daily news", true},
		{"/edit_theme 2  New name ", "edit_theme", "2  New name", true},
		{"/add\nMultiline", "add", "Multiline", true},
		{"hello", "", "", false},
		{"/", "", "", false},
	}
	for _, tt := range tests {
		name, args, ok := parseCommand(tt.text)
		if name != tt.name || args != tt.args || ok != tt.ok {
			t.Fatalf("parseCommand(%q) = %q, %q, %v", tt.text, name, args, ok)
		}
	}
}

func TestMatchCommand(t *testing.T) {
	match := matchCommand("stats")
	if !match(command("/stats@bot", 1)) {
		t.Fatal("expected match")
	}
	if match(command("/statsx", 1)) || match(&models.Update{}) {
		t.Fatal("unexpected match")
	}
}

func TestHandleCreate_RunsProvisioning(t *testing.T) {
	h, client := newHandler(t)

	h.handleCreate(context.Background(), nil, command("/create", 5))

	if n := client.Count("CreateTopic"); n != len(h.settings.Snapshot().Themes) {
		t.Fatalf("create calls = %d", n)
	}
	edits := client.Calls("EditMessage")
	if !strings.HasPrefix(edits[len(edits)-1].Text, "✅ Topic creation finished!") {
		t.Fatalf("final status = %q", edits[len(edits)-1].Text)
	}
}

func TestHandleCreate_Unauthorized(t *testing.T) {
	h, client := newHandler(t, 42)

	h.handleCreate(context.Background(), nil, command("/create", 5))

	if client.Count("CreateTopic") != 0 || lastSent(client) != "❌ Unauthorized" {
		t.Fatalf("unexpected calls: %+v", client.Calls())
	}
}

func TestThemeCommands(t *testing.T) {
	h, client := newHandler(t)
	ctx := context.Background()
	before := len(h.settings.Snapshot().Themes)

	h.handleAddTheme(ctx, nil, command("/add Games | Play here", 5))
	if !strings.Contains(lastSent(client), "Topic 'Games' added!") || !strings.Contains(lastSent(client), "Play here") {
		t.Fatalf("add reply = %q", lastSent(client))
	}

	h.handleAddTheme(ctx, nil, command("/add Games", 5))
	if lastSent(client) != "⚠️ Topic 'Games' already exists." {
		t.Fatalf("duplicate reply = %q", lastSent(client))
	}

	h.handleEditTheme(ctx, nil, command("/edit_theme 1 Front page", 5))
	if !strings.Contains(lastSent(client), "Now: 'Front page'") {
		t.Fatalf("edit reply = %q", lastSent(client))
	}

	h.handleEditHello(ctx, nil, command("/edit_hello 99 text", 5))
	if !strings.HasPrefix(lastSent(client), "⚠️ Invalid topic number") {
		t.Fatalf("edit hello reply = %q", lastSent(client))
	}

	h.handleDeleteTheme(ctx, nil, command("/delete Games", 5))
	if !strings.Contains(lastSent(client), "Topic 'Games' deleted!") {
		t.Fatalf("delete reply = %q", lastSent(client))
	}
	if got := len(h.settings.Snapshot().Themes); got != before {
		t.Fatalf("themes = %d, want %d", got, before)
	}

	h.handleListThemes(ctx, nil, command("/list_themes", 5))
	if !strings.Contains(lastSent(client), "1. Front page") {
		t.Fatalf("list reply = %q", lastSent(client))
	}
}

func TestHandleSettings(t *testing.T) {
	h, client := newHandler(t)
	ctx := context.Background()

	h.handleSettings(ctx, nil, command("/settings", 5))
	if len(client.keyboards) != 1 || !strings.Contains(client.keyboards[0], "Main topic name: Main room") {
		t.Fatalf("menu = %q", client.keyboards)
	}

	h.handleSettings(ctx, nil, command("/settings set main_name Town hall", 5))
	if lastSent(client) != "✅ Main topic name changed to: Town hall" {
		t.Fatalf("set reply = %q", lastSent(client))
	}
	if h.settings.Snapshot().MainName != "Town hall" {
		t.Fatal("main name not applied")
	}

	h.handleSettings(ctx, nil, command("/settings set colour red", 5))
	if lastSent(client) != "⚠️ Unknown parameter: colour" {
		t.Fatalf("unknown reply = %q", lastSent(client))
	}

	h.handleSettings(ctx, nil, command("/settings nonsense", 5))
	if lastSent(client) != settingsUsage {
		t.Fatalf("usage reply = %q", lastSent(client))
	}
}

func TestHandleSettingsCallback(t *testing.T) {
	h, client := newHandler(t)

	update := &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:      "cb-1",
		From:    models.User{ID: 5},
		Data:    callbackThemes,
		Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: groupID}}},
	}}
	h.handleSettingsCallback(context.Background(), nil, update)

	if len(client.answered) != 1 || client.answered[0] != "cb-1" {
		t.Fatalf("answered = %v", client.answered)
	}
	if !strings.HasPrefix(lastSent(client), "📋 Topic management") {
		t.Fatalf("callback reply = %q", lastSent(client))
	}
}

func TestHandleUpdate_RecordsActivityAndGreets(t *testing.T) {
	h, client := newHandler(t)
	ctx := context.Background()

	h.HandleUpdate(ctx, nil, &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: groupID},
		From: &models.User{ID: 7},
		Text: "hello",
	}})
	h.handleStats(ctx, nil, command("/stats", 5))
	if !strings.Contains(lastSent(client), "1. Alice: 1 messages") {
		t.Fatalf("stats reply = %q", lastSent(client))
	}

	h.HandleUpdate(ctx, nil, &models.Update{Message: &models.Message{
		Chat:           models.Chat{ID: groupID},
		From:           &models.User{ID: 7},
		NewChatMembers: []models.User{{ID: 8, Username: "newbie"}},
	}})
	if !strings.Contains(lastSent(client), "@newbie") {
		t.Fatalf("greeting = %q", lastSent(client))
	}
}

func TestHandleUpdate_SkipsUnknownCommands(t *testing.T) {
	h, _ := newHandler(t)

	h.HandleUpdate(context.Background(), nil, &models.Update{Message: &models.Message{
		Chat:     models.Chat{ID: groupID},
		From:     &models.User{ID: 7},
		Text:     "/foo bar",
		Entities: []models.MessageEntity{{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: 4}},
	}})
	if report := h.stats.Ranking(statsDomain.ChatID(groupID)); len(report.Entries) != 0 {
		t.Fatalf("command counted as activity: %+v", report)
	}

	h.HandleUpdate(context.Background(), nil, &models.Update{Message: &models.Message{
		Chat:     models.Chat{ID: groupID},
		From:     &models.User{ID: 7},
		Text:     "see /help",
		Entities: []models.MessageEntity{{Type: models.MessageEntityTypeBotCommand, Offset: 4, Length: 5}},
	}})
	if report := h.stats.Ranking(statsDomain.ChatID(groupID)); len(report.Entries) != 1 || report.Entries[0].Total != 1 {
		t.Fatalf("mid-text command must count as text: %+v", report)
	}
}
