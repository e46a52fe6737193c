package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/domain"
)

func TestFileStorage_MissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.json")
	repo, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MainName != domain.Default().MainName || len(got.Themes) != 5 {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file must not be created before the first save")
	}
}

func TestFileStorage_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.json")
	repo, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	s := &domain.Settings{
		BotToken:         "123:abc",
		MainName:         "Lobby",
		Themes:           []string{"A", "B"},
		HelloMessages:    []string{"hello A"},
		TemplateMessages: []string{},
	}
	if err := repo.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BotToken != "123:abc" || got.MainName != "Lobby" || len(got.Themes) != 2 || len(got.HelloMessages) != 1 {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if len(got.TemplateMessages) != 0 {
		t.Fatalf("an explicitly empty list must stay empty, got %v", got.TemplateMessages)
	}
}

func TestFileStorage_PartialFileFilledWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.json")
	if err := os.WriteFile(path, []byte(`{"bot_token": "t", "themes": ["Only"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	repo, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	got, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MainName != domain.Default().MainName || len(got.Themes) != 1 || len(got.TemplateMessages) != 3 {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestFileStorage_SchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.json")
	if err := os.WriteFile(path, []byte(`{"themes": "not a list"}`), 0644); err != nil {
		t.Fatal(err)
	}
	repo, err := NewFileStorage(path)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if _, err := repo.Load(); err == nil {
		t.Fatalf("expected schema validation error")
	}
}
