package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	journalRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/repository"
	journalService "github.com/reshetovitsme/forum-topics-bot/internal/modules/journal/service"
	statsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/domain"
	statsRepo "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/repository"
	statsService "github.com/reshetovitsme/forum-topics-bot/internal/modules/stats/service"
	topicsDomain "github.com/reshetovitsme/forum-topics-bot/internal/modules/topics/domain"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/config"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/invoker"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/platform/platformtest"
)

func newTestServer(t *testing.T) (*httptest.Server, *statsService.Service, *journalService.Service) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stats, err := statsService.New(statsRepo.NewFileStorage(filepath.Join(dir, "user_stats.json")), &platformtest.Client{}, invoker.New(), logger)
	if err != nil {
		t.Fatal(err)
	}
	journal := journalService.New(journalRepo.NewFileStorage(filepath.Join(dir, "runs.json")))

	s := New(&config.Config{HTTPPort: "0"}, stats, journal)
	s.SetLogger(logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, stats, journal
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestServer_Health(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK || body != `{"status":"ok"}` {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
}

func TestServer_Stats(t *testing.T) {
	ts, stats, _ := newTestServer(t)
	ctx := context.Background()
	stats.Record(ctx, -100, 1, statsDomain.KindText)
	stats.Record(ctx, -100, 2, statsDomain.KindPhoto)
	stats.Record(ctx, -100, 2, statsDomain.KindText)

	resp, body := get(t, ts.URL+"/stats/-100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var report statsDomain.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Entries) != 2 || report.Entries[0].UserID != 2 || report.Entries[0].Total != 2 {
		t.Fatalf("report = %+v", report)
	}

	if resp, _ := get(t, ts.URL+"/stats/abc"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad chat id status = %d", resp.StatusCode)
	}
}

func TestServer_RunsAndFeeds(t *testing.T) {
	ts, _, journal := newTestServer(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := journal.Append(context.Background(), topicsDomain.Outcome{
		ChatID:     -100,
		State:      topicsDomain.StateDone,
		Created:    4,
		Total:      5,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	}); err != nil {
		t.Fatal(err)
	}

	resp, body := get(t, ts.URL+"/runs")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"created":4`) {
		t.Fatalf("runs = %d %s", resp.StatusCode, body)
	}

	if resp, _ := get(t, ts.URL+"/runs?limit=0"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", resp.StatusCode)
	}

	resp, body = get(t, ts.URL+"/runs/rss")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/rss+xml") || !strings.Contains(body, "Chat -100: created 4/5 topics") {
		t.Fatalf("rss = %s %s", resp.Header.Get("Content-Type"), body)
	}

	resp, body = get(t, ts.URL+"/runs/atom")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/atom+xml") || !strings.Contains(body, "<feed") {
		t.Fatalf("atom = %s %s", resp.Header.Get("Content-Type"), body)
	}
}

func TestGetScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/runs/rss", nil)
	if getScheme(r) != "http" {
		t.Fatal("expected http")
	}
	r.Header.Set("X-Forwarded-Proto", "https")
	if getScheme(r) != "https" {
		t.Fatal("expected forwarded scheme")
	}
}
