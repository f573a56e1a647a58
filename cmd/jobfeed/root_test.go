package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/cryptovalleyjobs/jobfeed/internal/config"
	"github.com/cryptovalleyjobs/jobfeed/internal/lock"
	"github.com/cryptovalleyjobs/jobfeed/internal/notifier"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_PathPriority(t *testing.T) {
	explicit := writeConfig(t, "database:\n  driver: sqlite\n  path: explicit.db\n")
	fromEnv := writeConfig(t, "database:\n  driver: sqlite\n  path: env.db\n")
	t.Setenv("JOBFEED_CONFIG", fromEnv)

	cfg, err := loadConfig(explicit)
	if err != nil {
		t.Fatalf("loadConfig(explicit): %v", err)
	}
	if cfg.Database.Path != "explicit.db" {
		t.Errorf("explicit path ignored, got %q", cfg.Database.Path)
	}

	cfg, err = loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig(env): %v", err)
	}
	if cfg.Database.Path != "env.db" {
		t.Errorf("JOBFEED_CONFIG ignored, got %q", cfg.Database.Path)
	}
}

func TestOpenStore_MissingDatabaseURL(t *testing.T) {
	cfg, err := config.Parse([]byte("database:\n  driver: postgres\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := openStore(context.Background(), cfg); !errors.Is(err, config.ErrMissingCredential) {
		t.Errorf("openStore = %v, want ErrMissingCredential", err)
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg, err := config.Parse([]byte("database:\n  driver: sqlite\n  path: " + filepath.Join(t.TempDir(), "jobs.db") + "\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer s.Close()

	urls, err := s.ExistingApplyURLs(context.Background())
	if err != nil || len(urls) != 0 {
		t.Errorf("fresh store urls = %v, err = %v", urls, err)
	}
}

func TestSetupNotifier(t *testing.T) {
	cfg := &config.Config{}

	cfg.Notification.Type = "log"
	if n := setupNotifier(cfg, http.DefaultClient, discardLogger()); !isType[*notifier.LogNotifier](n) {
		t.Errorf("log: got %T", n)
	}

	cfg.Notification.Type = "none"
	if n := setupNotifier(cfg, http.DefaultClient, discardLogger()); !isType[notifier.Nop](n) {
		t.Errorf("none: got %T", n)
	}

	cfg.Notification.Type = "slack"
	cfg.Notification.WebhookURL = "https://hooks.slack.com/services/x"
	if n := setupNotifier(cfg, http.DefaultClient, discardLogger()); !isType[*notifier.SlackNotifier](n) {
		t.Errorf("slack: got %T", n)
	}

	cfg.Notification.Type = "telegram"
	cfg.Notification.TelegramToken = "123:abc"
	cfg.Notification.TelegramChatID = 42
	if n := setupNotifier(cfg, http.DefaultClient, discardLogger()); !isType[*notifier.TelegramNotifier](n) {
		t.Errorf("telegram: got %T", n)
	}
}

func isType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

func TestScrapeJob_TelegramOutageKeepsRun(t *testing.T) {
	var calls int
	botAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer botAPI.Close()

	cfg, err := config.Parse([]byte(`
database:
  driver: sqlite
  path: ` + filepath.Join(t.TempDir(), "jobs.db") + `
notification:
  type: telegram
  telegram_token: "123:abc"
  telegram_chat_id: 42
  telegram_api_endpoint: ` + botAPI.URL + `/bot%s/%s
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if err := scrapeJob(context.Background(), cfg, discardLogger(), false); err != nil {
		t.Fatalf("scrapeJob = %v, want nil while Telegram is down", err)
	}
	if calls == 0 {
		t.Error("expected the notifier to reach the Bot API")
	}
}

func TestAcquireLock(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}

	release, err := acquireLock(ctx, cfg, discardLogger())
	if err != nil || release == nil {
		t.Fatalf("disabled lock: release=%p err=%v", release, err)
	}
	release()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	cfg.Lock = config.LockConfig{RedisURL: "redis://" + mr.Addr(), Key: "jobfeed:run", TTL: time.Hour}

	release, err = acquireLock(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := acquireLock(ctx, cfg, discardLogger()); !errors.Is(err, lock.ErrHeld) {
		t.Fatalf("second acquire = %v, want ErrHeld", err)
	}
	release()

	if mr.Exists("jobfeed:run") {
		t.Error("release should delete the lock key")
	}
}
