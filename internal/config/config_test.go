package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
database:
  driver: sqlite
  path: test.db
sources:
  - type: greenhouse
    company: Acme
    board: acme
  - type: generic
    company: Valley Labs
    url: https://valleylabs.example/careers
region:
  keywords: [zug, remote]
http:
  timeout: 15s
rate_limit:
  min_delay: 2s
  strategy_overrides:
    generic: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.Path != "test.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0].Board != "acme" || cfg.Sources[1].URL != "https://valleylabs.example/careers" {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
	if len(cfg.Region.Keywords) != 2 {
		t.Errorf("Region.Keywords = %v", cfg.Region.Keywords)
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 15s", cfg.HTTP.Timeout)
	}
	if got := cfg.RateLimit.MinDelayFor("generic"); got != 5*time.Second {
		t.Errorf("MinDelayFor(generic) = %v, want 5s", got)
	}
	if got := cfg.RateLimit.MinDelayFor("lever"); got != 2*time.Second {
		t.Errorf("MinDelayFor(lever) = %v, want 2s", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  url: postgres://localhost/jobs\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Description.FetchLimit != 2000 || cfg.Description.InsertLimit != 5000 || cfg.Description.BackfillLimit != 10000 {
		t.Errorf("Description = %+v", cfg.Description)
	}
	if cfg.SalaryCurrency != "CHF" {
		t.Errorf("SalaryCurrency = %q, want CHF", cfg.SalaryCurrency)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 30s", cfg.HTTP.Timeout)
	}
	if !cfg.Extraction.Headless || cfg.Extraction.WaitUntil != "domcontentloaded" {
		t.Errorf("Extraction = %+v", cfg.Extraction)
	}
	if cfg.Notification.Type != "log" || cfg.Logging.Format != "console" {
		t.Errorf("Notification.Type = %q, Logging.Format = %q", cfg.Notification.Type, cfg.Logging.Format)
	}
	if cfg.Lock.Enabled() {
		t.Error("lock should be disabled without redis_url")
	}
	if cfg.Logos.Timeout != 10*time.Second {
		t.Errorf("Logos.Timeout = %v, want 10s", cfg.Logos.Timeout)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("JOBFEED_TEST_KEY", "sk-test")
	cfg, err := Parse([]byte("extraction:\n  api_key: ${JOBFEED_TEST_KEY}\ndatabase:\n  driver: sqlite\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Extraction.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.Extraction.APIKey)
	}
}

func TestLoad_SourcesFileRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sources.json", `[
  {"type": "lever", "company": "Lever Co", "board": "leverco"},
  {"type": "linkedin", "company": "Linked", "url": "https://www.linkedin.com/company/linked/jobs"}
]`)
	path := writeFile(t, dir, "config.yaml", "database:\n  driver: sqlite\nsources_file: sources.json\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0].Type != "lever" || cfg.Sources[1].Type != "linkedin" {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
}

func TestLoadSources_YAMLWrapped(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sources.yaml", `
sources:
  - type: ashby
    company: Ash
    board: ash
`)
	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 1 || sources[0].Company != "Ash" {
		t.Errorf("sources = %+v", sources)
	}
}

func TestLoadSources_PageReadiness(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sources.json", `[
  {"type": "generic", "company": "Slow SPA", "url": "https://spa.example/careers", "wait_until": "networkidle"}
]`)
	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 1 || sources[0].WaitUntil != "networkidle" {
		t.Errorf("sources = %+v", sources)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "database: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "database:\n  driver: mysql\n"},
		{"source without company", "database:\n  driver: sqlite\nsources:\n  - type: lever\n    board: x\n"},
		{"bad duration", "database:\n  driver: sqlite\nhttp:\n  timeout: soon\n"},
		{"slack without webhook", "database:\n  driver: sqlite\nnotification:\n  type: slack\n"},
		{"slack with wrong host", "database:\n  driver: sqlite\nnotification:\n  type: slack\n  webhook_url: https://example.com/hook\n"},
		{"telegram without chat", "database:\n  driver: sqlite\nnotification:\n  type: telegram\n  telegram_token: abc\n"},
		{"unknown log format", "database:\n  driver: sqlite\nlogging:\n  format: xml\n"},
		{"unknown source readiness", "database:\n  driver: sqlite\nsources:\n  - type: generic\n    company: G\n    url: https://g.example\n    wait_until: idle\n"},
		{"unknown default readiness", "database:\n  driver: sqlite\nextraction:\n  wait_until: ready\n"},
		{"favicon url without placeholder", "database:\n  driver: sqlite\nlogos:\n  favicon_url: https://icons.example/\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Fatal("Parse: expected validation error")
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.RequireDatabase(); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("RequireDatabase() = %v, want ErrMissingCredential", err)
	}
	if err := cfg.RequireExtraction(); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("RequireExtraction() = %v, want ErrMissingCredential", err)
	}

	sqlite, err := Parse([]byte("database:\n  driver: sqlite\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := sqlite.RequireDatabase(); err != nil {
		t.Errorf("sqlite RequireDatabase() = %v, want nil", err)
	}
}
