package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// ErrMissingCredential is returned when a job needs a credential the
// configuration does not provide.
var ErrMissingCredential = errors.New("missing credential")

// Config is the root configuration for jobfeed. It is built once at process
// entry and passed down.
type Config struct {
	Database       DatabaseConfig
	Sources        []model.SourceConfig
	Region         RegionConfig
	Description    DescriptionConfig
	SalaryCurrency string
	Extraction     ExtractionConfig
	HTTP           HTTPConfig
	RateLimit      RateLimitConfig
	Lock           LockConfig
	Metrics        MetricsConfig
	Notification   NotificationConfig
	Schedule       ScheduleConfig
	Logging        LoggingConfig
	Logos          LogosConfig
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite"
	URL    string // postgres connection string
	Path   string // sqlite file
}

// RegionConfig holds the geographic filter keywords. Empty means the built-in
// Swiss list.
type RegionConfig struct {
	Keywords []string
}

// DescriptionConfig holds the description length limits, in runes.
type DescriptionConfig struct {
	FetchLimit    int // applied by API fetchers
	InsertLimit   int // applied before insert
	BackfillLimit int // applied by the backfill job
}

// ExtractionConfig controls the page extraction engine.
type ExtractionConfig struct {
	BaseURL      string // defaults to https://api.openai.com/v1
	Model        string
	APIKey       string // expanded from env var by Load
	Timeout      time.Duration
	Headless     bool
	WaitUntil    string // page readiness condition
	MaxPageChars int    // page text sent to the model is cut to this size
}

// HTTPConfig controls the shared HTTP client.
type HTTPConfig struct {
	Timeout time.Duration
}

// RateLimitConfig controls strategy-level rate limiting.
type RateLimitConfig struct {
	MinDelay          time.Duration            // minimum gap between requests to the same backend
	StrategyOverrides map[string]time.Duration // keyed by strategy name
}

// MinDelayFor returns the configured delay for the given strategy, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(strategy string) time.Duration {
	if d, ok := r.StrategyOverrides[strategy]; ok {
		return d
	}
	return r.MinDelay
}

// LockConfig controls the optional Redis run lock. Disabled when RedisURL is empty.
type LockConfig struct {
	RedisURL string
	Key      string
	TTL      time.Duration
}

// Enabled reports whether a run lock should be taken.
func (l LockConfig) Enabled() bool { return l.RedisURL != "" }

// MetricsConfig controls Prometheus metrics. Nothing is pushed when
// PushgatewayURL is empty.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// NotificationConfig controls which notifier receives run summaries.
type NotificationConfig struct {
	Type                string `yaml:"type"`                  // "log", "slack" or "telegram"
	WebhookURL          string `yaml:"webhook_url"`           // required if type is "slack"
	TelegramToken       string `yaml:"telegram_token"`        // required if type is "telegram"
	TelegramChatID      int64  `yaml:"telegram_chat_id"`      // required if type is "telegram"
	TelegramAPIEndpoint string `yaml:"telegram_api_endpoint"` // self-hosted Bot API, "%s" for token and method
}

// ScheduleConfig holds cron expressions for daemon mode. An empty expression
// disables that job.
type ScheduleConfig struct {
	Scrape   string `yaml:"scrape"`
	Backfill string `yaml:"backfill"`
	Logos    string `yaml:"logos"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// LogosConfig controls the favicon logo job.
type LogosConfig struct {
	FaviconURL      string            // must contain {domain}
	DomainOverrides map[string]string // company slug -> domain
	Timeout         time.Duration
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultModel         = "gpt-4o-mini"
	defaultFaviconURL    = "https://www.google.com/s2/favicons?domain={domain}&sz=128"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Database       rawDatabaseConfig    `yaml:"database"`
	SourcesFile    string               `yaml:"sources_file"`
	Sources        []model.SourceConfig `yaml:"sources"`
	Region         rawRegionConfig      `yaml:"region"`
	Description    rawDescriptionConfig `yaml:"description"`
	SalaryCurrency string               `yaml:"salary_currency"`
	Extraction     rawExtractionConfig  `yaml:"extraction"`
	HTTP           rawHTTPConfig        `yaml:"http"`
	RateLimit      rawRateLimitConfig   `yaml:"rate_limit"`
	Lock           rawLockConfig        `yaml:"lock"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Notification   NotificationConfig   `yaml:"notification"`
	Schedule       ScheduleConfig       `yaml:"schedule"`
	Logging        LoggingConfig        `yaml:"logging"`
	Logos          rawLogosConfig       `yaml:"logos"`
}

type rawDatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
}

type rawRegionConfig struct {
	Keywords []string `yaml:"keywords"`
}

type rawDescriptionConfig struct {
	FetchLimit    int `yaml:"fetch_limit"`
	InsertLimit   int `yaml:"insert_limit"`
	BackfillLimit int `yaml:"backfill_limit"`
}

type rawExtractionConfig struct {
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	Timeout      string `yaml:"timeout"`
	Headless     *bool  `yaml:"headless"`
	WaitUntil    string `yaml:"wait_until"`
	MaxPageChars int    `yaml:"max_page_chars"`
}

type rawHTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay          string            `yaml:"min_delay"`
	StrategyOverrides map[string]string `yaml:"strategy_overrides"`
}

type rawLockConfig struct {
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`
	TTL      string `yaml:"ttl"`
}

type rawLogosConfig struct {
	FaviconURL      string            `yaml:"favicon_url"`
	DomainOverrides map[string]string `yaml:"domain_overrides"`
	Timeout         string            `yaml:"timeout"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// A relative sources_file is resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return parse(data, filepath.Dir(path))
}

// Parse builds a Config from YAML bytes. Environment variables are expanded
// before parsing.
func Parse(data []byte) (*Config, error) {
	return parse(data, "")
}

func parse(data []byte, baseDir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	httpTimeout, err := parseDuration("http.timeout", raw.HTTP.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	extractionTimeout, err := parseDuration("extraction.timeout", raw.Extraction.Timeout, 60*time.Second)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, time.Second)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]time.Duration)
	for strategy, v := range raw.RateLimit.StrategyOverrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.strategy_overrides[%q]: %w", strategy, err)
		}
		overrides[strategy] = d
	}
	lockTTL, err := parseDuration("lock.ttl", raw.Lock.TTL, 2*time.Hour)
	if err != nil {
		return nil, err
	}
	logosTimeout, err := parseDuration("logos.timeout", raw.Logos.Timeout, 10*time.Second)
	if err != nil {
		return nil, err
	}

	sources := raw.Sources
	if raw.SourcesFile != "" {
		sourcesPath := raw.SourcesFile
		if baseDir != "" && !filepath.IsAbs(sourcesPath) {
			sourcesPath = filepath.Join(baseDir, sourcesPath)
		}
		fromFile, err := LoadSources(sourcesPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, fromFile...)
	}

	headless := true
	if raw.Extraction.Headless != nil {
		headless = *raw.Extraction.Headless
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver: orDefault(strings.ToLower(raw.Database.Driver), DriverPostgres),
			URL:    raw.Database.URL,
			Path:   orDefault(raw.Database.Path, "jobfeed.db"),
		},
		Sources: sources,
		Region:  RegionConfig{Keywords: raw.Region.Keywords},
		Description: DescriptionConfig{
			FetchLimit:    orDefaultInt(raw.Description.FetchLimit, 2000),
			InsertLimit:   orDefaultInt(raw.Description.InsertLimit, 5000),
			BackfillLimit: orDefaultInt(raw.Description.BackfillLimit, 10000),
		},
		SalaryCurrency: orDefault(raw.SalaryCurrency, "CHF"),
		Extraction: ExtractionConfig{
			BaseURL:      orDefault(raw.Extraction.BaseURL, defaultOpenAIBaseURL),
			Model:        orDefault(raw.Extraction.Model, defaultModel),
			APIKey:       raw.Extraction.APIKey,
			Timeout:      extractionTimeout,
			Headless:     headless,
			WaitUntil:    orDefault(raw.Extraction.WaitUntil, "domcontentloaded"),
			MaxPageChars: orDefaultInt(raw.Extraction.MaxPageChars, 60000),
		},
		HTTP: HTTPConfig{Timeout: httpTimeout},
		RateLimit: RateLimitConfig{
			MinDelay:          minDelay,
			StrategyOverrides: overrides,
		},
		Lock: LockConfig{
			RedisURL: raw.Lock.RedisURL,
			Key:      orDefault(raw.Lock.Key, "jobfeed:run"),
			TTL:      lockTTL,
		},
		Metrics: MetricsConfig{
			PushgatewayURL: raw.Metrics.PushgatewayURL,
			Job:            orDefault(raw.Metrics.Job, "jobfeed"),
		},
		Notification: raw.Notification,
		Schedule:     raw.Schedule,
		Logging: LoggingConfig{
			Level:  orDefault(strings.ToLower(raw.Logging.Level), "info"),
			Format: orDefault(strings.ToLower(raw.Logging.Format), "console"),
		},
		Logos: LogosConfig{
			FaviconURL:      orDefault(raw.Logos.FaviconURL, defaultFaviconURL),
			DomainOverrides: raw.Logos.DomainOverrides,
			Timeout:         logosTimeout,
		},
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validWaitUntil(s string) bool {
	switch s {
	case "load", "domcontentloaded", "networkidle", "commit":
		return true
	}
	return false
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.Database.Driver)
	}

	for i, s := range cfg.Sources {
		if strings.TrimSpace(s.Company) == "" {
			return fmt.Errorf("sources[%d]: company is required", i)
		}
		if s.WaitUntil != "" && !validWaitUntil(s.WaitUntil) {
			return fmt.Errorf("sources[%d]: wait_until %q is not supported", i, s.WaitUntil)
		}
	}
	if !validWaitUntil(cfg.Extraction.WaitUntil) {
		return fmt.Errorf("extraction.wait_until %q is not supported", cfg.Extraction.WaitUntil)
	}

	if cfg.Description.FetchLimit < 0 || cfg.Description.InsertLimit < 0 || cfg.Description.BackfillLimit < 0 {
		return fmt.Errorf("description limits must not be negative")
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %v", cfg.HTTP.Timeout)
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	case "telegram":
		if cfg.Notification.TelegramToken == "" || cfg.Notification.TelegramChatID == 0 {
			return fmt.Errorf("notification.telegram_token and notification.telegram_chat_id are required when type is \"telegram\"")
		}
	default:
		return fmt.Errorf("notification.type %q is not supported", cfg.Notification.Type)
	}

	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", cfg.Logging.Format)
	}

	if !strings.Contains(cfg.Logos.FaviconURL, "{domain}") {
		return fmt.Errorf("logos.favicon_url must contain {domain}")
	}

	return nil
}

// RequireDatabase checks that the configured store can be opened.
func (c *Config) RequireDatabase() error {
	if c.Database.Driver == DriverPostgres && c.Database.URL == "" {
		return fmt.Errorf("database.url: %w", ErrMissingCredential)
	}
	return nil
}

// RequireExtraction checks that the page extraction engine has an API key.
func (c *Config) RequireExtraction() error {
	if c.Extraction.APIKey == "" {
		return fmt.Errorf("extraction.api_key: %w", ErrMissingCredential)
	}
	return nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
