package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cryptovalleyjobs/jobfeed/internal/ai"
	"github.com/cryptovalleyjobs/jobfeed/internal/browser"
	"github.com/cryptovalleyjobs/jobfeed/internal/config"
	"github.com/cryptovalleyjobs/jobfeed/internal/extract"
	"github.com/cryptovalleyjobs/jobfeed/internal/lock"
	"github.com/cryptovalleyjobs/jobfeed/internal/logging"
	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/notifier"
	"github.com/cryptovalleyjobs/jobfeed/internal/store"
	"github.com/cryptovalleyjobs/jobfeed/internal/telemetry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "jobfeed",
	Short:         "Job board maintenance jobs",
	Long:          "jobfeed scrapes company career pages into the job board, backfills missing descriptions and fills in company logos.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBFEED_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env, resolves the config path and parses it.
// Priority: explicit path arg > JOBFEED_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		if env := os.Getenv("JOBFEED_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// setup loads the config and builds the process logger. Config errors are
// reported on a default logger and end the process.
func setup() (*config.Config, *slog.Logger) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		setupLogger(nil, debug).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg, setupLogger(cfg, debug)
}

func setupLogger(cfg *config.Config, dbg bool) *slog.Logger {
	opts := logging.Options{NoColor: os.Getenv("NO_COLOR") != ""}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	if dbg {
		opts.Level = "debug"
	}
	return logging.New(os.Stdout, opts)
}

func newRunID() string {
	return uuid.NewString()
}

func openStore(ctx context.Context, cfg *config.Config) (model.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		s, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// setupExtractor builds the page extraction engine. The returned close
// function stops the browser.
func setupExtractor(cfg *config.Config, logger *slog.Logger) (extract.Extractor, func()) {
	loader := browser.NewPlaywrightLoader(cfg.Extraction.Headless, cfg.Extraction.Timeout, cfg.Extraction.WaitUntil, logger)
	llm := ai.NewOpenAIProvider(
		cfg.Extraction.BaseURL,
		cfg.Extraction.APIKey,
		cfg.Extraction.Model,
		&http.Client{Timeout: cfg.Extraction.Timeout},
	)
	logger.Info("extraction engine configured", "model", cfg.Extraction.Model, "headless", cfg.Extraction.Headless)

	closeFn := func() {
		if err := loader.Close(); err != nil {
			logger.Warn("browser shutdown failed", "error", err)
		}
	}
	return extract.NewLLMExtractor(loader, llm, cfg.Extraction.MaxPageChars, logger), closeFn
}

// setupNotifier builds the configured notifier without touching the network,
// so an unreachable chat service can only fail the notification itself.
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "telegram":
		logger.Info("using telegram notifier")
		return notifier.NewTelegramNotifier(
			cfg.Notification.TelegramToken,
			cfg.Notification.TelegramAPIEndpoint,
			cfg.Notification.TelegramChatID,
			httpClient,
			logger,
		)
	case "none":
		return notifier.Nop{}
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// acquireLock takes the run lock when one is configured. The returned release
// function is never nil.
func acquireLock(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(), error) {
	if !cfg.Lock.Enabled() {
		return func() {}, nil
	}

	client, err := lock.Dial(ctx, cfg.Lock.RedisURL)
	if err != nil {
		return nil, err
	}
	l := lock.NewRedisLock(client, cfg.Lock.Key, cfg.Lock.TTL)
	if err := l.Acquire(ctx); err != nil {
		client.Close()
		return nil, err
	}
	logger.Debug("run lock acquired", "key", cfg.Lock.Key)

	return func() {
		if err := l.Release(context.Background()); err != nil {
			logger.Warn("run lock release failed", "error", err)
		}
		client.Close()
	}, nil
}

// pushMetrics sends the run's metrics when a Pushgateway is configured.
// Failures are logged; metrics never fail a run.
func pushMetrics(ctx context.Context, cfg *config.Config, m *telemetry.Metrics, logger *slog.Logger) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		logger.Warn("metrics push failed", "error", err)
		return
	}
	logger.Debug("metrics pushed", "gateway", cfg.Metrics.PushgatewayURL, "task", m.Task())
}
