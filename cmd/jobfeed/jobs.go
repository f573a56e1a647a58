package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cryptovalleyjobs/jobfeed/internal/adapter"
	"github.com/cryptovalleyjobs/jobfeed/internal/backfill"
	"github.com/cryptovalleyjobs/jobfeed/internal/config"
	"github.com/cryptovalleyjobs/jobfeed/internal/dedup"
	"github.com/cryptovalleyjobs/jobfeed/internal/extract"
	"github.com/cryptovalleyjobs/jobfeed/internal/filter"
	"github.com/cryptovalleyjobs/jobfeed/internal/gateway"
	"github.com/cryptovalleyjobs/jobfeed/internal/lock"
	"github.com/cryptovalleyjobs/jobfeed/internal/logos"
	"github.com/cryptovalleyjobs/jobfeed/internal/pipeline"
	"github.com/cryptovalleyjobs/jobfeed/internal/ratelimit"
	"github.com/cryptovalleyjobs/jobfeed/internal/report"
	"github.com/cryptovalleyjobs/jobfeed/internal/telemetry"
)

// scrapeJob runs one scrape over the whole source registry and prints the
// summary. Source failures are part of the summary, not errors.
func scrapeJob(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) error {
	runID := newRunID()
	logger = logger.With("run_id", runID)

	jobStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer jobStore.Close()

	release, err := acquireLock(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	var extractor extract.Extractor
	if err := cfg.RequireExtraction(); err != nil {
		logger.Warn("page sources disabled", "reason", err)
	} else {
		ex, closeBrowser := setupExtractor(cfg, logger)
		defer closeBrowser()
		extractor = ex
	}

	n := setupNotifier(cfg, httpClient, logger)

	gate, err := dedup.Load(ctx, jobStore)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewStrategyRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.StrategyOverrides)
	registry := adapter.NewRegistry(httpClient, extractor, limiter, cfg.Description.FetchLimit, logger)
	metrics := telemetry.New("scrape")

	driver := pipeline.NewDriver(
		cfg.Sources,
		registry,
		filter.NewGeoFilter(cfg.Region.Keywords),
		gate,
		gateway.New(jobStore, cfg.Description.InsertLimit, cfg.SalaryCurrency),
		logger,
		pipeline.WithDryRun(dryRun),
		pipeline.WithObserver(metrics),
		pipeline.WithRunID(runID),
	)

	summary := driver.Run(ctx)
	metrics.ObserveRun(summary)
	fmt.Print(report.RunSummary(summary))

	if err := n.Notify(ctx, summary); err != nil {
		logger.Warn("notification failed", "error", err)
	}
	if !dryRun {
		pushMetrics(ctx, cfg, metrics, logger)
	}
	return nil
}

// backfillJob fills in missing job descriptions and prints the counts.
func backfillJob(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger = logger.With("run_id", newRunID())

	if err := cfg.RequireExtraction(); err != nil {
		return err
	}
	jobStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer jobStore.Close()

	release, err := acquireLock(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	extractor, closeBrowser := setupExtractor(cfg, logger)
	defer closeBrowser()

	limiter := ratelimit.NewStrategyRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.StrategyOverrides)
	rep, err := backfill.New(jobStore, extractor, cfg.Description.BackfillLimit, limiter, logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Print(report.JobReport(rep))

	metrics := telemetry.New(rep.Job)
	metrics.ObserveJob(rep)
	pushMetrics(ctx, cfg, metrics, logger)
	return nil
}

// logosJob gives companies without a logo their favicon and prints the counts.
func logosJob(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger = logger.With("run_id", newRunID())

	jobStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer jobStore.Close()

	release, err := acquireLock(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	client := &http.Client{Timeout: cfg.Logos.Timeout}
	rep, err := logos.New(jobStore, client, cfg.Logos.FaviconURL, cfg.Logos.DomainOverrides, logger).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Print(report.JobReport(rep))

	metrics := telemetry.New(rep.Job)
	metrics.ObserveJob(rep)
	pushMetrics(ctx, cfg, metrics, logger)
	return nil
}

// exitOnError logs err and ends the process with status 1. A run skipped
// because of the lock exits 0.
func exitOnError(logger *slog.Logger, job string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, lock.ErrHeld) {
		logger.Warn("another run is in progress, skipping", "job", job)
		return
	}
	logger.Error(job+" failed", "error", err)
	os.Exit(1)
}
