package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scrapeDryRun bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every source once and insert new jobs as pending",
	Long:  "Fetch every source in the registry, keep new postings in the target region and insert them as pending jobs.",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "fetch and filter but write nothing")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"driver", cfg.Database.Driver,
		"dry_run", scrapeDryRun,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitOnError(logger, "scrape", scrapeJob(ctx, cfg, logger, scrapeDryRun))
	return nil
}
