package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cryptovalleyjobs/jobfeed/internal/lock"
	"github.com/cryptovalleyjobs/jobfeed/internal/scheduler"
)

var daemonRunNow bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the jobs on their cron schedules",
	Long:  "Run scrape, backfill and logos on the schedules in the config; blocks until SIGINT/SIGTERM.",
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonRunNow, "run-now", false, "run every scheduled job once at startup")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	if err := cfg.RequireDatabase(); err != nil {
		logger.Error("daemon cannot start", "error", err)
		os.Exit(1)
	}

	// A skipped run is not a failure of the scheduler.
	skipHeld := func(err error) error {
		if errors.Is(err, lock.ErrHeld) {
			logger.Warn("another run is in progress, skipping")
			return nil
		}
		return err
	}

	jobs := []scheduler.Job{
		{Name: "scrape", Spec: cfg.Schedule.Scrape, Run: func(ctx context.Context) error {
			return skipHeld(scrapeJob(ctx, cfg, logger, false))
		}},
		{Name: "backfill", Spec: cfg.Schedule.Backfill, Run: func(ctx context.Context) error {
			return skipHeld(backfillJob(ctx, cfg, logger))
		}},
		{Name: "logos", Spec: cfg.Schedule.Logos, Run: func(ctx context.Context) error {
			return skipHeld(logosJob(ctx, cfg, logger))
		}},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(jobs, logger, scheduler.WithRunOnStart(daemonRunNow))
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
