package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logosCmd = &cobra.Command{
	Use:   "logos",
	Short: "Fill in missing company logos from the favicon service",
	RunE:  runLogos,
}

func init() {
	rootCmd.AddCommand(logosCmd)
}

func runLogos(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitOnError(logger, "logos", logosJob(ctx, cfg, logger))
	return nil
}
