package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cryptovalleyjobs/jobfeed/internal/adapter"
	"github.com/cryptovalleyjobs/jobfeed/internal/report"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the source registry",
	Long:  "Reads the config and prints every source in the order a scrape visits them.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(report.Sources(cfg.Sources, cfg.RateLimit.MinDelayFor, adapter.KnownStrategy))
	return nil
}
