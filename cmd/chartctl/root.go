package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chartctl",
	Short: "Fetch, render and inspect birth charts from the command line",
	Long: `chartctl talks to the ephemeris provider and the zodiac wheel renderer
without running the HTTP service.

Examples:
  chartctl snapshot --date 1990-01-15 --time 12:00 --lat 28.6139 --lon 77.209 --tz 5.5 --out chart.json
  chartctl render --in chart.json --kind wheel --out chart.png`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
