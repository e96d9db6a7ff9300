package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/astrochart/internal/domain/chart"
	"github.com/yanqian/astrochart/internal/infra/config"
	"github.com/yanqian/astrochart/internal/infra/ephemeris/prokerala"
	"github.com/yanqian/astrochart/internal/infra/ephemeriscache"
	"github.com/yanqian/astrochart/pkg/logger"
)

var snapshotFlags struct {
	date string
	time string
	lat  float64
	lon  float64
	tz   float64
	out  string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch a normalized chart snapshot and print it as JSON",
	Long: `Fetch planet positions and birth details for one birth moment and write
the normalized chart as JSON. Provider credentials come from the usual
config file and EPHEMERIS_* environment variables.`,
	RunE: runSnapshot,
}

func init() {
	f := snapshotCmd.Flags()
	f.StringVar(&snapshotFlags.date, "date", "", "birth date (YYYY-MM-DD)")
	f.StringVar(&snapshotFlags.time, "time", "", "local birth time (HH:MM or HH:MM:SS)")
	f.Float64Var(&snapshotFlags.lat, "lat", 0, "latitude in degrees")
	f.Float64Var(&snapshotFlags.lon, "lon", 0, "longitude in degrees")
	f.Float64Var(&snapshotFlags.tz, "tz", 0, "timezone offset in hours, e.g. 5.5")
	f.StringVarP(&snapshotFlags.out, "out", "o", "-", "output file, - for stdout")
	_ = snapshotCmd.MarkFlagRequired("date")
	_ = snapshotCmd.MarkFlagRequired("time")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	birth := chart.BirthDetails{
		Date:                snapshotFlags.date,
		Time:                snapshotFlags.time,
		Latitude:            snapshotFlags.lat,
		Longitude:           snapshotFlags.lon,
		TimezoneOffsetHours: snapshotFlags.tz,
	}
	if err := birth.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e := cfg.Ephemeris
	client := prokerala.NewClient(prokerala.Config{
		BaseURL:           e.BaseURL,
		TokenURL:          e.TokenURL,
		ClientID:          e.ClientID,
		ClientSecret:      e.ClientSecret,
		Ayanamsa:          e.Ayanamsa,
		Timeout:           e.Timeout,
		RequestsPerSecond: e.RequestsPerSecond,
		Burst:             e.Burst,
	}, ephemeriscache.NewMemoryCache(), nil, logger.NewTo(os.Stderr))

	ctx, cancel := commandContext(cmd)
	defer cancel()
	snapshot, err := client.FetchChart(ctx, birth)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), snapshotFlags.out, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	})
}

// writeOutput sends write to stdout for "-" and to a created file otherwise.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
