// ABOUTME: CLI command for adding raw observations.
// ABOUTME: Single observations flow through the same ingest path as batches.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

var (
	addAt     string
	addSource string
)

var addCmd = &cobra.Command{
	Use:     "add <type> <value>",
	Aliases: []string{"a"},
	Short:   "Add an observation",
	Long: `Add a single raw observation. It runs through the full ingest path:
sanity checks, daily summary fold, baseline update, and habit counting.

Examples:
  pulse add heart_rate 72
  pulse add hrv 48 --at "2026-03-02 07:00"
  pulse add steps 650 --source "Apple Watch"
  pulse add sleep_hours 7.5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		obsType := args[0]
		if !models.IsValidObservationType(obsType) {
			return fmt.Errorf("unknown observation type: %s\nValid types: heart_rate, resting_hr, hrv, respiratory_rate, steps, active_energy, motion, sleep_hours", obsType)
		}

		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}

		o := models.NewObservation(currentUser(), models.ObservationType(obsType), value)
		if addAt != "" {
			t, err := parseTime(addAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", addAt)
			}
			o.WithRecordedAt(t)
		}
		if addSource != "" {
			o.WithSource(addSource)
		}

		report, err := eng.Ingest(cmd.Context(), currentUser(), []*models.Observation{o})
		if err != nil {
			return fmt.Errorf("failed to ingest: %w", err)
		}
		if len(report.Rejected) > 0 {
			return fmt.Errorf("rejected: %s", report.Rejected[0].Reason)
		}
		mirrorObservations([]*models.Observation{o})

		color.Green("✓ Added %s", obsType)
		fmt.Printf("  %s %.2f %s\n",
			color.New(color.Faint).Sprint(o.ID.String()[:8]),
			o.Value, o.Unit)
		for _, f := range report.Flags {
			color.Yellow("  ! %s %.1f is %s (z=%.1f against baseline %.1f)",
				f.Metric, f.Value, f.Level, f.Z, f.Mean)
		}

		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "Timestamp (e.g. '2026-03-02 07:00')")
	addCmd.Flags().StringVar(&addSource, "source", "", "Device or app the reading came from")
	rootCmd.AddCommand(addCmd)
}
