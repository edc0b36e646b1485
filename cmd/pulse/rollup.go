// ABOUTME: CLI command running the daily rollup.
// ABOUTME: Derives resting HR, recomputes baselines, evaluates habits.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	rollupDate string
	rollupAll  bool
)

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Run the daily rollup",
	Long: `Run the end-of-day rollup for a date: derive resting heart rate,
recompute rolling baselines from the trailing window, settle habit
period boundaries, and compute the meeting-load correlation. The
rollup is idempotent; rerunning it for the same date is safe.

Examples:
  pulse rollup
  pulse rollup --date 2026-03-02
  pulse rollup --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().UTC()
		if rollupDate != "" {
			t, err := parseTime(rollupDate)
			if err != nil {
				return fmt.Errorf("invalid date: %s", rollupDate)
			}
			date = t
		}

		if rollupAll {
			if err := eng.RollupAll(cmd.Context(), date); err != nil {
				return fmt.Errorf("rollup failed: %w", err)
			}
			color.Green("✓ Rolled up %s for all users", date.Format("2006-01-02"))
			return nil
		}

		if err := eng.Rollup(cmd.Context(), currentUser(), date); err != nil {
			return fmt.Errorf("rollup failed: %w", err)
		}
		color.Green("✓ Rolled up %s for %s", date.Format("2006-01-02"), currentUser())
		return nil
	},
}

func init() {
	rollupCmd.Flags().StringVar(&rollupDate, "date", "", "Date to roll up (defaults to today)")
	rollupCmd.Flags().BoolVar(&rollupAll, "all", false, "Roll up every known user")
	rootCmd.AddCommand(rollupCmd)
}
