// ABOUTME: CLI command inspecting rolling baselines.
// ABOUTME: Shows per-bucket HR statistics and the latest HRV period.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	baselineHour int
	baselineDow  int
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect rolling baselines",
	Long: `Show the heart-rate baseline for an (hour, day-of-week) bucket and
the latest HRV baseline period. Day of week is 0=Monday through
6=Sunday. Without flags, the bucket for the current time is shown.

Examples:
  pulse baseline
  pulse baseline --hour 9 --dow 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		hour, dow := baselineHour, baselineDow
		if hour < 0 {
			hour = now.Hour()
		}
		if dow < 0 {
			dow = (int(now.Weekday()) + 6) % 7
		}
		if hour > 23 {
			return fmt.Errorf("hour must be 0-23")
		}
		if dow > 6 {
			return fmt.Errorf("dow must be 0-6 (0=Monday)")
		}

		days := [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
		bold := color.New(color.Bold)

		hr, err := repo.GetHRBaseline(currentUser(), hour, dow)
		if err != nil {
			return fmt.Errorf("failed to load HR baseline: %w", err)
		}
		bold.Printf("HR %s %02d:00\n", days[dow], hour)
		if hr == nil || hr.SampleCount == 0 {
			fmt.Println("  no samples yet")
		} else {
			fmt.Printf("  mean %.1f bpm, stddev %.1f, n=%d\n", hr.Mean, hr.Stddev, hr.SampleCount)
			fmt.Printf("  updated %s\n", color.New(color.Faint).Sprint(hr.LastUpdated.Format(time.RFC3339)))
		}

		hrv, err := repo.LatestHRVBaseline(currentUser())
		if err != nil {
			return fmt.Errorf("failed to load HRV baseline: %w", err)
		}
		bold.Println("HRV")
		if hrv == nil || hrv.SampleCount == 0 {
			fmt.Println("  no samples yet")
			return nil
		}
		fmt.Printf("  mean %.1f ms, stddev %.1f, n=%d (period %s to %s)\n",
			hrv.Mean, hrv.Stddev, hrv.SampleCount, hrv.PeriodStart, hrv.PeriodEnd)
		return nil
	},
}

func init() {
	baselineCmd.Flags().IntVar(&baselineHour, "hour", -1, "Hour of day, 0-23 (defaults to now)")
	baselineCmd.Flags().IntVar(&baselineDow, "dow", -1, "Day of week, 0=Monday (defaults to today)")
	rootCmd.AddCommand(baselineCmd)
}
