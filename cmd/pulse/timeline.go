// ABOUTME: CLI command rendering the per-day timeline.
// ABOUTME: Shows daily summaries with correlation signals attached.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	timelineDays  int
	timelineLimit int
)

var timelineCmd = &cobra.Command{
	Use:     "timeline",
	Aliases: []string{"tl"},
	Short:   "Show the daily timeline",
	Long: `Show daily summaries for the recent past, newest last. Each day
lists heart rate, activity, and sleep aggregates plus the meeting-load
correlation signal when the rollup has computed one. Suggestions that
are still active are listed at the end.

Examples:
  pulse timeline
  pulse timeline --days 30
  pulse timeline --days 90 --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -timelineDays)

		tl, err := eng.GetTimeline(cmd.Context(), currentUser(), from, to, timelineLimit)
		if err != nil {
			return fmt.Errorf("failed to load timeline: %w", err)
		}
		if len(tl.Days) == 0 {
			fmt.Println("No data in range. Try 'pulse add' or 'pulse seed'.")
			return nil
		}

		bold := color.New(color.Bold)
		faint := color.New(color.Faint)
		for _, d := range tl.Days {
			s := d.Summary
			bold.Println(s.Date)
			if s.HasHR() {
				line := fmt.Sprintf("  HR avg %.0f (min %.0f, max %.0f)", s.AvgHR(), s.MinHR, s.MaxHR)
				if s.RestingHR != nil {
					line += fmt.Sprintf(", resting %.0f", *s.RestingHR)
				}
				fmt.Println(line)
			}
			if s.HRVCount > 0 {
				fmt.Printf("  HRV avg %.0f ms\n", s.AvgHRV())
			}
			if s.Steps > 0 || s.WorkoutMinutes > 0 {
				fmt.Printf("  %.0f steps, %d active min, %d workout min\n",
					s.Steps, s.ActiveMinutes, s.WorkoutMinutes)
			}
			if s.SleepHours > 0 {
				fmt.Printf("  %.1f h sleep\n", s.SleepHours)
			}
			if c := d.Correlation; c != nil {
				fmt.Printf("  %d meetings (%d min), HR during %.0f vs baseline %.0f",
					c.MeetingCount, c.MeetingMinutes, c.AvgHRDuringMeetings, c.BaselineHR)
				faint.Printf("  strength %.2f over %d days\n", c.CorrelationStrength, c.SampleDays)
			}
		}

		if len(tl.Suggestions) > 0 {
			fmt.Println()
			bold.Println("Active suggestions")
			for _, s := range tl.Suggestions {
				fmt.Printf("  %s  %s %s\n", faint.Sprint(s.ID.String()[:8]), s.Title, confidenceBar(s.Confidence))
			}
		}
		return nil
	},
}

func init() {
	timelineCmd.Flags().IntVar(&timelineDays, "days", 14, "How many days back to query")
	timelineCmd.Flags().IntVar(&timelineLimit, "limit", 100, "Maximum days to show")
	rootCmd.AddCommand(timelineCmd)
}
