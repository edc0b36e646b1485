// ABOUTME: CLI command for recording calendar events.
// ABOUTME: Meeting-category events feed the stress correlation engine.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

var (
	calStart    string
	calCategory string
)

var calendarCmd = &cobra.Command{
	Use:     "calendar <title> <minutes>",
	Aliases: []string{"cal"},
	Short:   "Record a calendar event",
	Long: `Record a scheduled event. Events with category meeting, call,
interview, or standup count toward meeting load, which the nightly
rollup correlates against heart rate.

Examples:
  pulse calendar "Weekly sync" 30
  pulse calendar "1:1 with Sam" 25 --category call --start "2026-03-02 14:00"
  pulse calendar "Focus block" 120 --category focus`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("invalid duration: %s", args[1])
		}

		start := time.Now().UTC()
		if calStart != "" {
			t, err := parseTime(calStart)
			if err != nil {
				return fmt.Errorf("invalid start time: %s", calStart)
			}
			start = t.UTC()
		}

		ev := models.NewCalendarEvent(currentUser(), args[0], calCategory,
			start, start.Add(time.Duration(minutes)*time.Minute))
		if err := eng.RecordCalendarEvent(cmd.Context(), ev); err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}
		mirrorCalendarEvent(ev)

		color.Green("✓ Recorded %q (%s, %d min)", ev.Title, ev.Category, ev.Minutes())
		if ev.IsMeeting() {
			fmt.Println(color.New(color.Faint).Sprint("  counts toward meeting load"))
		}
		return nil
	},
}

func init() {
	calendarCmd.Flags().StringVar(&calStart, "start", "", "Start time (defaults to now)")
	calendarCmd.Flags().StringVar(&calCategory, "category", "meeting", "Event category")
	rootCmd.AddCommand(calendarCmd)
}
