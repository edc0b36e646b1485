// ABOUTME: CLI command showing habit streak status.
// ABOUTME: Evaluates pending period boundaries before rendering.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	Aliases: []string{"habits", "h"},
	Short:   "Show habit streaks",
	Long: `Show the state of every defined habit: current period progress,
streak length, and longest streak. Definitions come from habits.yaml
in the data directory and are synced on startup.

States:
  on_track   target met or still reachable
  at_risk    most of the period has passed and the count is short
  broken     a period ended below target
  inactive   no qualifying events yet

Example:
  pulse habit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := repo.ListHabitDefinitions(currentUser())
		if err != nil {
			return fmt.Errorf("failed to list habits: %w", err)
		}
		if len(defs) == 0 {
			fmt.Printf("No habits defined. Add them to %s\n", cfg.GetHabitsFile())
			return nil
		}

		now := time.Now().UTC()
		tracking, err := eng.EvaluateAllHabits(currentUser(), now)
		if err != nil {
			return fmt.Errorf("failed to evaluate habits: %w", err)
		}
		byName := make(map[string]*models.HabitTracking, len(tracking))
		for _, tr := range tracking {
			byName[tr.HabitName] = tr
		}

		for _, def := range defs {
			tr := byName[def.Name]
			if tr == nil {
				tr = models.NewHabitTracking(def.UserID, def.Name)
			}
			fmt.Printf("%s %s  %d/%d this %s",
				stateBadge(tr.State),
				color.New(color.Bold).Sprint(def.Name),
				tr.RollingCount, def.TargetCount, def.Period)
			if tr.StreakDays > 0 {
				fmt.Printf("  streak %dd", tr.StreakDays)
			}
			if tr.LongestStreakDays > tr.StreakDays {
				fmt.Print(color.New(color.Faint).Sprintf("  (best %dd)", tr.LongestStreakDays))
			}
			fmt.Println()
		}
		return nil
	},
}

func stateBadge(s models.HabitState) string {
	switch s {
	case models.HabitOnTrack:
		return color.GreenString("●")
	case models.HabitAtRisk:
		return color.YellowString("●")
	case models.HabitBroken:
		return color.RedString("●")
	default:
		return color.New(color.Faint).Sprint("○")
	}
}

func init() {
	rootCmd.AddCommand(habitCmd)
}
