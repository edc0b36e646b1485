// ABOUTME: CLI command for recording workouts.
// ABOUTME: Workouts fold into the daily summary and habit engine.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

var (
	workoutStart    string
	workoutNotes    string
	workoutLocation string
)

var workoutCmd = &cobra.Command{
	Use:     "workout <category> <minutes>",
	Aliases: []string{"w"},
	Short:   "Record a workout",
	Long: `Record an exercise session. The workout folds into the day's summary
and counts toward any workout-typed habits.

Examples:
  pulse workout strength 45
  pulse workout running 30 --start "2026-03-02 18:00"
  pulse workout yoga 60 --notes "evening class"
  pulse workout strength 45 --location gym`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("invalid duration: %s", args[1])
		}

		w := models.NewWorkout(currentUser(), args[0])
		if workoutStart != "" {
			t, err := parseTime(workoutStart)
			if err != nil {
				return fmt.Errorf("invalid start time: %s", workoutStart)
			}
			w.StartedAt = t.UTC()
		}
		w.WithDuration(minutes)
		if workoutNotes != "" {
			w.WithNotes(workoutNotes)
		}

		var cluster *models.LocationCluster
		if workoutLocation != "" {
			cluster, err = eng.VisitLocation(currentUser(), workoutLocation)
			if err != nil {
				return fmt.Errorf("failed to record location visit: %w", err)
			}
			w.WithLocation(cluster.ID)
		}

		if err := eng.RecordWorkout(cmd.Context(), w); err != nil {
			return fmt.Errorf("failed to record workout: %w", err)
		}
		mirrorWorkout(w)

		color.Green("✓ Recorded %s workout (%d min)", w.Category, w.DurationMinutes)
		fmt.Printf("  %s %s to %s\n",
			color.New(color.Faint).Sprint(w.ID.String()[:8]),
			w.StartedAt.Local().Format("Mon 15:04"),
			w.EndedAt.Local().Format("15:04"))
		if cluster != nil {
			color.New(color.Faint).Printf("  at %s (visit %d)\n", cluster.Label, cluster.VisitCount)
		}
		return nil
	},
}

func init() {
	workoutCmd.Flags().StringVar(&workoutStart, "start", "", "Start time (defaults to now)")
	workoutCmd.Flags().StringVar(&workoutNotes, "notes", "", "Freeform notes")
	workoutCmd.Flags().StringVar(&workoutLocation, "location", "", "Visited place label (gym, park, ...)")
	rootCmd.AddCommand(workoutCmd)
}
