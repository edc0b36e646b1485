// ABOUTME: Root Cobra command for pulse CLI.
// ABOUTME: Opens config, storage, and the engine via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/charm"
	"github.com/harperreed/pulse/internal/config"
	"github.com/harperreed/pulse/internal/engine"
	"github.com/harperreed/pulse/internal/models"
	"github.com/harperreed/pulse/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	repo    *storage.DB
	eng     *engine.Engine
	mirror  *charm.Client
	cliUser string
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Personal signal aggregation and inference engine",
	Long: `Pulse ingests raw personal signals and turns them into daily summaries,
rolling baselines, habit streaks, and suggestions.

WHAT IT INGESTS:

  Physiology   heart_rate, resting_hr, hrv, respiratory_rate
  Activity     steps, active_energy, motion
  Sleep        sleep_hours
  Context      workouts, calendar events

QUICK START:

  $ pulse add heart_rate 72                  # Log one observation
  $ pulse add hrv 48 --at "2026-03-02 07:00" # Backdate a reading
  $ pulse seed --days 14                     # Generate simulated history
  $ pulse timeline --days 7                  # Per-day summaries
  $ pulse suggest                            # Run the suggestion rules
  $ pulse feedback ab12cd34 accepted         # React to a suggestion

HABITS:

  Declare habits in habits.yaml next to the config file:

    habits:
      - name: train
        kind: workout
        qualifier: any
        target: 3
        period: weekly

  Definitions sync into the database on every run.
  $ pulse habit                              # Streak state per habit

SYNC:

  Raw signals mirror to Charm Cloud, E2E encrypted with your SSH key.
  Derived state is recomputed locally, so only raw data crosses devices.

  $ pulse sync link      # Link device to your Charm account
  $ pulse sync push      # Mirror raw signals to the cloud
  $ pulse sync status    # Check sync status

MCP INTEGRATION:

  Run 'pulse mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "pulse": { "command": "pulse", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Observations and derived state live in SQLite at ~/.local/share/pulse.
  Configuration lives at ~/.config/pulse/config.json.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
		repo, err = storage.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		eng = engine.New(repo, cfg)

		if cfg.MirrorEnabled {
			mirror, err = charm.InitClient()
			if err != nil {
				color.Yellow("⚠ Charm mirror unavailable: %v", err)
				mirror = nil
			}
		}
		return syncHabitDefinitions()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if mirror != nil {
			_ = mirror.Close()
		}
		if repo != nil {
			return repo.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// currentUser resolves the acting user: --user flag, then config.
func currentUser() string {
	if cliUser != "" {
		return cliUser
	}
	return cfg.GetDefaultUser()
}

// syncHabitDefinitions loads habits.yaml into the database so the
// engine sees declarations without a separate import step.
func syncHabitDefinitions() error {
	defs, err := config.LoadHabits(cfg.GetHabitsFile())
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	if len(defs) == 0 {
		return nil
	}

	user := currentUser()
	if err := repo.EnsureUser(user); err != nil {
		return err
	}
	for i := range defs {
		defs[i].UserID = user
		if err := repo.UpsertHabitDefinition(&defs[i]); err != nil {
			return fmt.Errorf("failed to sync habit %s: %w", defs[i].Name, err)
		}
	}
	return nil
}

// mirrorObservations pushes accepted observations to the Charm mirror.
// Best effort: a mirror failure never fails the local write.
func mirrorObservations(obs []*models.Observation) {
	if mirror == nil || len(obs) == 0 {
		return
	}
	if err := mirror.MirrorObservations(obs); err != nil {
		color.Yellow("⚠ Mirror push failed: %v", err)
	}
}

func mirrorWorkout(w *models.Workout) {
	if mirror == nil {
		return
	}
	if err := mirror.MirrorWorkout(w); err != nil {
		color.Yellow("⚠ Mirror push failed: %v", err)
	}
}

func mirrorCalendarEvent(ev *models.CalendarEvent) {
	if mirror == nil {
		return
	}
	if err := mirror.MirrorCalendarEvent(ev); err != nil {
		color.Yellow("⚠ Mirror push failed: %v", err)
	}
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cliUser, "user", "u", "", "Acting user id (defaults to config)")
}
