// ABOUTME: CLI command seeding synthetic demo data.
// ABOUTME: Generates plausible days and rolls each one up.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/sim"
	"github.com/spf13/cobra"
)

var (
	seedDays int
	seedSeed int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed synthetic demo data",
	Long: `Generate synthetic but plausible days of data: a commute spike, a
workday plateau, an evening gym session, meetings, sleep, and HRV.
Each seeded day is rolled up, so baselines, habits, and correlation
signals populate immediately. The generator is deterministic for a
given --seed value.

Examples:
  pulse seed
  pulse seed --days 30
  pulse seed --days 14 --seed 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedDays < 1 {
			return fmt.Errorf("--days must be >= 1")
		}

		s := sim.New(eng, seedSeed)
		end := time.Now().UTC()
		if err := s.SeedDays(cmd.Context(), currentUser(), end, seedDays); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}

		color.Green("✓ Seeded %d day(s) for %s", seedDays, currentUser())
		fmt.Println("Try: pulse timeline, pulse habit, pulse suggest")
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedDays, "days", 7, "Number of days to generate")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 42, "Random seed for deterministic output")
	rootCmd.AddCommand(seedCmd)
}
