// ABOUTME: CLI commands for exporting and importing raw data.
// ABOUTME: JSON backups carry raw entities only; derived state rebuilds.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/storage"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export raw data as JSON",
	Long: `Export one user's raw data as JSON: observations, workouts,
calendar events, device sources, and habit definitions. Derived state
(summaries, baselines, suggestions) is excluded; importing and rolling
up rebuilds it.

EXAMPLES:

  pulse export                  # Print JSON to stdout
  pulse export -o backup.json   # Save to file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := repo.ExportUser(currentUser())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0o600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import raw data from JSON",
	Long: `Import raw data from a previously exported JSON backup.

Rows with existing IDs will cause an error. Run 'pulse rollup' after
importing to rebuild summaries, baselines, and habit state.

EXAMPLE:

  pulse import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var export storage.ExportData
		if err := json.Unmarshal(data, &export); err != nil {
			return fmt.Errorf("failed to decode: %w", err)
		}

		if err := repo.ImportUser(&export); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		color.Green("✓ Imported %d observations, %d workouts, %d events from %s",
			len(export.Observations), len(export.Workouts), len(export.CalendarEvents), args[0])
		fmt.Println("Run 'pulse rollup' to rebuild derived state.")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
