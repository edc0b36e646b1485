// ABOUTME: CLI command for batch observation ingest from JSON.
// ABOUTME: Reads a file or stdin and reports accepted/rejected counts.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

// ingestRecord is one row of the JSON batch format.
type ingestRecord struct {
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	RecordedAt string  `json:"recorded_at"`
	Source     string  `json:"source,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a JSON batch of observations",
	Long: `Ingest a batch of observations from a JSON file, or stdin when no
file is given. The batch is a JSON array:

  [
    {"type": "heart_rate", "value": 72, "recorded_at": "2026-03-02T09:00:00Z"},
    {"type": "hrv", "value": 48, "recorded_at": "2026-03-02T07:00:00Z", "source": "Oura"}
  ]

Each record is validated independently: out-of-range or malformed
records are rejected with a reason while the rest of the batch lands.

Examples:
  pulse ingest readings.json
  some-exporter | pulse ingest`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("failed to read batch: %w", err)
		}

		var records []ingestRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to parse batch: %w", err)
		}

		batch := make([]*models.Observation, 0, len(records))
		for _, r := range records {
			o := models.NewObservation(currentUser(), models.ObservationType(r.Type), r.Value)
			if r.RecordedAt != "" {
				// leave zero on parse failure so validation rejects
				// the record with a reason instead of silently
				// stamping "now"
				t, err := time.Parse(time.RFC3339, r.RecordedAt)
				if err != nil {
					o.RecordedAt = time.Time{}
				} else {
					o.WithRecordedAt(t)
				}
			}
			if r.Source != "" {
				o.WithSource(r.Source)
			}
			batch = append(batch, o)
		}

		report, err := eng.Ingest(cmd.Context(), currentUser(), batch)
		if err != nil {
			return fmt.Errorf("failed to ingest: %w", err)
		}

		accepted := make([]*models.Observation, 0, report.Accepted)
		rejected := make(map[int]bool, len(report.Rejected))
		for _, r := range report.Rejected {
			rejected[r.Index] = true
		}
		for i, o := range batch {
			if !rejected[i] {
				accepted = append(accepted, o)
			}
		}
		mirrorObservations(accepted)

		color.Green("✓ Ingested %d of %d observation(s)", report.Accepted, len(batch))
		for _, r := range report.Rejected {
			color.Yellow("  ✗ [%d] %s %.2f: %s", r.Index, r.Type, r.Value, r.Reason)
		}
		for _, f := range report.Flags {
			color.Yellow("  ! %s %.1f is %s (z=%.1f against baseline %.1f)",
				f.Metric, f.Value, f.Level, f.Z, f.Mean)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
