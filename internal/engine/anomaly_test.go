// ABOUTME: Tests for z-score classification and scoring gates.
// ABOUTME: Covers threshold bands, the stddev guard, and the sample floor.
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/config"
	"github.com/harperreed/pulse/internal/models"
)

func TestClassifyThresholdBands(t *testing.T) {
	th := config.Thresholds{Normal: 1.5, Alert: 3.0}

	tests := []struct {
		value float64
		want  AnomalyLevel
	}{
		{60, LevelNormal},
		{67, LevelNormal},    // z = 1.4
		{68, LevelElevated},  // z = 1.6
		{74, LevelElevated},  // z = 2.8
		{75, LevelAnomalous}, // z = 3.0
		{90, LevelAnomalous},
		{52, LevelElevated},  // z = -1.6, magnitude counts
		{44, LevelAnomalous}, // z = -3.2
	}
	for _, tt := range tests {
		z, level := classify(tt.value, 60, 5, th)
		if level != tt.want {
			t.Errorf("classify(%v): got %s (z=%.2f), want %s", tt.value, level, z, tt.want)
		}
	}
}

func TestClassifyGuardsZeroStddev(t *testing.T) {
	th := config.Thresholds{Normal: 1.5, Alert: 3.0}

	z, level := classify(60, 60, 0, th)
	if z != 0 || level != LevelNormal {
		t.Errorf("identical value on flat baseline: got z=%v level=%s", z, level)
	}
	_, level = classify(61, 60, 0, th)
	if level != LevelAnomalous {
		t.Errorf("any deviation from a flat baseline should be anomalous, got %s", level)
	}
}

func TestScoreRequiresSampleFloor(t *testing.T) {
	e, db := newTestEngine(t)
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday

	if err := db.EnsureUser("ada"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if err := db.UpsertHRBaseline(&models.HRBaseline{
		UserID: "ada", HourOfDay: 9, DayOfWeek: 0,
		Mean: 60, Stddev: 5, SampleCount: 3,
	}); err != nil {
		t.Fatalf("UpsertHRBaseline failed: %v", err)
	}

	if _, err := e.score(hrObs("ada", ts, 90)); err != ErrBaselineUnavailable {
		t.Errorf("expected ErrBaselineUnavailable below sample floor, got %v", err)
	}

	if err := db.UpsertHRBaseline(&models.HRBaseline{
		UserID: "ada", HourOfDay: 9, DayOfWeek: 0,
		Mean: 60, Stddev: 5, SampleCount: 50,
	}); err != nil {
		t.Fatalf("UpsertHRBaseline failed: %v", err)
	}

	flag, err := e.score(hrObs("ada", ts, 90))
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if flag.Level != LevelAnomalous {
		t.Errorf("expected anomalous at z=6, got %s", flag.Level)
	}
}

func TestIngestEmitsFlagsAgainstPriorBaseline(t *testing.T) {
	e, _ := newTestEngine(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Build up a steady bucket baseline past the sample floor.
	var batch []*models.Observation
	for i := 0; i < 8; i++ {
		batch = append(batch, hrObs("ada", base.Add(time.Duration(i)*time.Minute), 60+float64(i%2)))
	}
	report, err := e.Ingest(context.Background(), "ada", batch)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(report.Flags) != 0 {
		t.Fatalf("steady samples should not flag, got %d flags", len(report.Flags))
	}

	// A wild sample in the same bucket scores against the accumulated
	// baseline before being folded in.
	report, err = e.Ingest(context.Background(), "ada", []*models.Observation{
		hrObs("ada", base.Add(20*time.Minute), 140),
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(report.Flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(report.Flags))
	}
	if report.Flags[0].Level != LevelAnomalous {
		t.Errorf("expected anomalous flag, got %s", report.Flags[0].Level)
	}
}

func TestFlagsSincePrunes(t *testing.T) {
	e, _ := newTestEngine(t)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	e.recordFlag(AnomalyFlag{UserID: "ada", At: now.Add(-2 * flagFreshness)})
	e.recordFlag(AnomalyFlag{UserID: "ada", At: now.Add(-time.Hour)})

	flags := e.FlagsSince("ada", now.Add(-flagFreshness))
	if len(flags) != 1 {
		t.Fatalf("expected 1 fresh flag, got %d", len(flags))
	}
	// The stale one is gone for good.
	flags = e.FlagsSince("ada", time.Time{})
	if len(flags) != 1 {
		t.Errorf("expected pruned buffer to keep 1 flag, got %d", len(flags))
	}
}
