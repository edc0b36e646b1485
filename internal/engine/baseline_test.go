// ABOUTME: Tests for rolling baseline maintenance across ingest and recompute.
// ABOUTME: Covers bucket eviction at recompute and HRV period continuity.
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

func TestRecomputeEvictsAgedHRBuckets(t *testing.T) {
	e, db := newTestEngine(t)
	if err := db.EnsureUser("ada"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	// A bucket whose samples all predate the trailing window.
	stale := &models.HRBaseline{
		UserID: "ada", HourOfDay: 6, DayOfWeek: 0,
		Mean: 58, Stddev: 4, SampleCount: 40, LastUpdated: time.Now().UTC(),
	}
	if err := db.UpsertHRBaseline(stale); err != nil {
		t.Fatalf("UpsertHRBaseline failed: %v", err)
	}

	ts := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC) // Tuesday
	var batch []*models.Observation
	for i := 0; i < 3; i++ {
		batch = append(batch, hrObs("ada", ts.Add(time.Duration(i)*time.Minute), 70+float64(i)))
	}
	if _, err := e.Ingest(context.Background(), "ada", batch); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if err := e.RecomputeHRBaselines(context.Background(), "ada", ts.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("RecomputeHRBaselines failed: %v", err)
	}

	gone, err := db.GetHRBaseline("ada", 6, 0)
	if err != nil {
		t.Fatalf("GetHRBaseline failed: %v", err)
	}
	if gone != nil {
		t.Errorf("bucket with no raw samples in the window should be dropped, got %+v", gone)
	}

	kept, err := db.GetHRBaseline("ada", 14, 1)
	if err != nil {
		t.Fatalf("GetHRBaseline failed: %v", err)
	}
	if kept == nil {
		t.Fatal("expected the freshly fed bucket to survive recompute")
	}
	if kept.SampleCount != 3 {
		t.Errorf("expected 3 samples in the rebuilt bucket, got %d", kept.SampleCount)
	}
}

func TestHRVPeriodExtendsAcrossDays(t *testing.T) {
	e, db := newTestEngine(t)
	if err := db.EnsureUser("ada"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	seed := &models.HRVBaseline{
		UserID: "ada", PeriodStart: "2026-02-01", PeriodEnd: "2026-03-02",
		Mean: 50, Stddev: 5, SampleCount: 10, ZThreshold: 2,
		LastUpdated: time.Now().UTC(),
	}
	if err := db.UpsertHRVBaseline(seed); err != nil {
		t.Fatalf("UpsertHRVBaseline failed: %v", err)
	}

	// The morning after the stored period's last day. The retained
	// samples still overlap the trailing window, so the period extends
	// instead of rotating into a fresh one.
	ts := time.Date(2026, 3, 3, 7, 0, 0, 0, time.UTC)
	obs := models.NewObservation("ada", models.ObsHRV, 52).WithRecordedAt(ts)
	if _, err := e.Ingest(context.Background(), "ada", []*models.Observation{obs}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	row, err := db.LatestHRVBaseline("ada")
	if err != nil {
		t.Fatalf("LatestHRVBaseline failed: %v", err)
	}
	if row.SampleCount != 11 {
		t.Errorf("expected the sample folded into the running period, got n=%d", row.SampleCount)
	}
	if row.PeriodStart != "2026-02-01" {
		t.Errorf("period start must not rotate day to day, got %s", row.PeriodStart)
	}
	if row.PeriodEnd != "2026-03-03" {
		t.Errorf("period end should extend to the sample's day, got %s", row.PeriodEnd)
	}

	// With the period intact, a depressed sample scores immediately
	// instead of hitting a single-sample baseline.
	low := models.NewObservation("ada", models.ObsHRV, 20).WithRecordedAt(ts.Add(time.Hour))
	report, err := e.Ingest(context.Background(), "ada", []*models.Observation{low})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(report.Flags) != 1 {
		t.Fatalf("expected the depressed sample flagged, got %d flags", len(report.Flags))
	}
	if report.Flags[0].Z >= 0 || report.Flags[0].Level != LevelAnomalous {
		t.Errorf("expected an anomalous negative deviation, got %+v", report.Flags[0])
	}
}
