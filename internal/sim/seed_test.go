// ABOUTME: Tests for the seed simulator day shape.
// ABOUTME: Same seed must reproduce the same generated data.
package sim

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/pulse/internal/config"
	"github.com/harperreed/pulse/internal/engine"
	"github.com/harperreed/pulse/internal/storage"
)

func newTestSeeder(t *testing.T, seed int64) (*Seeder, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "pulse.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := engine.New(db, &config.Config{})
	e.SetLogger(log.New(io.Discard))
	return New(e, seed), db
}

func TestSeedDayShape(t *testing.T) {
	s, db := newTestSeeder(t, 42)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	report, err := s.SeedDay(context.Background(), "ada", date)
	if err != nil {
		t.Fatalf("SeedDay failed: %v", err)
	}
	if len(report.Rejected) != 0 {
		t.Errorf("simulated data should pass sanity checks, got %d rejections", len(report.Rejected))
	}

	summary, err := db.GetDailySummary("ada", "2026-03-02")
	if err != nil || summary == nil {
		t.Fatalf("expected a summary, err=%v", err)
	}
	if !summary.HasHR() {
		t.Fatal("expected heart-rate samples")
	}
	// Waking hours at 5 minute intervals.
	if summary.HRCount != 16*12 {
		t.Errorf("expected %d HR samples, got %d", 16*12, summary.HRCount)
	}
	if summary.WorkoutMinutes != 60 {
		t.Errorf("expected the gym hour folded in, got %d minutes", summary.WorkoutMinutes)
	}
	if summary.SleepHours < 6.5 || summary.SleepHours > 8.5 {
		t.Errorf("sleep outside the simulated band: %v", summary.SleepHours)
	}

	events, err := db.CalendarEventsOn("ada", date)
	if err != nil {
		t.Fatalf("CalendarEventsOn failed: %v", err)
	}
	if len(events) == 0 {
		t.Error("expected seeded meetings")
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	s1, db1 := newTestSeeder(t, 7)
	s2, db2 := newTestSeeder(t, 7)
	if _, err := s1.SeedDay(context.Background(), "ada", date); err != nil {
		t.Fatalf("SeedDay failed: %v", err)
	}
	if _, err := s2.SeedDay(context.Background(), "ada", date); err != nil {
		t.Fatalf("SeedDay failed: %v", err)
	}

	a, _ := db1.GetDailySummary("ada", "2026-03-02")
	b, _ := db2.GetDailySummary("ada", "2026-03-02")
	if a.HRSum != b.HRSum || a.Steps != b.Steps || a.SleepHours != b.SleepHours {
		t.Errorf("same seed produced different data: %+v vs %+v", a, b)
	}
}

func TestSeedDaysRollsUp(t *testing.T) {
	s, db := newTestSeeder(t, 42)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if err := s.SeedDays(context.Background(), "ada", end, 7); err != nil {
		t.Fatalf("SeedDays failed: %v", err)
	}

	summary, err := db.GetDailySummary("ada", "2026-03-10")
	if err != nil || summary == nil {
		t.Fatalf("expected final-day summary, err=%v", err)
	}
	if summary.RestingHR == nil {
		t.Error("expected resting HR from rollup")
	}
	sig, err := db.GetCorrelationSignal("ada", "2026-03-10")
	if err != nil {
		t.Fatalf("GetCorrelationSignal failed: %v", err)
	}
	if sig == nil {
		t.Error("expected a correlation signal after a week of data")
	}
}
