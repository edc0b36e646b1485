// ABOUTME: Tests for Repository implementations over SQLite.
// ABOUTME: Verifies upsert keys, cascade delete, and idempotent inserts.
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "pulse.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return db
}

func mustUser(t *testing.T, db *DB, id string) {
	t.Helper()
	if err := db.EnsureUser(id); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
}

func TestCreateAndListObservations(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	o1 := models.NewObservation("ada", models.ObsHeartRate, 72).
		WithRecordedAt(base).WithSource("Apple Watch")
	o2 := models.NewObservation("ada", models.ObsHRV, 48).
		WithRecordedAt(base.Add(time.Minute)).
		WithMetadata(map[string]any{"v": 1})

	for _, o := range []*models.Observation{o1, o2} {
		if err := db.CreateObservation(o); err != nil {
			t.Fatalf("CreateObservation failed: %v", err)
		}
	}

	got, err := db.ListObservations("ada", 10)
	if err != nil {
		t.Fatalf("ListObservations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d observations, want 2", len(got))
	}
	// Newest first
	if got[0].Type != models.ObsHRV {
		t.Errorf("first observation type = %s, want hrv", got[0].Type)
	}
	if got[0].Metadata["v"] == nil {
		t.Error("metadata round trip lost 'v'")
	}
	if got[1].Source != "Apple Watch" {
		t.Errorf("source = %q, want Apple Watch", got[1].Source)
	}
}

func TestObservationsBetweenFiltersTypeAndRange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, v := range []float64{60, 62, 64} {
		o := models.NewObservation("ada", models.ObsHeartRate, v).
			WithRecordedAt(base.Add(time.Duration(i) * time.Hour))
		if err := db.CreateObservation(o); err != nil {
			t.Fatalf("CreateObservation failed: %v", err)
		}
	}
	steps := models.NewObservation("ada", models.ObsSteps, 500).WithRecordedAt(base.Add(time.Hour))
	if err := db.CreateObservation(steps); err != nil {
		t.Fatalf("CreateObservation failed: %v", err)
	}

	got, err := db.ObservationsBetween("ada", base, base.Add(2*time.Hour),
		[]models.ObservationType{models.ObsHeartRate})
	if err != nil {
		t.Fatalf("ObservationsBetween failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d observations, want 2", len(got))
	}
	// Ascending order
	if !got[0].RecordedAt.Before(got[1].RecordedAt) {
		t.Error("expected ascending recorded_at order")
	}
}

func TestDailySummaryUpsertKeyedByUserDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := models.NewDailySummary("ada", day)
	s.Apply(models.NewObservation("ada", models.ObsHeartRate, 70).WithRecordedAt(day))

	if err := db.UpsertDailySummary(s); err != nil {
		t.Fatalf("UpsertDailySummary failed: %v", err)
	}

	s.Apply(models.NewObservation("ada", models.ObsHeartRate, 80).WithRecordedAt(day.Add(time.Hour)))
	if err := db.UpsertDailySummary(s); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := db.GetDailySummary("ada", "2026-03-02")
	if err != nil {
		t.Fatalf("GetDailySummary failed: %v", err)
	}
	if got == nil {
		t.Fatal("summary not found")
	}
	if got.HRCount != 2 {
		t.Errorf("HRCount = %d, want 2 (upsert should replace, not insert)", got.HRCount)
	}
	if got.MinHR != 70 || got.MaxHR != 80 {
		t.Errorf("min/max = %v/%v, want 70/80", got.MinHR, got.MaxHR)
	}
}

func TestHRBaselineUpsertKey(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	b := &models.HRBaseline{
		UserID: "ada", HourOfDay: 9, DayOfWeek: 0,
		Mean: 62, Stddev: 4, SampleCount: 10, LastUpdated: time.Now().UTC(),
	}
	if err := db.UpsertHRBaseline(b); err != nil {
		t.Fatalf("UpsertHRBaseline failed: %v", err)
	}

	b.Mean = 64
	b.SampleCount = 11
	if err := db.UpsertHRBaseline(b); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := db.GetHRBaseline("ada", 9, 0)
	if err != nil {
		t.Fatalf("GetHRBaseline failed: %v", err)
	}
	if got.Mean != 64 || got.SampleCount != 11 {
		t.Errorf("baseline = %+v, want mean 64 count 11", got)
	}

	missing, err := db.GetHRBaseline("ada", 10, 0)
	if err != nil {
		t.Fatalf("GetHRBaseline for empty bucket failed: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for never-written bucket")
	}
}

func TestHRBaselineListAndDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	now := time.Now().UTC()
	for _, b := range []*models.HRBaseline{
		{UserID: "ada", HourOfDay: 9, DayOfWeek: 0, Mean: 62, Stddev: 4, SampleCount: 10, LastUpdated: now},
		{UserID: "ada", HourOfDay: 14, DayOfWeek: 2, Mean: 78, Stddev: 6, SampleCount: 8, LastUpdated: now},
	} {
		if err := db.UpsertHRBaseline(b); err != nil {
			t.Fatalf("UpsertHRBaseline failed: %v", err)
		}
	}

	rows, err := db.ListHRBaselines("ada")
	if err != nil {
		t.Fatalf("ListHRBaselines failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 baselines, got %d", len(rows))
	}

	if err := db.DeleteHRBaseline("ada", 9, 0); err != nil {
		t.Fatalf("DeleteHRBaseline failed: %v", err)
	}
	rows, err = db.ListHRBaselines("ada")
	if err != nil {
		t.Fatalf("ListHRBaselines failed: %v", err)
	}
	if len(rows) != 1 || rows[0].HourOfDay != 14 {
		t.Errorf("expected only the untouched bucket to remain, got %+v", rows)
	}
}

func TestHabitEventIdempotentInsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	e := &models.HabitEvent{
		UserID:      "ada",
		HabitName:   "gym",
		EventID:     "workout-abc",
		OccurredAt:  time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		PeriodStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	inserted, err := db.InsertHabitEvent(e)
	if err != nil {
		t.Fatalf("InsertHabitEvent failed: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should report inserted=true")
	}

	inserted, err = db.InsertHabitEvent(e)
	if err != nil {
		t.Fatalf("replay InsertHabitEvent failed: %v", err)
	}
	if inserted {
		t.Error("replay should report inserted=false")
	}

	count, err := db.CountHabitEvents("ada", "gym", e.PeriodStart)
	if err != nil {
		t.Fatalf("CountHabitEvents failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestActiveSuggestionsExcludeExpiredAndSuperseded(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	now := time.Now().UTC()
	live := models.NewSuggestion("ada", models.SuggBreakRec, 0.8, now, time.Hour)
	expired := models.NewSuggestion("ada", models.SuggGymPred, 0.7, now.Add(-2*time.Hour), time.Hour)
	replaced := models.NewSuggestion("ada", models.SuggRecoveryRec, 0.6, now, time.Hour)

	for _, s := range []*models.Suggestion{live, expired, replaced} {
		if err := db.CreateSuggestion(s); err != nil {
			t.Fatalf("CreateSuggestion failed: %v", err)
		}
	}
	if err := db.SupersedeSuggestion(replaced.ID); err != nil {
		t.Fatalf("SupersedeSuggestion failed: %v", err)
	}

	active, err := db.ActiveSuggestions("ada", now)
	if err != nil {
		t.Fatalf("ActiveSuggestions failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != live.ID {
		t.Fatalf("active = %d rows, want only the live one", len(active))
	}

	// Expired rows remain in the audit trail.
	all, err := db.ListSuggestions("ada", 0)
	if err != nil {
		t.Fatalf("ListSuggestions failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("audit trail has %d rows, want 3", len(all))
	}
}

func TestGetSuggestionByPrefix(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	s := models.NewSuggestion("ada", models.SuggBreakRec, 0.5, time.Now().UTC(), time.Hour)
	if err := db.CreateSuggestion(s); err != nil {
		t.Fatalf("CreateSuggestion failed: %v", err)
	}

	got, err := db.GetSuggestion(s.ID.String()[:8])
	if err != nil {
		t.Fatalf("GetSuggestion by prefix failed: %v", err)
	}
	if got.ID != s.ID {
		t.Errorf("ID mismatch: got %v, want %v", got.ID, s.ID)
	}
}

func TestConfidenceWeightRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	none, err := db.GetConfidenceWeight("ada", models.SuggBreakRec)
	if err != nil {
		t.Fatalf("GetConfidenceWeight failed: %v", err)
	}
	if none != nil {
		t.Fatal("expected nil weight before any feedback")
	}

	w := &models.ConfidenceWeight{
		UserID: "ada", Type: models.SuggBreakRec, Weight: 0.6, UpdatedAt: time.Now().UTC(),
	}
	if err := db.UpsertConfidenceWeight(w); err != nil {
		t.Fatalf("UpsertConfidenceWeight failed: %v", err)
	}

	got, err := db.GetConfidenceWeight("ada", models.SuggBreakRec)
	if err != nil {
		t.Fatalf("GetConfidenceWeight failed: %v", err)
	}
	if got == nil || got.Weight != 0.6 {
		t.Errorf("weight = %+v, want 0.6", got)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	o := models.NewObservation("ada", models.ObsHeartRate, 70)
	if err := db.CreateObservation(o); err != nil {
		t.Fatalf("CreateObservation failed: %v", err)
	}
	s := models.NewSuggestion("ada", models.SuggBreakRec, 0.5, time.Now().UTC(), time.Hour)
	if err := db.CreateSuggestion(s); err != nil {
		t.Fatalf("CreateSuggestion failed: %v", err)
	}

	if err := db.DeleteUser("ada"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	obs, err := db.ListObservations("ada", 0)
	if err != nil {
		t.Fatalf("ListObservations failed: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("observations survived cascade delete: %d", len(obs))
	}
	suggs, err := db.ListSuggestions("ada", 0)
	if err != nil {
		t.Fatalf("ListSuggestions failed: %v", err)
	}
	if len(suggs) != 0 {
		t.Errorf("suggestions survived cascade delete: %d", len(suggs))
	}
}

func TestActivityPatternIncrement(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	for i := 0; i < 3; i++ {
		if err := db.IncrementActivityPattern("ada", 0, 9, models.MotionWalking); err != nil {
			t.Fatalf("IncrementActivityPattern failed: %v", err)
		}
	}
	if err := db.IncrementActivityPattern("ada", 0, 9, models.MotionSedentary); err != nil {
		t.Fatalf("IncrementActivityPattern failed: %v", err)
	}

	patterns, err := db.ListActivityPatterns("ada")
	if err != nil {
		t.Fatalf("ListActivityPatterns failed: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("got %d pattern rows, want 2", len(patterns))
	}
	for _, p := range patterns {
		switch p.MotionType {
		case models.MotionWalking:
			if p.FrequencyCount != 3 {
				t.Errorf("walking count = %d, want 3", p.FrequencyCount)
			}
		case models.MotionSedentary:
			if p.FrequencyCount != 1 {
				t.Errorf("sedentary count = %d, want 1", p.FrequencyCount)
			}
		}
	}
}

func TestHabitTrackingRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	mustUser(t, db, "ada")

	tr := models.NewHabitTracking("ada", "gym")
	tr.State = models.HabitOnTrack
	tr.RollingCount = 2
	tr.StreakDays = 7
	tr.LongestStreakDays = 14
	tr.PeriodStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if err := db.UpsertHabitTracking(tr); err != nil {
		t.Fatalf("UpsertHabitTracking failed: %v", err)
	}

	got, err := db.GetHabitTracking("ada", "gym")
	if err != nil {
		t.Fatalf("GetHabitTracking failed: %v", err)
	}
	if got == nil {
		t.Fatal("tracking not found")
	}
	if got.State != models.HabitOnTrack || got.StreakDays != 7 || got.LongestStreakDays != 14 {
		t.Errorf("tracking round trip mismatch: %+v", got)
	}
	if !got.PeriodStart.Equal(tr.PeriodStart) {
		t.Errorf("PeriodStart = %v, want %v", got.PeriodStart, tr.PeriodStart)
	}
	if !got.LastEvaluated.IsZero() {
		t.Errorf("LastEvaluated should stay zero, got %v", got.LastEvaluated)
	}
}
