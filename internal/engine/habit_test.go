// ABOUTME: Tests for the habit streak state machine.
// ABOUTME: Covers streak accrual, at-risk, breakage, and replay handling.
package engine

import (
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

func weeklyWorkoutHabit(t *testing.T, e *Engine, user string) *models.HabitDefinition {
	t.Helper()
	def := &models.HabitDefinition{
		UserID:      user,
		Name:        "train",
		Kind:        models.HabitWorkout,
		Qualifier:   "any",
		TargetCount: 3,
		Period:      models.PeriodWeekly,
	}
	if err := e.repo.EnsureUser(user); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if err := e.repo.UpsertHabitDefinition(def); err != nil {
		t.Fatalf("UpsertHabitDefinition failed: %v", err)
	}
	return def
}

func TestWeeklyStreakAccrual(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	for i, day := range []time.Time{monday, monday.AddDate(0, 0, 2), monday.AddDate(0, 0, 4)} {
		if err := e.RecordHabitEvent("ada", def, models.NewWorkout("ada", "gym").ID.String(), day); err != nil {
			t.Fatalf("RecordHabitEvent %d failed: %v", i, err)
		}
	}

	tr, err := e.repo.GetHabitTracking("ada", "train")
	if err != nil {
		t.Fatalf("GetHabitTracking failed: %v", err)
	}
	if tr.State != models.HabitOnTrack {
		t.Errorf("expected on_track mid-week, got %s", tr.State)
	}
	if tr.RollingCount != 3 {
		t.Errorf("expected rolling count 3, got %d", tr.RollingCount)
	}
	if tr.LastReinforcedAt.IsZero() {
		t.Error("expected reinforcement timestamp when the target was hit")
	}

	// Boundary evaluation on the following Monday closes the met week.
	nextMonday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tr, err = e.EvaluateHabit("ada", def, nextMonday)
	if err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}
	if tr.State != models.HabitOnTrack {
		t.Errorf("met period should stay on_track, got %s", tr.State)
	}
	if tr.StreakDays != 7 {
		t.Errorf("expected 7 streak days after a met week, got %d", tr.StreakDays)
	}
	if tr.RollingCount != 0 {
		t.Errorf("expected counter reset at boundary, got %d", tr.RollingCount)
	}
}

func TestBoundaryEvaluationIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	for _, day := range []time.Time{monday, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 2)} {
		if err := e.RecordHabitEvent("ada", def, models.NewWorkout("ada", "gym").ID.String(), day); err != nil {
			t.Fatalf("RecordHabitEvent failed: %v", err)
		}
	}

	nextMonday := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	first, err := e.EvaluateHabit("ada", def, nextMonday)
	if err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}
	second, err := e.EvaluateHabit("ada", def, nextMonday)
	if err != nil {
		t.Fatalf("second EvaluateHabit failed: %v", err)
	}
	if first.StreakDays != second.StreakDays || first.State != second.State || first.RollingCount != second.RollingCount {
		t.Errorf("re-evaluation changed state: %+v vs %+v", first, second)
	}
}

func TestAtRiskAndRecovery(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	if err := e.RecordHabitEvent("ada", def, "w1", monday); err != nil {
		t.Fatalf("RecordHabitEvent failed: %v", err)
	}

	// Saturday noon: >70% of the week elapsed with 1 of 3 done.
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	tr, err := e.EvaluateHabit("ada", def, saturday)
	if err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}
	if tr.State != models.HabitAtRisk {
		t.Fatalf("expected at_risk near the boundary, got %s", tr.State)
	}

	// Hitting the target flips back to on_track.
	if err := e.RecordHabitEvent("ada", def, "w2", saturday.Add(time.Hour)); err != nil {
		t.Fatalf("RecordHabitEvent failed: %v", err)
	}
	if err := e.RecordHabitEvent("ada", def, "w3", saturday.Add(2*time.Hour)); err != nil {
		t.Fatalf("RecordHabitEvent failed: %v", err)
	}
	tr, _ = e.repo.GetHabitTracking("ada", "train")
	if tr.State != models.HabitOnTrack {
		t.Errorf("expected recovery to on_track, got %s", tr.State)
	}
}

func TestMissedPeriodBreaksStreak(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	if err := e.RecordHabitEvent("ada", def, "w1", monday); err != nil {
		t.Fatalf("RecordHabitEvent failed: %v", err)
	}

	nextMonday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tr, err := e.EvaluateHabit("ada", def, nextMonday)
	if err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}
	if tr.State != models.HabitBroken {
		t.Errorf("expected broken after a short week, got %s", tr.State)
	}
	if tr.StreakDays != 0 {
		t.Errorf("expected streak reset, got %d", tr.StreakDays)
	}

	// Next qualifying event restarts the streak at day one.
	if err := e.RecordHabitEvent("ada", def, "w2", nextMonday.Add(10*time.Hour)); err != nil {
		t.Fatalf("RecordHabitEvent failed: %v", err)
	}
	tr, _ = e.repo.GetHabitTracking("ada", "train")
	if tr.State != models.HabitOnTrack || tr.StreakDays != 1 {
		t.Errorf("expected restart at streak 1, got state=%s streak=%d", tr.State, tr.StreakDays)
	}
}

func TestBrokenWeekKeepsLongestStreak(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	for i, day := range []time.Time{monday, monday.AddDate(0, 0, 2), monday.AddDate(0, 0, 4)} {
		if err := e.RecordHabitEvent("ada", def, models.NewWorkout("ada", "gym").ID.String(), day); err != nil {
			t.Fatalf("RecordHabitEvent %d failed: %v", i, err)
		}
	}

	// Closing the met week banks seven streak days.
	week2 := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tr, err := e.EvaluateHabit("ada", def, week2)
	if err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}
	if tr.State != models.HabitOnTrack || tr.StreakDays != 7 {
		t.Fatalf("expected on_track with 7 streak days, got state=%s streak=%d", tr.State, tr.StreakDays)
	}
	if tr.LongestStreakDays != 7 {
		t.Errorf("expected longest streak 7 after the met week, got %d", tr.LongestStreakDays)
	}

	// An empty second week breaks the streak but the high-water mark
	// survives.
	week3 := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	tr, err = e.EvaluateHabit("ada", def, week3)
	if err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}
	if tr.State != models.HabitBroken {
		t.Errorf("expected broken after an empty week, got %s", tr.State)
	}
	if tr.StreakDays != 0 {
		t.Errorf("expected current streak reset, got %d", tr.StreakDays)
	}
	if tr.LongestStreakDays != 7 {
		t.Errorf("break must not erase the longest streak, got %d", tr.LongestStreakDays)
	}
}

func TestHabitEventReplayIsNoOp(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := e.RecordHabitEvent("ada", def, "same-event", monday); err != nil {
			t.Fatalf("RecordHabitEvent failed: %v", err)
		}
	}
	tr, _ := e.repo.GetHabitTracking("ada", "train")
	if tr.RollingCount != 1 {
		t.Errorf("replayed event identity should count once, got %d", tr.RollingCount)
	}
}

func TestStaleEventForFinalizedPeriod(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	if err := e.RecordHabitEvent("ada", def, "w1", monday); err != nil {
		t.Fatalf("RecordHabitEvent failed: %v", err)
	}
	if _, err := e.EvaluateHabit("ada", def, monday.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("EvaluateHabit failed: %v", err)
	}

	err := e.RecordHabitEvent("ada", def, "late", monday.AddDate(0, 0, 1))
	if !IsStaleReplay(err) {
		t.Fatalf("expected StaleReplayError for finalized period, got %v", err)
	}
	tr, _ := e.repo.GetHabitTracking("ada", "train")
	if tr.RollingCount != 0 {
		t.Errorf("stale event must not mutate tracking, got count %d", tr.RollingCount)
	}
}

func TestOutOfOrderBatchIsDeterministic(t *testing.T) {
	e, _ := newTestEngine(t)
	def := weeklyWorkoutHabit(t, e, "ada")

	monday := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	events := []pendingHabitEvent{
		{def: def, eventID: "w3", at: monday.AddDate(0, 0, 4)},
		{def: def, eventID: "w1", at: monday},
		{def: def, eventID: "w2", at: monday.AddDate(0, 0, 2)},
	}
	if err := e.applyHabitEvents("ada", events); err != nil {
		t.Fatalf("applyHabitEvents failed: %v", err)
	}

	tr, _ := e.repo.GetHabitTracking("ada", "train")
	if tr.RollingCount != 3 {
		t.Errorf("expected 3 counted events, got %d", tr.RollingCount)
	}
	if tr.StreakDays != 5 {
		t.Errorf("expected streak across Mon..Fri = 5 days, got %d", tr.StreakDays)
	}
}

func TestObservationHabitQualifier(t *testing.T) {
	def := &models.HabitDefinition{
		Kind:      models.HabitObservation,
		Qualifier: string(models.ObsSleepHours),
		MinValue:  7,
	}

	good := models.NewObservation("ada", models.ObsSleepHours, 7.5)
	if !qualifiesObservation(def, good) {
		t.Error("expected 7.5h sleep to qualify")
	}
	short := models.NewObservation("ada", models.ObsSleepHours, 5)
	if qualifiesObservation(def, short) {
		t.Error("expected 5h sleep below the floor to not qualify")
	}
	wrong := models.NewObservation("ada", models.ObsSteps, 8000)
	if qualifiesObservation(def, wrong) {
		t.Error("expected other observation types to not qualify")
	}
}
