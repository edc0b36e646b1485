// ABOUTME: Tests for daily calendar-physiology correlation.
// ABOUTME: Covers the stress delta, trailing strength, and the day floor.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// seedCorrelationDays writes n trailing days of summaries and meeting
// load ending at `end`, with meeting minutes and average HR rising
// together.
func seedCorrelationDays(t *testing.T, e *Engine, user string, end time.Time, n int) {
	t.Helper()
	if err := e.repo.EnsureUser(user); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	for i := 0; i < n; i++ {
		day := end.AddDate(0, 0, -(n - 1 - i))
		s := models.NewDailySummary(user, day)
		s.HRSum = (60 + float64(i)*2) * 10
		s.HRCount = 10
		s.MinHR = 55
		s.MaxHR = 90
		if err := e.repo.UpsertDailySummary(s); err != nil {
			t.Fatalf("UpsertDailySummary failed: %v", err)
		}

		ev := models.NewCalendarEvent(user, fmt.Sprintf("sync %d", i), "meeting",
			day.Add(10*time.Hour), day.Add(10*time.Hour).Add(time.Duration(30*i)*time.Minute))
		if i > 0 {
			if err := e.repo.CreateCalendarEvent(ev); err != nil {
				t.Fatalf("CreateCalendarEvent failed: %v", err)
			}
		}
	}
}

func TestComputeCorrelationStressDelta(t *testing.T) {
	e, db := newTestEngine(t)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedCorrelationDays(t, e, "ada", date, 7)

	// Heart-rate samples inside the day's meeting window run hot.
	meetingStart := date.Add(10 * time.Hour)
	for i, bpm := range []float64{100, 110} {
		o := hrObs("ada", meetingStart.Add(time.Duration(i)*time.Minute), bpm)
		if err := db.CreateObservation(o); err != nil {
			t.Fatalf("CreateObservation failed: %v", err)
		}
	}

	sig, err := e.ComputeCorrelation(context.Background(), "ada", date)
	if err != nil {
		t.Fatalf("ComputeCorrelation failed: %v", err)
	}
	if sig.MeetingCount != 1 {
		t.Errorf("expected 1 meeting, got %d", sig.MeetingCount)
	}
	if sig.AvgHRDuringMeetings != 105 {
		t.Errorf("expected avg 105 during meetings, got %v", sig.AvgHRDuringMeetings)
	}
	wantDelta := 105 - sig.BaselineHR
	if math.Abs(sig.StressScoreDelta-wantDelta) > 1e-9 {
		t.Errorf("expected delta %v, got %v", wantDelta, sig.StressScoreDelta)
	}
	if sig.CorrelationStrength <= 0 || sig.CorrelationStrength > 1 {
		t.Errorf("expected positive bounded strength, got %v", sig.CorrelationStrength)
	}

	stored, err := db.GetCorrelationSignal("ada", date.Format(models.DateFormat))
	if err != nil || stored == nil {
		t.Fatalf("expected persisted signal, err=%v", err)
	}
}

func TestComputeCorrelationIsDeterministic(t *testing.T) {
	e, _ := newTestEngine(t)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedCorrelationDays(t, e, "ada", date, 7)

	first, err := e.ComputeCorrelation(context.Background(), "ada", date)
	if err != nil {
		t.Fatalf("ComputeCorrelation failed: %v", err)
	}
	second, err := e.ComputeCorrelation(context.Background(), "ada", date)
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if first.StressScoreDelta != second.StressScoreDelta ||
		first.CorrelationStrength != second.CorrelationStrength ||
		first.SampleDays != second.SampleDays {
		t.Errorf("recompute diverged: %+v vs %+v", first, second)
	}
}

func TestComputeCorrelationInconclusive(t *testing.T) {
	e, db := newTestEngine(t)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedCorrelationDays(t, e, "ada", date, 3)

	_, err := e.ComputeCorrelation(context.Background(), "ada", date)
	if !errors.Is(err, ErrInconclusive) {
		t.Fatalf("expected ErrInconclusive below the day floor, got %v", err)
	}
	stored, err := db.GetCorrelationSignal("ada", date.Format(models.DateFormat))
	if err != nil {
		t.Fatalf("GetCorrelationSignal failed: %v", err)
	}
	if stored != nil {
		t.Error("inconclusive computation must not persist a signal")
	}
}

func TestComputeCorrelationHonorsDeadline(t *testing.T) {
	e, db := newTestEngine(t)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedCorrelationDays(t, e, "ada", date, 7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.ComputeCorrelation(ctx, "ada", date); err == nil {
		t.Fatal("expected cancellation error")
	}
	stored, _ := db.GetCorrelationSignal("ada", date.Format(models.DateFormat))
	if stored != nil {
		t.Error("cancelled computation must not persist a partial signal")
	}
}
