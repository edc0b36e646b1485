// ABOUTME: Tests for pulse configuration management.
// ABOUTME: Covers defaults, threshold lookup, path expansion, habit files.
package config

import (
	"os"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if got := cfg.GetMaxBatchSize(); got != 5000 {
		t.Errorf("GetMaxBatchSize() = %d, want 5000", got)
	}
	if got := cfg.GetMaxTimelineLimit(); got != 1000 {
		t.Errorf("GetMaxTimelineLimit() = %d, want 1000", got)
	}
	if got := cfg.GetBaselineWindow(); got != 30*24*time.Hour {
		t.Errorf("GetBaselineWindow() = %v, want 720h", got)
	}
	if got := cfg.GetMinBaselineSamples(); got != 5 {
		t.Errorf("GetMinBaselineSamples() = %d, want 5", got)
	}
	if got := cfg.GetAtRiskElapsed(); got != 0.7 {
		t.Errorf("GetAtRiskElapsed() = %v, want 0.7", got)
	}
	if got := cfg.GetFeedbackLearningRate(); got != 0.2 {
		t.Errorf("GetFeedbackLearningRate() = %v, want 0.2", got)
	}
	if got := cfg.GetSuggestionTTL(); got != 24*time.Hour {
		t.Errorf("GetSuggestionTTL() = %v, want 24h", got)
	}
}

func TestThresholdsForDefaults(t *testing.T) {
	cfg := &Config{}

	hr := cfg.ThresholdsFor(models.ObsHeartRate)
	if hr.Normal != 1.5 || hr.Alert != 3.0 {
		t.Errorf("HR thresholds = %+v, want {1.5 3}", hr)
	}

	hrv := cfg.ThresholdsFor(models.ObsHRV)
	if hrv.Alert != 2.0 {
		t.Errorf("HRV alert threshold = %v, want 2.0", hrv.Alert)
	}
}

func TestThresholdsForOverride(t *testing.T) {
	cfg := &Config{
		Thresholds: map[string]Thresholds{
			"heart_rate": {Normal: 2.0, Alert: 4.0},
		},
	}

	got := cfg.ThresholdsFor(models.ObsHeartRate)
	if got.Normal != 2.0 || got.Alert != 4.0 {
		t.Errorf("overridden thresholds = %+v, want {2 4}", got)
	}
}

func TestSanityRangeFor(t *testing.T) {
	cfg := &Config{}

	r, ok := cfg.SanityRangeFor(models.ObsHeartRate)
	if !ok {
		t.Fatal("expected a default HR sanity range")
	}
	if r.Min != 20 || r.Max != 250 {
		t.Errorf("HR range = %+v, want {20 250}", r)
	}

	if _, ok := cfg.SanityRangeFor(models.ObservationType("nonsense")); ok {
		t.Error("unknown type should have no range")
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := ExpandPath("~"); got != home {
		t.Errorf("ExpandPath(~) = %q, want %q", got, home)
	}
	if got := ExpandPath("/tmp/pulse"); got != "/tmp/pulse" {
		t.Errorf("ExpandPath(/tmp/pulse) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q, want empty", got)
	}
}

func TestParseHabits(t *testing.T) {
	data := []byte(`
habits:
  - name: gym
    kind: workout
    qualifier: gym
    target: 3
    period: weekly
  - name: sleep
    kind: observation
    qualifier: sleep_hours
    min_value: 7
    target: 1
    period: daily
`)

	habits, err := ParseHabits(data)
	if err != nil {
		t.Fatalf("ParseHabits failed: %v", err)
	}
	if len(habits) != 2 {
		t.Fatalf("got %d habits, want 2", len(habits))
	}
	if habits[0].Name != "gym" || habits[0].Period != models.PeriodWeekly || habits[0].TargetCount != 3 {
		t.Errorf("gym habit parsed wrong: %+v", habits[0])
	}
	if habits[1].Kind != models.HabitObservation || habits[1].MinValue != 7 {
		t.Errorf("sleep habit parsed wrong: %+v", habits[1])
	}
}

func TestParseHabitsRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing target", "habits:\n  - name: x\n    kind: workout\n    qualifier: run\n    period: weekly\n"},
		{"bad period", "habits:\n  - name: x\n    kind: workout\n    qualifier: run\n    target: 2\n    period: fortnightly\n"},
		{"bad kind", "habits:\n  - name: x\n    kind: wish\n    qualifier: run\n    target: 2\n    period: weekly\n"},
		{"duplicate", "habits:\n  - name: x\n    kind: workout\n    qualifier: run\n    target: 2\n    period: weekly\n  - name: x\n    kind: workout\n    qualifier: run\n    target: 2\n    period: weekly\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseHabits([]byte(tc.data)); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadHabitsMissingFile(t *testing.T) {
	habits, err := LoadHabits("/nonexistent/habits.yaml")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if habits != nil {
		t.Errorf("expected nil habits, got %v", habits)
	}
}
