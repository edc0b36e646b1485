// ABOUTME: Unit tests for mirror key construction.
// ABOUTME: Tests user-scoped, timestamp-ordered key layout.
package charm

import (
	"strings"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

func TestObservationKeyFormat(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	o := models.NewObservation("ada", models.ObsHeartRate, 72).WithRecordedAt(ts)

	key := observationKey(o)
	if !strings.HasPrefix(key, "obs:ada:2026-03-02T09:00:00Z:") {
		t.Errorf("unexpected key layout: %s", key)
	}
	if !strings.HasSuffix(key, o.ID.String()) {
		t.Errorf("expected key to end with the observation id: %s", key)
	}
}

func TestObservationKeysSortByTimestamp(t *testing.T) {
	early := models.NewObservation("ada", models.ObsHeartRate, 70).
		WithRecordedAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	late := models.NewObservation("ada", models.ObsHeartRate, 71).
		WithRecordedAt(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	if observationKey(early) >= observationKey(late) {
		t.Error("expected lexicographic key order to match recording order")
	}
}

func TestMirrorPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{"Observation", ObservationPrefix, "obs:"},
		{"Workout", WorkoutPrefix, "workout:"},
		{"Calendar", CalendarPrefix, "cal:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prefix != tt.expected {
				t.Errorf("Expected %s = %q, got %q", tt.name, tt.expected, tt.prefix)
			}
		})
	}
}
