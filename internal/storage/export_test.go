// ABOUTME: Round-trip tests for the raw-data export and import path.
// ABOUTME: Everything exported must arrive intact in a fresh database.
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := setupTestDB(t)
	defer src.Close()
	mustUser(t, src, "ada")

	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	obs := models.NewObservation("ada", models.ObsHeartRate, 72).
		WithRecordedAt(ts).WithSource("Apple Watch")
	if err := src.CreateObservation(obs); err != nil {
		t.Fatalf("CreateObservation failed: %v", err)
	}

	cluster := models.NewLocationCluster("ada", "gym", 41.88, -87.63)
	cluster.VisitCount = 5
	if err := src.UpsertLocationCluster(cluster); err != nil {
		t.Fatalf("UpsertLocationCluster failed: %v", err)
	}

	ev := models.NewCalendarEvent("ada", "Standup", "meeting", ts, ts.Add(30*time.Minute))
	if err := src.CreateCalendarEvent(ev); err != nil {
		t.Fatalf("CreateCalendarEvent failed: %v", err)
	}

	data, err := src.ExportUser("ada")
	if err != nil {
		t.Fatalf("ExportUser failed: %v", err)
	}
	if len(data.Observations) != 1 || len(data.Locations) != 1 || len(data.CalendarEvents) != 1 {
		t.Fatalf("export missed rows: %d obs, %d locations, %d events",
			len(data.Observations), len(data.Locations), len(data.CalendarEvents))
	}

	dst, err := Open(filepath.Join(t.TempDir(), "restore.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dst.Close()

	if err := dst.ImportUser(data); err != nil {
		t.Fatalf("ImportUser failed: %v", err)
	}

	clusters, err := dst.ListLocationClusters("ada")
	if err != nil {
		t.Fatalf("ListLocationClusters failed: %v", err)
	}
	if len(clusters) != 1 || clusters[0].ID != cluster.ID || clusters[0].VisitCount != 5 {
		t.Errorf("location cluster did not survive the round trip: %+v", clusters)
	}

	events, err := dst.ListCalendarEvents("ada", 0)
	if err != nil {
		t.Fatalf("ListCalendarEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != ev.ID {
		t.Errorf("calendar event did not survive the round trip: %+v", events)
	}

	restored, err := dst.ListObservations("ada", 0)
	if err != nil {
		t.Fatalf("ListObservations failed: %v", err)
	}
	if len(restored) != 1 || restored[0].ID != obs.ID {
		t.Errorf("observation did not survive the round trip: %+v", restored)
	}
}
