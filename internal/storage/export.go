// ABOUTME: JSON export of raw signal data for backup and migration.
// ABOUTME: Derived state is excluded; it is recomputable from raw rows.
package storage

import (
	"fmt"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// ExportData bundles all raw entities for one user. Derived state
// (summaries, baselines, suggestions) is intentionally omitted: the
// engine rebuilds it from raw rows.
type ExportData struct {
	ExportedAt     time.Time                 `json:"exported_at"`
	User           *models.User              `json:"user"`
	DeviceSources  []*models.DeviceSource    `json:"device_sources,omitempty"`
	Observations   []*models.Observation     `json:"observations,omitempty"`
	Workouts       []*models.Workout         `json:"workouts,omitempty"`
	CalendarEvents []*models.CalendarEvent   `json:"calendar_events,omitempty"`
	Locations      []*models.LocationCluster `json:"locations,omitempty"`
	Habits         []*models.HabitDefinition `json:"habits,omitempty"`
}

// ExportUser collects all raw data for one user.
func (d *DB) ExportUser(userID string) (*ExportData, error) {
	user, err := d.GetUser(userID)
	if err != nil {
		return nil, err
	}

	sources, err := d.ListDeviceSources(userID)
	if err != nil {
		return nil, err
	}
	observations, err := d.ListObservations(userID, 0)
	if err != nil {
		return nil, err
	}
	workouts, err := d.ListWorkouts(userID, 0)
	if err != nil {
		return nil, err
	}
	events, err := d.ListCalendarEvents(userID, 0)
	if err != nil {
		return nil, err
	}
	locations, err := d.ListLocationClusters(userID)
	if err != nil {
		return nil, err
	}
	habits, err := d.ListHabitDefinitions(userID)
	if err != nil {
		return nil, err
	}

	return &ExportData{
		ExportedAt:     time.Now().UTC(),
		User:           user,
		DeviceSources:  sources,
		Observations:   observations,
		Workouts:       workouts,
		CalendarEvents: events,
		Locations:      locations,
		Habits:         habits,
	}, nil
}

// ImportUser loads previously exported raw data. Existing rows with the
// same ids cause the import to fail rather than silently duplicate.
func (d *DB) ImportUser(data *ExportData) error {
	if data.User == nil {
		return fmt.Errorf("import: missing user")
	}
	if err := d.UpsertUser(data.User); err != nil {
		return err
	}
	for _, ds := range data.DeviceSources {
		if err := d.RegisterDeviceSource(ds); err != nil {
			return err
		}
	}
	for _, o := range data.Observations {
		if err := d.CreateObservation(o); err != nil {
			return err
		}
	}
	for _, w := range data.Workouts {
		if err := d.CreateWorkout(w); err != nil {
			return err
		}
	}
	for _, e := range data.CalendarEvents {
		if err := d.CreateCalendarEvent(e); err != nil {
			return err
		}
	}
	for _, c := range data.Locations {
		if err := d.UpsertLocationCluster(c); err != nil {
			return err
		}
	}
	for _, h := range data.Habits {
		if err := d.UpsertHabitDefinition(h); err != nil {
			return err
		}
	}
	return nil
}
