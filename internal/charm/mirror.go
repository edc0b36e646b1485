// ABOUTME: Raw-signal mirror operations for Charm KV storage.
// ABOUTME: Keys carry user and timestamp so listing stays range-friendly.
package charm

import (
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// observationKey builds obs:<user>:<rfc3339>:<id>. The timestamp sits
// before the id so lexicographic order matches recording order.
func observationKey(o *models.Observation) string {
	return fmt.Sprintf("%s%s:%s:%s", ObservationPrefix,
		o.UserID, o.RecordedAt.UTC().Format(time.RFC3339), o.ID.String())
}

// MirrorObservation pushes one raw observation to the KV store.
func (c *Client) MirrorObservation(o *models.Observation) error {
	data, err := marshalJSON(o)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	return c.set(observationKey(o), data)
}

// MirrorObservations pushes a batch, syncing once at the end.
func (c *Client) MirrorObservations(batch []*models.Observation) error {
	if len(batch) == 0 {
		return nil
	}
	auto := c.autoSync
	c.SetAutoSync(false)
	defer c.SetAutoSync(auto)

	for _, o := range batch {
		if err := c.MirrorObservation(o); err != nil {
			return err
		}
	}
	return c.Sync()
}

// ListObservations retrieves mirrored observations for a user, sorted
// by RecordedAt ascending.
func (c *Client) ListObservations(userID string) ([]*models.Observation, error) {
	allData, err := c.listByPrefix(ObservationPrefix + userID + ":")
	if err != nil {
		return nil, fmt.Errorf("list mirrored observations: %w", err)
	}

	var obs []*models.Observation
	for _, data := range allData {
		o, err := unmarshalJSON[models.Observation](data)
		if err != nil {
			continue // Skip invalid entries
		}
		obs = append(obs, o)
	}

	sort.Slice(obs, func(i, j int) bool {
		return obs[i].RecordedAt.Before(obs[j].RecordedAt)
	})
	return obs, nil
}

// MirrorWorkout pushes one workout to the KV store.
func (c *Client) MirrorWorkout(w *models.Workout) error {
	data, err := marshalJSON(w)
	if err != nil {
		return fmt.Errorf("marshal workout: %w", err)
	}
	key := fmt.Sprintf("%s%s:%s", WorkoutPrefix, w.UserID, w.ID.String())
	return c.set(key, data)
}

// ListWorkouts retrieves mirrored workouts for a user, most recent
// first.
func (c *Client) ListWorkouts(userID string) ([]*models.Workout, error) {
	allData, err := c.listByPrefix(WorkoutPrefix + userID + ":")
	if err != nil {
		return nil, fmt.Errorf("list mirrored workouts: %w", err)
	}

	var workouts []*models.Workout
	for _, data := range allData {
		w, err := unmarshalJSON[models.Workout](data)
		if err != nil {
			continue
		}
		workouts = append(workouts, w)
	}

	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].StartedAt.After(workouts[j].StartedAt)
	})
	return workouts, nil
}

// MirrorCalendarEvent pushes one calendar event to the KV store.
func (c *Client) MirrorCalendarEvent(e *models.CalendarEvent) error {
	data, err := marshalJSON(e)
	if err != nil {
		return fmt.Errorf("marshal calendar event: %w", err)
	}
	key := fmt.Sprintf("%s%s:%s", CalendarPrefix, e.UserID, e.ID.String())
	return c.set(key, data)
}

// ListCalendarEvents retrieves mirrored calendar events for a user.
func (c *Client) ListCalendarEvents(userID string) ([]*models.CalendarEvent, error) {
	allData, err := c.listByPrefix(CalendarPrefix + userID + ":")
	if err != nil {
		return nil, fmt.Errorf("list mirrored calendar events: %w", err)
	}

	var events []*models.CalendarEvent
	for _, data := range allData {
		e, err := unmarshalJSON[models.CalendarEvent](data)
		if err != nil {
			continue
		}
		events = append(events, e)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}
