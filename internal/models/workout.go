// ABOUTME: Workout and LocationCluster models for interval activity.
// ABOUTME: Workouts carry a category tag and may reference a visited place.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Workout represents an exercise session as a closed interval.
type Workout struct {
	ID                uuid.UUID
	UserID            string
	Category          string
	StartedAt         time.Time
	EndedAt           time.Time
	DurationMinutes   int
	LocationClusterID *uuid.UUID
	Notes             *string
	CreatedAt         time.Time
}

// NewWorkout creates a Workout with generated UUID starting now.
func NewWorkout(userID, category string) *Workout {
	now := time.Now().UTC()
	return &Workout{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  category,
		StartedAt: now,
		CreatedAt: now,
	}
}

// WithInterval sets the start and end timestamps and derives duration.
func (w *Workout) WithInterval(start, end time.Time) *Workout {
	w.StartedAt = start
	w.EndedAt = end
	w.DurationMinutes = int(end.Sub(start).Minutes())
	return w
}

// WithDuration sets the duration in minutes and derives EndedAt.
func (w *Workout) WithDuration(minutes int) *Workout {
	w.DurationMinutes = minutes
	w.EndedAt = w.StartedAt.Add(time.Duration(minutes) * time.Minute)
	return w
}

// WithLocation links the workout to a visited location cluster.
func (w *Workout) WithLocation(clusterID uuid.UUID) *Workout {
	w.LocationClusterID = &clusterID
	return w
}

// WithNotes sets notes on the workout.
func (w *Workout) WithNotes(notes string) *Workout {
	w.Notes = &notes
	return w
}

// LocationCluster is an inferred visited place (home, work, gym, ...).
// Workouts and calendar events reference clusters by lookup, not
// ownership.
type LocationCluster struct {
	ID         uuid.UUID
	UserID     string
	Label      string
	Latitude   float64
	Longitude  float64
	VisitCount int
	LastSeenAt time.Time
}

// NewLocationCluster creates a cluster for a user at a coordinate.
func NewLocationCluster(userID, label string, lat, lon float64) *LocationCluster {
	return &LocationCluster{
		ID:         uuid.New(),
		UserID:     userID,
		Label:      label,
		Latitude:   lat,
		Longitude:  lon,
		VisitCount: 1,
		LastSeenAt: time.Now().UTC(),
	}
}
