// ABOUTME: Observation model and ObservationType enum for raw signals.
// ABOUTME: Defines typed, timestamped records delivered by ingest feeds.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ObservationType represents the type of signal being recorded.
type ObservationType string

const (
	// Physiology
	ObsHeartRate       ObservationType = "heart_rate"
	ObsRestingHR       ObservationType = "resting_hr"
	ObsHRV             ObservationType = "hrv"
	ObsRespiratoryRate ObservationType = "respiratory_rate"

	// Activity
	ObsSteps        ObservationType = "steps"
	ObsActiveEnergy ObservationType = "active_energy"
	ObsMotion       ObservationType = "motion"

	// Sleep
	ObsSleepHours ObservationType = "sleep_hours"
)

// ObservationUnits maps observation types to their canonical units.
var ObservationUnits = map[ObservationType]string{
	ObsHeartRate:       "bpm",
	ObsRestingHR:       "bpm",
	ObsHRV:             "ms",
	ObsRespiratoryRate: "br/min",
	ObsSteps:           "steps",
	ObsActiveEnergy:    "kcal",
	ObsMotion:          "count",
	ObsSleepHours:      "hours",
}

// AllObservationTypes returns all valid observation types.
var AllObservationTypes = []ObservationType{
	ObsHeartRate, ObsRestingHR, ObsHRV, ObsRespiratoryRate,
	ObsSteps, ObsActiveEnergy, ObsMotion, ObsSleepHours,
}

// IsValidObservationType checks if a string is a valid observation type.
func IsValidObservationType(s string) bool {
	for _, ot := range AllObservationTypes {
		if string(ot) == s {
			return true
		}
	}
	return false
}

// AggregationKind describes how observations of a type fold into a
// DailySummary.
type AggregationKind int

const (
	AggAvg AggregationKind = iota
	AggSum
	AggMin
	AggMax
)

// Aggregation maps each observation type to its daily-summary fold.
// Heart rate contributes avg/min/max simultaneously and is handled as a
// special case by the summary merge.
var Aggregation = map[ObservationType]AggregationKind{
	ObsHeartRate:       AggAvg,
	ObsRestingHR:       AggMin,
	ObsHRV:             AggAvg,
	ObsRespiratoryRate: AggAvg,
	ObsSteps:           AggSum,
	ObsActiveEnergy:    AggSum,
	ObsMotion:          AggSum,
	ObsSleepHours:      AggSum,
}

// PayloadVersion is attached to observation metadata when the ingest
// boundary receives a record without an explicit version tag.
const PayloadVersion = 1

// Observation is a single timestamped measured value from a source.
// Observations are immutable once recorded.
type Observation struct {
	ID         uuid.UUID
	UserID     string
	Type       ObservationType
	Source     string
	RecordedAt time.Time
	Value      float64
	Unit       string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// NewObservation creates an Observation with generated UUID, canonical
// unit, and current creation timestamp. RecordedAt defaults to now.
func NewObservation(userID string, obsType ObservationType, value float64) *Observation {
	now := time.Now().UTC()
	return &Observation{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       obsType,
		Value:      value,
		Unit:       ObservationUnits[obsType],
		RecordedAt: now,
		CreatedAt:  now,
	}
}

// WithRecordedAt sets a custom recorded_at timestamp.
func (o *Observation) WithRecordedAt(t time.Time) *Observation {
	o.RecordedAt = t
	return o
}

// WithSource tags the observation with its originating device source.
func (o *Observation) WithSource(source string) *Observation {
	o.Source = source
	return o
}

// WithMetadata attaches arbitrary metadata to the observation.
func (o *Observation) WithMetadata(md map[string]any) *Observation {
	o.Metadata = md
	return o
}

// MotionType classifies an observation window's movement intensity.
type MotionType string

const (
	MotionSedentary    MotionType = "sedentary"
	MotionWalking      MotionType = "walking"
	MotionHighActivity MotionType = "high_activity"
	MotionUnknown      MotionType = "unknown"
)

// ClassifyMotion buckets a step count into a motion type.
func ClassifyMotion(steps float64) MotionType {
	switch {
	case steps > 500:
		return MotionHighActivity
	case steps > 100:
		return MotionWalking
	default:
		return MotionSedentary
	}
}
