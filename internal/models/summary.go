// ABOUTME: DailySummary model, the canonical per-user-per-day aggregate.
// ABOUTME: An additive merge target; observations fold in incrementally.
package models

import (
	"encoding/json"
	"math"
	"time"
)

// DateFormat is the canonical key format for per-day rows.
const DateFormat = "2006-01-02"

// DailySummary is one row per (user, date). It is mutated incrementally
// as observations and workouts for that date arrive; averages are kept
// as sum/count pairs so the merge stays additive and order-independent.
type DailySummary struct {
	UserID string
	Date   string

	HRSum   float64
	HRCount int
	MinHR   float64
	MaxHR   float64

	HRVSum   float64
	HRVCount int

	Steps          float64
	ActiveMinutes  int
	ActiveEnergy   float64
	SleepHours     float64
	WorkoutMinutes int

	// RestingHR is the 25th percentile of the day's heart-rate samples.
	// Quantiles do not fold additively, so this field is written by the
	// daily rollup from raw observations, not by Apply.
	RestingHR *float64

	StressScore *float64
	UpdatedAt   time.Time
}

// NewDailySummary creates an empty summary for a (user, date) key.
func NewDailySummary(userID string, date time.Time) *DailySummary {
	return &DailySummary{
		UserID:    userID,
		Date:      date.Format(DateFormat),
		MinHR:     math.Inf(1),
		MaxHR:     math.Inf(-1),
		UpdatedAt: time.Now().UTC(),
	}
}

// AvgHR returns the day's mean heart rate, or 0 when no samples exist.
func (s *DailySummary) AvgHR() float64 {
	if s.HRCount == 0 {
		return 0
	}
	return s.HRSum / float64(s.HRCount)
}

// AvgHRV returns the day's mean HRV, or 0 when no samples exist.
func (s *DailySummary) AvgHRV() float64 {
	if s.HRVCount == 0 {
		return 0
	}
	return s.HRVSum / float64(s.HRVCount)
}

// HasHR reports whether any heart-rate samples folded into the day.
func (s *DailySummary) HasHR() bool { return s.HRCount > 0 }

// MarshalJSON omits MinHR and MaxHR until a heart-rate sample exists:
// their empty-state sentinels are ±Inf, which JSON cannot carry.
func (s DailySummary) MarshalJSON() ([]byte, error) {
	type alias DailySummary
	out := struct {
		alias
		MinHR *float64 `json:",omitempty"`
		MaxHR *float64 `json:",omitempty"`
	}{alias: alias(s)}
	if s.HRCount > 0 {
		out.MinHR = &s.MinHR
		out.MaxHR = &s.MaxHR
	}
	return json.Marshal(out)
}

// Apply folds one observation into the summary and returns the updated
// summary. The fold is commutative and associative: replay order does
// not change the result.
func (s *DailySummary) Apply(o *Observation) *DailySummary {
	switch o.Type {
	case ObsHeartRate:
		s.HRSum += o.Value
		s.HRCount++
		s.MinHR = math.Min(s.MinHR, o.Value)
		s.MaxHR = math.Max(s.MaxHR, o.Value)
	case ObsHRV:
		s.HRVSum += o.Value
		s.HRVCount++
	case ObsSteps, ObsMotion:
		s.Steps += o.Value
		if ClassifyMotion(o.Value) != MotionSedentary {
			s.ActiveMinutes++
		}
	case ObsActiveEnergy:
		s.ActiveEnergy += o.Value
	case ObsSleepHours:
		s.SleepHours += o.Value
	}
	s.UpdatedAt = time.Now().UTC()
	return s
}

// ApplyWorkout folds a workout's duration into the summary.
func (s *DailySummary) ApplyWorkout(w *Workout) *DailySummary {
	s.WorkoutMinutes += w.DurationMinutes
	s.UpdatedAt = time.Now().UTC()
	return s
}
