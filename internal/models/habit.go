// ABOUTME: Habit definition, period, and tracking state models.
// ABOUTME: Tracking rows hold rolling counters, streaks, and state.
package models

import (
	"fmt"
	"time"
)

// HabitPeriod is the recurring interval over which a habit's target is
// evaluated.
type HabitPeriod string

const (
	PeriodDaily   HabitPeriod = "daily"
	PeriodWeekly  HabitPeriod = "weekly"
	PeriodMonthly HabitPeriod = "monthly"
)

// Start truncates ts to the beginning of its period. Weeks start Monday.
func (p HabitPeriod) Start(ts time.Time) time.Time {
	ts = ts.UTC()
	switch p {
	case PeriodWeekly:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the period following the one containing ts.
func (p HabitPeriod) Next(ts time.Time) time.Time {
	start := p.Start(ts)
	switch p {
	case PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case PeriodMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Days returns the nominal length of the period in days.
func (p HabitPeriod) Days(ts time.Time) float64 {
	return p.Next(ts).Sub(p.Start(ts)).Hours() / 24
}

// Elapsed returns the fraction of the period containing ts that has
// already passed, in [0, 1).
func (p HabitPeriod) Elapsed(ts time.Time) float64 {
	start := p.Start(ts)
	end := p.Next(ts)
	return ts.Sub(start).Seconds() / end.Sub(start).Seconds()
}

// HabitKind selects which events qualify for a habit.
type HabitKind string

const (
	HabitWorkout     HabitKind = "workout"
	HabitObservation HabitKind = "observation"
)

// HabitDefinition declares a habit target for a user.
type HabitDefinition struct {
	UserID      string      `yaml:"-"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Kind        HabitKind   `yaml:"kind"`
	Qualifier   string      `yaml:"qualifier"`
	MinValue    float64     `yaml:"min_value,omitempty"`
	TargetCount int         `yaml:"target"`
	Period      HabitPeriod `yaml:"period"`
	CreatedAt   time.Time   `yaml:"-"`
}

// Validate checks the definition for usable values.
func (d *HabitDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("habit name is required")
	}
	if d.Kind != HabitWorkout && d.Kind != HabitObservation {
		return fmt.Errorf("habit %s: unknown kind %q", d.Name, d.Kind)
	}
	if d.Qualifier == "" {
		return fmt.Errorf("habit %s: qualifier is required", d.Name)
	}
	if d.TargetCount < 1 {
		return fmt.Errorf("habit %s: target must be >= 1", d.Name)
	}
	switch d.Period {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
	default:
		return fmt.Errorf("habit %s: unknown period %q", d.Name, d.Period)
	}
	return nil
}

// HabitState is the per-period tracking state machine position.
type HabitState string

const (
	HabitInactive HabitState = "inactive"
	HabitOnTrack  HabitState = "on_track"
	HabitAtRisk   HabitState = "at_risk"
	HabitBroken   HabitState = "broken"
)

// HabitTracking is one row per (user, habit definition).
type HabitTracking struct {
	UserID            string
	HabitName         string
	State             HabitState
	RollingCount      int
	StreakDays        int
	LongestStreakDays int
	PeriodStart       time.Time
	// StreakStartedAt is the UTC day of the first qualifying event of
	// the current streak. Streak day counts derive from it.
	StreakStartedAt  time.Time
	LastEventAt      time.Time
	LastReinforcedAt time.Time
	// LastEvaluated is the start of the most recent period whose
	// boundary evaluation already ran, making re-evaluation a no-op.
	LastEvaluated time.Time
	UpdatedAt     time.Time
}

// NewHabitTracking creates tracking state for a defined habit.
func NewHabitTracking(userID, habitName string) *HabitTracking {
	return &HabitTracking{
		UserID:    userID,
		HabitName: habitName,
		State:     HabitInactive,
		UpdatedAt: time.Now().UTC(),
	}
}

// HabitEvent records one counted qualifying event. The (user, habit,
// event identity) key is unique in storage, which is what makes
// RecordEvent idempotent under replay.
type HabitEvent struct {
	UserID      string
	HabitName   string
	EventID     string
	OccurredAt  time.Time
	PeriodStart time.Time
}
