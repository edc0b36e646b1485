// ABOUTME: Seed simulator generating a plausible day of signals.
// ABOUTME: Day shape: commute, desk work with meetings, gym, evening at home.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/harperreed/pulse/internal/engine"
	"github.com/harperreed/pulse/internal/models"
)

// SampleInterval is the spacing of generated observations.
const SampleInterval = 5 * time.Minute

// hrBand returns the heart-rate range for an hour of the simulated day.
func hrBand(hour int) (lo, hi float64) {
	switch {
	case hour >= 8 && hour < 9: // commute
		return 95, 120
	case hour >= 10 && hour < 17: // desk work
		return 65, 90
	case hour >= 18 && hour < 19: // gym
		return 110, 155
	default: // home
		return 60, 85
	}
}

// stepsFor returns a step count for one interval of the hour.
func stepsFor(rng *rand.Rand, hour int) float64 {
	switch {
	case hour >= 8 && hour < 9:
		return float64(150 + rng.Intn(250))
	case hour >= 18 && hour < 19:
		return float64(400 + rng.Intn(400))
	case hour >= 10 && hour < 17:
		return float64(rng.Intn(120))
	case hour >= 7 && hour < 23:
		return float64(rng.Intn(200))
	default:
		return 0
	}
}

// Seeder generates and ingests simulated days.
type Seeder struct {
	engine *engine.Engine
	rng    *rand.Rand
}

// New creates a seeder. The seed fixes the generated values, so the
// same seed reproduces the same data set.
func New(e *engine.Engine, seed int64) *Seeder {
	return &Seeder{engine: e, rng: rand.New(rand.NewSource(seed))}
}

// SeedDay ingests one simulated day for the user: heart rate and steps
// every five minutes while awake, an HRV reading on waking, a sleep
// total, work-hour meetings, and an evening gym workout.
func (s *Seeder) SeedDay(ctx context.Context, userID string, date time.Time) (*engine.IngestReport, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var batch []*models.Observation

	for ts := day.Add(7 * time.Hour); ts.Before(day.Add(23 * time.Hour)); ts = ts.Add(SampleInterval) {
		lo, hi := hrBand(ts.Hour())
		bpm := lo + s.rng.Float64()*(hi-lo)
		batch = append(batch,
			models.NewObservation(userID, models.ObsHeartRate, float64(int(bpm))).
				WithRecordedAt(ts).WithSource("sim"))

		if steps := stepsFor(s.rng, ts.Hour()); steps > 0 {
			batch = append(batch,
				models.NewObservation(userID, models.ObsSteps, steps).
					WithRecordedAt(ts).WithSource("sim"))
		}
	}

	batch = append(batch,
		models.NewObservation(userID, models.ObsHRV, 40+s.rng.Float64()*25).
			WithRecordedAt(day.Add(7*time.Hour)).WithSource("sim"),
		models.NewObservation(userID, models.ObsSleepHours, 6.5+s.rng.Float64()*2).
			WithRecordedAt(day.Add(7*time.Hour)).WithSource("sim"),
	)

	report, err := s.engine.Ingest(ctx, userID, batch)
	if err != nil {
		return nil, err
	}

	for _, m := range s.meetings(userID, day) {
		if err := s.engine.RecordCalendarEvent(ctx, m); err != nil {
			return nil, err
		}
	}

	gym := models.NewWorkout(userID, "gym")
	gym.WithInterval(day.Add(18*time.Hour), day.Add(19*time.Hour))
	if err := s.engine.RecordWorkout(ctx, gym); err != nil {
		return nil, err
	}

	return report, nil
}

// SeedDays ingests n consecutive days ending at `end`, then rolls up
// each day so baselines and correlation signals are ready to query.
func (s *Seeder) SeedDays(ctx context.Context, userID string, end time.Time, n int) error {
	for i := n - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		if _, err := s.SeedDay(ctx, userID, day); err != nil {
			return fmt.Errorf("seed %s: %w", day.Format(models.DateFormat), err)
		}
		if err := s.engine.Rollup(ctx, userID, day); err != nil {
			return fmt.Errorf("rollup %s: %w", day.Format(models.DateFormat), err)
		}
	}
	return nil
}

// meetings builds a work-hour meeting block whose count varies by day.
func (s *Seeder) meetings(userID string, day time.Time) []*models.CalendarEvent {
	count := 1 + s.rng.Intn(4)
	events := make([]*models.CalendarEvent, 0, count)
	for i := 0; i < count; i++ {
		start := day.Add(time.Duration(10+2*i) * time.Hour)
		events = append(events, models.NewCalendarEvent(
			userID, fmt.Sprintf("meeting block %d", i+1), "meeting",
			start, start.Add(time.Duration(30+s.rng.Intn(31))*time.Minute)))
	}
	return events
}
