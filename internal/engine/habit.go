// ABOUTME: Habit streak state machine: event counting and boundary evaluation.
// ABOUTME: Replays are idempotent; stale events for finalized periods are ignored.
package engine

import (
	"sort"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// pendingHabitEvent is a qualifying event awaiting application. Events
// from one batch are buffered and applied in timestamp order so an
// out-of-order batch lands in a deterministic state.
type pendingHabitEvent struct {
	def     *models.HabitDefinition
	eventID string
	at      time.Time
}

// qualifiesObservation reports whether an observation counts toward an
// observation-kind habit: matching type and meeting the value floor.
func qualifiesObservation(def *models.HabitDefinition, o *models.Observation) bool {
	if def.Kind != models.HabitObservation {
		return false
	}
	if def.Qualifier != string(o.Type) {
		return false
	}
	return o.Value >= def.MinValue
}

// qualifiesWorkout reports whether a workout counts toward a
// workout-kind habit. Qualifier "any" matches every category.
func qualifiesWorkout(def *models.HabitDefinition, w *models.Workout) bool {
	if def.Kind != models.HabitWorkout {
		return false
	}
	if def.Qualifier != "any" && def.Qualifier != w.Category {
		return false
	}
	return def.MinValue <= 0 || float64(w.DurationMinutes) >= def.MinValue
}

// applyHabitEvents sorts buffered events by timestamp and applies each.
// Stale replays are logged and skipped; they never fail the batch.
func (e *Engine) applyHabitEvents(userID string, events []pendingHabitEvent) error {
	sort.Slice(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })
	for _, ev := range events {
		if err := e.RecordHabitEvent(userID, ev.def, ev.eventID, ev.at); err != nil {
			if IsStaleReplay(err) {
				e.logger.Debug("stale habit event ignored",
					"user", userID, "habit", ev.def.Name, "event", ev.eventID)
				continue
			}
			return err
		}
	}
	return nil
}

// RecordHabitEvent counts one qualifying event toward a habit. The
// event identity makes replays a no-op, and an event addressed to an
// already-finalized period returns a StaleReplayError.
//
// Caller holds the user lock when invoked from ingest paths.
func (e *Engine) RecordHabitEvent(userID string, def *models.HabitDefinition, eventID string, ts time.Time) error {
	ts = ts.UTC()
	period := def.Period.Start(ts)

	tr, err := e.repo.GetHabitTracking(userID, def.Name)
	if err != nil {
		return err
	}
	if tr == nil {
		tr = models.NewHabitTracking(userID, def.Name)
	}

	if !tr.LastEvaluated.IsZero() && !period.After(tr.LastEvaluated) {
		return &StaleReplayError{Habit: def.Name, What: "event in finalized period " + period.Format(models.DateFormat)}
	}

	inserted, err := e.repo.InsertHabitEvent(&models.HabitEvent{
		UserID:      userID,
		HabitName:   def.Name,
		EventID:     eventID,
		OccurredAt:  ts,
		PeriodStart: period,
	})
	if err != nil {
		return err
	}
	if !inserted {
		// Replay of a known event identity.
		return nil
	}

	// Catch up any boundaries between the tracked period and this
	// event before counting it.
	if !tr.PeriodStart.IsZero() && period.After(tr.PeriodStart) {
		e.evaluateBoundaries(def, tr, period)
	}

	day := dayOf(ts)
	switch tr.State {
	case models.HabitInactive, models.HabitBroken, "":
		tr.State = models.HabitOnTrack
		tr.PeriodStart = period
		tr.RollingCount = 1
		tr.StreakStartedAt = day
		tr.StreakDays = 1
	default:
		tr.RollingCount++
		if d := daysInclusive(tr.StreakStartedAt, day); d > tr.StreakDays {
			tr.StreakDays = d
		}
		if tr.State == models.HabitAtRisk && tr.RollingCount >= def.TargetCount {
			tr.State = models.HabitOnTrack
		}
	}
	if tr.StreakDays > tr.LongestStreakDays {
		tr.LongestStreakDays = tr.StreakDays
	}
	tr.LastEventAt = ts
	if tr.RollingCount == def.TargetCount {
		tr.LastReinforcedAt = time.Now().UTC()
	}
	tr.UpdatedAt = time.Now().UTC()

	return e.repo.UpsertHabitTracking(tr)
}

// EvaluateHabit advances a habit's tracking across any period
// boundaries crossed by asOf, then applies the at-risk check inside the
// current period. Safe to call repeatedly: an already-evaluated
// boundary is a no-op.
func (e *Engine) EvaluateHabit(userID string, def *models.HabitDefinition, asOf time.Time) (*models.HabitTracking, error) {
	asOf = asOf.UTC()
	tr, err := e.repo.GetHabitTracking(userID, def.Name)
	if err != nil {
		return nil, err
	}
	if tr == nil || tr.State == models.HabitInactive || tr.PeriodStart.IsZero() {
		return tr, nil
	}

	e.evaluateBoundaries(def, tr, def.Period.Start(asOf))

	if tr.State == models.HabitOnTrack &&
		tr.RollingCount < def.TargetCount &&
		def.Period.Elapsed(asOf) > e.cfg.GetAtRiskElapsed() {
		tr.State = models.HabitAtRisk
	}

	tr.UpdatedAt = time.Now().UTC()
	if err := e.repo.UpsertHabitTracking(tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// EvaluateAllHabits runs EvaluateHabit for every defined habit.
func (e *Engine) EvaluateAllHabits(userID string, asOf time.Time) ([]*models.HabitTracking, error) {
	defs, err := e.repo.ListHabitDefinitions(userID)
	if err != nil {
		return nil, err
	}
	var out []*models.HabitTracking
	for _, def := range defs {
		tr, err := e.EvaluateHabit(userID, def, asOf)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			out = append(out, tr)
		}
	}
	return out, nil
}

// evaluateBoundaries finalizes every tracked period strictly before
// upTo. A met period extends the streak to the boundary; a short period
// breaks it. The tracked period then advances with a reset counter.
func (e *Engine) evaluateBoundaries(def *models.HabitDefinition, tr *models.HabitTracking, upTo time.Time) {
	for tr.PeriodStart.Before(upTo) {
		boundary := def.Period.Next(tr.PeriodStart)
		if tr.RollingCount >= def.TargetCount {
			tr.StreakDays = daysInclusive(tr.StreakStartedAt, boundary.AddDate(0, 0, -1))
			if tr.StreakDays > tr.LongestStreakDays {
				tr.LongestStreakDays = tr.StreakDays
			}
			tr.State = models.HabitOnTrack
		} else {
			tr.State = models.HabitBroken
			tr.StreakDays = 0
			tr.StreakStartedAt = time.Time{}
		}
		tr.LastEvaluated = tr.PeriodStart
		tr.PeriodStart = boundary
		tr.RollingCount = 0
	}
}

// dayOf truncates a timestamp to its UTC day.
func dayOf(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// daysInclusive counts calendar days from a through b, both included.
func daysInclusive(a, b time.Time) int {
	if a.IsZero() || b.Before(a) {
		return 0
	}
	return int(dayOf(b).Sub(dayOf(a)).Hours()/24) + 1
}
