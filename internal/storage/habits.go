// ABOUTME: Habit definition, tracking, and event operations.
// ABOUTME: Event identity uniqueness backs idempotent replay.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// UpsertHabitDefinition creates or updates a habit declaration.
func (d *DB) UpsertHabitDefinition(def *models.HabitDefinition) error {
	createdAt := def.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := `
		INSERT INTO habits (user_id, name, description, kind, qualifier, min_value, target_count, period, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			description = excluded.description,
			kind = excluded.kind,
			qualifier = excluded.qualifier,
			min_value = excluded.min_value,
			target_count = excluded.target_count,
			period = excluded.period
	`
	_, err := d.db.Exec(query,
		def.UserID, def.Name, def.Description, string(def.Kind), def.Qualifier,
		def.MinValue, def.TargetCount, string(def.Period), createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert habit definition: %w", err)
	}
	return nil
}

// ListHabitDefinitions returns a user's habit declarations.
func (d *DB) ListHabitDefinitions(userID string) ([]*models.HabitDefinition, error) {
	rows, err := d.db.Query(`
		SELECT user_id, name, description, kind, qualifier, min_value, target_count, period, created_at
		FROM habits WHERE user_id = ? ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habit definitions: %w", err)
	}
	defer rows.Close()

	var defs []*models.HabitDefinition
	for rows.Next() {
		def, err := scanHabitDefinition(rows.Scan)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// GetHabitDefinition retrieves one habit declaration.
func (d *DB) GetHabitDefinition(userID, name string) (*models.HabitDefinition, error) {
	row := d.db.QueryRow(`
		SELECT user_id, name, description, kind, qualifier, min_value, target_count, period, created_at
		FROM habits WHERE user_id = ? AND name = ?
	`, userID, name)

	def, err := scanHabitDefinition(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("habit not found: %s", name)
		}
		return nil, err
	}
	return def, nil
}

func scanHabitDefinition(scan func(dest ...any) error) (*models.HabitDefinition, error) {
	var def models.HabitDefinition
	var kind, period, createdAt string
	err := scan(&def.UserID, &def.Name, &def.Description, &kind, &def.Qualifier,
		&def.MinValue, &def.TargetCount, &period, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan habit definition: %w", err)
	}
	def.Kind = models.HabitKind(kind)
	def.Period = models.HabitPeriod(period)
	def.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &def, nil
}

// UpsertHabitTracking writes the full tracking row for (user, habit).
func (d *DB) UpsertHabitTracking(t *models.HabitTracking) error {
	query := `
		INSERT INTO habit_tracking (
			user_id, habit_name, state, rolling_count, streak_days, longest_streak_days,
			period_start, streak_started_at, last_event_at, last_reinforced_at, last_evaluated, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, habit_name) DO UPDATE SET
			state = excluded.state,
			rolling_count = excluded.rolling_count,
			streak_days = excluded.streak_days,
			longest_streak_days = excluded.longest_streak_days,
			period_start = excluded.period_start,
			streak_started_at = excluded.streak_started_at,
			last_event_at = excluded.last_event_at,
			last_reinforced_at = excluded.last_reinforced_at,
			last_evaluated = excluded.last_evaluated,
			updated_at = excluded.updated_at
	`
	_, err := d.db.Exec(query,
		t.UserID, t.HabitName, string(t.State), t.RollingCount, t.StreakDays, t.LongestStreakDays,
		nullableTime(t.PeriodStart), nullableTime(t.StreakStartedAt), nullableTime(t.LastEventAt), nullableTime(t.LastReinforcedAt),
		nullableTime(t.LastEvaluated), t.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert habit tracking: %w", err)
	}
	return nil
}

// GetHabitTracking retrieves tracking state, or nil when the habit has
// never recorded an event.
func (d *DB) GetHabitTracking(userID, habitName string) (*models.HabitTracking, error) {
	row := d.db.QueryRow(`
		SELECT user_id, habit_name, state, rolling_count, streak_days, longest_streak_days,
		       period_start, streak_started_at, last_event_at, last_reinforced_at, last_evaluated, updated_at
		FROM habit_tracking WHERE user_id = ? AND habit_name = ?
	`, userID, habitName)

	t, err := scanHabitTracking(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListHabitTracking returns all tracking rows for a user.
func (d *DB) ListHabitTracking(userID string) ([]*models.HabitTracking, error) {
	rows, err := d.db.Query(`
		SELECT user_id, habit_name, state, rolling_count, streak_days, longest_streak_days,
		       period_start, streak_started_at, last_event_at, last_reinforced_at, last_evaluated, updated_at
		FROM habit_tracking WHERE user_id = ? ORDER BY habit_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habit tracking: %w", err)
	}
	defer rows.Close()

	var tracking []*models.HabitTracking
	for rows.Next() {
		t, err := scanHabitTracking(rows.Scan)
		if err != nil {
			return nil, err
		}
		tracking = append(tracking, t)
	}
	return tracking, rows.Err()
}

func scanHabitTracking(scan func(dest ...any) error) (*models.HabitTracking, error) {
	var t models.HabitTracking
	var state string
	var periodStart, streakStarted, lastEvent, lastReinforced, lastEvaluated sql.NullString
	var updatedAt string

	err := scan(&t.UserID, &t.HabitName, &state, &t.RollingCount, &t.StreakDays, &t.LongestStreakDays,
		&periodStart, &streakStarted, &lastEvent, &lastReinforced, &lastEvaluated, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan habit tracking: %w", err)
	}

	t.State = models.HabitState(state)
	t.PeriodStart = parseNullableTime(periodStart)
	t.StreakStartedAt = parseNullableTime(streakStarted)
	t.LastEventAt = parseNullableTime(lastEvent)
	t.LastReinforcedAt = parseNullableTime(lastReinforced)
	t.LastEvaluated = parseNullableTime(lastEvaluated)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &t, nil
}

// InsertHabitEvent records a counted qualifying event. Returns false
// when the (user, habit, event identity) key already exists.
func (d *DB) InsertHabitEvent(e *models.HabitEvent) (bool, error) {
	result, err := d.db.Exec(`
		INSERT INTO habit_events (user_id, habit_name, event_id, occurred_at, period_start)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, habit_name, event_id) DO NOTHING
	`, e.UserID, e.HabitName, e.EventID,
		e.OccurredAt.UTC().Format(time.RFC3339), e.PeriodStart.UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("insert habit event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert habit event: %w", err)
	}
	return affected > 0, nil
}

// CountHabitEvents counts events recorded in the given period.
func (d *DB) CountHabitEvents(userID, habitName string, periodStart time.Time) (int, error) {
	row := d.db.QueryRow(`
		SELECT COUNT(*) FROM habit_events
		WHERE user_id = ? AND habit_name = ? AND period_start = ?
	`, userID, habitName, periodStart.UTC().Format(time.RFC3339))

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count habit events: %w", err)
	}
	return count, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s.String)
	return t
}
