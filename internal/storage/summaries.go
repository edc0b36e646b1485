// ABOUTME: DailySummary operations for SQLite storage.
// ABOUTME: Upsert keyed by (user, date); min/max HR NULL until sampled.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// UpsertDailySummary writes the complete summary row for (user, date).
func (d *DB) UpsertDailySummary(s *models.DailySummary) error {
	var minHR, maxHR sql.NullFloat64
	if s.HRCount > 0 {
		minHR = sql.NullFloat64{Float64: s.MinHR, Valid: true}
		maxHR = sql.NullFloat64{Float64: s.MaxHR, Valid: true}
	}
	var restingHR, stressScore sql.NullFloat64
	if s.RestingHR != nil {
		restingHR = sql.NullFloat64{Float64: *s.RestingHR, Valid: true}
	}
	if s.StressScore != nil {
		stressScore = sql.NullFloat64{Float64: *s.StressScore, Valid: true}
	}

	query := `
		INSERT INTO daily_summaries (
			user_id, date, hr_sum, hr_count, min_hr, max_hr,
			hrv_sum, hrv_count, steps, active_minutes, active_energy,
			sleep_hours, workout_minutes, resting_hr, stress_score, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			hr_sum = excluded.hr_sum,
			hr_count = excluded.hr_count,
			min_hr = excluded.min_hr,
			max_hr = excluded.max_hr,
			hrv_sum = excluded.hrv_sum,
			hrv_count = excluded.hrv_count,
			steps = excluded.steps,
			active_minutes = excluded.active_minutes,
			active_energy = excluded.active_energy,
			sleep_hours = excluded.sleep_hours,
			workout_minutes = excluded.workout_minutes,
			resting_hr = excluded.resting_hr,
			stress_score = excluded.stress_score,
			updated_at = excluded.updated_at
	`
	_, err := d.db.Exec(query,
		s.UserID, s.Date, s.HRSum, s.HRCount, minHR, maxHR,
		s.HRVSum, s.HRVCount, s.Steps, s.ActiveMinutes, s.ActiveEnergy,
		s.SleepHours, s.WorkoutMinutes, restingHR, stressScore,
		s.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	return nil
}

// GetDailySummary retrieves the summary for (user, date), or nil when
// no row exists yet.
func (d *DB) GetDailySummary(userID, date string) (*models.DailySummary, error) {
	row := d.db.QueryRow(`
		SELECT user_id, date, hr_sum, hr_count, min_hr, max_hr,
		       hrv_sum, hrv_count, steps, active_minutes, active_energy,
		       sleep_hours, workout_minutes, resting_hr, stress_score, updated_at
		FROM daily_summaries
		WHERE user_id = ? AND date = ?
	`, userID, date)

	s, err := scanSummaryRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// SummariesBetween returns summaries with fromDate <= date <= toDate
// ordered by date ascending.
func (d *DB) SummariesBetween(userID, fromDate, toDate string) ([]*models.DailySummary, error) {
	rows, err := d.db.Query(`
		SELECT user_id, date, hr_sum, hr_count, min_hr, max_hr,
		       hrv_sum, hrv_count, steps, active_minutes, active_energy,
		       sleep_hours, workout_minutes, resting_hr, stress_score, updated_at
		FROM daily_summaries
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("summaries between: %w", err)
	}
	defer rows.Close()

	var summaries []*models.DailySummary
	for rows.Next() {
		s, err := scanSummaryRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func scanSummaryRow(scan func(dest ...any) error) (*models.DailySummary, error) {
	var s models.DailySummary
	var minHR, maxHR, restingHR, stressScore sql.NullFloat64
	var updatedAt string

	err := scan(&s.UserID, &s.Date, &s.HRSum, &s.HRCount, &minHR, &maxHR,
		&s.HRVSum, &s.HRVCount, &s.Steps, &s.ActiveMinutes, &s.ActiveEnergy,
		&s.SleepHours, &s.WorkoutMinutes, &restingHR, &stressScore, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan daily summary: %w", err)
	}

	if minHR.Valid {
		s.MinHR = minHR.Float64
	} else {
		s.MinHR = math.Inf(1)
	}
	if maxHR.Valid {
		s.MaxHR = maxHR.Float64
	} else {
		s.MaxHR = math.Inf(-1)
	}
	if restingHR.Valid {
		s.RestingHR = &restingHR.Float64
	}
	if stressScore.Valid {
		s.StressScore = &stressScore.Float64
	}
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &s, nil
}
