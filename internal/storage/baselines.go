// ABOUTME: Baseline and activity-pattern operations for SQLite storage.
// ABOUTME: Upserts keyed by the time-bucket uniqueness keys.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// UpsertHRBaseline writes the rolling stats row for an (hour, dow)
// bucket.
func (d *DB) UpsertHRBaseline(b *models.HRBaseline) error {
	query := `
		INSERT INTO hr_baselines (user_id, hour_of_day, day_of_week, mean, stddev, sample_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, hour_of_day, day_of_week) DO UPDATE SET
			mean = excluded.mean,
			stddev = excluded.stddev,
			sample_count = excluded.sample_count,
			last_updated = excluded.last_updated
	`
	_, err := d.db.Exec(query,
		b.UserID, b.HourOfDay, b.DayOfWeek, b.Mean, b.Stddev, b.SampleCount,
		b.LastUpdated.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert hr baseline: %w", err)
	}
	return nil
}

// GetHRBaseline retrieves the baseline row for an (hour, dow) bucket,
// or nil when the bucket has never been written.
func (d *DB) GetHRBaseline(userID string, hour, dow int) (*models.HRBaseline, error) {
	row := d.db.QueryRow(`
		SELECT user_id, hour_of_day, day_of_week, mean, stddev, sample_count, last_updated
		FROM hr_baselines
		WHERE user_id = ? AND hour_of_day = ? AND day_of_week = ?
	`, userID, hour, dow)

	var b models.HRBaseline
	var lastUpdated string
	err := row.Scan(&b.UserID, &b.HourOfDay, &b.DayOfWeek, &b.Mean, &b.Stddev, &b.SampleCount, &lastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan hr baseline: %w", err)
	}
	b.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	return &b, nil
}

// ListHRBaselines returns every stored (hour, dow) bucket for a user.
func (d *DB) ListHRBaselines(userID string) ([]*models.HRBaseline, error) {
	rows, err := d.db.Query(`
		SELECT user_id, hour_of_day, day_of_week, mean, stddev, sample_count, last_updated
		FROM hr_baselines
		WHERE user_id = ?
		ORDER BY day_of_week, hour_of_day
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list hr baselines: %w", err)
	}
	defer rows.Close()

	var baselines []*models.HRBaseline
	for rows.Next() {
		var b models.HRBaseline
		var lastUpdated string
		if err := rows.Scan(&b.UserID, &b.HourOfDay, &b.DayOfWeek, &b.Mean, &b.Stddev, &b.SampleCount, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan hr baseline: %w", err)
		}
		b.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		baselines = append(baselines, &b)
	}
	return baselines, rows.Err()
}

// DeleteHRBaseline removes the row for an (hour, dow) bucket. Missing
// rows are a no-op.
func (d *DB) DeleteHRBaseline(userID string, hour, dow int) error {
	_, err := d.db.Exec(`
		DELETE FROM hr_baselines
		WHERE user_id = ? AND hour_of_day = ? AND day_of_week = ?
	`, userID, hour, dow)
	if err != nil {
		return fmt.Errorf("delete hr baseline: %w", err)
	}
	return nil
}

// UpsertHRVBaseline writes the rolling stats row for a 30-day period.
func (d *DB) UpsertHRVBaseline(b *models.HRVBaseline) error {
	query := `
		INSERT INTO hrv_baselines (user_id, period_start, period_end, mean, stddev, sample_count, z_threshold, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, period_start) DO UPDATE SET
			period_end = excluded.period_end,
			mean = excluded.mean,
			stddev = excluded.stddev,
			sample_count = excluded.sample_count,
			z_threshold = excluded.z_threshold,
			last_updated = excluded.last_updated
	`
	_, err := d.db.Exec(query,
		b.UserID, b.PeriodStart, b.PeriodEnd, b.Mean, b.Stddev, b.SampleCount, b.ZThreshold,
		b.LastUpdated.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert hrv baseline: %w", err)
	}
	return nil
}

// LatestHRVBaseline retrieves the most recent HRV period row, or nil.
func (d *DB) LatestHRVBaseline(userID string) (*models.HRVBaseline, error) {
	row := d.db.QueryRow(`
		SELECT user_id, period_start, period_end, mean, stddev, sample_count, z_threshold, last_updated
		FROM hrv_baselines
		WHERE user_id = ?
		ORDER BY period_start DESC
		LIMIT 1
	`, userID)

	var b models.HRVBaseline
	var lastUpdated string
	err := row.Scan(&b.UserID, &b.PeriodStart, &b.PeriodEnd, &b.Mean, &b.Stddev, &b.SampleCount, &b.ZThreshold, &lastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan hrv baseline: %w", err)
	}
	b.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	return &b, nil
}

// IncrementActivityPattern bumps the frequency counter for the
// (dow, hour, motion) cell.
func (d *DB) IncrementActivityPattern(userID string, dow, hour int, motion models.MotionType) error {
	query := `
		INSERT INTO activity_patterns (user_id, day_of_week, hour_of_day, motion_type, frequency_count, last_updated)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(user_id, day_of_week, hour_of_day, motion_type) DO UPDATE SET
			frequency_count = frequency_count + 1,
			last_updated = excluded.last_updated
	`
	_, err := d.db.Exec(query, userID, dow, hour, string(motion), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("increment activity pattern: %w", err)
	}
	return nil
}

// ListActivityPatterns returns the frequency table for a user.
func (d *DB) ListActivityPatterns(userID string) ([]*models.ActivityPattern, error) {
	rows, err := d.db.Query(`
		SELECT user_id, day_of_week, hour_of_day, motion_type, frequency_count, last_updated
		FROM activity_patterns
		WHERE user_id = ?
		ORDER BY day_of_week, hour_of_day, motion_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list activity patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*models.ActivityPattern
	for rows.Next() {
		var p models.ActivityPattern
		var motion, lastUpdated string
		if err := rows.Scan(&p.UserID, &p.DayOfWeek, &p.HourOfDay, &motion, &p.FrequencyCount, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan activity pattern: %w", err)
		}
		p.MotionType = models.MotionType(motion)
		p.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		patterns = append(patterns, &p)
	}
	return patterns, rows.Err()
}
