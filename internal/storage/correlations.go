// ABOUTME: CorrelationSignal operations for SQLite storage.
// ABOUTME: Deterministic upsert keyed by (user, date).
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// UpsertCorrelationSignal overwrites the derived row for (user, date).
func (d *DB) UpsertCorrelationSignal(s *models.CorrelationSignal) error {
	query := `
		INSERT INTO correlation_signals (
			user_id, date, meeting_count, meeting_minutes, avg_hr_meetings,
			baseline_hr, stress_delta, strength, sample_days, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			meeting_count = excluded.meeting_count,
			meeting_minutes = excluded.meeting_minutes,
			avg_hr_meetings = excluded.avg_hr_meetings,
			baseline_hr = excluded.baseline_hr,
			stress_delta = excluded.stress_delta,
			strength = excluded.strength,
			sample_days = excluded.sample_days,
			computed_at = excluded.computed_at
	`
	_, err := d.db.Exec(query,
		s.UserID, s.Date, s.MeetingCount, s.MeetingMinutes, s.AvgHRDuringMeetings,
		s.BaselineHR, s.StressScoreDelta, s.CorrelationStrength, s.SampleDays,
		s.ComputedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert correlation signal: %w", err)
	}
	return nil
}

// GetCorrelationSignal retrieves the row for (user, date), or nil.
func (d *DB) GetCorrelationSignal(userID, date string) (*models.CorrelationSignal, error) {
	row := d.db.QueryRow(`
		SELECT user_id, date, meeting_count, meeting_minutes, avg_hr_meetings,
		       baseline_hr, stress_delta, strength, sample_days, computed_at
		FROM correlation_signals
		WHERE user_id = ? AND date = ?
	`, userID, date)

	var s models.CorrelationSignal
	var computedAt string
	err := row.Scan(&s.UserID, &s.Date, &s.MeetingCount, &s.MeetingMinutes, &s.AvgHRDuringMeetings,
		&s.BaselineHR, &s.StressScoreDelta, &s.CorrelationStrength, &s.SampleDays, &computedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan correlation signal: %w", err)
	}
	s.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
	return &s, nil
}
