// ABOUTME: Calendar event operations for SQLite storage.
// ABOUTME: Read-mostly feed consumed by the correlation engine.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pulse/internal/models"
)

// CreateCalendarEvent stores a calendar event.
func (d *DB) CreateCalendarEvent(e *models.CalendarEvent) error {
	var clusterID sql.NullString
	if e.LocationClusterID != nil {
		clusterID = sql.NullString{String: e.LocationClusterID.String(), Valid: true}
	}

	query := `
		INSERT INTO calendar_events (id, user_id, title, category, starts_at, ends_at, location_cluster_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query,
		e.ID.String(),
		e.UserID,
		e.Title,
		e.Category,
		e.StartsAt.UTC().Format(time.RFC3339),
		e.EndsAt.UTC().Format(time.RFC3339),
		clusterID,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// CalendarEventsOn returns events starting within the given calendar day
// ordered by start time.
func (d *DB) CalendarEventsOn(userID string, date time.Time) ([]*models.CalendarEvent, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	query := `
		SELECT id, user_id, title, category, starts_at, ends_at, location_cluster_id, created_at
		FROM calendar_events
		WHERE user_id = ? AND starts_at >= ? AND starts_at < ?
		ORDER BY starts_at ASC
	`
	rows, err := d.db.Query(query, userID,
		day.Format(time.RFC3339), day.AddDate(0, 0, 1).Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("calendar events on: %w", err)
	}
	defer rows.Close()
	return scanCalendarEvents(rows)
}

// ListCalendarEvents returns the most recent events for a user.
func (d *DB) ListCalendarEvents(userID string, limit int) ([]*models.CalendarEvent, error) {
	query := `
		SELECT id, user_id, title, category, starts_at, ends_at, location_cluster_id, created_at
		FROM calendar_events
		WHERE user_id = ?
		ORDER BY starts_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()
	return scanCalendarEvents(rows)
}

func scanCalendarEvents(rows *sql.Rows) ([]*models.CalendarEvent, error) {
	var events []*models.CalendarEvent
	for rows.Next() {
		var e models.CalendarEvent
		var idStr, startsAt, endsAt, createdAt string
		var clusterID sql.NullString

		err := rows.Scan(&idStr, &e.UserID, &e.Title, &e.Category, &startsAt, &endsAt, &clusterID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}

		e.ID, _ = uuid.Parse(idStr)
		e.StartsAt, _ = time.Parse(time.RFC3339, startsAt)
		e.EndsAt, _ = time.Parse(time.RFC3339, endsAt)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if clusterID.Valid {
			id, err := uuid.Parse(clusterID.String)
			if err == nil {
				e.LocationClusterID = &id
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
