// ABOUTME: Workout and location-cluster operations for SQLite storage.
// ABOUTME: Interval entities with optional visited-location references.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pulse/internal/models"
)

// CreateWorkout stores a workout session.
func (d *DB) CreateWorkout(w *models.Workout) error {
	var clusterID sql.NullString
	if w.LocationClusterID != nil {
		clusterID = sql.NullString{String: w.LocationClusterID.String(), Valid: true}
	}

	query := `
		INSERT INTO workouts (id, user_id, category, started_at, ended_at, duration_minutes, location_cluster_id, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query,
		w.ID.String(),
		w.UserID,
		w.Category,
		w.StartedAt.UTC().Format(time.RFC3339),
		w.EndedAt.UTC().Format(time.RFC3339),
		w.DurationMinutes,
		clusterID,
		w.Notes,
		w.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create workout: %w", err)
	}
	return nil
}

// GetWorkout retrieves a workout by ID or ID prefix.
func (d *DB) GetWorkout(userID, idOrPrefix string) (*models.Workout, error) {
	query := `
		SELECT id, user_id, category, started_at, ended_at, duration_minutes, location_cluster_id, notes, created_at
		FROM workouts
		WHERE user_id = ? AND id LIKE ? || '%'
	`
	rows, err := d.db.Query(query, userID, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get workout: %w", err)
	}
	defer rows.Close()

	workouts, err := scanWorkouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, fmt.Errorf("workout not found: %s", idOrPrefix)
	}
	if len(workouts) > 1 {
		return nil, fmt.Errorf("ambiguous prefix %s: matches multiple workouts", idOrPrefix)
	}
	return workouts[0], nil
}

// WorkoutsOn returns workouts starting within the given calendar day.
func (d *DB) WorkoutsOn(userID string, date time.Time) ([]*models.Workout, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return d.workoutsBetween(userID, day, day.AddDate(0, 0, 1))
}

func (d *DB) workoutsBetween(userID string, since, until time.Time) ([]*models.Workout, error) {
	query := `
		SELECT id, user_id, category, started_at, ended_at, duration_minutes, location_cluster_id, notes, created_at
		FROM workouts
		WHERE user_id = ? AND started_at >= ? AND started_at < ?
		ORDER BY started_at ASC
	`
	rows, err := d.db.Query(query, userID, since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("workouts between: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

// ListWorkouts returns the most recent workouts for a user.
func (d *DB) ListWorkouts(userID string, limit int) ([]*models.Workout, error) {
	query := `
		SELECT id, user_id, category, started_at, ended_at, duration_minutes, location_cluster_id, notes, created_at
		FROM workouts
		WHERE user_id = ?
		ORDER BY started_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

func scanWorkouts(rows *sql.Rows) ([]*models.Workout, error) {
	var workouts []*models.Workout
	for rows.Next() {
		var w models.Workout
		var idStr, startedAt, endedAt, createdAt string
		var clusterID, notes sql.NullString

		err := rows.Scan(&idStr, &w.UserID, &w.Category, &startedAt, &endedAt, &w.DurationMinutes, &clusterID, &notes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}

		w.ID, _ = uuid.Parse(idStr)
		w.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		w.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if clusterID.Valid {
			id, err := uuid.Parse(clusterID.String)
			if err == nil {
				w.LocationClusterID = &id
			}
		}
		if notes.Valid {
			w.Notes = &notes.String
		}
		workouts = append(workouts, &w)
	}
	return workouts, rows.Err()
}

// UpsertLocationCluster creates or refreshes a visited-place cluster.
func (d *DB) UpsertLocationCluster(c *models.LocationCluster) error {
	query := `
		INSERT INTO location_clusters (id, user_id, label, latitude, longitude, visit_count, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			visit_count = excluded.visit_count,
			last_seen_at = excluded.last_seen_at
	`
	_, err := d.db.Exec(query,
		c.ID.String(), c.UserID, c.Label, c.Latitude, c.Longitude, c.VisitCount,
		c.LastSeenAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert location cluster: %w", err)
	}
	return nil
}

// ListLocationClusters returns a user's visited places by visit count.
func (d *DB) ListLocationClusters(userID string) ([]*models.LocationCluster, error) {
	query := `
		SELECT id, user_id, label, latitude, longitude, visit_count, last_seen_at
		FROM location_clusters
		WHERE user_id = ?
		ORDER BY visit_count DESC
	`
	rows, err := d.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("list location clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*models.LocationCluster
	for rows.Next() {
		var c models.LocationCluster
		var idStr, lastSeen string
		if err := rows.Scan(&idStr, &c.UserID, &c.Label, &c.Latitude, &c.Longitude, &c.VisitCount, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan location cluster: %w", err)
		}
		c.ID, _ = uuid.Parse(idStr)
		c.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
		clusters = append(clusters, &c)
	}
	return clusters, rows.Err()
}
