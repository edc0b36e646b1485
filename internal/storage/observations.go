// ABOUTME: Observation operations for SQLite storage.
// ABOUTME: Raw signals are immutable; inserts only, range reads out.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pulse/internal/models"
)

// CreateObservation stores one immutable observation.
func (d *DB) CreateObservation(o *models.Observation) error {
	var metadata sql.NullString
	if o.Metadata != nil {
		data, err := json.Marshal(o.Metadata)
		if err != nil {
			return fmt.Errorf("marshal observation metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO observations (id, user_id, obs_type, source, recorded_at, value, unit, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query,
		o.ID.String(),
		o.UserID,
		string(o.Type),
		o.Source,
		o.RecordedAt.UTC().Format(time.RFC3339),
		o.Value,
		o.Unit,
		metadata,
		o.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create observation: %w", err)
	}
	return nil
}

// ObservationsBetween returns a user's observations in [since, until)
// ordered by recorded_at ascending, optionally filtered by type.
func (d *DB) ObservationsBetween(userID string, since, until time.Time, types []models.ObservationType) ([]*models.Observation, error) {
	query := `
		SELECT id, user_id, obs_type, source, recorded_at, value, unit, metadata, created_at
		FROM observations
		WHERE user_id = ? AND recorded_at >= ? AND recorded_at < ?
	`
	args := []interface{}{userID, since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339)}

	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		query += fmt.Sprintf(" AND obs_type IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY recorded_at ASC"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("observations between: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ListObservations returns the most recent observations for a user.
func (d *DB) ListObservations(userID string, limit int) ([]*models.Observation, error) {
	query := `
		SELECT id, user_id, obs_type, source, recorded_at, value, unit, metadata, created_at
		FROM observations
		WHERE user_id = ?
		ORDER BY recorded_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]*models.Observation, error) {
	var obs []*models.Observation
	for rows.Next() {
		var o models.Observation
		var idStr, obsType, recordedAt, createdAt string
		var metadata sql.NullString

		err := rows.Scan(&idStr, &o.UserID, &obsType, &o.Source, &recordedAt, &o.Value, &o.Unit, &metadata, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}

		o.ID, _ = uuid.Parse(idStr)
		o.Type = models.ObservationType(obsType)
		o.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if metadata.Valid {
			_ = json.Unmarshal([]byte(metadata.String), &o.Metadata)
		}
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}
