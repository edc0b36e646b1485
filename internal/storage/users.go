// ABOUTME: User and device-source operations for SQLite storage.
// ABOUTME: Users cascade-delete every dependent table on removal.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// UpsertUser creates or updates a user row.
func (d *DB) UpsertUser(u *models.User) error {
	query := `
		INSERT INTO users (user_id, name, timezone, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, timezone = excluded.timezone
	`
	_, err := d.db.Exec(query, u.ID, u.Name, u.Timezone, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (d *DB) GetUser(userID string) (*models.User, error) {
	row := d.db.QueryRow(`SELECT user_id, name, timezone, created_at FROM users WHERE user_id = ?`, userID)

	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Name, &u.Timezone, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %s", userID)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// EnsureUser creates the user row if it does not exist yet. Users come
// into existence on first record.
func (d *DB) EnsureUser(userID string) error {
	_, err := d.db.Exec(
		`INSERT INTO users (user_id, created_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// DeleteUser removes a user; foreign keys cascade through every
// dependent table.
func (d *DB) DeleteUser(userID string) error {
	result, err := d.db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// ListUsers returns all known users ordered by id.
func (d *DB) ListUsers() ([]*models.User, error) {
	rows, err := d.db.Query(`SELECT user_id, name, timezone, created_at FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Timezone, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, &u)
	}
	return users, rows.Err()
}

// RegisterDeviceSource records a data source device, ignoring replays.
func (d *DB) RegisterDeviceSource(ds *models.DeviceSource) error {
	query := `
		INSERT INTO device_sources (user_id, device_name, device_type, source_label, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, device_name, source_label) DO NOTHING
	`
	createdAt := ds.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := d.db.Exec(query, ds.UserID, ds.DeviceName, ds.DeviceType, ds.SourceLabel, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("register device source: %w", err)
	}
	return nil
}

// ListDeviceSources returns the registered devices for a user.
func (d *DB) ListDeviceSources(userID string) ([]*models.DeviceSource, error) {
	rows, err := d.db.Query(
		`SELECT user_id, device_name, device_type, source_label, created_at
		 FROM device_sources WHERE user_id = ? ORDER BY device_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list device sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.DeviceSource
	for rows.Next() {
		var ds models.DeviceSource
		var createdAt string
		if err := rows.Scan(&ds.UserID, &ds.DeviceName, &ds.DeviceType, &ds.SourceLabel, &createdAt); err != nil {
			return nil, fmt.Errorf("scan device source: %w", err)
		}
		ds.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sources = append(sources, &ds)
	}
	return sources, rows.Err()
}
