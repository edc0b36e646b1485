// ABOUTME: Suggestion, feedback, and confidence-weight operations.
// ABOUTME: Suggestions form an audit log; rows are appended, not reused.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pulse/internal/models"
)

// CreateSuggestion appends a generated suggestion.
func (d *DB) CreateSuggestion(s *models.Suggestion) error {
	var context sql.NullString
	if len(s.Context) > 0 {
		context = sql.NullString{String: string(s.Context), Valid: true}
	}
	var shownAt interface{}
	if s.ShownAt != nil {
		shownAt = s.ShownAt.UTC().Format(time.RFC3339)
	}

	query := `
		INSERT INTO suggestions (id, user_id, sugg_type, title, body, confidence, context, generated_at, shown_at, expires_at, superseded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query,
		s.ID.String(), s.UserID, string(s.Type), s.Title, s.Body, s.Confidence, context,
		s.GeneratedAt.UTC().Format(time.RFC3339), shownAt,
		s.ExpiresAt.UTC().Format(time.RFC3339), boolToInt(s.Superseded))
	if err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// GetSuggestion retrieves a suggestion by ID or ID prefix.
func (d *DB) GetSuggestion(idOrPrefix string) (*models.Suggestion, error) {
	id, err := d.resolveSuggestionID(idOrPrefix)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRow(selectSuggestion+` WHERE id = ?`, id)
	s, err := scanSuggestionRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("not found: %s", idOrPrefix)
		}
		return nil, err
	}
	return s, nil
}

// ActiveSuggestions returns live suggestions at asOf: not expired, not
// superseded. Expired rows stay retrievable through ListSuggestions.
func (d *DB) ActiveSuggestions(userID string, asOf time.Time) ([]*models.Suggestion, error) {
	rows, err := d.db.Query(selectSuggestion+`
		WHERE user_id = ? AND superseded = 0 AND expires_at > ?
		ORDER BY confidence DESC, generated_at DESC
	`, userID, asOf.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("active suggestions: %w", err)
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

// ListSuggestions returns the audit trail, newest first.
func (d *DB) ListSuggestions(userID string, limit int) ([]*models.Suggestion, error) {
	query := selectSuggestion + ` WHERE user_id = ? ORDER BY generated_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

// MarkSuggestionShown stamps the time a suggestion was surfaced.
func (d *DB) MarkSuggestionShown(id uuid.UUID, at time.Time) error {
	_, err := d.db.Exec(`UPDATE suggestions SET shown_at = ? WHERE id = ? AND shown_at IS NULL`,
		at.UTC().Format(time.RFC3339), id.String())
	if err != nil {
		return fmt.Errorf("mark suggestion shown: %w", err)
	}
	return nil
}

// SupersedeSuggestion marks a suggestion replaced by a newer one of the
// same type. The row is retained for audit.
func (d *DB) SupersedeSuggestion(id uuid.UUID) error {
	_, err := d.db.Exec(`UPDATE suggestions SET superseded = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("supersede suggestion: %w", err)
	}
	return nil
}

// CreateFeedback appends a feedback row. Feedback is never mutated.
func (d *DB) CreateFeedback(f *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, suggestion_id, user_id, action, reaction, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query,
		f.ID.String(), f.SuggestionID.String(), f.UserID,
		string(f.Action), string(f.Reaction), f.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListFeedback returns a user's feedback, newest first.
func (d *DB) ListFeedback(userID string, limit int) ([]*models.Feedback, error) {
	query := `
		SELECT id, suggestion_id, user_id, action, reaction, created_at
		FROM feedback WHERE user_id = ? ORDER BY created_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var feedback []*models.Feedback
	for rows.Next() {
		var f models.Feedback
		var idStr, suggIDStr, action, reaction, createdAt string
		if err := rows.Scan(&idStr, &suggIDStr, &f.UserID, &action, &reaction, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		f.ID, _ = uuid.Parse(idStr)
		f.SuggestionID, _ = uuid.Parse(suggIDStr)
		f.Action = models.FeedbackAction(action)
		f.Reaction = models.FeedbackReaction(reaction)
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		feedback = append(feedback, &f)
	}
	return feedback, rows.Err()
}

// GetConfidenceWeight retrieves the per-type prior, or nil when no
// feedback has shaped it yet.
func (d *DB) GetConfidenceWeight(userID string, t models.SuggestionType) (*models.ConfidenceWeight, error) {
	row := d.db.QueryRow(`
		SELECT user_id, sugg_type, weight, updated_at
		FROM confidence_weights WHERE user_id = ? AND sugg_type = ?
	`, userID, string(t))

	var w models.ConfidenceWeight
	var suggType, updatedAt string
	err := row.Scan(&w.UserID, &suggType, &w.Weight, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan confidence weight: %w", err)
	}
	w.Type = models.SuggestionType(suggType)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &w, nil
}

// UpsertConfidenceWeight writes the per-type prior for a user.
func (d *DB) UpsertConfidenceWeight(w *models.ConfidenceWeight) error {
	query := `
		INSERT INTO confidence_weights (user_id, sugg_type, weight, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, sugg_type) DO UPDATE SET
			weight = excluded.weight,
			updated_at = excluded.updated_at
	`
	_, err := d.db.Exec(query, w.UserID, string(w.Type), w.Weight,
		w.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert confidence weight: %w", err)
	}
	return nil
}

const selectSuggestion = `
	SELECT id, user_id, sugg_type, title, body, confidence, context, generated_at, shown_at, expires_at, superseded
	FROM suggestions`

func scanSuggestions(rows *sql.Rows) ([]*models.Suggestion, error) {
	var suggestions []*models.Suggestion
	for rows.Next() {
		s, err := scanSuggestionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

func scanSuggestionRow(scan func(dest ...any) error) (*models.Suggestion, error) {
	var s models.Suggestion
	var idStr, suggType, generatedAt, expiresAt string
	var context, shownAt sql.NullString
	var superseded int

	err := scan(&idStr, &s.UserID, &suggType, &s.Title, &s.Body, &s.Confidence,
		&context, &generatedAt, &shownAt, &expiresAt, &superseded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan suggestion: %w", err)
	}

	s.ID, _ = uuid.Parse(idStr)
	s.Type = models.SuggestionType(suggType)
	if context.Valid {
		s.Context = []byte(context.String)
	}
	s.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	if shownAt.Valid {
		t, _ := time.Parse(time.RFC3339, shownAt.String)
		s.ShownAt = &t
	}
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	s.Superseded = superseded != 0
	return &s, nil
}

// resolveSuggestionID finds the full ID from a prefix.
func (d *DB) resolveSuggestionID(idOrPrefix string) (string, error) {
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}

	rows, err := d.db.Query(`SELECT id FROM suggestions WHERE id LIKE ? || '%'`, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve suggestion ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan suggestion ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("not found: %s", idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple records", idOrPrefix)
	}
	return matches[0], nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
