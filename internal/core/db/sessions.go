package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/models"
)

const sessionColumns = `id, class_id, session_id, title, content, summary, insights, metadata, created_at`

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s                  models.Session
		summary            sql.NullString
		insights, metadata sql.NullString
		created            int64
	)
	err := row.Scan(&s.ID, &s.ClassID, &s.SessionID, &s.Title, &s.Content, &summary, &insights, &metadata, &created)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = fromNanos(created)
	if summary.Valid {
		text := summary.String
		s.Summary = &text
	}
	if insights.Valid && insights.String != "" {
		var in models.Insights
		if err := json.Unmarshal([]byte(insights.String), &in); err != nil {
			return nil, fmt.Errorf("decode insights for %s: %w", s.SessionID, err)
		}
		s.Insights = &in
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &s.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", s.SessionID, err)
		}
	}
	return &s, nil
}

func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// AddSession appends a session to an existing class. The insert and the
// class counter update happen in one transaction, so sessions_count always
// equals the number of stored sessions.
func (db *DB) AddSession(classID, title, content string, metadata models.Metadata) (*models.Session, error) {
	if err := (&models.Session{ClassID: classID, Content: content}).Validate(); err != nil {
		return nil, errs.E(errs.Validation, "add session", err, classID)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM classes WHERE class_id = ?)`, classID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check class: %w", err)
	}
	if !exists {
		return nil, errs.E(errs.NotFound, "add session", errs.ErrClassNotFound, classID)
	}

	var metaJSON sql.NullString
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metaJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := db.timestamp()
	sessionID := randomHex(10)
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Session " + sessionID
	}

	result, err := tx.Exec(`
		INSERT INTO sessions (class_id, session_id, title, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, classID, sessionID, title, content, metaJSON, toNanos(now))
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	rowID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get session row id: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE classes
		SET sessions_count = sessions_count + 1,
		    updated_at = ?,
		    last_session_at = ?
		WHERE class_id = ?
	`, toNanos(now), toNanos(now), classID)
	if err != nil {
		return nil, fmt.Errorf("update class counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &models.Session{
		ID:        rowID,
		ClassID:   classID,
		SessionID: sessionID,
		Title:     title,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

// GetSession returns one session, or (nil, nil) when it does not exist
func (db *DB) GetSession(classID, sessionID string) (*models.Session, error) {
	s, err := scanSession(db.conn.QueryRow(`
		SELECT `+sessionColumns+`
		FROM sessions WHERE class_id = ? AND session_id = ?
	`, classID, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s/%s: %w", classID, sessionID, err)
	}
	return s, nil
}

// ListSessions returns a class's sessions newest first
func (db *DB) ListSessions(classID string) ([]models.Session, error) {
	rows, err := db.conn.Query(`
		SELECT `+sessionColumns+`
		FROM sessions WHERE class_id = ?
		ORDER BY created_at DESC, id DESC
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

// SessionsSince returns a class's sessions created at or after since, newest first
func (db *DB) SessionsSince(classID string, since time.Time) ([]models.Session, error) {
	rows, err := db.conn.Query(`
		SELECT `+sessionColumns+`
		FROM sessions WHERE class_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
	`, classID, toNanos(since))
	if err != nil {
		return nil, fmt.Errorf("list sessions since: %w", err)
	}
	return collectSessions(rows)
}

// ListPendingSessions returns sessions that have no summary yet, oldest first
func (db *DB) ListPendingSessions(limit int) ([]models.Session, error) {
	rows, err := db.conn.Query(`
		SELECT `+sessionColumns+`
		FROM sessions WHERE summary IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sessions: %w", err)
	}
	return collectSessions(rows)
}

// UpdateSessionSummary overwrites the summary. A missing session is a no-op.
func (db *DB) UpdateSessionSummary(classID, sessionID, summary string) error {
	_, err := db.conn.Exec(`
		UPDATE sessions SET summary = ?
		WHERE class_id = ? AND session_id = ?
	`, summary, classID, sessionID)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	return nil
}

// UpdateSessionInsights overwrites the insights. A missing session is a no-op.
func (db *DB) UpdateSessionInsights(classID, sessionID string, insights models.Insights) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}
	_, err = db.conn.Exec(`
		UPDATE sessions SET insights = ?
		WHERE class_id = ? AND session_id = ?
	`, string(data), classID, sessionID)
	if err != nil {
		return fmt.Errorf("update insights: %w", err)
	}
	return nil
}
