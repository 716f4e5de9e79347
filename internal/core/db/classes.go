package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/models"
)

const maxIDAttempts = 5

// randomHex returns n lowercase hex characters from a fresh v4 UUID
func randomHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateClass inserts a new class and creates its archive directory.
// The class ID is the slugified name plus a random 6-hex suffix, so repeated
// names still get distinct IDs.
func (db *DB) CreateClass(name, code, color string) (*models.Class, error) {
	name = strings.TrimSpace(name)
	if err := (&models.Class{Name: name}).Validate(); err != nil {
		return nil, errs.E(errs.Validation, "create class", err)
	}
	if color == "" {
		color = models.DefaultColor
	}

	slug := models.Slugify(name)
	now := db.timestamp()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		classID := slug + "-" + randomHex(6)
		classCode := strings.TrimSpace(code)
		if classCode == "" {
			classCode = classID
		}

		class, err := db.insertClass(classID, name, classCode, color, now)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return class, nil
	}

	return nil, fmt.Errorf("create class %q: could not allocate a unique id", name)
}

func (db *DB) insertClass(classID, name, code, color string, now time.Time) (*models.Class, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO classes (class_id, name, code, color, created_at, updated_at, sessions_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, classID, name, code, color, toNanos(now), toNanos(now))
	if err != nil {
		return nil, fmt.Errorf("insert class: %w", err)
	}

	if err := os.MkdirAll(db.ClassDir(classID), 0755); err != nil {
		return nil, fmt.Errorf("create class directory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &models.Class{
		ClassID:   classID,
		Name:      name,
		Code:      code,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

const classColumns = `class_id, name, code, color, created_at, updated_at, sessions_count, last_session_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(row rowScanner) (*models.Class, error) {
	var (
		c                models.Class
		created, updated int64
		lastSession      sql.NullInt64
	)
	err := row.Scan(&c.ClassID, &c.Name, &c.Code, &c.Color, &created, &updated, &c.SessionsCount, &lastSession)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = fromNanos(created)
	c.UpdatedAt = fromNanos(updated)
	if lastSession.Valid {
		t := fromNanos(lastSession.Int64)
		c.LastSessionAt = &t
	}
	return &c, nil
}

// ListClasses returns class metadata in creation order, without sessions
func (db *DB) ListClasses() ([]models.Class, error) {
	rows, err := db.conn.Query(`SELECT ` + classColumns + ` FROM classes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []models.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

// GetClass returns the class with its sessions newest first.
// A missing class returns (nil, nil).
func (db *DB) GetClass(classID string) (*models.Class, error) {
	c, err := db.lookupClass(classID)
	if err != nil || c == nil {
		return nil, err
	}

	sessions, err := db.ListSessions(classID)
	if err != nil {
		return nil, err
	}
	c.Sessions = sessions
	return c, nil
}

func (db *DB) lookupClass(classID string) (*models.Class, error) {
	c, err := scanClass(db.conn.QueryRow(`SELECT `+classColumns+` FROM classes WHERE class_id = ?`, classID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class %s: %w", classID, err)
	}
	return c, nil
}

// DeleteClass removes the class and, through the foreign-key cascade, all of
// its sessions and import records in one transaction. The archive directory is
// removed after commit; if that fails the returned error is a PartialFailure
// and existed is still true.
func (db *DB) DeleteClass(classID string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM classes WHERE class_id = ?`, classID)
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	if err := os.RemoveAll(db.ClassDir(classID)); err != nil {
		log.Printf("[db] class %s deleted but archive removal failed: %v", classID, err)
		return true, errs.E(errs.PartialFailure, "delete class archive", err, classID)
	}
	return true, nil
}
