package db

import "fmt"

// HasImported reports whether a file with this hash was already imported
// successfully into the class
func (db *DB) HasImported(classID, fileHash string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM import_log
			WHERE class_id = ? AND file_hash = ? AND status = 'success'
		)
	`, classID, fileHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check import log: %w", err)
	}
	return exists, nil
}

// RecordImport logs one import attempt. importErr nil means success.
func (db *DB) RecordImport(classID, filePath, fileHash, sessionID string, importErr error) error {
	status := "success"
	var message any
	if importErr != nil {
		status = "failed"
		message = importErr.Error()
	}
	var session any
	if sessionID != "" {
		session = sessionID
	}

	_, err := db.conn.Exec(`
		INSERT INTO import_log (class_id, file_path, file_hash, session_id, imported_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, classID, filePath, fileHash, session, toNanos(db.timestamp()), status, message)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}
