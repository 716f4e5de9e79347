package db

import (
	"fmt"
)

// migrate applies database migrations for existing databases
func (db *DB) migrate() error {
	// Migration 1: insights column (databases created before insight extraction)
	if err := db.addColumnIfMissing("sessions", "insights", "TEXT"); err != nil {
		return fmt.Errorf("migration 001: %w", err)
	}

	// Migration 2: metadata column
	if err := db.addColumnIfMissing("sessions", "metadata", "TEXT"); err != nil {
		return fmt.Errorf("migration 002: %w", err)
	}

	// Migration 3: import_log.session_id links an import to the session it produced
	if err := db.addColumnIfMissing("import_log", "session_id", "TEXT"); err != nil {
		return fmt.Errorf("migration 003: %w", err)
	}

	return nil
}

func (db *DB) addColumnIfMissing(table, column, decl string) error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?)
		WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = db.conn.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	if err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}
