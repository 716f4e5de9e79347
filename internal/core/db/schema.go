package db

func (db *DB) initSchema() error {
	schema := `
	-- Classes table; seq keeps insertion order for listing
	CREATE TABLE IF NOT EXISTS classes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		color TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		sessions_count INTEGER NOT NULL DEFAULT 0,
		last_session_at INTEGER
	);

	-- Sessions table, one row per ingested lecture or document
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		summary TEXT,
		insights TEXT,
		metadata TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE (class_id, session_id),
		FOREIGN KEY (class_id) REFERENCES classes(class_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_class_created ON sessions(class_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_pending ON sessions(created_at) WHERE summary IS NULL;

	-- Import log table
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		session_id TEXT,
		imported_at INTEGER NOT NULL,
		status TEXT CHECK(status IN ('success', 'failed')),
		error_message TEXT,
		FOREIGN KEY (class_id) REFERENCES classes(class_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_import_log_file_hash ON import_log(class_id, file_hash);
	`

	_, err := db.conn.Exec(schema)
	return err
}
