package db

import (
	"database/sql"
	"time"
)

// Stats represents database statistics
type Stats struct {
	TotalClasses      int
	TotalSessions     int
	Summarized        int
	Pending           int
	ContentBytes      int64
	OldestSession     time.Time
	NewestSession     time.Time
	BusiestClass      string
	BusiestClassCount int
}

// GetStats returns totals across all classes
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.QueryRow("SELECT COUNT(*) FROM classes").Scan(&stats.TotalClasses)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN summary IS NOT NULL THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(LENGTH(CAST(content AS BLOB))), 0)
		FROM sessions
	`).Scan(&stats.TotalSessions, &stats.Summarized, &stats.ContentBytes)
	if err != nil {
		return nil, err
	}
	stats.Pending = stats.TotalSessions - stats.Summarized

	if stats.TotalSessions == 0 {
		return stats, nil
	}

	var minCreated, maxCreated int64
	err = db.QueryRow("SELECT MIN(created_at), MAX(created_at) FROM sessions").Scan(&minCreated, &maxCreated)
	if err != nil {
		return nil, err
	}
	stats.OldestSession = fromNanos(minCreated)
	stats.NewestSession = fromNanos(maxCreated)

	var busiest sql.NullString
	err = db.QueryRow(`
		SELECT name, sessions_count
		FROM classes
		ORDER BY sessions_count DESC, seq ASC
		LIMIT 1
	`).Scan(&busiest, &stats.BusiestClassCount)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if busiest.Valid {
		stats.BusiestClass = busiest.String
	}

	return stats, nil
}
