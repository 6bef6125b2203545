package storage

import (
	"context"
	"database/sql"
)

// migrateV001 creates the daily_entries table. One row per calendar day;
// the dimension maps are stored as JSON objects so key order survives a
// round trip.
func migrateV001(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_entries (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			date           TEXT NOT NULL,
			projects       TEXT NOT NULL DEFAULT '{}',
			languages      TEXT NOT NULL DEFAULT '{}',
			relative_files TEXT NOT NULL DEFAULT '{}',
			hourly         TEXT NOT NULL DEFAULT '{}',
			total_minutes  INTEGER NOT NULL DEFAULT 0 CHECK (total_minutes >= 0),
			last_timestamp INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_entries_date ON daily_entries(date)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
