package storage

import (
	"database/sql"
	"fmt"
)

// migrationVersion is the current schema version.
const migrationVersion = 1

// initializeSchema creates the schema, tracking applied versions so future
// migrations can build on existing databases.
func initializeSchema(db *sql.DB) error {
	const migrationsTable = `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&current); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	if current < 1 {
		if err := applyMigration1(db); err != nil {
			return fmt.Errorf("apply migration 1: %w", err)
		}
	}
	return nil
}

// applyMigration1 creates the runs table.
func applyMigration1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const runsTable = `
	CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		outcome TEXT NOT NULL,
		step_count INTEGER NOT NULL,
		error_value TEXT,
		steps TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`
	if _, err := tx.Exec(runsTable); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := tx.Exec(`CREATE INDEX idx_runs_created_at ON runs(created_at DESC);`); err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO migrations (version) VALUES (?)`, migrationVersion); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
