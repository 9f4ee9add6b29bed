// Package db opens the local sqlite database and keeps its schema current.
// The database only holds client-side state (the persisted viewport); all
// cadastral data stays on the remote feature service.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*sql.DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if _, err := d.Exec("PRAGMA journal_mode = WAL"); err != nil {
		d.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return d, nil
}

// RunMigrations brings the schema up to date. Safe to run on every start.
func RunMigrations(d *sql.DB) error {
	_, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`)
	if err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}
