package viewport

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteStore persists the viewport in the settings table of the local
// database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the stored viewport, or Default when none has been saved.
func (s *SQLiteStore) Load(ctx context.Context) (Viewport, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", StorageKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Default, nil
	}
	if err != nil {
		return Default, fmt.Errorf("load viewport: %w", err)
	}
	var v Viewport
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Default, fmt.Errorf("parse stored viewport: %w", err)
	}
	return v, nil
}

// Save upserts the viewport.
func (s *SQLiteStore) Save(ctx context.Context, v Viewport) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		StorageKey, string(raw))
	if err != nil {
		return fmt.Errorf("save viewport: %w", err)
	}
	return nil
}
