// Package db provides SQLite storage for the mailsheets checkpoint.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// StateDir is the per-project directory holding local state.
const StateDir = ".mailsheets"

// DB wraps a SQLite connection holding the last processed checkpoint.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) a state database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// DefaultPath returns .mailsheets/state.db under root.
func DefaultPath(root string) string {
	return filepath.Join(root, StateDir, "state.db")
}

// FindProjectRoot walks up from cwd looking for a .mailsheets or .git
// directory. Falls back to cwd.
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	dir := cwd
	for {
		for _, marker := range []string{StateDir, ".git"} {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Checkpoint ---

// Checkpoint returns the stored checkpoint token. ok is false when none has
// been saved yet.
func (d *DB) Checkpoint(ctx context.Context) (token string, ok bool, err error) {
	err = d.conn.QueryRowContext(ctx, "SELECT token FROM checkpoint WHERE id = 1").Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read checkpoint: %w", err)
	}
	return token, true, nil
}

// CheckpointUpdatedAt returns when the checkpoint was last written, or "".
func (d *DB) CheckpointUpdatedAt(ctx context.Context) string {
	var t sql.NullString
	d.conn.QueryRowContext(ctx, "SELECT updated_at FROM checkpoint WHERE id = 1").Scan(&t)
	if t.Valid {
		return t.String
	}
	return ""
}

// SetCheckpoint replaces the stored checkpoint token.
func (d *DB) SetCheckpoint(ctx context.Context, token string) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO checkpoint (id, token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		token, Now(),
	)
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
