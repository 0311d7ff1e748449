// Package sqlite provides a SQLite session backend via database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tjfontaine/relay/internal/core/ports"
)

// Backend stores session entries in a SQLite database.
type Backend struct {
	db *sql.DB
}

var _ ports.SessionBackend = (*Backend)(nil)

// New opens the database at path and initializes the schema.
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return b, nil
}

func (b *Backend) initSchema() error {
	_, err := b.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (session_id, key)
	)`)
	return err
}

func (b *Backend) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM sessions WHERE session_id = ? AND key = ?`,
		sessionID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *Backend) Set(ctx context.Context, sessionID, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, key)
		 DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		sessionID, key, value, time.Now().UTC(),
	)
	return err
}

func (b *Backend) Delete(ctx context.Context, sessionID, key string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ? AND key = ?`,
		sessionID, key,
	)
	return err
}

func (b *Backend) Clear(ctx context.Context, sessionID string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`,
		sessionID,
	)
	return err
}

// PurgeBefore removes entries not touched since cutoff. Callers run this on
// whatever expiry schedule their deployment wants; the engine itself imposes
// no session-expiry policy on persistent backends.
func (b *Backend) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (b *Backend) Close() error {
	return b.db.Close()
}
