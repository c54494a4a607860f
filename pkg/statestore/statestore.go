// Package statestore persists stream watermarks in a SQLite database so
// that consecutive syncs can resume without passing state files around.
package statestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ajzo90/tap-nikabot"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

const schema = `CREATE TABLE IF NOT EXISTS bookmarks (
	stream     TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dsn, a file path or any
// DSN accepted by the sqlite driver.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("statestore: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Load returns every stored watermark.
func (s *Store) Load(ctx context.Context) (tap.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stream, value FROM bookmarks`)
	if err != nil {
		return nil, fmt.Errorf("statestore: load: %w", err)
	}
	defer rows.Close()

	state := tap.State{}
	for rows.Next() {
		var stream, value string
		if err := rows.Scan(&stream, &value); err != nil {
			return nil, fmt.Errorf("statestore: load: %w", err)
		}
		state[stream] = value
	}
	return state, rows.Err()
}

// Save upserts the watermarks of state in one transaction. Streams missing
// from state are kept; empty watermarks are skipped.
func (s *Store) Save(ctx context.Context, state tap.State) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statestore: save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bookmarks (stream, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(stream) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("statestore: save: %w", err)
	}
	defer stmt.Close()

	updated := s.now().UTC().Format(time.RFC3339)
	for _, stream := range state.Streams() {
		value, ok := state.Bookmark(stream)
		if !ok {
			continue
		}
		if _, err = stmt.ExecContext(ctx, stream, value, updated); err != nil {
			return fmt.Errorf("statestore: save '%s': %w", stream, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("statestore: save: %w", err)
	}
	return nil
}
