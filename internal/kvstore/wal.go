package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/lfkv/epochkv/internal/session"
)

const (
	walOpPut    = "put"
	walOpDelete = "delete"
)

// WAL is an append-only log of Store mutations backed by sqlite. It exists
// solely to back `epochctl repair`: a crash-recovery demo, not a general
// persistence layer. There is no query engine and no multi-statement
// transaction support beyond append and full replay.
type WAL struct {
	db *sql.DB
}

// OpenWAL opens (creating if necessary) the sqlite-backed write-ahead log
// at path.
func OpenWAL(ctx context.Context, path string) (*WAL, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrWALOpen)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWALOpen, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrWALOpen, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
	}

	for _, stmt := range pragmas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragma %q: %w", ErrWALOpen, stmt, err)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS wal (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	op    TEXT NOT NULL,
	key   TEXT NOT NULL,
	value BLOB
)`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrWALOpen, err)
	}

	return &WAL{db: db}, nil
}

// Close closes the underlying sqlite handle.
func (w *WAL) Close() error {
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("kvstore: close wal: %w", err)
	}

	return nil
}

// AppendPut records a Put operation.
func (w *WAL) AppendPut(ctx context.Context, key string, value []byte) error {
	const stmt = `INSERT INTO wal (op, key, value) VALUES (?, ?, ?)`

	if _, err := w.db.ExecContext(ctx, stmt, walOpPut, key, value); err != nil {
		return fmt.Errorf("%w: %w", ErrWALAppend, err)
	}

	return nil
}

// AppendDelete records a Delete operation.
func (w *WAL) AppendDelete(ctx context.Context, key string) error {
	const stmt = `INSERT INTO wal (op, key, value) VALUES (?, ?, NULL)`

	if _, err := w.db.ExecContext(ctx, stmt, walOpDelete, key); err != nil {
		return fmt.Errorf("%w: %w", ErrWALAppend, err)
	}

	return nil
}

// Replay reads every recorded operation in sequence order and applies it to
// store via sess, returning the number of ops replayed. It is the entire
// implementation of `epochctl repair`.
func (w *WAL) Replay(ctx context.Context, store *Store, sess *session.Session) (int, error) {
	const query = `SELECT op, key, value FROM wal ORDER BY seq ASC`

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: query: %w", ErrWALReplay, err)
	}
	defer func() { _ = rows.Close() }()

	var count int

	for rows.Next() {
		var (
			op    string
			key   string
			value []byte
		)

		if err := rows.Scan(&op, &key, &value); err != nil {
			return count, fmt.Errorf("%w: scan: %w", ErrWALReplay, err)
		}

		switch op {
		case walOpPut:
			if err := store.Put(sess, key, value); err != nil {
				return count, fmt.Errorf("%w: replay put %q: %w", ErrWALReplay, key, err)
			}
		case walOpDelete:
			if err := store.Delete(sess, key); err != nil {
				return count, fmt.Errorf("%w: replay delete %q: %w", ErrWALReplay, key, err)
			}
		default:
			return count, fmt.Errorf("%w: unknown op %q", ErrWALReplay, op)
		}

		count++
	}

	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("%w: %w", ErrWALReplay, err)
	}

	return count, nil
}
