package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/logfields"
)

// SQLiteStore implements Store and History in a single SQLite file.
//
// Every Set is a single-row UPSERT, so two overlapping invocations can only
// race on the same key, where the last writer wins. WAL mode and a busy
// timeout make concurrent writers wait for each other instead of failing.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the store at path. A file that is not
// a readable database is moved aside to <path>.corrupt and replaced by an
// empty store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "create state directory").
			WithContext(ferrors.KeyPath, path).
			Build()
	}

	store, err := openSQLite(path)
	if err == nil {
		return store, nil
	}
	if !isCorruption(err) {
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "open state store").
			WithContext(ferrors.KeyPath, path).
			Build()
	}

	aside := path + ".corrupt"
	slog.Warn("State store unreadable, starting empty", logfields.Path(path), slog.String("moved_to", aside), logfields.Error(err))
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Rename(path+suffix, aside+suffix)
	}
	store, err = openSQLite(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "recreate state store").
			WithContext(ferrors.KeyPath, path).
			Build()
	}
	return store, nil
}

func openSQLite(path string) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		component TEXT NOT NULL,
		kind TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_component ON events(component);
	`
	_, err := s.db.Exec(schema)
	return err
}

func isCorruption(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed")
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, stateErr(err, "read key", key)
	}
	return value, true, nil
}

// Set replaces the value of a single key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().Unix(),
	)
	if err != nil {
		return stateErr(err, "write key", key)
	}
	return nil
}

// Delete removes key; deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return stateErr(err, "delete key", key)
	}
	return nil
}

// Keys returns all keys in lexical order.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, stateErr(err, "list keys", "")
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, stateErr(err, "scan key", "")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, stateErr(err, "iterate keys", "")
	}
	return keys, nil
}

// Append adds an event to the history.
func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	at := e.At
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (run_id, component, kind, outcome, detail, at) VALUES (?, ?, ?, ?, ?, ?)",
		e.RunID, e.Component, e.Kind, e.Outcome, e.Detail, at.UnixMilli(),
	)
	if err != nil {
		return stateErr(err, "append event", "")
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, component, kind, outcome, COALESCE(detail, ''), at FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, stateErr(err, "query events", "")
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var e Event
		var atMillis int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Component, &e.Kind, &e.Outcome, &e.Detail, &atMillis); err != nil {
			return nil, stateErr(err, "scan event", "")
		}
		e.At = time.UnixMilli(atMillis)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, stateErr(err, "iterate events", "")
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func stateErr(err error, op, key string) error {
	b := ferrors.WrapError(err, ferrors.CategoryState, op)
	if key != "" {
		b = b.WithContext("key", key)
	}
	return b.Build()
}
