package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (readings table + device/time index)
const currentSchemaVersion = 1

// Store is an open handle to a reading database. All operations
// require a handle obtained from Open; a closed or zero-value Store
// fails every operation with ErrNotInitialized.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool

	// now is the insert/prune timestamp source. Overridden in tests.
	now func() time.Time
}

// Open creates or opens a reading database at the given path.
// Applies required pragmas and migrations automatically.
//
// Open is idempotent at the file level: calling it again for the same
// path yields a fresh handle over the same data. Processes that need
// at-most-one live handle per location go through lifecycle.Manager,
// which returns ErrAlreadyInitialized on a double open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close releases the underlying database resources. Safe to call
// multiple times; every call after the first is a no-op. Subsequent
// operations on the handle fail with ErrNotInitialized.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return nil
}

// SetNowFunc overrides the timestamp source used for insert and prune.
// Intended for tests and the scenario harness; production code leaves
// the wall clock in place. Must be called before the handle is shared.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.now = now
}

// Path returns the location this handle was opened at.
func (s *Store) Path() string {
	return s.path
}

// ready gates every operation on the handle being open.
func (s *Store) ready() error {
	if s == nil || s.db == nil || s.closed.Load() {
		return ErrNotInitialized
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the table and index if they don't exist and runs
// migrations. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on
// user_version. The layout is single-versioned for now; this only
// pins the version so a future migration has a base to start from.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
