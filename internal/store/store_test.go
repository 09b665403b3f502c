package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbolt/sensorlog/internal/testutil"
)

// newTestStore opens a store in a temp dir on a manual clock starting
// at Unix epoch.
func newTestStore(t *testing.T) (*Store, *testutil.Clock) {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewClock(time.UnixMilli(0).UTC())
	s.SetNowFunc(clock.Now)
	return s, clock
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM readings").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='readings'",
	).Scan(&name)
	if err != nil {
		t.Errorf("readings table not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("raw open failed: %v", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("apply schema failed: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version failed: %v", err)
	}
	db.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error for newer schema version, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on zero-value store should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got: %v", err)
	}
}

func TestClosedHandle_FailsNotInitialized(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	ctx := context.Background()

	if _, err := s.Insert(ctx, "kit1", testReading(21.5)); err != ErrNotInitialized {
		t.Errorf("Insert on closed handle: got %v, want ErrNotInitialized", err)
	}
	if _, err := s.ListByDevice(ctx, "kit1"); err != ErrNotInitialized {
		t.Errorf("ListByDevice on closed handle: got %v, want ErrNotInitialized", err)
	}
	if _, err := s.ListByDeviceWithTime(ctx, "kit1"); err != ErrNotInitialized {
		t.Errorf("ListByDeviceWithTime on closed handle: got %v, want ErrNotInitialized", err)
	}
	if _, err := s.PruneOlderThan(ctx, time.Hour); err != ErrNotInitialized {
		t.Errorf("PruneOlderThan on closed handle: got %v, want ErrNotInitialized", err)
	}
	if _, err := s.CountAll(ctx); err != ErrNotInitialized {
		t.Errorf("CountAll on closed handle: got %v, want ErrNotInitialized", err)
	}
}

func TestZeroValueHandle_FailsNotInitialized(t *testing.T) {
	var s Store
	if _, err := s.Insert(context.Background(), "kit1", testReading(21.5)); err != ErrNotInitialized {
		t.Errorf("Insert on zero-value handle: got %v, want ErrNotInitialized", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s, _ := newTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

// Schema tests

func TestSchema_ReadingsTable(t *testing.T) {
	s, _ := newTestStore(t)

	columns := getTableColumns(t, s.db, "readings")

	expected := []string{
		"row_id", "device_id", "ingest_time", "payload", "payload_hash",
		"battery", "door_open", "heater_on", "humidity", "pressure", "status", "temperature",
	}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("readings table missing column %q", col)
		}
	}
}

func TestSchema_DeviceTimeIndex(t *testing.T) {
	s, _ := newTestStore(t)

	indexes := getTableIndexes(t, s.db, "readings")
	if !contains(indexes, "idx_readings_device_time") {
		t.Errorf("readings table missing index idx_readings_device_time, indexes: %v", indexes)
	}
}

func TestSchema_PayloadHashUnique(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO readings (row_id, device_id, ingest_time, payload, payload_hash)
		VALUES ('r1', 'kit1', 100, '{}', 'hash1')
	`)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO readings (row_id, device_id, ingest_time, payload, payload_hash)
		VALUES ('r2', 'kit2', 200, '{}', 'hash1')
	`)
	if err == nil {
		t.Error("expected UNIQUE constraint violation on payload_hash, got nil")
	}
}

func TestSchema_Version(t *testing.T) {
	s, _ := newTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
