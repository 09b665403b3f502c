package store

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by every operation on a handle that
// was never opened or has been closed.
var ErrNotInitialized = errors.New("store not initialized")

// StorageError wraps an I/O or corruption failure from the backing
// database. The engine performs no retries; callers log and continue,
// since telemetry ingestion is best-effort.
type StorageError struct {
	// Op identifies the failing operation ("open", "insert", ...).
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CodecError reports a stored payload that no longer decodes: the data
// on disk does not match current schema expectations.
type CodecError struct {
	RowID    string
	DeviceID string
	Err      error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("payload for row %s (device %s) failed to decode: %v", e.RowID, e.DeviceID, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }
