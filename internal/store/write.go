package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kbolt/sensorlog/internal/record"
)

// Outcome classifies the result of an insert.
type Outcome string

const (
	// OutcomeInserted means a new row was written.
	OutcomeInserted Outcome = "inserted"

	// OutcomeDuplicate means an identical payload was already stored
	// (for any device) and the insert was a no-op.
	OutcomeDuplicate Outcome = "duplicate"
)

// InsertResult reports what an insert did. For a duplicate, RowID and
// IngestTime identify the previously stored row that won.
type InsertResult struct {
	Outcome    Outcome
	RowID      string
	IngestTime int64 // milliseconds since epoch
}

// Insert stores a reading for a device.
//
// The reading is canonically encoded and fingerprinted; if the
// fingerprint already exists anywhere in the table the insert is a
// silent no-op at the storage layer and the result reports
// OutcomeDuplicate. Dedup is deliberately table-wide, not per-device:
// identical payloads from two devices collapse to one row.
//
// Uses ON CONFLICT(payload_hash) DO NOTHING plus RowsAffected to
// distinguish the two outcomes; a transaction makes the
// insert-or-fetch-existing pair atomic.
func (s *Store) Insert(ctx context.Context, deviceID string, r record.Reading) (InsertResult, error) {
	if err := s.ready(); err != nil {
		return InsertResult{}, err
	}
	if deviceID == "" {
		return InsertResult{}, fmt.Errorf("insert: device id is empty")
	}

	canonical, err := record.EncodeCanonical(r)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert: %w", err)
	}
	hash := record.Fingerprint(canonical)

	rowID := uuid.Must(uuid.NewV7()).String()
	ingestTime := s.now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return InsertResult{}, &StorageError{Op: "insert", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO readings
		(row_id, device_id, ingest_time, payload, payload_hash,
		 battery, door_open, heater_on, humidity, pressure, status, temperature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`,
		rowID,
		deviceID,
		ingestTime,
		string(canonical),
		hash,
		r.Battery,
		r.DoorOpen,
		r.HeaterOn,
		r.Humidity,
		r.Pressure,
		r.Status,
		r.Temperature,
	)
	if err != nil {
		return InsertResult{}, &StorageError{Op: "insert", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return InsertResult{}, &StorageError{Op: "insert", Err: err}
	}

	res := InsertResult{}
	if rowsAffected > 0 {
		res.Outcome = OutcomeInserted
		res.RowID = rowID
		res.IngestTime = ingestTime
	} else {
		// Conflict - fetch the row that won so the caller can see
		// which stored reading this payload collapsed into.
		err = tx.QueryRowContext(ctx, `
			SELECT row_id, ingest_time FROM readings WHERE payload_hash = ?
		`, hash).Scan(&res.RowID, &res.IngestTime)
		if err != nil {
			return InsertResult{}, &StorageError{Op: "insert", Err: err}
		}
		res.Outcome = OutcomeDuplicate
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, &StorageError{Op: "insert", Err: err}
	}

	return res, nil
}
