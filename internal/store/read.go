package store

import (
	"context"

	"github.com/kbolt/sensorlog/internal/record"
)

// TimedReading is a decoded reading together with the ingest timestamp
// the engine assigned to it.
type TimedReading struct {
	Reading    record.Reading
	IngestTime int64 // milliseconds since epoch
}

// ListByDevice returns all readings for a device, newest first.
// Returns an empty slice (not nil, not an error) when the device has
// no rows. The result is a snapshot of the table at call time:
// inserts whose write completed before the read began are reflected.
func (s *Store) ListByDevice(ctx context.Context, deviceID string) ([]record.Reading, error) {
	timed, err := s.ListByDeviceWithTime(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	readings := make([]record.Reading, len(timed))
	for i, tr := range timed {
		readings[i] = tr.Reading
	}
	return readings, nil
}

// ListByDeviceWithTime is ListByDevice with the ingest timestamp
// exposed per reading, for callers that need temporal context
// (charting, staleness checks).
//
// Ordering is ingest_time DESC with row_id as a deterministic
// tiebreak for readings ingested within the same millisecond.
func (s *Store) ListByDeviceWithTime(ctx context.Context, deviceID string) ([]TimedReading, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_id, payload, ingest_time
		FROM readings
		WHERE device_id = ?
		ORDER BY ingest_time DESC, row_id COLLATE BINARY DESC
	`, deviceID)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var readings []TimedReading
	for rows.Next() {
		var rowID, payload string
		var ingestTime int64
		if err := rows.Scan(&rowID, &payload, &ingestTime); err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}

		r, err := record.DecodeCanonical([]byte(payload))
		if err != nil {
			return nil, &CodecError{RowID: rowID, DeviceID: deviceID, Err: err}
		}

		readings = append(readings, TimedReading{Reading: r, IngestTime: ingestTime})
	}

	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	// Return empty slice instead of nil
	if readings == nil {
		readings = []TimedReading{}
	}

	return readings, nil
}

// CountAll returns the total number of stored readings across all
// devices. Used by retention sweeps and tests.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&count)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}
