package store

import (
	"context"
	"time"
)

// PruneOlderThan deletes every reading, across all devices, whose
// ingest_time falls strictly before now minus age. Rows with
// ingest_time exactly equal to the threshold are retained.
//
// Returns the number of rows removed. Idempotent: a second call with
// no intervening inserts removes zero rows. The delete is a single
// atomic statement.
func (s *Store) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	threshold := s.now().Add(-age).UnixMilli()

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM readings WHERE ingest_time < ?
	`, threshold)
	if err != nil {
		return 0, &StorageError{Op: "prune", Err: err}
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "prune", Err: err}
	}

	return removed, nil
}
