package store

import (
	"context"
	"time"
)

// InsertLogEvent appends one audit row. Callers treat failures as
// best-effort; nothing user-facing depends on this table.
func (s *Store) InsertLogEvent(ctx context.Context, ts time.Time, event string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO logs (timestamp_unix, event) VALUES (?, ?)`,
		ts.UTC().UnixNano(),
		event,
	)
	return err
}

// CountLogEvents reports how many audit rows match the given substring,
// or all rows when the filter is empty.
func (s *Store) CountLogEvents(ctx context.Context, contains string) (int, error) {
	var count int
	if contains == "" {
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM logs`).Scan(&count)
		return count, err
	}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM logs WHERE event LIKE '%' || ? || '%'`,
		contains,
	).Scan(&count)
	return count, err
}
