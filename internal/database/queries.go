package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns the zero time if parsing fails.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// =============================================================================
// Cycle Queries
// =============================================================================

// UpsertCycles stores the given cycles in a single transaction.
// Existing cycles only get their recorded_at refreshed.
//
// Returns the number of cycles that were not stored before.
func (db *DB) UpsertCycles(ctx context.Context, records ...CycleRecord) (int, error) {
	created := 0

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			var exists int
			err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM cycles WHERE identifier = ?",
				rec.Identifier,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check cycle %s: %w", rec.Identifier, err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO cycles (identifier, effective_start, effective_end)
				VALUES (?, ?, ?)
				ON CONFLICT (identifier) DO UPDATE SET
					effective_start = excluded.effective_start,
					effective_end = excluded.effective_end,
					recorded_at = datetime('now')
			`, rec.Identifier, rec.EffectiveStart, rec.EffectiveEnd)
			if err != nil {
				return fmt.Errorf("upsert cycle %s: %w", rec.Identifier, err)
			}

			if exists == 0 {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// GetCycle retrieves a recorded cycle by identifier.
// Returns ErrNotFound if the cycle was never recorded.
func (db *DB) GetCycle(ctx context.Context, identifier string) (*CycleRecord, error) {
	query := `
		SELECT identifier, effective_start, effective_end, recorded_at
		FROM cycles
		WHERE identifier = ?
	`

	var rec CycleRecord
	var recordedAt string

	err := db.QueryRowContext(ctx, query, identifier).Scan(
		&rec.Identifier,
		&rec.EffectiveStart,
		&rec.EffectiveEnd,
		&recordedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query cycle %s: %w", identifier, err)
	}

	rec.RecordedAt = parseTimestamp(recordedAt)
	return &rec, nil
}

// ListCycles returns recorded cycles, newest effective date first.
// A non-positive limit returns every cycle.
func (db *DB) ListCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	query := `
		SELECT identifier, effective_start, effective_end, recorded_at
		FROM cycles
		ORDER BY effective_start DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	records := []CycleRecord{}
	for rows.Next() {
		var rec CycleRecord
		var recordedAt string
		if err := rows.Scan(&rec.Identifier, &rec.EffectiveStart, &rec.EffectiveEnd, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		rec.RecordedAt = parseTimestamp(recordedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}

	return records, nil
}
