// Package database stores AIRAC cycles recorded by the rollover scheduler.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a cycle was never recorded.
var ErrNotFound = errors.New("cycle not recorded")

// MemoryPath opens a private in-memory store.
const MemoryPath = ":memory:"

// DB is the cycle store.
type DB struct {
	*sql.DB
	path   string
	logger *slog.Logger
}

// Status summarises the store for health checks.
type Status struct {
	SchemaVersion  int    `json:"schema_version"`
	RecordedCycles int    `json:"recorded_cycles"`
	LatestCycle    string `json:"latest_cycle,omitempty"`
}

// Open opens the SQLite file at path, creating its directory if needed.
// The store keeps a single connection: SQLite has one writer and an
// in-memory database exists only on the connection that created it.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	logger.Debug("cycle store opened", slog.String("path", path))
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

// Close closes the store.
func (db *DB) Close() error {
	db.logger.Debug("cycle store closed", slog.String("path", db.path))
	return db.DB.Close()
}

// Health reports the schema version and how many cycles have been recorded.
// It fails when the store cannot be queried or has not been migrated.
func (db *DB) Health(ctx context.Context) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var st Status
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(MAX(version), 0) FROM schema_migrations),
			(SELECT COUNT(*) FROM cycles),
			COALESCE((SELECT identifier FROM cycles ORDER BY effective_start DESC LIMIT 1), '')
	`).Scan(&st.SchemaVersion, &st.RecordedCycles, &st.LatestCycle)
	if err != nil {
		return Status{}, fmt.Errorf("query store status: %w", err)
	}
	if st.SchemaVersion < len(migrationsSQL) {
		return st, fmt.Errorf("schema version %d, want %d", st.SchemaVersion, len(migrationsSQL))
	}
	return st, nil
}

// Migrate brings the cycles schema up to date in one transaction and
// returns how many migrations were applied.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	applied := 0

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			)
		`)
		if err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}

		var current int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM schema_migrations",
		).Scan(&current); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		for version := current + 1; version <= len(migrationsSQL); version++ {
			stmt, ok := migrationsSQL[version]
			if !ok {
				return fmt.Errorf("migration %d missing", version)
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version) VALUES (?)", version,
			); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.logger.Debug("cycle schema up to date",
		slog.Int("applied", applied),
		slog.Int("version", len(migrationsSQL)),
	)
	return applied, nil
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
