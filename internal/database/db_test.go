package database

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/zapponejosh/airac-cycle/internal/airac"
)

// testDB creates a temporary in-memory database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()

	// Quiet logger for tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	db, err := Open(MemoryPath, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func mustCycle(t *testing.T, id string) airac.Cycle {
	t.Helper()
	c, err := airac.FromIdentifier(id)
	if err != nil {
		t.Fatalf("FromIdentifier(%q): %v", id, err)
	}
	return c
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestHealth(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	st, err := db.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if st.SchemaVersion != 1 || st.RecordedCycles != 0 || st.LatestCycle != "" {
		t.Errorf("Health() = %+v, want version 1 and no cycles", st)
	}

	for _, id := range []string{"2313", "2402", "2401"} {
		if _, err := db.UpsertCycles(ctx, NewCycleRecord(mustCycle(t, id))); err != nil {
			t.Fatalf("UpsertCycles(%s) error = %v", id, err)
		}
	}

	st, err = db.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if st.RecordedCycles != 3 || st.LatestCycle != "2402" {
		t.Errorf("Health() = %+v, want 3 cycles with 2402 latest", st)
	}
}

func TestHealth_Unmigrated(t *testing.T) {
	db, err := Open(MemoryPath, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Health(context.Background()); err == nil {
		t.Error("Health() on unmigrated store succeeded, want error")
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/airac.db"

	db, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Running again should be a no-op
	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() count = %d, want 0 (already applied)", count)
	}
}

// -----------------------------------------------------------------
// Cycle tests
// -----------------------------------------------------------------

func TestUpsertCycles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	created, err := db.UpsertCycles(ctx,
		NewCycleRecord(mustCycle(t, "2401")),
		NewCycleRecord(mustCycle(t, "2402")),
	)
	if err != nil {
		t.Fatalf("UpsertCycles() error = %v", err)
	}
	if created != 2 {
		t.Errorf("UpsertCycles() created = %d, want 2", created)
	}

	// Second pass only refreshes
	created, err = db.UpsertCycles(ctx,
		NewCycleRecord(mustCycle(t, "2402")),
		NewCycleRecord(mustCycle(t, "2403")),
	)
	if err != nil {
		t.Fatalf("UpsertCycles() error = %v", err)
	}
	if created != 1 {
		t.Errorf("UpsertCycles() created = %d, want 1", created)
	}
}

func TestUpsertCycles_RollsBackOnError(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	bad := CycleRecord{Identifier: "24011", EffectiveStart: "2024-01-25", EffectiveEnd: "2024-02-21"}
	_, err := db.UpsertCycles(ctx, NewCycleRecord(mustCycle(t, "2401")), bad)
	if err == nil {
		t.Fatal("UpsertCycles() with invalid identifier succeeded, want error")
	}

	if _, err := db.GetCycle(ctx, "2401"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCycle() after rollback error = %v, want not found", err)
	}
}

func TestGetCycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	want := mustCycle(t, "2014")
	if _, err := db.UpsertCycles(ctx, NewCycleRecord(want)); err != nil {
		t.Fatalf("UpsertCycles() error = %v", err)
	}

	rec, err := db.GetCycle(ctx, "2014")
	if err != nil {
		t.Fatalf("GetCycle() error = %v", err)
	}
	if rec.EffectiveStart != "2020-12-31" || rec.EffectiveEnd != "2021-01-27" {
		t.Errorf("GetCycle() = %+v, want 2020-12-31..2021-01-27", rec)
	}
	if rec.RecordedAt.IsZero() {
		t.Error("GetCycle() RecordedAt not parsed")
	}

	got, err := rec.Cycle()
	if err != nil {
		t.Fatalf("Cycle() error = %v", err)
	}
	if got != want {
		t.Errorf("Cycle() = %+v, want %+v", got, want)
	}
}

func TestGetCycle_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetCycle(context.Background(), "9999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCycle() error = %v, want ErrNotFound", err)
	}
}

func TestListCycles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, id := range []string{"2402", "2313", "2401"} {
		if _, err := db.UpsertCycles(ctx, NewCycleRecord(mustCycle(t, id))); err != nil {
			t.Fatalf("UpsertCycles(%s) error = %v", id, err)
		}
	}

	all, err := db.ListCycles(ctx, 0)
	if err != nil {
		t.Fatalf("ListCycles() error = %v", err)
	}
	wantOrder := []string{"2402", "2401", "2313"}
	if len(all) != len(wantOrder) {
		t.Fatalf("ListCycles() returned %d records, want %d", len(all), len(wantOrder))
	}
	for i, id := range wantOrder {
		if all[i].Identifier != id {
			t.Errorf("ListCycles()[%d] = %s, want %s", i, all[i].Identifier, id)
		}
	}

	limited, err := db.ListCycles(ctx, 1)
	if err != nil {
		t.Fatalf("ListCycles(1) error = %v", err)
	}
	if len(limited) != 1 || limited[0].Identifier != "2402" {
		t.Errorf("ListCycles(1) = %+v, want [2402]", limited)
	}
}

func TestListCycles_Empty(t *testing.T) {
	db := testDB(t)

	records, err := db.ListCycles(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListCycles() error = %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("ListCycles() = %v, want empty slice", records)
	}
}
