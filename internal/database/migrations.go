package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1Cycles,
}

// migrationV1Cycles creates the cycles table.
//
// Dates are stored as YYYY-MM-DD text so they sort chronologically and
// compare directly against the API's date parameters.
const migrationV1Cycles = `
CREATE TABLE IF NOT EXISTS cycles (
    -- Four digit AIRAC identifier, e.g. 2401
    identifier TEXT PRIMARY KEY CHECK (length(identifier) = 4),

    -- Inclusive effective range
    effective_start TEXT NOT NULL,
    effective_end TEXT NOT NULL,

    -- Last time the scheduler saw this cycle
    recorded_at TEXT NOT NULL DEFAULT (datetime('now')),

    CHECK (effective_start <= effective_end)
);

CREATE INDEX IF NOT EXISTS idx_cycles_effective_start
    ON cycles(effective_start);
`
