package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all xbench tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		seed         INTEGER NOT NULL DEFAULT 0,
		state        TEXT NOT NULL DEFAULT 'PENDING',
		error        TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		completed_at TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS results (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL REFERENCES runs(id),
		step       INTEGER NOT NULL,
		node       TEXT NOT NULL,
		workload   TEXT NOT NULL,
		stdout     TEXT NOT NULL DEFAULT '',
		stderr     TEXT NOT NULL DEFAULT '',
		returncode INTEGER NOT NULL DEFAULT 0,
		folder     TEXT NOT NULL DEFAULT '',
		log        TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state)`,
	`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
}

// migrate applies every schema statement, tolerating re-runs.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// Ignore duplicate-object races from concurrent migrations.
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return err
		}
	}
	return nil
}
