package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with foresight-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
// Every pooled connection would get its own empty database, so the pool is
// pinned to a single connection.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
// List-valued forecast fields are stored as JSON arrays.
const schema = `
CREATE TABLE IF NOT EXISTS forecasts (
    id TEXT PRIMARY KEY,
    event TEXT NOT NULL,
    horizon TEXT NOT NULL,
    probability REAL NOT NULL CHECK(probability >= 0 AND probability <= 1),
    ci_low REAL NOT NULL DEFAULT 0,
    ci_high REAL NOT NULL DEFAULT 1,
    key_drivers TEXT NOT NULL DEFAULT '[]',
    disconfirming_evidence TEXT NOT NULL DEFAULT '[]',
    update_triggers TEXT NOT NULL DEFAULT '[]',
    evidence TEXT NOT NULL DEFAULT '[]',
    sources TEXT NOT NULL DEFAULT '[]',
    domain TEXT NOT NULL,
    event_category TEXT,
    doctrine_agents_used TEXT NOT NULL DEFAULT '[]',
    base_rate REAL,
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','resolved_true','resolved_false','expired')),
    created_at DATETIME NOT NULL,
    updated_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_forecasts_status ON forecasts(status);
CREATE INDEX IF NOT EXISTS idx_forecasts_domain ON forecasts(domain);

CREATE TABLE IF NOT EXISTS outcomes (
    forecast_id TEXT PRIMARY KEY REFERENCES forecasts(id) ON DELETE CASCADE,
    resolved INTEGER NOT NULL,
    resolution_date TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    recorded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scenario_sets (
    id TEXT PRIMARY KEY,
    topic TEXT NOT NULL,
    domain TEXT,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scenario_snapshots (
    set_id TEXT NOT NULL REFERENCES scenario_sets(id) ON DELETE CASCADE,
    revision INTEGER NOT NULL,
    scenarios TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (set_id, revision)
);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    set_id TEXT NOT NULL REFERENCES scenario_sets(id) ON DELETE CASCADE,
    topic TEXT NOT NULL,
    revision INTEGER NOT NULL,
    message TEXT NOT NULL,
    delivered INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_set ON notifications(set_id);

CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    timestamp DATETIME NOT NULL,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    subject TEXT NOT NULL,
    subject_id TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL,
    previous_value TEXT NOT NULL DEFAULT '',
    new_value TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_subject ON audit_entries(subject, subject_id);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
`
