package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is bumped whenever table layouts change.
const SchemaVersion = "1"

// CreateSchema creates all tables and indexes for the rule store.
// All statements run in one transaction.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"mapping_rules", createMappingRulesTable},
		{"method_mappings", createMethodMappingsTable},
		{"adapters", createAdaptersTable},
		{"oracle_scores", createOracleScoresTable},
		{"store_metadata", createStoreMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO store_metadata (key, value, updated_at) VALUES (?, ?, ?)`,
		"schema_version", SchemaVersion, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the recorded schema version, or "0" for an
// uninitialized database.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var exists int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='store_metadata'`,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata table: %w", err)
	}
	if exists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow(`SELECT value FROM store_metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    source_dir TEXT NOT NULL,
    target_dir TEXT NOT NULL,
    min_confidence REAL NOT NULL,
    languages TEXT NOT NULL,
    total INTEGER NOT NULL DEFAULT 0,
    processed INTEGER NOT NULL DEFAULT 0,
    successful INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    started_at TEXT NOT NULL,
    finished_at TEXT
)`

const createMappingRulesTable = `
CREATE TABLE IF NOT EXISTS mapping_rules (
    rule_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    source_platform TEXT NOT NULL,
    source_class TEXT NOT NULL,
    target_platform TEXT NOT NULL,
    target_class TEXT NOT NULL,
    mapping_type TEXT NOT NULL,
    confidence REAL NOT NULL,
    requires_imports TEXT NOT NULL DEFAULT '[]',
    bridge_code TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)`

const createMethodMappingsTable = `
CREATE TABLE IF NOT EXISTS method_mappings (
    rule_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    source_method TEXT NOT NULL,
    target_method TEXT NOT NULL,
    param_mappings TEXT NOT NULL DEFAULT '[]',
    pre_call_code TEXT NOT NULL DEFAULT '',
    post_call_code TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (rule_id, position),
    FOREIGN KEY (rule_id) REFERENCES mapping_rules(rule_id) ON DELETE CASCADE
)`

const createAdaptersTable = `
CREATE TABLE IF NOT EXISTS adapters (
    rule_id TEXT NOT NULL,
    language TEXT NOT NULL,
    draft INTEGER NOT NULL DEFAULT 0,
    path TEXT NOT NULL,
    checksum TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    PRIMARY KEY (rule_id, language, draft),
    FOREIGN KEY (rule_id) REFERENCES mapping_rules(rule_id) ON DELETE CASCADE
)`

const createOracleScoresTable = `
CREATE TABLE IF NOT EXISTS oracle_scores (
    rule_id TEXT PRIMARY KEY,
    score REAL NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (rule_id) REFERENCES mapping_rules(rule_id) ON DELETE CASCADE
)`

const createStoreMetadataTable = `
CREATE TABLE IF NOT EXISTS store_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_rules_run ON mapping_rules(run_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_rules_source ON mapping_rules(source_class)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
}
