package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	_ "modernc.org/sqlite"
)

// SQLite stores runs in a single table of a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the SQLite database and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets readers proceed while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			key          TEXT PRIMARY KEY,
			scenario     TEXT NOT NULL,
			data_version TEXT NOT NULL,
			rules        TEXT NOT NULL,
			result       BLOB NOT NULL,
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}

	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Put inserts the run. An existing run with the same key is kept.
func (s *SQLite) Put(ctx context.Context, run Run) error {
	rules, err := json.Marshal(run.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	result, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	const q = `INSERT OR IGNORE INTO runs
		(key, scenario, data_version, rules, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, q, run.Key, string(run.Scenario), run.DataVersion, string(rules), result, run.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("insert run %s: %w", run.Key, err)
	}

	return nil
}

// Get returns the run stored under the specified key.
func (s *SQLite) Get(ctx context.Context, key string) (Run, error) {
	const q = `SELECT scenario, data_version, rules, result, created_at FROM runs WHERE key = ?`

	var scenario string
	var rules string
	var result []byte
	var createdAt int64

	run := Run{Key: key}
	err := s.db.QueryRowContext(ctx, q, key).Scan(&scenario, &run.DataVersion, &rules, &result, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("select run %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(rules), &run.Rules); err != nil {
		return Run{}, fmt.Errorf("unmarshal rules: %w", err)
	}

	if err := json.Unmarshal(result, &run.Result); err != nil {
		return Run{}, fmt.Errorf("unmarshal result: %w", err)
	}

	run.Scenario = runner.Scenario(scenario)
	run.CreatedAt = time.UnixMilli(createdAt).UTC()

	return run, nil
}
