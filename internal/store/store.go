package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - no run log
// 1 - runs table
// 2 - index on runs.comprehension_id
const currentSchemaVersion = 2

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
	// pin keeps a shared in-memory source database alive between queries.
	pin *sql.Conn
}

// OpenRunLog creates or opens the run log at path (":memory:" works).
// Pragmas and migrations are applied on every open; both are idempotent.
func OpenRunLog(path string) (*Store, error) {
	db, err := connect(path)
	if err != nil {
		return nil, err
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenSource opens a database that comprehension sources read from. No
// schema, journal mode or user_version is touched. The pool is not capped,
// so a source can be queried again while one of its cursors is open, as
// in a self-join across two clauses.
//
// ":memory:" becomes a uniquely named shared-cache database so every
// pooled connection sees the tables created by setup statements.
func OpenSource(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_busy_timeout=5000"
	memory := path == ":memory:"
	if memory {
		dsn = "file:source-" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	}

	db, err := connect(dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if memory {
		pin, err := db.Conn(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to pin in-memory database: %w", err)
		}
		s.pin = pin
	}
	return s, nil
}

func connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.pin != nil {
		s.pin.Close()
		s.pin = nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Exec runs a statement, e.g. to seed tables for a dataset.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_runs_comprehension
			ON runs(comprehension_id, seq)
		`); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// pragma returns the current value of a pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
