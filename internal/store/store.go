// Package store persists imported transactions in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/KAFKA2306/expense2/internal/domain"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store operations take a Querier so the importer can run them inside
// its transaction while tests and commands use the plain handle.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Duplicate detection is enforced by the importer, not the schema: the
// natural-key index below is non-unique on purpose. Amounts are stored as
// exact decimal strings, dates as YYYY-MM-DD, timestamps as RFC3339 UTC.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		source TEXT NOT NULL,
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_natural_key
		ON transactions (date, description, amount, source)`,
	`CREATE TABLE IF NOT EXISTS import_runs (
		id TEXT PRIMARY KEY,
		input_path TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		parsed INTEGER NOT NULL,
		inserted INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	)`,
}

// ImportRun is the audit row recorded for every import invocation
type ImportRun struct {
	ID         string
	InputPath  string
	StartedAt  time.Time
	FinishedAt time.Time
	Parsed     int
	Inserted   int
	Skipped    int
}

// Store wraps the SQLite handle
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database and ensures the schema exists.
// Parent directories of the database path are created as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a write transaction. The importer commits exactly once per
// input file so a failed run leaves the database untouched.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

// Exists reports whether a transaction with the same natural key
// (date, description, amount, source) is already stored. Queries through
// q so uncommitted inserts in the same transaction are visible.
func (s *Store) Exists(ctx context.Context, q Querier, txn domain.Transaction) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE date = ? AND description = ? AND amount = ? AND source = ? LIMIT 1`,
		txn.Date.Format(domain.DateLayout), txn.Description, txn.Amount.String(), txn.Source,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query transaction by natural key: %w", err)
	}
	return true, nil
}

// Insert stores a transaction
func (s *Store) Insert(ctx context.Context, q Querier, txn domain.Transaction) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (date, description, amount, category, source, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.Date.Format(domain.DateLayout),
		txn.Description,
		txn.Amount.String(),
		txn.Category,
		txn.Source,
		txn.Currency,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// RecordRun stores the audit row for an import invocation
func (s *Store) RecordRun(ctx context.Context, q Querier, run ImportRun) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO import_runs (id, input_path, started_at, finished_at, parsed, inserted, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.InputPath,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Parsed,
		run.Inserted,
		run.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// Runs retrieves recorded import runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]ImportRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, started_at, finished_at, parsed, inserted, skipped
		 FROM import_runs
		 ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	defer rows.Close()

	var out []ImportRun
	for rows.Next() {
		var run ImportRun
		var startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &run.InputPath, &startedAt, &finishedAt, &run.Parsed, &run.Inserted, &run.Skipped); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse stored started_at %q: %w", startedAt, err)
		}
		run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse stored finished_at %q: %w", finishedAt, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Count returns the number of stored transactions
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// List retrieves all stored transactions, newest date first and insertion
// order within a date.
func (s *Store) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, description, amount, category, source, currency
		 FROM transactions
		 ORDER BY date DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var dateStr, amountStr string
		var txn domain.Transaction
		if err := rows.Scan(&dateStr, &txn.Description, &amountStr, &txn.Category, &txn.Source, &txn.Currency); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		txn.Date, err = time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
		}
		txn.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amountStr, err)
		}
		txn.IsTransfer = txn.Category == domain.CategoryTransfer

		out = append(out, txn)
	}
	return out, rows.Err()
}
