// Package sqlite provides a SQLite-backed savings ledger for embedded and
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/pausewise/pausewise/internal/persistence"
)

// schema contains the full ledger schema. Timestamps are stored as UTC
// millisecond integers to avoid driver-dependent time formats.
const schema = `
CREATE TABLE IF NOT EXISTS savings_ledger (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    amount            REAL NOT NULL CHECK (amount >= 0),
    currency          TEXT NOT NULL DEFAULT 'USD',
    description       TEXT NOT NULL DEFAULT '',
    category          TEXT NOT NULL,
    intervention_type TEXT NOT NULL,
    metadata          TEXT NOT NULL DEFAULT '{}',
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS savings_ledger_user_created_idx
    ON savings_ledger (user_id, created_at DESC);

CREATE UNIQUE INDEX IF NOT EXISTS savings_ledger_confirmation_uniq
    ON savings_ledger (user_id, json_extract(metadata, '$.original_estimate_id'))
    WHERE json_extract(metadata, '$.confirmed') = 1;
`

// Store persists the savings ledger in SQLite
type Store struct {
	db *sqlx.DB
}

var _ persistence.LedgerRepo = (*Store)(nil)

// Open creates or opens a SQLite ledger at path and applies the schema
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenMemory creates an in-memory ledger, useful for tests and the
// offline evaluate command
func OpenMemory() (*Store, error) {
	db, err := sqlx.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping tests connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert appends a ledger entry
func (s *Store) Insert(ctx context.Context, entry persistence.LedgerEntry) (persistence.LedgerEntry, error) {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO savings_ledger (id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Amount, entry.Currency,
		entry.Description, entry.Category, entry.InterventionType,
		string(metadataJSON), toMillis(entry.CreatedAt), toMillis(entry.UpdatedAt))

	if err != nil {
		if isUniqueViolation(err) {
			if entry.Confirmed() && entry.OriginalEstimateID() != "" {
				return persistence.LedgerEntry{}, fmt.Errorf("%w: %s", persistence.ErrDuplicateConfirmation, entry.OriginalEstimateID())
			}
			return persistence.LedgerEntry{}, fmt.Errorf("duplicate ledger entry: %w", err)
		}
		return persistence.LedgerEntry{}, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return entry, nil
}

// GetByID retrieves a user's entry by id
func (s *Store) GetByID(ctx context.Context, userID, id string) (*persistence.LedgerEntry, error) {
	query := `
		SELECT id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at
		FROM savings_ledger
		WHERE user_id = ? AND id = ?`

	entry, err := scanEntry(s.db.QueryRowxContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// ListByUser retrieves the newest entries first
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]persistence.LedgerEntry, error) {
	query := `
		SELECT id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at
		FROM savings_ledger
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryxContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListSince retrieves entries created at or after since, oldest first
func (s *Store) ListSince(ctx context.Context, userID string, since time.Time) ([]persistence.LedgerEntry, error) {
	query := `
		SELECT id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at
		FROM savings_ledger
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC`

	var sinceMillis int64
	if !since.IsZero() {
		sinceMillis = toMillis(since)
	}

	rows, err := s.db.QueryxContext(ctx, query, userID, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindConfirmation returns the confirmation recorded against an estimate
func (s *Store) FindConfirmation(ctx context.Context, userID, originalEstimateID string) (*persistence.LedgerEntry, error) {
	query := `
		SELECT id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at
		FROM savings_ledger
		WHERE user_id = ?
		  AND json_extract(metadata, '$.original_estimate_id') = ?
		  AND json_extract(metadata, '$.confirmed') = 1
		LIMIT 1`

	entry, err := scanEntry(s.db.QueryRowxContext(ctx, query, userID, originalEstimateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find confirmation: %w", err)
	}

	return entry, nil
}

// Count returns the user's total entry count
func (s *Store) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := s.db.QueryRowxContext(ctx, `SELECT COUNT(*) FROM savings_ledger WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scannable) (*persistence.LedgerEntry, error) {
	var entry persistence.LedgerEntry
	var metadataJSON string
	var createdMillis, updatedMillis int64

	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.Amount, &entry.Currency,
		&entry.Description, &entry.Category, &entry.InterventionType,
		&metadataJSON, &createdMillis, &updatedMillis)
	if err != nil {
		return nil, err
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	} else {
		entry.Metadata = make(map[string]interface{})
	}

	entry.CreatedAt = fromMillis(createdMillis)
	entry.UpdatedAt = fromMillis(updatedMillis)
	return &entry, nil
}

func scanEntries(rows *sqlx.Rows) ([]persistence.LedgerEntry, error) {
	var entries []persistence.LedgerEntry

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
