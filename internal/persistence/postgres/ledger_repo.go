package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pausewise/pausewise/internal/persistence"
)

const ledgerColumns = `id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at`

// ledgerRepo implements LedgerRepo for PostgreSQL
type ledgerRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewLedgerRepo creates a PostgreSQL savings ledger repository
func NewLedgerRepo(db *sqlx.DB, timeout time.Duration) persistence.LedgerRepo {
	return &ledgerRepo{
		db:      db,
		timeout: timeout,
	}
}

// Insert appends a ledger entry
func (r *ledgerRepo) Insert(ctx context.Context, entry persistence.LedgerEntry) (persistence.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO savings_ledger (id, user_id, amount, currency, description, category, intervention_type, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.UserID, entry.Amount, entry.Currency,
		entry.Description, entry.Category, entry.InterventionType,
		metadataJSON, entry.CreatedAt, entry.UpdatedAt).
		Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "savings_ledger_confirmation_uniq" {
				return persistence.LedgerEntry{}, fmt.Errorf("%w: %s", persistence.ErrDuplicateConfirmation, entry.OriginalEstimateID())
			}
			return persistence.LedgerEntry{}, fmt.Errorf("duplicate ledger entry: %w", err)
		}
		return persistence.LedgerEntry{}, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return entry, nil
}

// GetByID retrieves a user's entry by id
func (r *ledgerRepo) GetByID(ctx context.Context, userID, id string) (*persistence.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + ledgerColumns + `
		FROM savings_ledger
		WHERE user_id = $1 AND id = $2`

	row := r.db.QueryRowxContext(ctx, query, userID, id)

	entry, err := r.scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// ListByUser retrieves the newest entries first
func (r *ledgerRepo) ListByUser(ctx context.Context, userID string, limit int) ([]persistence.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + ledgerColumns + `
		FROM savings_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// ListSince retrieves entries created at or after since, oldest first
func (r *ledgerRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]persistence.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + ledgerColumns + `
		FROM savings_ledger
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryxContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// FindConfirmation returns the confirmation recorded against an estimate
func (r *ledgerRepo) FindConfirmation(ctx context.Context, userID, originalEstimateID string) (*persistence.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + ledgerColumns + `
		FROM savings_ledger
		WHERE user_id = $1
		  AND metadata->>'original_estimate_id' = $2
		  AND (metadata->>'confirmed')::boolean IS TRUE
		LIMIT 1`

	row := r.db.QueryRowxContext(ctx, query, userID, originalEstimateID)

	entry, err := r.scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find confirmation: %w", err)
	}

	return entry, nil
}

// Count returns the user's total entry count
func (r *ledgerRepo) Count(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	query := `SELECT COUNT(*) FROM savings_ledger WHERE user_id = $1`

	if err := r.db.QueryRowxContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

func (r *ledgerRepo) scanEntries(rows *sqlx.Rows) ([]persistence.LedgerEntry, error) {
	var entries []persistence.LedgerEntry

	for rows.Next() {
		entry, err := r.scanEntryFromRows(rows)
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

func (r *ledgerRepo) scanEntry(row *sqlx.Row) (*persistence.LedgerEntry, error) {
	var entry persistence.LedgerEntry
	var metadataJSON []byte

	err := row.Scan(
		&entry.ID, &entry.UserID, &entry.Amount, &entry.Currency,
		&entry.Description, &entry.Category, &entry.InterventionType,
		&metadataJSON, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return nil, err
	}

	if err := unmarshalMetadata(metadataJSON, &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *ledgerRepo) scanEntryFromRows(rows *sqlx.Rows) (*persistence.LedgerEntry, error) {
	var entry persistence.LedgerEntry
	var metadataJSON []byte

	err := rows.Scan(
		&entry.ID, &entry.UserID, &entry.Amount, &entry.Currency,
		&entry.Description, &entry.Category, &entry.InterventionType,
		&metadataJSON, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return nil, err
	}

	if err := unmarshalMetadata(metadataJSON, &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

func unmarshalMetadata(raw []byte, entry *persistence.LedgerEntry) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entry.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		return nil
	}
	entry.Metadata = make(map[string]interface{})
	return nil
}
