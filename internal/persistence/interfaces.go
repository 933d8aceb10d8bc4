package persistence

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateConfirmation is returned by Insert when a confirmation for
// the same original estimate already exists for the user. Callers resolve
// it by re-reading the stored confirmation.
var ErrDuplicateConfirmation = errors.New("confirmation already recorded for estimate")

// LedgerEntry is one immutable row in a user's savings ledger. Corrections
// never update a row; they append a new one.
type LedgerEntry struct {
	ID               string                 `json:"id" db:"id"`
	UserID           string                 `json:"user_id" db:"user_id"`
	Amount           float64                `json:"amount" db:"amount"`
	Currency         string                 `json:"currency" db:"currency"`
	Description      string                 `json:"description" db:"description"`
	Category         string                 `json:"category" db:"category"`
	InterventionType string                 `json:"intervention_type" db:"intervention_type"`
	Metadata         map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
}

// Confirmed reports whether the entry is a confirmed saving rather than an
// estimate pending confirmation
func (e *LedgerEntry) Confirmed() bool {
	v, ok := e.Metadata["confirmed"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// OriginalEstimateID returns the estimate entry this confirmation settles,
// or empty when the entry is not a confirmation
func (e *LedgerEntry) OriginalEstimateID() string {
	v, ok := e.Metadata["original_estimate_id"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SavedAmount returns the definitive saved value: the metadata saved_amount
// for confirmations (estimate minus actual), the entry amount otherwise.
// JSON decoding hands metadata numbers back as float64.
func (e *LedgerEntry) SavedAmount() float64 {
	if v, ok := e.Metadata["saved_amount"]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return e.Amount
}

// OriginalAmount returns the estimated amount a confirmation settles, or
// zero when the entry is not a confirmation
func (e *LedgerEntry) OriginalAmount() float64 {
	v, ok := e.Metadata["original_amount"]
	if !ok {
		return 0
	}
	f, _ := v.(float64)
	return f
}

// LedgerRepo provides savings ledger persistence
type LedgerRepo interface {
	// Insert appends an entry exactly as given (ids and timestamps are
	// assigned by the caller) and returns the stored row
	Insert(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)

	// GetByID retrieves a user's entry by id. Absence is a nil entry with
	// a nil error; callers translate that to their own not-found error.
	GetByID(ctx context.Context, userID, id string) (*LedgerEntry, error)

	// ListByUser retrieves the newest entries first, capped at limit
	ListByUser(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)

	// ListSince retrieves entries created at or after since in ascending
	// created_at order. A zero since returns the full ledger.
	ListSince(ctx context.Context, userID string, since time.Time) ([]LedgerEntry, error)

	// FindConfirmation returns the confirmation entry recorded against an
	// original estimate id, or nil when none exists
	FindConfirmation(ctx context.Context, userID, originalEstimateID string) (*LedgerEntry, error)

	// Count returns the user's total entry count
	Count(ctx context.Context, userID string) (int64, error)
}

// Repository aggregates the persistence interfaces behind one wiring point
type Repository struct {
	Ledger LedgerRepo
}

// HealthCheck represents storage health status
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool,omitempty"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer
type RepositoryHealth interface {
	// Health returns current repository health status
	Health(ctx context.Context) HealthCheck

	// Ping tests basic connectivity to the backing store
	Ping(ctx context.Context) error
}
