// Package ledger implements the append-only savings ledger: recording
// estimated savings, confirming them against actual spend, and reading
// history back out.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/persistence"
)

const (
	// DefaultCurrency is applied when the caller does not name one
	DefaultCurrency = "USD"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// NewEntry is the input to Append
type NewEntry struct {
	UserID      string
	Amount      float64
	Currency    string
	Description string
	Category    domain.Category
	TriggerType domain.TriggerType
	Metadata    map[string]interface{}
}

// ConfirmInput settles an earlier estimate against what was actually spent
type ConfirmInput struct {
	UserID             string
	OriginalEstimateID string
	ActualAmount       float64
	OriginalAmount     float64
	Category           domain.Category
	TriggerType        domain.TriggerType
	Reason             string
	Metadata           map[string]interface{}
}

// Service coordinates ledger writes and reads over a LedgerRepo
type Service struct {
	repo  persistence.LedgerRepo
	clock func() time.Time
	newID func() string
}

// NewService creates a ledger service backed by repo
func NewService(repo persistence.LedgerRepo) *Service {
	return &Service{
		repo:  repo,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// Append records a savings event. Entries are immutable once written;
// later corrections append confirmation entries instead of updating.
func (s *Service) Append(ctx context.Context, input NewEntry) (persistence.LedgerEntry, error) {
	if input.UserID == "" {
		return persistence.LedgerEntry{}, domain.NewValidationError("user_id", "must not be empty")
	}
	if input.Amount < 0 {
		return persistence.LedgerEntry{}, domain.NewValidationError("amount", fmt.Sprintf("must not be negative, got %.2f", input.Amount))
	}

	currency := input.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	now := s.clock().UTC()
	entry := persistence.LedgerEntry{
		ID:          s.newID(),
		UserID:      input.UserID,
		Amount:      input.Amount,
		Currency:    currency,
		Description: input.Description,
		// Unknown strings never reach storage: the transport layer rejects
		// them and internal callers fall back to the documented defaults.
		Category:         string(domain.CategoryOrDefault(string(input.Category))),
		InterventionType: string(domain.TriggerOrDefault(string(input.TriggerType))),
		Metadata:         copyMetadata(input.Metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	stored, err := s.repo.Insert(ctx, entry)
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("append saving: %w", err)
	}

	log.Info().
		Str("user_id", stored.UserID).
		Str("entry_id", stored.ID).
		Float64("amount", stored.Amount).
		Str("category", stored.Category).
		Msg("savings recorded")

	return stored, nil
}

// Confirm settles an estimate with the amount actually spent. The appended
// entry records the actual amount; the definitive saving (original minus
// actual) travels in metadata under saved_amount.
//
// Confirm is idempotent per original estimate id: a retry, or the loser of
// a concurrent race, receives the confirmation that already landed.
func (s *Service) Confirm(ctx context.Context, input ConfirmInput) (persistence.LedgerEntry, error) {
	if input.UserID == "" {
		return persistence.LedgerEntry{}, domain.NewValidationError("user_id", "must not be empty")
	}
	if input.OriginalEstimateID == "" {
		return persistence.LedgerEntry{}, domain.NewValidationError("original_estimate_id", "must not be empty")
	}
	if input.ActualAmount < 0 {
		return persistence.LedgerEntry{}, domain.NewValidationError("actual_amount", "must not be negative")
	}
	if input.OriginalAmount < 0 {
		return persistence.LedgerEntry{}, domain.NewValidationError("original_amount", "must not be negative")
	}

	saved := input.OriginalAmount - input.ActualAmount
	if saved <= 0 {
		return persistence.LedgerEntry{}, &domain.NoSavingsError{
			OriginalAmount: input.OriginalAmount,
			ActualAmount:   input.ActualAmount,
		}
	}

	// Replay check before writing anything
	if existing, err := s.repo.FindConfirmation(ctx, input.UserID, input.OriginalEstimateID); err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("confirm savings: %w", err)
	} else if existing != nil {
		log.Debug().
			Str("user_id", input.UserID).
			Str("original_estimate_id", input.OriginalEstimateID).
			Str("entry_id", existing.ID).
			Msg("confirmation replayed, returning stored entry")
		return *existing, nil
	}

	// Confirmation is read-validate-append against the original estimate
	estimate, err := s.repo.GetByID(ctx, input.UserID, input.OriginalEstimateID)
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("confirm savings: %w", err)
	}
	if estimate == nil {
		return persistence.LedgerEntry{}, fmt.Errorf("original estimate %s: %w", input.OriginalEstimateID, domain.ErrEntryNotFound)
	}

	category := input.Category
	if category == "" {
		category = domain.CategoryOrDefault(estimate.Category)
	}
	trigger := input.TriggerType
	if trigger == "" {
		trigger = domain.TriggerOrDefault(estimate.InterventionType)
	}

	description := input.Reason
	if description == "" {
		description = "confirmed savings"
	}

	metadata := copyMetadata(input.Metadata)
	metadata["confirmed"] = true
	metadata["original_estimate_id"] = input.OriginalEstimateID
	metadata["original_amount"] = input.OriginalAmount
	metadata["saved_amount"] = saved
	if input.Reason != "" {
		metadata["reason"] = input.Reason
	}

	now := s.clock().UTC()
	entry := persistence.LedgerEntry{
		ID:               s.newID(),
		UserID:           input.UserID,
		Amount:           input.ActualAmount,
		Currency:         estimate.Currency,
		Description:      description,
		Category:         string(domain.CategoryOrDefault(string(category))),
		InterventionType: string(domain.TriggerOrDefault(string(trigger))),
		Metadata:         metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	stored, err := s.repo.Insert(ctx, entry)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicateConfirmation) {
			// Lost a concurrent race; hand back the winner's entry
			winner, findErr := s.repo.FindConfirmation(ctx, input.UserID, input.OriginalEstimateID)
			if findErr == nil && winner != nil {
				return *winner, nil
			}
		}
		return persistence.LedgerEntry{}, fmt.Errorf("confirm savings: %w", err)
	}

	log.Info().
		Str("user_id", stored.UserID).
		Str("entry_id", stored.ID).
		Str("original_estimate_id", input.OriginalEstimateID).
		Float64("saved_amount", saved).
		Msg("savings confirmed")

	return stored, nil
}

// History returns the user's newest entries first. The limit is clamped to
// [1, 500]; zero or negative falls back to the default page size.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]persistence.LedgerEntry, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list savings history: %w", err)
	}
	return entries, nil
}

// Get retrieves one entry, translating absence to ErrEntryNotFound
func (s *Service) Get(ctx context.Context, userID, id string) (persistence.LedgerEntry, error) {
	entry, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return persistence.LedgerEntry{}, fmt.Errorf("get ledger entry: %w", err)
	}
	if entry == nil {
		return persistence.LedgerEntry{}, fmt.Errorf("entry %s: %w", id, domain.ErrEntryNotFound)
	}
	return *entry, nil
}

func copyMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata)+4)
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
