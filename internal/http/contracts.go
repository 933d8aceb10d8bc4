// Package http holds the wire contracts shared by the API server and its
// handlers. Keeping them in one place lets both sides import the shapes
// without importing each other.
package http

import (
	"time"

	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/persistence"
	"github.com/pausewise/pausewise/internal/stats"
)

// EvaluateRequest carries the context snapshot to run the rules against.
// The snapshot's user id is overwritten with the authenticated user before
// evaluation, so callers cannot evaluate on someone else's behalf.
type EvaluateRequest struct {
	Snapshot domain.Snapshot `json:"snapshot"`
}

// EvaluateResponse lists every intervention the rule set produced
type EvaluateResponse struct {
	UserID      string                      `json:"user_id"`
	Tier        string                      `json:"tier"`
	Results     []domain.InterventionResult `json:"results"`
	HighestRisk string                      `json:"highest_risk,omitempty"`
	Count       int                         `json:"count"`
	Timestamp   time.Time                   `json:"timestamp"`
}

// AppendSavingRequest records an estimated saving after an avoided purchase
type AppendSavingRequest struct {
	Amount      float64                `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Description string                 `json:"description,omitempty"`
	Category    string                 `json:"category"`
	TriggerType string                 `json:"trigger_type"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ConfirmSavingRequest settles an earlier estimate against what was
// actually spent
type ConfirmSavingRequest struct {
	OriginalEstimateID string                 `json:"original_estimate_id"`
	OriginalAmount     float64                `json:"original_amount"`
	ActualAmount       float64                `json:"actual_amount"`
	Category           string                 `json:"category,omitempty"`
	TriggerType        string                 `json:"trigger_type,omitempty"`
	Reason             string                 `json:"reason,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// SavingEntry is the wire form of a ledger entry with the derived fields
// spelled out, so clients never have to dig through metadata
type SavingEntry struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	Amount           float64                `json:"amount"`
	Currency         string                 `json:"currency"`
	Description      string                 `json:"description,omitempty"`
	Category         string                 `json:"category"`
	InterventionType string                 `json:"intervention_type"`
	Confirmed        bool                   `json:"confirmed"`
	SavedAmount      float64                `json:"saved_amount,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewSavingEntry maps a stored ledger entry onto its wire form
func NewSavingEntry(entry persistence.LedgerEntry) SavingEntry {
	return SavingEntry{
		ID:               entry.ID,
		UserID:           entry.UserID,
		Amount:           entry.Amount,
		Currency:         entry.Currency,
		Description:      entry.Description,
		Category:         entry.Category,
		InterventionType: entry.InterventionType,
		Confirmed:        entry.Confirmed(),
		SavedAmount:      entry.SavedAmount(),
		Metadata:         entry.Metadata,
		CreatedAt:        entry.CreatedAt,
		UpdatedAt:        entry.UpdatedAt,
	}
}

// NewSavingEntries maps a history page onto its wire form. Always returns
// a non-nil slice so the JSON renders as [] rather than null.
func NewSavingEntries(entries []persistence.LedgerEntry) []SavingEntry {
	out := make([]SavingEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewSavingEntry(entry))
	}
	return out
}

// SavingResponse wraps a single ledger entry
type SavingResponse struct {
	Entry     SavingEntry `json:"entry"`
	Timestamp time.Time   `json:"timestamp"`
}

// HistoryResponse is a page of ledger entries, newest first
type HistoryResponse struct {
	UserID    string        `json:"user_id"`
	Entries   []SavingEntry `json:"entries"`
	Count     int           `json:"count"`
	Timestamp time.Time     `json:"timestamp"`
}

// StatsResponse carries the aggregated savings summary for one user
type StatsResponse struct {
	UserID     string      `json:"user_id"`
	WindowDays int         `json:"window_days"`
	Stats      stats.Stats `json:"stats"`
	Timestamp  time.Time   `json:"timestamp"`
}

// HealthResponse reports service and storage health
type HealthResponse struct {
	Status    string                  `json:"status"` // ok, degraded
	Version   string                  `json:"version,omitempty"`
	Driver    string                  `json:"driver,omitempty"`
	Storage   persistence.HealthCheck `json:"storage"`
	Timestamp time.Time               `json:"timestamp"`
}

// ErrorResponse represents API error responses
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
