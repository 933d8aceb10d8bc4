// Package events publishes domain events to Kafka for downstream consumers
// such as notification and analytics services.
package events

import (
	"time"

	"github.com/pausewise/pausewise/internal/domain"
)

const (
	// EventTypeInterventionDetected is emitted when the engine fires at
	// least one rule for a snapshot.
	EventTypeInterventionDetected = "intervention.detected"
	// EventTypeSavingsConfirmed is emitted when a user confirms an actual
	// spend against an earlier estimate.
	EventTypeSavingsConfirmed = "savings.confirmed"

	eventSource   = "pausewise"
	schemaVersion = "1.0"
)

// InterventionDetectedEvent is the wire envelope for engine hits.
type InterventionDetectedEvent struct {
	EventType     string           `json:"event_type"`
	Source        string           `json:"source"`
	SchemaVersion string           `json:"schema_version"`
	Timestamp     time.Time        `json:"timestamp"`
	Data          InterventionData `json:"data"`
}

// InterventionData carries the fired results for one evaluation.
type InterventionData struct {
	UserID      string                      `json:"user_id"`
	Tier        string                      `json:"tier"`
	HighestRisk string                      `json:"highest_risk"`
	Results     []domain.InterventionResult `json:"results"`
}

// SavingsConfirmedEvent is the wire envelope for confirmed savings.
type SavingsConfirmedEvent struct {
	EventType     string               `json:"event_type"`
	Source        string               `json:"source"`
	SchemaVersion string               `json:"schema_version"`
	Timestamp     time.Time            `json:"timestamp"`
	Data          SavingsConfirmedData `json:"data"`
}

// SavingsConfirmedData carries the ledger outcome of a confirmation.
type SavingsConfirmedData struct {
	UserID             string  `json:"user_id"`
	EntryID            string  `json:"entry_id"`
	OriginalEstimateID string  `json:"original_estimate_id"`
	OriginalAmount     float64 `json:"original_amount"`
	ActualAmount       float64 `json:"actual_amount"`
	SavedAmount        float64 `json:"saved_amount"`
	Currency           string  `json:"currency"`
	Category           string  `json:"category"`
}

// NewInterventionDetected builds a ready-to-publish envelope.
func NewInterventionDetected(data InterventionData) InterventionDetectedEvent {
	return InterventionDetectedEvent{
		EventType:     EventTypeInterventionDetected,
		Source:        eventSource,
		SchemaVersion: schemaVersion,
		Timestamp:     time.Now().UTC(),
		Data:          data,
	}
}

// NewSavingsConfirmed builds a ready-to-publish envelope.
func NewSavingsConfirmed(data SavingsConfirmedData) SavingsConfirmedEvent {
	return SavingsConfirmedEvent{
		EventType:     EventTypeSavingsConfirmed,
		Source:        eventSource,
		SchemaVersion: schemaVersion,
		Timestamp:     time.Now().UTC(),
		Data:          data,
	}
}
