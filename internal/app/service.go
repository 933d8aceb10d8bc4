// Package app composes the intervention engine, the savings ledger and the
// stats aggregator into the operations exposed by the API surface.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pausewise/pausewise/internal/cooldown"
	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/engine"
	"github.com/pausewise/pausewise/internal/events"
	"github.com/pausewise/pausewise/internal/ledger"
	"github.com/pausewise/pausewise/internal/persistence"
	"github.com/pausewise/pausewise/internal/stats"
)

// Metrics receives service-level observations. The telemetry registry
// implements it; a nil sink drops everything.
type Metrics interface {
	RecordLedgerAppend()
	RecordSavingsConfirmed(savedAmount float64)
	RecordPublishError(eventType string)
	RecordCooldownSuppressed()
}

type nopMetrics struct{}

func (nopMetrics) RecordLedgerAppend()            {}
func (nopMetrics) RecordSavingsConfirmed(float64) {}
func (nopMetrics) RecordPublishError(string)      {}
func (nopMetrics) RecordCooldownSuppressed()      {}

type alwaysHealthy struct{}

func (alwaysHealthy) Health(context.Context) persistence.HealthCheck {
	return persistence.HealthCheck{Healthy: true, LastCheck: time.Now()}
}

func (alwaysHealthy) Ping(context.Context) error { return nil }

// Options wires the service dependencies. Publisher, Cooldown, Metrics and
// Health may be left nil for no-op defaults.
type Options struct {
	Engine      *engine.Engine
	Ledger      *ledger.Service
	Stats       *stats.Aggregator
	Publisher   events.Publisher
	Cooldown    cooldown.Store
	CooldownTTL time.Duration
	Metrics     Metrics
	Health      persistence.RepositoryHealth
}

// Service is the application facade behind the HTTP handlers and the CLI.
type Service struct {
	engine      *engine.Engine
	ledger      *ledger.Service
	stats       *stats.Aggregator
	publisher   events.Publisher
	cooldown    cooldown.Store
	cooldownTTL time.Duration
	metrics     Metrics
	health      persistence.RepositoryHealth
}

// NewService builds the facade, filling in no-op defaults for optional
// dependencies.
func NewService(opts Options) *Service {
	s := &Service{
		engine:      opts.Engine,
		ledger:      opts.Ledger,
		stats:       opts.Stats,
		publisher:   opts.Publisher,
		cooldown:    opts.Cooldown,
		cooldownTTL: opts.CooldownTTL,
		metrics:     opts.Metrics,
		health:      opts.Health,
	}
	if s.publisher == nil {
		s.publisher = events.NewNopPublisher()
	}
	if s.cooldown == nil {
		s.cooldown = cooldown.NewMemoryStore()
	}
	if s.cooldownTTL <= 0 {
		s.cooldownTTL = time.Hour
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.health == nil {
		s.health = alwaysHealthy{}
	}
	return s
}

// EvaluateIntervention runs the rule engine for the snapshot and publishes
// an event for results that cleared their cooldown. The caller always gets
// the full result set; cooldowns gate side effects only.
func (s *Service) EvaluateIntervention(ctx context.Context, snap *domain.Snapshot, tier domain.Tier) ([]domain.InterventionResult, error) {
	results, err := s.engine.Evaluate(ctx, snap, tier)
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		s.publishInterventions(ctx, snap.UserID, tier, results)
	}
	return results, nil
}

// publishInterventions emits one intervention.detected event covering every
// result whose user+rule cooldown slot was free. Publish failures are logged
// and counted, never surfaced to the caller.
func (s *Service) publishInterventions(ctx context.Context, userID string, tier domain.Tier, results []domain.InterventionResult) {
	publishable := make([]domain.InterventionResult, 0, len(results))
	for _, result := range results {
		acquired, err := s.cooldown.Acquire(ctx, cooldown.Key(userID, result.InterventionType), s.cooldownTTL)
		if err != nil {
			// Fail open so a broken cooldown store never silences events
			log.Warn().Err(err).Str("user_id", userID).Msg("cooldown check failed")
			acquired = true
		}
		if !acquired {
			s.metrics.RecordCooldownSuppressed()
			continue
		}
		publishable = append(publishable, result)
	}

	if len(publishable) == 0 {
		return
	}

	event := events.NewInterventionDetected(events.InterventionData{
		UserID:      userID,
		Tier:        string(tier),
		HighestRisk: string(domain.HighestRisk(publishable)),
		Results:     publishable,
	})
	if err := s.publisher.PublishInterventionDetected(ctx, event); err != nil {
		s.metrics.RecordPublishError(events.EventTypeInterventionDetected)
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to publish intervention event")
	}
}

// RecordSaving appends a savings estimate to the ledger.
func (s *Service) RecordSaving(ctx context.Context, input ledger.NewEntry) (persistence.LedgerEntry, error) {
	entry, err := s.ledger.Append(ctx, input)
	if err != nil {
		return persistence.LedgerEntry{}, err
	}

	s.metrics.RecordLedgerAppend()
	return entry, nil
}

// ConfirmSavings settles an estimate against actual spend and emits a
// savings.confirmed event. Events are at-least-once; consumers dedupe on
// entry_id.
func (s *Service) ConfirmSavings(ctx context.Context, input ledger.ConfirmInput) (persistence.LedgerEntry, error) {
	entry, err := s.ledger.Confirm(ctx, input)
	if err != nil {
		return persistence.LedgerEntry{}, err
	}

	s.metrics.RecordSavingsConfirmed(entry.SavedAmount())

	event := events.NewSavingsConfirmed(events.SavingsConfirmedData{
		UserID:             entry.UserID,
		EntryID:            entry.ID,
		OriginalEstimateID: entry.OriginalEstimateID(),
		OriginalAmount:     entry.OriginalAmount(),
		ActualAmount:       entry.Amount,
		SavedAmount:        entry.SavedAmount(),
		Currency:           entry.Currency,
		Category:           entry.Category,
	})
	if err := s.publisher.PublishSavingsConfirmed(ctx, event); err != nil {
		s.metrics.RecordPublishError(events.EventTypeSavingsConfirmed)
		log.Warn().Err(err).Str("user_id", entry.UserID).Msg("failed to publish savings event")
	}

	return entry, nil
}

// GetSaving returns a single ledger entry scoped to its owner.
func (s *Service) GetSaving(ctx context.Context, userID, id string) (persistence.LedgerEntry, error) {
	return s.ledger.Get(ctx, userID, id)
}

// GetSavingsHistory lists the newest ledger entries for a user.
func (s *Service) GetSavingsHistory(ctx context.Context, userID string, limit int) ([]persistence.LedgerEntry, error) {
	return s.ledger.History(ctx, userID, limit)
}

// GetSavingsStats aggregates the ledger into savings statistics.
func (s *Service) GetSavingsStats(ctx context.Context, userID string, windowDays int) (stats.Stats, error) {
	return s.stats.Summarize(ctx, userID, windowDays)
}

// Rules lists the registered rules for the ops surface.
func (s *Service) Rules() []engine.Rule {
	return s.engine.Registry().Rules()
}

// HealthCheck reports storage health.
func (s *Service) HealthCheck(ctx context.Context) persistence.HealthCheck {
	return s.health.Health(ctx)
}
