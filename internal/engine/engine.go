package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pausewise/pausewise/internal/domain"
)

// Metrics receives engine-level observations. The telemetry registry
// implements it; a nil engine metrics sink drops everything.
type Metrics interface {
	RuleFired(ruleID string)
	RuleSkipped(ruleID string)
	RuleError(ruleID, stage string)
	EvaluationObserved(duration time.Duration, fired int)
}

type nopMetrics struct{}

func (nopMetrics) RuleFired(string)                      {}
func (nopMetrics) RuleSkipped(string)                    {}
func (nopMetrics) RuleError(string, string)              {}
func (nopMetrics) EvaluationObserved(time.Duration, int) {}

// Engine evaluates the registered rules against context snapshots. It holds
// no mutable state, so a single instance serves all requests concurrently.
type Engine struct {
	registry *Registry
	metrics  Metrics
	clock    func() time.Time
}

// New creates an engine over registry. A nil metrics sink is replaced with
// a no-op implementation.
func New(registry *Registry, metrics Metrics) *Engine {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Engine{
		registry: registry,
		metrics:  metrics,
		clock:    time.Now,
	}
}

// Registry returns the rule registry backing this engine.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate runs every entitled rule against snap and returns the fired
// interventions ordered by rule priority.
//
// Failure containment: a condition or action that errors or panics is
// logged, counted, and skipped; the remaining rules still run. An empty
// result with a nil error means no rule matched. Only snapshot validation
// and context cancellation produce a non-nil error.
func (e *Engine) Evaluate(ctx context.Context, snap *domain.Snapshot, tier domain.Tier) ([]domain.InterventionResult, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	start := e.clock()
	results := make([]domain.InterventionResult, 0)

	for _, rule := range e.registry.Rules() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation canceled: %w", err)
		}

		if !tier.Satisfies(rule.MinTier) {
			e.metrics.RuleSkipped(rule.ID)
			continue
		}

		matched, err := e.runCondition(rule, snap)
		if err != nil {
			e.metrics.RuleError(rule.ID, "condition")
			log.Error().Err(err).
				Str("rule", rule.ID).
				Str("user_id", snap.UserID).
				Msg("rule condition failed, skipping rule")
			continue
		}
		if !matched {
			continue
		}

		result, err := e.runAction(rule, snap)
		if err != nil {
			e.metrics.RuleError(rule.ID, "action")
			log.Error().Err(err).
				Str("rule", rule.ID).
				Str("user_id", snap.UserID).
				Msg("rule action failed, skipping rule")
			continue
		}

		if result.InterventionType == "" {
			result.InterventionType = rule.ID
		}
		results = append(results, result)
		e.metrics.RuleFired(rule.ID)
	}

	duration := e.clock().Sub(start)
	e.metrics.EvaluationObserved(duration, len(results))
	log.Debug().
		Str("user_id", snap.UserID).
		Str("tier", string(tier)).
		Int("fired", len(results)).
		Dur("duration", duration).
		Msg("evaluation complete")

	return results, nil
}

// runCondition executes the rule's condition with panic containment
func (e *Engine) runCondition(rule Rule, snap *domain.Snapshot) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("condition panic: %v", r)
		}
	}()
	return rule.Condition(snap)
}

// runAction executes the rule's action with panic containment
func (e *Engine) runAction(rule Rule, snap *domain.Snapshot) (result domain.InterventionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return rule.Action(snap)
}
