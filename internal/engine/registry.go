package engine

import (
	"sort"

	"github.com/pausewise/pausewise/internal/domain"
)

// Condition decides whether a rule applies to a snapshot. A missing optional
// signal means "does not apply", not an error.
type Condition func(snap *domain.Snapshot) (bool, error)

// Action builds the intervention for a snapshot whose condition matched
type Action func(snap *domain.Snapshot) (domain.InterventionResult, error)

// Rule pairs a condition with the intervention it produces when met.
// MinTier gates who may run it; Priority orders output (lower runs first).
type Rule struct {
	ID        string
	MinTier   domain.Tier
	Priority  int
	Condition Condition
	Action    Action
}

// Registry holds the rule set for an engine. It is built once at startup
// and never mutated afterward, which makes it safe for any number of
// concurrent evaluations without locking.
type Registry struct {
	rules  []Rule
	byID   map[string]int
	sorted []Rule
}

// NewRegistry returns an empty rule registry
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]int),
	}
}

// Register adds a rule, rejecting duplicate ids with a DuplicateRuleError
func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" {
		return domain.NewValidationError("rule.id", "must not be empty")
	}
	if rule.Condition == nil || rule.Action == nil {
		return domain.NewValidationError("rule", "condition and action must both be set")
	}
	if _, exists := r.byID[rule.ID]; exists {
		return &domain.DuplicateRuleError{ID: rule.ID}
	}

	r.byID[rule.ID] = len(r.rules)
	r.rules = append(r.rules, rule)

	// Re-derive the evaluation order eagerly so Rules() never writes.
	// Registration happens single-threaded at startup; reads do not.
	sorted := make([]Rule, len(r.rules))
	copy(sorted, r.rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	r.sorted = sorted
	return nil
}

// MustRegister is Register for startup wiring, panicking on error
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Rules returns the registered rules ordered by ascending priority.
// Equal priorities keep registration order, so evaluation output is stable
// across processes given the same wiring.
func (r *Registry) Rules() []Rule {
	return r.sorted
}

// Get returns the rule registered under id
func (r *Registry) Get(id string) (Rule, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[idx], true
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	return len(r.rules)
}
