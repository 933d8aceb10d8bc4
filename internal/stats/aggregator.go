// Package stats derives read-side summaries from the savings ledger. Every
// call re-folds the matching slice of the ledger; there is no cache to
// invalidate, so readers may trail writers by at most one call.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/persistence"
)

// CategoryTotal is an aggregated amount for one category
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// MonthlyTotal is an aggregated amount for one calendar month
type MonthlyTotal struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
}

// Stats is the summary handed to the app's insights screens
type Stats struct {
	TotalSaved        float64         `json:"total_saved"`
	SavingsThisMonth  float64         `json:"savings_this_month"`
	SavingsThisWeek   float64         `json:"savings_this_week"`
	InterventionCount int             `json:"intervention_count"`
	TopCategories     []CategoryTotal `json:"top_categories"`
	MonthlyBreakdown  []MonthlyTotal  `json:"monthly_breakdown"`
}

const (
	maxTopCategories   = 5
	maxBreakdownMonths = 6
)

// Aggregator folds ledger slices into Stats
type Aggregator struct {
	repo persistence.LedgerRepo
	now  func() time.Time
}

// NewAggregator creates an aggregator over repo
func NewAggregator(repo persistence.LedgerRepo) *Aggregator {
	return &Aggregator{
		repo: repo,
		now:  time.Now,
	}
}

// Summarize computes the user's savings summary. windowDays bounds the fold
// to entries created in the trailing window; zero or negative means the
// full ledger. Week and month boundaries are calendar based (weeks start
// Sunday) against the current wall clock.
func (a *Aggregator) Summarize(ctx context.Context, userID string, windowDays int) (Stats, error) {
	if userID == "" {
		return Stats{}, domain.NewValidationError("user_id", "must not be empty")
	}

	now := a.now().UTC()
	var since time.Time
	if windowDays > 0 {
		since = now.AddDate(0, 0, -windowDays)
	}

	entries, err := a.repo.ListSince(ctx, userID, since)
	if err != nil {
		return Stats{}, fmt.Errorf("summarize savings: %w", err)
	}

	weekStart := startOfWeek(now)
	stats := Stats{
		TopCategories:    make([]CategoryTotal, 0),
		MonthlyBreakdown: make([]MonthlyTotal, 0),
	}

	categoryTotals := make(map[string]float64)
	categoryOrder := make([]string, 0)
	monthTotals := make(map[string]float64)

	for _, entry := range entries {
		stats.TotalSaved += entry.Amount
		stats.InterventionCount++

		created := entry.CreatedAt.UTC()
		if created.Year() == now.Year() && created.Month() == now.Month() {
			stats.SavingsThisMonth += entry.Amount
		}
		if !created.Before(weekStart) {
			stats.SavingsThisWeek += entry.Amount
		}

		if _, seen := categoryTotals[entry.Category]; !seen {
			categoryOrder = append(categoryOrder, entry.Category)
		}
		categoryTotals[entry.Category] += entry.Amount

		monthTotals[created.Format("2006-01")] += entry.Amount
	}

	stats.TopCategories = topCategories(categoryTotals, categoryOrder)
	stats.MonthlyBreakdown = monthlyBreakdown(monthTotals)

	return stats, nil
}

// topCategories ranks categories by amount descending. Ties keep the order
// in which a category first appeared in the fold.
func topCategories(totals map[string]float64, order []string) []CategoryTotal {
	ranked := make([]CategoryTotal, 0, len(order))
	for _, category := range order {
		ranked = append(ranked, CategoryTotal{Category: category, Amount: totals[category]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount > ranked[j].Amount
	})
	if len(ranked) > maxTopCategories {
		ranked = ranked[:maxTopCategories]
	}
	return ranked
}

// monthlyBreakdown returns the most recent months present, newest first
func monthlyBreakdown(totals map[string]float64) []MonthlyTotal {
	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	// YYYY-MM sorts lexicographically; reverse for newest first
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	if len(months) > maxBreakdownMonths {
		months = months[:maxBreakdownMonths]
	}

	breakdown := make([]MonthlyTotal, 0, len(months))
	for _, month := range months {
		breakdown = append(breakdown, MonthlyTotal{Month: month, Amount: totals[month]})
	}
	return breakdown
}

// startOfWeek returns midnight of the most recent Sunday
func startOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(t.Weekday()))
}
