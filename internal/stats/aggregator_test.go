package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/persistence"
	"github.com/pausewise/pausewise/internal/persistence/memory"
)

// fixedNow is a Wednesday; the week containing it starts Sunday June 15.
var fixedNow = time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)

func newTestAggregator(t *testing.T) (*Aggregator, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	agg := NewAggregator(store)
	agg.now = func() time.Time { return fixedNow }
	return agg, store
}

func insertEntry(t *testing.T, store *memory.Store, id string, amount float64, category string, createdAt time.Time) {
	t.Helper()

	_, err := store.Insert(context.Background(), persistence.LedgerEntry{
		ID:               id,
		UserID:           "user-1",
		Amount:           amount,
		Currency:         "USD",
		Category:         category,
		InterventionType: "manual",
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	})
	require.NoError(t, err)
}

func TestSummarize_SingleEntry(t *testing.T) {
	agg, store := newTestAggregator(t)
	insertEntry(t, store, "e1", 45.00, "shopping", fixedNow.Add(-2*time.Hour))

	stats, err := agg.Summarize(context.Background(), "user-1", 0)
	require.NoError(t, err)

	assert.InDelta(t, 45.00, stats.TotalSaved, 1e-9)
	assert.InDelta(t, 45.00, stats.SavingsThisMonth, 1e-9)
	assert.InDelta(t, 45.00, stats.SavingsThisWeek, 1e-9)
	assert.Equal(t, 1, stats.InterventionCount)
	require.Len(t, stats.TopCategories, 1)
	assert.Equal(t, "shopping", stats.TopCategories[0].Category)
	require.Len(t, stats.MonthlyBreakdown, 1)
	assert.Equal(t, "2025-06", stats.MonthlyBreakdown[0].Month)
}

func TestSummarize_WindowBoundsFold(t *testing.T) {
	agg, store := newTestAggregator(t)
	insertEntry(t, store, "old", 100, "food", fixedNow.AddDate(0, 0, -10))
	insertEntry(t, store, "recent", 30, "food", fixedNow.AddDate(0, 0, -2))

	stats, err := agg.Summarize(context.Background(), "user-1", 7)
	require.NoError(t, err)

	assert.InDelta(t, 30, stats.TotalSaved, 1e-9, "10 day old entry is outside a 7 day window")
	assert.Equal(t, 1, stats.InterventionCount)

	unbounded, err := agg.Summarize(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.InDelta(t, 130, unbounded.TotalSaved, 1e-9)
	assert.Equal(t, 2, unbounded.InterventionCount)
}

func TestSummarize_CalendarBoundaries(t *testing.T) {
	agg, store := newTestAggregator(t)

	// Saturday June 14: inside the month, before the Sunday week start
	insertEntry(t, store, "prev-week", 20, "food", time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC))
	// Monday June 16: inside both
	insertEntry(t, store, "this-week", 50, "food", time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC))
	// May 30: previous month entirely
	insertEntry(t, store, "prev-month", 70, "food", time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC))

	stats, err := agg.Summarize(context.Background(), "user-1", 0)
	require.NoError(t, err)

	assert.InDelta(t, 140, stats.TotalSaved, 1e-9)
	assert.InDelta(t, 70, stats.SavingsThisMonth, 1e-9, "June entries only")
	assert.InDelta(t, 50, stats.SavingsThisWeek, 1e-9, "entries since Sunday June 15 only")
}

func TestSummarize_TopCategories(t *testing.T) {
	agg, store := newTestAggregator(t)
	base := fixedNow.Add(-48 * time.Hour)

	// entertainment and transport tie; entertainment appears first
	insertEntry(t, store, "e1", 40, "entertainment", base)
	insertEntry(t, store, "e2", 40, "transport", base.Add(time.Minute))
	insertEntry(t, store, "e3", 90, "shopping", base.Add(2*time.Minute))
	insertEntry(t, store, "e4", 10, "food", base.Add(3*time.Minute))
	insertEntry(t, store, "e5", 5, "subscription", base.Add(4*time.Minute))
	insertEntry(t, store, "e6", 1, "other", base.Add(5*time.Minute))

	stats, err := agg.Summarize(context.Background(), "user-1", 0)
	require.NoError(t, err)

	require.Len(t, stats.TopCategories, 5, "capped at five categories")
	assert.Equal(t, "shopping", stats.TopCategories[0].Category)
	assert.Equal(t, "entertainment", stats.TopCategories[1].Category, "tie broken by first occurrence")
	assert.Equal(t, "transport", stats.TopCategories[2].Category)
	assert.Equal(t, "food", stats.TopCategories[3].Category)
	assert.Equal(t, "subscription", stats.TopCategories[4].Category)
}

func TestSummarize_MonthlyBreakdownCapped(t *testing.T) {
	agg, store := newTestAggregator(t)

	for i := 0; i < 8; i++ {
		createdAt := fixedNow.AddDate(0, -i, 0)
		insertEntry(t, store, fmt.Sprintf("m%d", i), 10, "food", createdAt)
	}

	stats, err := agg.Summarize(context.Background(), "user-1", 0)
	require.NoError(t, err)

	require.Len(t, stats.MonthlyBreakdown, 6, "six most recent months")
	assert.Equal(t, "2025-06", stats.MonthlyBreakdown[0].Month, "newest first")
	assert.Equal(t, "2025-01", stats.MonthlyBreakdown[5].Month)
}

func TestSummarize_StableUnderInsertionOrder(t *testing.T) {
	buildStats := func(order []int) Stats {
		store := memory.NewStore()
		agg := NewAggregator(store)
		agg.now = func() time.Time { return fixedNow }

		amounts := []float64{12.5, 40, 7.25}
		times := []time.Time{
			fixedNow.Add(-72 * time.Hour),
			fixedNow.Add(-48 * time.Hour),
			fixedNow.Add(-24 * time.Hour),
		}
		for _, i := range order {
			insertEntry(t, store, fmt.Sprintf("e%d", i), amounts[i], "food", times[i])
		}

		stats, err := agg.Summarize(context.Background(), "user-1", 0)
		require.NoError(t, err)
		return stats
	}

	forward := buildStats([]int{0, 1, 2})
	shuffled := buildStats([]int{2, 0, 1})

	assert.Equal(t, forward, shuffled, "sums do not depend on insertion order")
}

func TestSummarize_EmptyLedger(t *testing.T) {
	agg, _ := newTestAggregator(t)

	stats, err := agg.Summarize(context.Background(), "user-1", 0)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalSaved)
	assert.Zero(t, stats.InterventionCount)
	assert.NotNil(t, stats.TopCategories)
	assert.Empty(t, stats.TopCategories)
	assert.NotNil(t, stats.MonthlyBreakdown)
}

func TestSummarize_RequiresUser(t *testing.T) {
	agg, _ := newTestAggregator(t)

	_, err := agg.Summarize(context.Background(), "", 0)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "user_id", ve.Field)
}
