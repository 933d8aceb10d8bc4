package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausewise/pausewise/internal/domain"
)

func riskySnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		UserID:   "user-42",
		Mood:     3,
		Location: domain.Location{Lat: 48.85, Lon: 2.35},
		Merchants: []domain.Merchant{
			{Name: "Maison Dorée", DistanceM: 150, PriceTier: domain.PriceLuxury},
		},
		CapturedAt: time.Now(),
	}
}

func TestBuiltinRules_LowMoodNearLuxury(t *testing.T) {
	eng := New(NewDefaultRegistry(DefaultRuleConfig()), nil)
	snap := riskySnapshot()

	// Premium sees both the mood rule and the luxury proximity rule
	results, err := eng.Evaluate(context.Background(), snap, domain.TierPremium)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, RuleMoodSpending, results[0].InterventionType)
	assert.Equal(t, RuleLuxuryProximity, results[1].InterventionType)
	assert.Equal(t, domain.RiskHigh, results[0].RiskLevel)
	require.NotNil(t, results[1].EstimatedSavings)
	assert.InDelta(t, 250, *results[1].EstimatedSavings, 1e-9)

	// Free only gets the mood rule
	results, err = eng.Evaluate(context.Background(), snap, domain.TierFree)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, RuleMoodSpending, results[0].InterventionType)
}

func TestMoodSpendingRule_Boundaries(t *testing.T) {
	cfg := DefaultRuleConfig()
	rule := MoodSpendingRule(cfg)

	testCases := []struct {
		name      string
		mood      int
		distanceM float64
		priceTier domain.PriceTier
		expected  bool
	}{
		{name: "fires_at_threshold_mood", mood: 4, distanceM: 499, priceTier: domain.PriceExpensive, expected: true},
		{name: "quiet_above_threshold_mood", mood: 5, distanceM: 100, priceTier: domain.PriceLuxury, expected: false},
		{name: "fires_at_radius_edge", mood: 3, distanceM: 500, priceTier: domain.PriceVeryExpensive, expected: true},
		{name: "quiet_beyond_radius", mood: 3, distanceM: 501, priceTier: domain.PriceLuxury, expected: false},
		{name: "quiet_for_cheap_merchants", mood: 2, distanceM: 50, priceTier: domain.PriceBudget, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap := &domain.Snapshot{
				UserID: "u", Mood: tc.mood,
				Merchants: []domain.Merchant{{Name: "m", DistanceM: tc.distanceM, PriceTier: tc.priceTier}},
			}
			matched, err := rule.Condition(snap)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, matched)
		})
	}
}

func TestWeatherMoodRule(t *testing.T) {
	rule := WeatherMoodRule(DefaultRuleConfig())

	snap := &domain.Snapshot{UserID: "u", Mood: 5}
	matched, err := rule.Condition(snap)
	require.NoError(t, err)
	assert.False(t, matched, "no weather signal means no match")

	snap.Weather = &domain.Weather{Condition: "Light Rain", TempC: 11}
	matched, err = rule.Condition(snap)
	require.NoError(t, err)
	assert.True(t, matched)

	snap.Mood = 6
	matched, err = rule.Condition(snap)
	require.NoError(t, err)
	assert.False(t, matched)

	snap.Mood = 4
	snap.Weather.Condition = "clear"
	matched, err = rule.Condition(snap)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestSleepDeprivationRule(t *testing.T) {
	rule := SleepDeprivationRule(DefaultRuleConfig())

	snap := &domain.Snapshot{
		UserID: "u", Mood: 7,
		Merchants: []domain.Merchant{{Name: "shop", DistanceM: 900, PriceTier: domain.PriceBudget}},
		Sleep:     &domain.SleepSummary{DurationHours: 5.5},
	}
	matched, err := rule.Condition(snap)
	require.NoError(t, err)
	assert.True(t, matched)

	result, err := rule.Action(snap)
	require.NoError(t, err)
	assert.Contains(t, result.Message, "5.5")

	snap.Sleep.DurationHours = 6
	matched, err = rule.Condition(snap)
	require.NoError(t, err)
	assert.False(t, matched, "exactly six hours is not deprived")

	snap.Sleep = nil
	matched, err = rule.Condition(snap)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestSpendingVelocityRule_EstimateScalesWithSpend(t *testing.T) {
	rule := SpendingVelocityRule(DefaultRuleConfig())

	snap := &domain.Snapshot{
		UserID: "u", Mood: 6,
		RecentSpending: []domain.SpendingRecord{
			{Amount: 20}, {Amount: 35}, {Amount: 15},
		},
	}
	matched, err := rule.Condition(snap)
	require.NoError(t, err)
	assert.False(t, matched, "three purchases is still within bounds")

	snap.RecentSpending = append(snap.RecentSpending, domain.SpendingRecord{Amount: 30})
	matched, err = rule.Condition(snap)
	require.NoError(t, err)
	require.True(t, matched)

	result, err := rule.Action(snap)
	require.NoError(t, err)
	require.NotNil(t, result.EstimatedSavings)
	assert.InDelta(t, 20.0, *result.EstimatedSavings, 1e-9) // 20% of 100
	assert.Equal(t, domain.RiskMedium, result.RiskLevel)
}

func TestBuiltinRules_AllRegistered(t *testing.T) {
	registry := NewDefaultRegistry(DefaultRuleConfig())
	assert.Equal(t, 5, registry.Len())

	for _, id := range []string{
		RuleMoodSpending, RuleLuxuryProximity, RuleWeatherMood,
		RuleSleepDeprivation, RuleSpendingVelocity,
	} {
		_, ok := registry.Get(id)
		assert.True(t, ok, "missing built-in rule %s", id)
	}
}
