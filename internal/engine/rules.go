package engine

import (
	"fmt"
	"strings"

	"github.com/pausewise/pausewise/internal/domain"
)

// Rule ids for the built-in set. Ledger entries reference these through
// the intervention type, so they are part of the stored vocabulary.
const (
	RuleMoodSpending     = "mood_spending_risk"
	RuleLuxuryProximity  = "luxury_proximity"
	RuleWeatherMood      = "weather_mood_risk"
	RuleSleepDeprivation = "sleep_deprivation_risk"
	RuleSpendingVelocity = "spending_velocity"
)

// RuleConfig contains the thresholds for the built-in rule set
type RuleConfig struct {
	// Mood spending gate
	MoodRiskThreshold   int     `yaml:"mood_risk_threshold"`    // mood <= 4 counts as low
	MoodMerchantRadiusM float64 `yaml:"mood_merchant_radius_m"` // within 500m
	MoodEstimate        float64 `yaml:"mood_estimate"`

	// Luxury proximity gate
	LuxuryRadiusM  float64 `yaml:"luxury_radius_m"` // within 200m
	LuxuryEstimate float64 `yaml:"luxury_estimate"`

	// Weather mood gate
	RainMoodThreshold int     `yaml:"rain_mood_threshold"` // mood <= 5 during rain
	WeatherEstimate   float64 `yaml:"weather_estimate"`

	// Sleep deprivation gate
	MinSleepHours float64 `yaml:"min_sleep_hours"` // < 6h counts as deprived
	SleepEstimate float64 `yaml:"sleep_estimate"`

	// Spending velocity gate
	VelocityMaxPurchases int     `yaml:"velocity_max_purchases"` // > 3 recent purchases
	VelocitySavingsRate  float64 `yaml:"velocity_savings_rate"`  // 20% of recent spend
}

// DefaultRuleConfig returns the production thresholds
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		MoodRiskThreshold:   4,
		MoodMerchantRadiusM: 500,
		MoodEstimate:        100,

		LuxuryRadiusM:  200,
		LuxuryEstimate: 250,

		RainMoodThreshold: 5,
		WeatherEstimate:   75,

		MinSleepHours: 6,
		SleepEstimate: 150,

		VelocityMaxPurchases: 3,
		VelocitySavingsRate:  0.20,
	}
}

// MoodSpendingRule flags low mood near expensive merchants. Available on
// every tier; this is the teaser nudge for free users.
func MoodSpendingRule(cfg RuleConfig) Rule {
	return Rule{
		ID:       RuleMoodSpending,
		MinTier:  domain.TierFree,
		Priority: 10,
		Condition: func(snap *domain.Snapshot) (bool, error) {
			if snap.Mood > cfg.MoodRiskThreshold {
				return false, nil
			}
			for _, m := range snap.MerchantsWithin(cfg.MoodMerchantRadiusM) {
				if m.PriceTier.Expensive() {
					return true, nil
				}
			}
			return false, nil
		},
		Action: func(snap *domain.Snapshot) (domain.InterventionResult, error) {
			var names []string
			for _, m := range snap.MerchantsWithin(cfg.MoodMerchantRadiusM) {
				if m.PriceTier.Expensive() {
					names = append(names, m.Name)
				}
			}
			return domain.InterventionResult{
				InterventionType: RuleMoodSpending,
				RiskLevel:        domain.RiskHigh,
				Message:          "You seem low right now, and there are pricey spots nearby. A short walk first?",
				Recommendations: []string{
					"Take a 10 minute pause before buying anything",
					"Write down what you were about to buy and revisit it tomorrow",
				},
				EstimatedSavings: domain.Float64Ptr(cfg.MoodEstimate),
				Metadata: map[string]interface{}{
					"merchants": names,
					"mood":      snap.Mood,
				},
			}, nil
		},
	}
}

// LuxuryProximityRule flags standing close to a luxury storefront
func LuxuryProximityRule(cfg RuleConfig) Rule {
	return Rule{
		ID:       RuleLuxuryProximity,
		MinTier:  domain.TierPremium,
		Priority: 20,
		Condition: func(snap *domain.Snapshot) (bool, error) {
			for _, m := range snap.MerchantsWithin(cfg.LuxuryRadiusM) {
				if m.PriceTier == domain.PriceLuxury {
					return true, nil
				}
			}
			return false, nil
		},
		Action: func(snap *domain.Snapshot) (domain.InterventionResult, error) {
			var nearest *domain.Merchant
			for _, m := range snap.MerchantsWithin(cfg.LuxuryRadiusM) {
				if m.PriceTier != domain.PriceLuxury {
					continue
				}
				m := m
				if nearest == nil || m.DistanceM < nearest.DistanceM {
					nearest = &m
				}
			}
			result := domain.InterventionResult{
				InterventionType: RuleLuxuryProximity,
				RiskLevel:        domain.RiskHigh,
				Message:          "A luxury store is right around the corner. Is this a planned purchase?",
				Recommendations: []string{
					"Check this month's discretionary budget before going in",
					"Sleep on purchases over your comfort threshold",
				},
				EstimatedSavings: domain.Float64Ptr(cfg.LuxuryEstimate),
			}
			if nearest != nil {
				result.Metadata = map[string]interface{}{
					"merchant":   nearest.Name,
					"distance_m": nearest.DistanceM,
				}
			}
			return result, nil
		},
	}
}

// WeatherMoodRule flags rainy-day low mood, a known comfort-spend setup
func WeatherMoodRule(cfg RuleConfig) Rule {
	return Rule{
		ID:       RuleWeatherMood,
		MinTier:  domain.TierPremium,
		Priority: 30,
		Condition: func(snap *domain.Snapshot) (bool, error) {
			if snap.Weather == nil {
				return false, nil
			}
			raining := strings.Contains(strings.ToLower(snap.Weather.Condition), "rain")
			return raining && snap.Mood <= cfg.RainMoodThreshold, nil
		},
		Action: func(snap *domain.Snapshot) (domain.InterventionResult, error) {
			return domain.InterventionResult{
				InterventionType: RuleWeatherMood,
				RiskLevel:        domain.RiskMedium,
				Message:          "Rainy day and a rough mood often lead to comfort spending. Maybe a warm drink at home instead?",
				Recommendations: []string{
					"Queue up something you already own and enjoy",
					"Move online shopping tabs to a wishlist",
				},
				EstimatedSavings: domain.Float64Ptr(cfg.WeatherEstimate),
				Metadata: map[string]interface{}{
					"condition": snap.Weather.Condition,
					"mood":      snap.Mood,
				},
			}, nil
		},
	}
}

// SleepDeprivationRule flags short sleep combined with shopping opportunity
func SleepDeprivationRule(cfg RuleConfig) Rule {
	return Rule{
		ID:       RuleSleepDeprivation,
		MinTier:  domain.TierPremium,
		Priority: 40,
		Condition: func(snap *domain.Snapshot) (bool, error) {
			if snap.Sleep == nil {
				return false, nil
			}
			return snap.Sleep.DurationHours < cfg.MinSleepHours && len(snap.Merchants) > 0, nil
		},
		Action: func(snap *domain.Snapshot) (domain.InterventionResult, error) {
			return domain.InterventionResult{
				InterventionType: RuleSleepDeprivation,
				RiskLevel:        domain.RiskHigh,
				Message: fmt.Sprintf("You slept %.1f hours last night. Tired brains overspend; big decisions can wait.",
					snap.Sleep.DurationHours),
				Recommendations: []string{
					"Defer any purchase over 50 until tomorrow",
					"Set a reminder to revisit your cart after a full night's sleep",
				},
				EstimatedSavings: domain.Float64Ptr(cfg.SleepEstimate),
				Metadata: map[string]interface{}{
					"sleep_hours": snap.Sleep.DurationHours,
				},
			}, nil
		},
	}
}

// SpendingVelocityRule flags a burst of recent purchases. The estimate
// scales with the burst: a fifth of what was just spent.
func SpendingVelocityRule(cfg RuleConfig) Rule {
	return Rule{
		ID:       RuleSpendingVelocity,
		MinTier:  domain.TierPro,
		Priority: 50,
		Condition: func(snap *domain.Snapshot) (bool, error) {
			return len(snap.RecentSpending) > cfg.VelocityMaxPurchases, nil
		},
		Action: func(snap *domain.Snapshot) (domain.InterventionResult, error) {
			total := snap.TotalRecentSpending()
			return domain.InterventionResult{
				InterventionType: RuleSpendingVelocity,
				RiskLevel:        domain.RiskMedium,
				Message: fmt.Sprintf("That's %d purchases in a short stretch, %.2f total. Worth a breather?",
					len(snap.RecentSpending), total),
				Recommendations: []string{
					"Review what you bought today before the next checkout",
					"Try a no-spend window for the rest of the day",
				},
				EstimatedSavings: domain.Float64Ptr(total * cfg.VelocitySavingsRate),
				Metadata: map[string]interface{}{
					"purchase_count": len(snap.RecentSpending),
					"total_spent":    total,
				},
			}, nil
		},
	}
}

// BuiltinRules returns the standard rule set configured by cfg
func BuiltinRules(cfg RuleConfig) []Rule {
	return []Rule{
		MoodSpendingRule(cfg),
		LuxuryProximityRule(cfg),
		WeatherMoodRule(cfg),
		SleepDeprivationRule(cfg),
		SpendingVelocityRule(cfg),
	}
}

// NewDefaultRegistry builds a registry holding the built-in rule set
func NewDefaultRegistry(cfg RuleConfig) *Registry {
	registry := NewRegistry()
	for _, rule := range BuiltinRules(cfg) {
		registry.MustRegister(rule)
	}
	return registry
}
