package domain

// Category classifies what a ledger entry's savings relate to
type Category string

const (
	CategoryFood          Category = "food"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryTransport     Category = "transport"
	CategorySubscription  Category = "subscription"
	CategoryOther         Category = "other"
)

var validCategories = map[Category]bool{
	CategoryFood:          true,
	CategoryShopping:      true,
	CategoryEntertainment: true,
	CategoryTransport:     true,
	CategorySubscription:  true,
	CategoryOther:         true,
}

// ParseCategory returns the Category for s and whether s named a known one
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, validCategories[c]
}

// CategoryOrDefault maps unknown category strings to CategoryOther.
// Boundary layers reject unknown values outright; internal callers that
// fold over stored data use this to stay total.
func CategoryOrDefault(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryOther
}

// TriggerType identifies which kind of intervention produced a saving
type TriggerType string

const (
	TriggerMoodAlert     TriggerType = "mood_alert"
	TriggerLocationAlert TriggerType = "location_alert"
	TriggerAISuggestion  TriggerType = "ai_suggestion"
	TriggerManual        TriggerType = "manual"
	TriggerTimeBased     TriggerType = "time_based"
	TriggerWeatherBased  TriggerType = "weather_based"
)

var validTriggers = map[TriggerType]bool{
	TriggerMoodAlert:     true,
	TriggerLocationAlert: true,
	TriggerAISuggestion:  true,
	TriggerManual:        true,
	TriggerTimeBased:     true,
	TriggerWeatherBased:  true,
}

// ParseTriggerType returns the TriggerType for s and whether s named a known one
func ParseTriggerType(s string) (TriggerType, bool) {
	t := TriggerType(s)
	return t, validTriggers[t]
}

// TriggerOrDefault maps unknown trigger strings to TriggerManual
func TriggerOrDefault(s string) TriggerType {
	if t, ok := ParseTriggerType(s); ok {
		return t
	}
	return TriggerManual
}

// PriceTier buckets a merchant's typical price point
type PriceTier string

const (
	PriceBudget        PriceTier = "budget"
	PriceModerate      PriceTier = "moderate"
	PriceExpensive     PriceTier = "expensive"
	PriceVeryExpensive PriceTier = "very_expensive"
	PriceLuxury        PriceTier = "luxury"
)

var validPriceTiers = map[PriceTier]bool{
	PriceBudget:        true,
	PriceModerate:      true,
	PriceExpensive:     true,
	PriceVeryExpensive: true,
	PriceLuxury:        true,
}

// ParsePriceTier returns the PriceTier for s and whether s named a known one
func ParsePriceTier(s string) (PriceTier, bool) {
	p := PriceTier(s)
	return p, validPriceTiers[p]
}

// Expensive reports whether the price tier sits in the upper buckets that
// spending-risk rules care about
func (p PriceTier) Expensive() bool {
	switch p {
	case PriceExpensive, PriceVeryExpensive, PriceLuxury:
		return true
	}
	return false
}

// RiskLevel grades how urgent an intervention is
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

var riskRank = map[RiskLevel]int{
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// AtLeast reports whether r is as severe as min
func (r RiskLevel) AtLeast(min RiskLevel) bool {
	return riskRank[r] >= riskRank[min]
}
