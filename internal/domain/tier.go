package domain

// Tier represents a subscription entitlement level
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// tierRank orders tiers for entitlement comparison. Unknown tiers rank 0
// so a malformed or missing tier can never unlock gated rules.
var tierRank = map[Tier]int{
	TierFree:    0,
	TierPro:     1,
	TierPremium: 2,
}

// Satisfies reports whether t grants at least the entitlement of min.
// A higher tier always satisfies a lower requirement.
func (t Tier) Satisfies(min Tier) bool {
	return tierRank[t] >= tierRank[min]
}

// Valid reports whether t is one of the known subscription tiers
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// ParseTier maps a raw tier string to a Tier, failing closed to TierFree
// on anything unrecognized
func ParseTier(s string) Tier {
	t := Tier(s)
	if !t.Valid() {
		return TierFree
	}
	return t
}
