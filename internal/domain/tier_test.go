package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierSatisfies_Ordering(t *testing.T) {
	testCases := []struct {
		name     string
		tier     Tier
		min      Tier
		expected bool
	}{
		{name: "free_satisfies_free", tier: TierFree, min: TierFree, expected: true},
		{name: "free_blocked_from_pro", tier: TierFree, min: TierPro, expected: false},
		{name: "free_blocked_from_premium", tier: TierFree, min: TierPremium, expected: false},
		{name: "pro_satisfies_free", tier: TierPro, min: TierFree, expected: true},
		{name: "pro_satisfies_pro", tier: TierPro, min: TierPro, expected: true},
		{name: "pro_blocked_from_premium", tier: TierPro, min: TierPremium, expected: false},
		{name: "premium_satisfies_everything", tier: TierPremium, min: TierPremium, expected: true},
		{name: "premium_satisfies_free", tier: TierPremium, min: TierFree, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.tier.Satisfies(tc.min))
		})
	}
}

func TestTierSatisfies_UnknownFailsClosed(t *testing.T) {
	// An unrecognized tier must gate exactly like free
	unknown := Tier("platinum")

	assert.True(t, unknown.Satisfies(TierFree))
	assert.False(t, unknown.Satisfies(TierPro))
	assert.False(t, unknown.Satisfies(TierPremium))
	assert.False(t, unknown.Valid())
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPro, ParseTier("pro"))
	assert.Equal(t, TierPremium, ParseTier("premium"))
	assert.Equal(t, TierFree, ParseTier("free"))
	assert.Equal(t, TierFree, ParseTier(""))
	assert.Equal(t, TierFree, ParseTier("PRO"))
	assert.Equal(t, TierFree, ParseTier("enterprise"))
}
