package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerEntry_Confirmed(t *testing.T) {
	testCases := []struct {
		name     string
		metadata map[string]interface{}
		expected bool
	}{
		{name: "nil_metadata", metadata: nil, expected: false},
		{name: "no_flag", metadata: map[string]interface{}{"estimated": true}, expected: false},
		{name: "flag_true", metadata: map[string]interface{}{"confirmed": true}, expected: true},
		{name: "flag_false", metadata: map[string]interface{}{"confirmed": false}, expected: false},
		{name: "flag_wrong_type", metadata: map[string]interface{}{"confirmed": "yes"}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry := &LedgerEntry{Metadata: tc.metadata}
			assert.Equal(t, tc.expected, entry.Confirmed())
		})
	}
}

func TestLedgerEntry_OriginalEstimateID(t *testing.T) {
	entry := &LedgerEntry{}
	assert.Empty(t, entry.OriginalEstimateID())

	entry.Metadata = map[string]interface{}{"original_estimate_id": "est-7"}
	assert.Equal(t, "est-7", entry.OriginalEstimateID())

	entry.Metadata = map[string]interface{}{"original_estimate_id": 12}
	assert.Empty(t, entry.OriginalEstimateID())
}
