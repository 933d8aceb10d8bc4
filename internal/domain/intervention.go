package domain

// InterventionResult is the outcome of a single fired rule: what the app
// should surface to the user and what the intervention is worth if heeded
type InterventionResult struct {
	InterventionType string                 `json:"intervention_type"`
	RiskLevel        RiskLevel              `json:"risk_level"`
	Message          string                 `json:"message"`
	Recommendations  []string               `json:"recommendations,omitempty"`
	EstimatedSavings *float64               `json:"estimated_savings,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// HighestRisk returns the most severe risk level among results, or RiskLow
// for an empty slice
func HighestRisk(results []InterventionResult) RiskLevel {
	highest := RiskLow
	for _, r := range results {
		if r.RiskLevel.AtLeast(highest) {
			highest = r.RiskLevel
		}
	}
	return highest
}

// Float64Ptr returns a pointer to v, for optional savings estimates
func Float64Ptr(v float64) *float64 {
	return &v
}
