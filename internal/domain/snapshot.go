package domain

import (
	"fmt"
	"time"
)

// Location is a WGS84 coordinate pair
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Weather captures current conditions at the user's location
type Weather struct {
	Condition string  `json:"condition"`
	TempC     float64 `json:"temp_c"`
}

// Merchant is a nearby point of sale with its distance from the user
type Merchant struct {
	Name      string    `json:"name"`
	DistanceM float64   `json:"distance_m"`
	PriceTier PriceTier `json:"price_tier"`
}

// SleepSummary is last night's sleep as reported by the health integration
type SleepSummary struct {
	DurationHours float64 `json:"duration_hours"`
}

// SpendingRecord is a single recent purchase in the lookback window
type SpendingRecord struct {
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Snapshot is the point-in-time context an evaluation runs against.
// Optional signals are pointers or nil-able slices; rules must treat a
// missing signal as "condition not met", never as an error. A snapshot is
// immutable once built.
type Snapshot struct {
	UserID         string           `json:"user_id"`
	Mood           int              `json:"mood"`
	Location       Location         `json:"location"`
	Weather        *Weather         `json:"weather,omitempty"`
	Merchants      []Merchant       `json:"merchants,omitempty"`
	Sleep          *SleepSummary    `json:"sleep,omitempty"`
	RecentSpending []SpendingRecord `json:"recent_spending,omitempty"`
	CapturedAt     time.Time        `json:"captured_at"`
}

// Validate checks structural invariants before any rule sees the snapshot.
// Returns a *ValidationError naming the first offending field.
func (s *Snapshot) Validate() error {
	if s.UserID == "" {
		return NewValidationError("user_id", "must not be empty")
	}
	if s.Mood < 1 || s.Mood > 10 {
		return NewValidationError("mood", fmt.Sprintf("must be between 1 and 10, got %d", s.Mood))
	}
	if s.Location.Lat < -90 || s.Location.Lat > 90 {
		return NewValidationError("location.lat", fmt.Sprintf("must be between -90 and 90, got %g", s.Location.Lat))
	}
	if s.Location.Lon < -180 || s.Location.Lon > 180 {
		return NewValidationError("location.lon", fmt.Sprintf("must be between -180 and 180, got %g", s.Location.Lon))
	}
	for i, m := range s.Merchants {
		if m.DistanceM < 0 {
			return NewValidationError(fmt.Sprintf("merchants[%d].distance_m", i), "must not be negative")
		}
		if !validPriceTiers[m.PriceTier] {
			return NewValidationError(fmt.Sprintf("merchants[%d].price_tier", i), fmt.Sprintf("unknown price tier %q", m.PriceTier))
		}
	}
	for i, r := range s.RecentSpending {
		if r.Amount < 0 {
			return NewValidationError(fmt.Sprintf("recent_spending[%d].amount", i), "must not be negative")
		}
	}
	return nil
}

// MerchantsWithin returns the merchants no farther than radiusM meters,
// preserving snapshot order
func (s *Snapshot) MerchantsWithin(radiusM float64) []Merchant {
	var out []Merchant
	for _, m := range s.Merchants {
		if m.DistanceM <= radiusM {
			out = append(out, m)
		}
	}
	return out
}

// TotalRecentSpending sums the amounts in the recent spending window
func (s *Snapshot) TotalRecentSpending() float64 {
	var total float64
	for _, r := range s.RecentSpending {
		total += r.Amount
	}
	return total
}
