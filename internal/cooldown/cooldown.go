// Package cooldown rate-limits downstream effects of repeated intervention
// hits. Acquiring a key succeeds once per TTL window; callers skip the side
// effect (event publishing, notifications) while the key is held.
package cooldown

import (
	"context"
	"fmt"
	"time"
)

// Store hands out cooldown slots. Acquire returns true when the caller won
// the slot for key and false while a previous acquisition is still cooling
// down. Implementations must be safe for concurrent use.
type Store interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Key builds the canonical cooldown key for a user and rule pair.
func Key(userID, ruleID string) string {
	return fmt.Sprintf("cooldown:%s:%s", userID, ruleID)
}
