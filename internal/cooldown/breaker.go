package cooldown

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	cb "github.com/sony/gobreaker"
)

// breakerStore shields callers from a flaky backing store. When the inner
// store errors or the breaker is open, Acquire fails open and reports the
// slot as acquired so intervention side effects keep flowing.
type breakerStore struct {
	inner Store
	cb    *cb.CircuitBreaker
}

// NewBreakerStore wraps inner with a circuit breaker named name.
func NewBreakerStore(inner Store, name string) Store {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.05
	}
	return &breakerStore{inner: inner, cb: cb.NewCircuitBreaker(st)}
}

func (s *breakerStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Acquire(ctx, key, ttl)
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cooldown store unavailable, failing open")
		return true, nil
	}
	return res.(bool), nil
}
