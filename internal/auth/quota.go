package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// Quota answers whether a user may start another generation right now.
type Quota interface {
	WithinQuota(userID string) bool
}

// Unlimited is a Quota that never refuses.
type Unlimited struct{}

func (Unlimited) WithinQuota(string) bool { return true }

// RateQuota enforces a per-user request rate with token buckets. Limiters
// are created lazily per user and live for the process lifetime.
type RateQuota struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

var _ Quota = (*RateQuota)(nil)

// NewRateQuota allows perMinute generations per user, with a burst of the
// same size.
func NewRateQuota(perMinute int) *RateQuota {
	return &RateQuota{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

// WithinQuota implements Quota.
func (q *RateQuota) WithinQuota(userID string) bool {
	q.mu.Lock()
	limiter, ok := q.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(q.limit, q.burst)
		q.limiters[userID] = limiter
	}
	q.mu.Unlock()

	return limiter.Allow()
}
