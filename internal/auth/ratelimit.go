package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle applies token-bucket limits keyed by caller-chosen strings
// (principal email, source IP). Login and refresh share one instance so a
// brute-force run hits the same buckets regardless of endpoint.
type Throttle struct {
	mu      sync.Mutex
	buckets map[string]*throttleBucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	swept   time.Time
}

type throttleBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewThrottle allows perMinute sustained attempts per key with the given
// burst headroom.
func NewThrottle(perMinute, burst int) *Throttle {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = perMinute
	}
	return &Throttle{
		buckets: make(map[string]*throttleBucket),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		ttl:     10 * time.Minute,
		swept:   time.Now(),
	}
}

// Allow consumes one attempt for each key. If any key is over its limit the
// call fails with ErrRateLimited; the distinct error lets clients back off
// instead of treating the failure as bad credentials.
func (t *Throttle) Allow(keys ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.sweep(now)

	for _, key := range keys {
		if key == "" {
			key = "unknown"
		}
		b, ok := t.buckets[key]
		if !ok {
			b = &throttleBucket{lim: rate.NewLimiter(t.limit, t.burst)}
			t.buckets[key] = b
		}
		b.seen = now
		if !b.lim.Allow() {
			return ErrRateLimited
		}
	}
	return nil
}

// sweep drops idle buckets. Called with the mutex held.
func (t *Throttle) sweep(now time.Time) {
	if now.Sub(t.swept) < time.Minute {
		return
	}
	t.swept = now
	for key, b := range t.buckets {
		if now.Sub(b.seen) > t.ttl {
			delete(t.buckets, key)
		}
	}
}
