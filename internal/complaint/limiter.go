package complaint

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = time.Hour

// Limiter is a token bucket per reporter.
type Limiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLimiter allows perHour submissions per reporter with the given burst.
// A non-positive perHour disables limiting.
func NewLimiter(perHour, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{burst: burst, buckets: make(map[string]*bucket)}
	if perHour > 0 {
		l.every = rate.Limit(float64(perHour) / time.Hour.Seconds())
	} else {
		l.every = rate.Inf
	}
	return l
}

// AllowAt consumes a token for key at now.
func (l *Limiter) AllowAt(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, b := range l.buckets {
		if now.Sub(b.seen) > limiterIdleTTL {
			delete(l.buckets, k)
		}
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}
