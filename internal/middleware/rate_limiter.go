package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter controls how frequently a caller may perform an action.
type RateLimiter interface {
	Allow(key string) bool
}

type callerState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedRateLimiter tracks event rates per key (typically an IP address)
// and forgets idle callers after a TTL.
type keyedRateLimiter struct {
	mu      sync.Mutex
	callers map[string]*callerState
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewKeyedRateLimiter constructs a per-key limiter allowing up to
// `events` per `window` with the given burst capacity. Idle entries
// expire after ttl.
func NewKeyedRateLimiter(events int, window time.Duration, burst int, ttl time.Duration) RateLimiter {
	if events <= 0 {
		events = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &keyedRateLimiter{
		callers: make(map[string]*callerState),
		limit:   rate.Every(window / time.Duration(events)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Allow reports whether the caller identified by key may proceed.
func (l *keyedRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	state, ok := l.callers[key]
	if !ok {
		state = &callerState{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.callers[key] = state
	}
	state.lastSeen = now
	l.sweepLocked(now)
	l.mu.Unlock()

	return state.limiter.Allow()
}

func (l *keyedRateLimiter) sweepLocked(now time.Time) {
	for key, state := range l.callers {
		if now.Sub(state.lastSeen) > l.ttl {
			delete(l.callers, key)
		}
	}
}
