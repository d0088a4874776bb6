package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter is the minimal interface required to guard sensitive
// endpoints. Keys combine the endpoint scope with the caller address so
// one abusive client cannot starve another endpoint's budget.
type RateLimiter interface {
	Allow(key string) bool
}

func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	key := clientIP(r)
	if scope != "" {
		key = scope + ":" + key
	}
	return limiter.Allow(key)
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
