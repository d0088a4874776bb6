package middleware

import (
	"testing"
	"time"
)

func TestKeyedRateLimiterAllowsBurst(t *testing.T) {
	limiter := NewKeyedRateLimiter(1, time.Hour, 2, time.Hour)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected first event allowed")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected burst capacity to allow second event")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected third event to be limited")
	}
}

func TestKeyedRateLimiterIsolatesKeys(t *testing.T) {
	limiter := NewKeyedRateLimiter(1, time.Hour, 1, time.Hour)

	if !limiter.Allow("a") {
		t.Fatal("expected key a allowed")
	}
	if !limiter.Allow("b") {
		t.Fatal("expected key b unaffected by key a")
	}
	if limiter.Allow("a") {
		t.Fatal("expected key a limited")
	}
}

func TestKeyedRateLimiterEmptyKey(t *testing.T) {
	limiter := NewKeyedRateLimiter(1, time.Hour, 1, time.Hour)

	if !limiter.Allow("") {
		t.Fatal("expected empty key allowed once")
	}
	if limiter.Allow("") {
		t.Fatal("expected empty keys to share one bucket")
	}
}
