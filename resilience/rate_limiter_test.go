package resilience

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	if rl != nil {
		t.Fatal("expected nil limiter for zero rate")
	}
	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter should not block, got %v", err)
	}
	if !rl.Allow() {
		t.Error("nil limiter should always allow")
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Burst: 2})
	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2")
	}
	if rl.Allow() {
		t.Error("expected third call to be limited")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Rate: 0.1})
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first token should be free: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("expected wait to fail before the next token")
	}
}
