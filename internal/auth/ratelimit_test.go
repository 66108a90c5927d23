package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "10.0.0.1") {
		t.Error("fourth attempt should be limited")
	}
	if !l.Allow(ctx, "10.0.0.2") {
		t.Error("other keys should not be affected")
	}

	now = now.Add(2 * time.Minute)
	if !l.Allow(ctx, "10.0.0.1") {
		t.Error("attempts should be allowed again after the window")
	}
}

func TestMemoryLimiterForgetsIdleKeys(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.Allow(ctx, ip)
	}
	if len(l.attempts) != 3 {
		t.Fatalf("tracking %d keys, want 3", len(l.attempts))
	}

	now = now.Add(30 * time.Second)
	l.Allow(ctx, "10.0.0.4")
	if len(l.attempts) != 4 {
		t.Errorf("keys inside the window were dropped: %d", len(l.attempts))
	}

	now = now.Add(time.Minute)
	l.Allow(ctx, "10.0.0.1")
	if len(l.attempts) != 1 {
		t.Errorf("tracking %d keys after the window, want 1", len(l.attempts))
	}
	if got := len(l.attempts["10.0.0.1"]); got != 1 {
		t.Errorf("10.0.0.1 has %d attempts, want 1", got)
	}
}

func TestNewLoginLimiterFallsBackToMemory(t *testing.T) {
	if _, ok := NewLoginLimiter("", "", 0).(*MemoryLimiter); !ok {
		t.Error("expected in-memory limiter without a redis address")
	}
	if _, ok := NewLoginLimiter("127.0.0.1:1", "", 0).(*MemoryLimiter); !ok {
		t.Error("expected in-memory limiter when redis is unreachable")
	}
}
