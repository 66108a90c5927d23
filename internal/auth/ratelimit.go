package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	rateLimitWindow   = 1 * time.Minute
	rateLimitAttempts = 10
)

// Limiter counts sign-in attempts per key.
type Limiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) bool
}

// MemoryLimiter is a sliding-window limiter for a single process.
type MemoryLimiter struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	window    time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryLimiter allows max attempts per key within window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		attempts: make(map[string][]time.Time),
		window:   window,
		max:      max,
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	valid := l.attempts[key][:0]
	for _, t := range l.attempts[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	valid = append(valid, now)
	l.attempts[key] = valid

	return len(valid) <= l.max
}

// sweep drops keys whose newest attempt is at or before cutoff.
func (l *MemoryLimiter) sweep(cutoff time.Time) {
	for key, times := range l.attempts {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(l.attempts, key)
		}
	}
}

// RedisLimiter is a fixed-window limiter shared by every server process.
type RedisLimiter struct {
	client  *redis.Client
	prefix  string
	window  time.Duration
	max     int
	timeout time.Duration
}

// NewRedisLimiter connects to Redis and returns a limiter backed by it.
func NewRedisLimiter(addr, password string, db, max int, window time.Duration) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisLimiter{
		client:  client,
		prefix:  "bienesraices:login:",
		window:  window,
		max:     max,
		timeout: 250 * time.Millisecond,
	}, nil
}

// Allow implements Limiter. Redis errors fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	redisKey := l.prefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		slog.Error("redis rate limiter error", "op", "incr", "err", err)
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			slog.Error("redis rate limiter error", "op", "expire", "err", err)
		}
	}
	return count <= int64(l.max)
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// NewLoginLimiter returns a Redis limiter when addr is set and reachable,
// otherwise an in-process one.
func NewLoginLimiter(addr, password string, db int) Limiter {
	if addr != "" {
		rl, err := NewRedisLimiter(addr, password, db, rateLimitAttempts, rateLimitWindow)
		if err == nil {
			return rl
		}
		slog.Warn("redis unavailable, using in-memory login limiter", "addr", addr, "err", err)
	}
	return NewMemoryLimiter(rateLimitAttempts, rateLimitWindow)
}
