package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginAttempt is the verdict for one login attempt.
type LoginAttempt struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// LoginLimiter counts login attempts per identity over a sliding window.
type LoginLimiter interface {
	Allow(ctx context.Context, identity string) (LoginAttempt, error)
	Reset(ctx context.Context, identity string) error
}

func attemptsKey(identity string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(identity))
}

type redisLoginLimiter struct {
	client      *redis.Client
	prefix      string
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewRedisLoginLimiter keeps one sorted set per identity, scored by attempt time.
func NewRedisLoginLimiter(client *redis.Client, prefix string, maxAttempts int, window time.Duration) LoginLimiter {
	return &redisLoginLimiter{client: client, prefix: prefix, maxAttempts: maxAttempts, window: window, now: time.Now}
}

func (r *redisLoginLimiter) Allow(ctx context.Context, identity string) (LoginAttempt, error) {

	key := namespaced(r.prefix, attemptsKey(identity))
	now := r.now().UnixNano()
	windowStart := now - r.window.Nanoseconds()

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return LoginAttempt{}, fmt.Errorf("failed to record login attempt: %w", err)
	}

	attempts := int(count.Val())
	if attempts <= r.maxAttempts {
		return LoginAttempt{Allowed: true, Remaining: r.maxAttempts - attempts}, nil
	}

	oldest, err := r.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return LoginAttempt{}, fmt.Errorf("failed to read oldest login attempt: %w", err)
	}

	retryAfter := r.window
	if len(oldest) > 0 {
		retryAfter = time.Duration(int64(oldest[0].Score) + r.window.Nanoseconds() - now)
	}

	return LoginAttempt{Allowed: false, RetryAfter: retryAfter}, nil
}

func (r *redisLoginLimiter) Reset(ctx context.Context, identity string) error {
	if err := r.client.Del(ctx, namespaced(r.prefix, attemptsKey(identity))).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return nil
}

type memoryLoginLimiter struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewMemoryLoginLimiter(maxAttempts int, window time.Duration) LoginLimiter {
	return newMemoryLoginLimiter(maxAttempts, window, time.Now)
}

func newMemoryLoginLimiter(maxAttempts int, window time.Duration, now func() time.Time) *memoryLoginLimiter {
	return &memoryLoginLimiter{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         now,
	}
}

func (m *memoryLoginLimiter) Allow(_ context.Context, identity string) (LoginAttempt, error) {

	key := attemptsKey(identity)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// drop attempts that fell out of the window
	kept := m.attempts[key][:0]
	for _, at := range m.attempts[key] {
		if now.Sub(at) < m.window {
			kept = append(kept, at)
		}
	}

	kept = append(kept, now)
	m.attempts[key] = kept

	if len(kept) <= m.maxAttempts {
		return LoginAttempt{Allowed: true, Remaining: m.maxAttempts - len(kept)}, nil
	}

	return LoginAttempt{Allowed: false, RetryAfter: kept[0].Add(m.window).Sub(now)}, nil
}

func (m *memoryLoginLimiter) Reset(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.attempts, attemptsKey(identity))

	return nil
}
