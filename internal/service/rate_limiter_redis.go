package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jsbattig/code-indexer-sub037/internal/observability"
)

// RedisWindowLimiter keeps the same fixed-window semantics as WindowLimiter
// but shares state across processes through a sorted set per key. Callers
// must treat a returned error as a denial (fail closed); the limiter itself
// never guesses when the backend is unreachable.
type RedisWindowLimiter struct {
	client *redis.Client
	scope  string
	cfg    RateLimitConfig
	clock  Clock
}

func NewRedisWindowLimiter(client *redis.Client, scope string, cfg RateLimitConfig, clock Clock) *RedisWindowLimiter {
	if clock == nil {
		clock = SystemClock()
	}
	return &RedisWindowLimiter{
		client: client,
		scope:  scope,
		cfg:    normalizeRateLimitConfig(cfg),
		clock:  clock,
	}
}

func (l *RedisWindowLimiter) CheckAndRecord(ctx context.Context, key string) (Decision, error) {
	now := l.clock.Now()
	redisKey := l.redisKey(key)
	cutoff := now.Add(-l.cfg.Window)

	if err := l.client.ZRemRangeByScore(ctx, redisKey, "0", formatScore(cutoff)).Err(); err != nil {
		observability.RecordRateLimitDecision(l.scope, "backend_error")
		return Decision{}, fmt.Errorf("prune rate limit key: %w", err)
	}
	count, err := l.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		observability.RecordRateLimitDecision(l.scope, "backend_error")
		return Decision{}, fmt.Errorf("count rate limit key: %w", err)
	}
	if count >= int64(l.cfg.MaxAttempts) {
		oldest, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err != nil {
			observability.RecordRateLimitDecision(l.scope, "backend_error")
			return Decision{}, fmt.Errorf("read oldest attempt: %w", err)
		}
		retryAfter := time.Second
		if len(oldest) == 1 {
			oldestAt := time.UnixMilli(int64(oldest[0].Score))
			if d := oldestAt.Add(l.cfg.Window).Sub(now); d > 0 {
				retryAfter = d
			}
		}
		observability.RecordRateLimitDecision(l.scope, "deny")
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	if err := l.client.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMilli()), Member: member}).Err(); err != nil {
		observability.RecordRateLimitDecision(l.scope, "backend_error")
		return Decision{}, fmt.Errorf("record attempt: %w", err)
	}
	if err := l.client.Expire(ctx, redisKey, l.cfg.Window+time.Minute).Err(); err != nil {
		observability.RecordRateLimitDecision(l.scope, "backend_error")
		return Decision{}, fmt.Errorf("set rate limit key ttl: %w", err)
	}
	observability.RecordRateLimitDecision(l.scope, "allow")
	return Decision{Allowed: true, Remaining: l.cfg.MaxAttempts - int(count) - 1}, nil
}

func (l *RedisWindowLimiter) Reset(ctx context.Context) error {
	iter := l.client.Scan(ctx, 0, "ratelimit:"+l.scope+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (l *RedisWindowLimiter) redisKey(key string) string {
	return "ratelimit:" + l.scope + ":" + key
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
