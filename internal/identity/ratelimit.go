package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter bounds validation attempts per key prefix with a Redis sliding
// window. It is a hardening layer: when Redis is unreachable the limiter fails
// open so the identity service keeps validating.
type RateLimiter struct {
	client    *redis.Client
	perMinute int
	logger    *zap.Logger
}

// NewRateLimiter constructs the limiter. perMinute <= 0 disables limiting.
func NewRateLimiter(client *redis.Client, perMinute int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, perMinute: perMinute, logger: logger}
}

// Allow records an attempt for the prefix and reports whether it is within the
// per-minute budget.
func (l *RateLimiter) Allow(ctx context.Context, prefix string) bool {
	if l == nil || l.client == nil || l.perMinute <= 0 {
		return true
	}

	now := time.Now()
	window := time.Minute
	redisKey := fmt.Sprintf("validate_ratelimit:%s", prefix)
	windowStart := now.Add(-window).UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, redisKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter unavailable", zap.Error(err))
		return true
	}

	return zcard.Val() < int64(l.perMinute)
}
