package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Prefix      string
	Window      time.Duration
	MaxAttempts int
}

// LoginLimiter is a sliding-window attempt counter kept in a Redis sorted set
// per key. Every call counts as an attempt.
type LoginLimiter struct {
	redis  redis.Cmdable
	config Config
}

func NewLoginLimiter(client redis.Cmdable, config Config) *LoginLimiter {
	if config.Prefix == "" {
		config.Prefix = "login_attempts"
	}
	return &LoginLimiter{
		redis:  client,
		config: config,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. A limit of zero or less disables throttling.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.config.MaxAttempts <= 0 || l.config.Window <= 0 {
		return true, nil
	}
	redisKey := fmt.Sprintf("%s:%s", l.config.Prefix, key)

	now := time.Now()
	windowStart := now.Add(-l.config.Window).UnixNano()

	pipe := l.redis.TxPipeline()

	// Drop attempts that fell out of the window
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	card := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, l.config.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	return card.Val() < int64(l.config.MaxAttempts), nil
}
