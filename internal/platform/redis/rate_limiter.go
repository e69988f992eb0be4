package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	cfgpkg "github.com/csinmamit/membership/pkg/config"
)

type counter interface {
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd
	TTL(ctx context.Context, key string) *goredis.DurationCmd
}

// RateLimiter is a fixed window counter. A nil *RateLimiter allows everything.
type RateLimiter struct {
	client counter
	limit  int
	window time.Duration
	prefix string
}

func NewRateLimiter(client counter, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// NewOrderRateLimiter limits order creation per subject.
func NewOrderRateLimiter(client *goredis.Client, cfg *cfgpkg.Config) *RateLimiter {
	if client == nil || cfg.Redis.OrderRateLimit <= 0 {
		return nil
	}
	return NewRateLimiter(client, "rate_limit:create_order", cfg.Redis.OrderRateLimit, cfg.Redis.OrderRateWindow)
}

func (r *RateLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	if r == nil {
		return true, nil
	}
	key := r.key(subject)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, err
		}
	}
	if count <= int64(r.limit) {
		return true, nil
	}
	// INCR and EXPIRE are separate calls. A counter left without a TTL
	// would deny the subject forever, so denial re-arms the window.
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if ttl < 0 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (r *RateLimiter) key(subject string) string {
	return fmt.Sprintf("%s:%s", r.prefix, subject)
}
