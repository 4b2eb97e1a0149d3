package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every instance pointing at the
// same Redis (7.0+ for EXPIRE NX). The window starts on the first hit for a key.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

func NewRedis(rdb redis.Cmdable, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (r *Redis) Limit(ctx context.Context, key string) (bool, error) {
	k := r.prefix + key

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		// NX keeps the first hit's expiry so the window does not slide.
		pipe.ExpireNX(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %q: %w", r.prefix, err)
	}

	return incr.Val() <= r.limit, nil
}
