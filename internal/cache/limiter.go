// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// limiter.go provides a fixed-window request limiter stored in Valkey, so
// every server instance shares the same per-client counters.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// limitKeyPrefix is the Valkey key prefix for limiter counters.
const limitKeyPrefix = "ratelimit:"

// WindowLimiter allows up to limit requests per key in each window.
type WindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewWindowLimiter creates a limiter backed by the given Valkey client.
func NewWindowLimiter(client *redis.Client, limit int, window time.Duration) *WindowLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{client: client, limit: limit, window: window, now: time.Now}
}

// windowKey names the counter of the window containing t.
func (l *WindowLimiter) windowKey(key string, t time.Time) string {
	bucket := t.UnixNano() / int64(l.window)
	return limitKeyPrefix + key + ":" + strconv.FormatInt(bucket, 10)
}

// Allow counts one request for key and reports whether it is within the
// limit. The counter expires with its window.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	k := l.windowKey(key, l.now())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(l.limit), nil
}
