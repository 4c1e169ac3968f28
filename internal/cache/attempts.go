// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "hc:attempts:"

// Sign-in limits used by the server.
const (
	DefaultAttemptLimit  = 5
	DefaultAttemptWindow = 15 * time.Minute
)

// Attempts counts failed sign-ins per key (a client IP, an email) and locks
// the key out once the limit is reached. The counter expires window after
// the first failure.
type Attempts struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewAttempts creates a limiter allowing limit failures per window.
func NewAttempts(client *redis.Client, limit int, window time.Duration) *Attempts {
	return &Attempts{client: client, limit: int64(limit), window: window}
}

// Locked reports whether key has used up its failures.
func (a *Attempts) Locked(ctx context.Context, key string) (bool, error) {
	n, err := a.client.Get(ctx, attemptKeyPrefix+key).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts get: %w", err)
	}
	return n >= a.limit, nil
}

// Fail records a failure and returns how many remain before lockout.
func (a *Attempts) Fail(ctx context.Context, key string) (remaining int, err error) {
	k := attemptKeyPrefix + key
	pipe := a.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, a.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("attempts incr: %w", err)
	}
	left := a.limit - incr.Val()
	if left < 0 {
		left = 0
	}
	return int(left), nil
}

// Reset clears the failures for key after a successful sign-in.
func (a *Attempts) Reset(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, attemptKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("attempts reset: %w", err)
	}
	return nil
}
