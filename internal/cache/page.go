// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"hopecity/internal/notify"
)

const (
	pageKeyPrefix = "hc:page:"
	pageGenKey    = "hc:pagegen" // outside pageKeyPrefix, so InvalidateAll keeps it

	// Cache keys of the public responses.
	HomeKey       = "home"
	ConfigJSONKey = "config.json"

	DefaultPageTTL = 5 * time.Minute
)

// PageCache stores rendered responses so repeat visitors skip the config
// load and template execution. Entries are filed under a generation number
// that every invalidation bumps; a response rendered from a config read
// before the bump lands in the old generation and is never served.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache. A zero ttl uses DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached body for key along with the generation the lookup
// used. Callers that render on a miss pass gen back to Set. gen is negative
// when the generation could not be read.
func (pc *PageCache) Get(ctx context.Context, key string) (body []byte, gen int64, ok bool) {
	gen, err := pc.generation(ctx)
	if err != nil {
		slog.Warn("page cache generation error", "error", err)
		return nil, -1, false
	}

	val, err := pc.client.Get(ctx, pageKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, gen, false
	}
	return val, gen, true
}

// Set stores body under key in generation gen with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, gen int64, body []byte) {
	if gen < 0 {
		return
	}
	if err := pc.client.Set(ctx, pageKey(gen, key), body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

func (pc *PageCache) generation(ctx context.Context) (int64, error) {
	gen, err := pc.client.Get(ctx, pageGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func pageKey(gen int64, key string) string {
	return pageKeyPrefix + strconv.FormatInt(gen, 10) + ":" + key
}

// InvalidateAll moves readers to a new generation and drops every cached
// page.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if err := pc.client.Incr(ctx, pageGenKey).Err(); err != nil {
		slog.Warn("page cache generation bump error", "error", err)
	}

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("page cache cleared", "deleted", deleted)
}

// InvalidateOn clears the cache whenever n fires. The returned function
// stops listening.
func (pc *PageCache) InvalidateOn(n *notify.Notifier) (stop func()) {
	return n.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pc.InvalidateAll(ctx)
	})
}
