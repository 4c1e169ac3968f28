// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"hopecity/internal/notify"
)

// testValkeyClient returns a client on DB 15. Skips if Valkey is
// unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "hc:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	client, err := ConnectValkey(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"), os.Getenv("VALKEY_PASSWORD"), 15)
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	client.Close()
}

func TestConnectValkeyUnreachable(t *testing.T) {
	if _, err := ConnectValkey("127.0.0.1", "1", "", 0); err == nil {
		t.Error("expected error for closed port")
	}
}

func TestPageCacheSetAndGet(t *testing.T) {
	pc := NewPageCache(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	data, gen, ok := pc.Get(ctx, HomeKey)
	if ok || data != nil {
		t.Error("expected miss")
	}
	if gen != 0 {
		t.Errorf("fresh cache generation = %d, want 0", gen)
	}

	html := []byte("<html><body>Hope City</body></html>")
	pc.Set(ctx, HomeKey, gen, html)

	data, _, ok = pc.Get(ctx, HomeKey)
	if !ok || string(data) != string(html) {
		t.Errorf("Get = (%q, %v)", data, ok)
	}
}

func TestPageCacheInvalidateOnNotify(t *testing.T) {
	pc := NewPageCache(testValkeyClient(t), time.Minute)
	ctx := context.Background()
	n := notify.New()
	stop := pc.InvalidateOn(n)
	defer stop()

	_, gen, _ := pc.Get(ctx, HomeKey)
	pc.Set(ctx, HomeKey, gen, []byte("home"))
	pc.Set(ctx, ConfigJSONKey, gen, []byte("{}"))

	n.Notify()

	for _, k := range []string{HomeKey, ConfigJSONKey} {
		if _, _, ok := pc.Get(ctx, k); ok {
			t.Errorf("%s still cached after change", k)
		}
	}
}

func TestPageCacheIgnoresSetFromOldGeneration(t *testing.T) {
	pc := NewPageCache(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	_, before, _ := pc.Get(ctx, HomeKey)
	pc.InvalidateAll(ctx)
	pc.Set(ctx, HomeKey, before, []byte("rendered from the old config"))

	_, after, ok := pc.Get(ctx, HomeKey)
	if ok {
		t.Error("render from before the invalidation is served")
	}
	if after != before+1 {
		t.Errorf("generation = %d, want %d", after, before+1)
	}

	pc.Set(ctx, HomeKey, after, []byte("fresh"))
	if data, _, ok := pc.Get(ctx, HomeKey); !ok || string(data) != "fresh" {
		t.Errorf("Get = (%q, %v), want fresh", data, ok)
	}
}

func TestPageCacheUnreachableSkipsWrites(t *testing.T) {
	pc := NewPageCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	ctx := context.Background()

	_, gen, ok := pc.Get(ctx, HomeKey)
	if ok || gen >= 0 {
		t.Errorf("Get = (gen %d, %v), want negative generation and a miss", gen, ok)
	}
	pc.Set(ctx, HomeKey, gen, []byte("ignored"))
}

func TestNewPageCacheDefaultTTL(t *testing.T) {
	pc := NewPageCache(nil, 0)
	if pc.ttl != DefaultPageTTL {
		t.Errorf("ttl = %v, want %v", pc.ttl, DefaultPageTTL)
	}
}

func TestAttempts(t *testing.T) {
	a := NewAttempts(testValkeyClient(t), 3, time.Minute)
	ctx := context.Background()
	key := "pin:203.0.113.7"

	if locked, _ := a.Locked(ctx, key); locked {
		t.Fatal("fresh key locked")
	}

	for want := 2; want >= 0; want-- {
		left, err := a.Fail(ctx, key)
		if err != nil {
			t.Fatalf("Fail: %v", err)
		}
		if left != want {
			t.Errorf("remaining = %d, want %d", left, want)
		}
	}

	if locked, _ := a.Locked(ctx, key); !locked {
		t.Error("key not locked after limit")
	}
	if left, _ := a.Fail(ctx, key); left != 0 {
		t.Errorf("remaining after lockout = %d", left)
	}

	a.Reset(ctx, key)
	if locked, _ := a.Locked(ctx, key); locked {
		t.Error("key still locked after Reset")
	}
}
