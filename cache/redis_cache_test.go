package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := New(mr.Addr(), 0, 60)
	defer rc.Close()
	ctx := context.Background()

	if err := rc.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	key := PostKey(7)
	if key != "post:7" {
		t.Errorf("PostKey(7) = %q", key)
	}

	if _, err := rc.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Errorf("Get on empty cache: err = %v, want redis.Nil", err)
	}

	ok, err := rc.SetNX(ctx, key, `{"id":7}`)
	if err != nil || !ok {
		t.Fatalf("SetNX = %v, %v", ok, err)
	}
	got, err := rc.Get(ctx, key)
	if err != nil || got != `{"id":7}` {
		t.Errorf("Get = %q, %v", got, err)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	if ok, _ := rc.SetNX(ctx, key, `{"id":7,"likes":1}`); ok {
		t.Error("SetNX overwrote a live entry")
	}
}

func TestRedisCacheInvalidateBlocksStaleFill(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := New(mr.Addr(), 0, 60)
	defer rc.Close()
	ctx := context.Background()
	key := PostKey(1)

	if _, err := rc.SetNX(ctx, key, `{"likes":0}`); err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	if err := rc.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got, err := rc.Get(ctx, key); err != nil || got != "" {
		t.Errorf("Get after Invalidate = %q, %v, want empty tombstone", got, err)
	}
	if ttl := mr.TTL(key); ttl != DefaultTombstoneTTL {
		t.Errorf("tombstone TTL = %v, want %v", ttl, DefaultTombstoneTTL)
	}

	// a reader that loaded the post before the invalidation
	if ok, err := rc.SetNX(ctx, key, `{"likes":0}`); err != nil || ok {
		t.Errorf("stale SetNX = %v, %v, want refused", ok, err)
	}

	mr.FastForward(DefaultTombstoneTTL + time.Second)
	if ok, err := rc.SetNX(ctx, key, `{"likes":1}`); err != nil || !ok {
		t.Errorf("SetNX after tombstone expiry = %v, %v", ok, err)
	}
}

func TestRedisCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := New(mr.Addr(), 0, 1)
	defer rc.Close()
	ctx := context.Background()

	if _, err := rc.SetNX(ctx, PostKey(1), "x"); err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := rc.Get(ctx, PostKey(1)); !errors.Is(err, redis.Nil) {
		t.Errorf("Get after TTL: err = %v, want redis.Nil", err)
	}
}
