package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/rshetty-99/marketvault/pkg/cache"
	"github.com/rshetty-99/marketvault/pkg/internal/storage/kv"
)

func newURLCache(t *testing.T) cache.URLCache {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	return cache.NewURLCache(store)
}

// TestURLCacheHitMiss 命中、未命中与不同变体互不干扰.
func TestURLCacheHitMiss(t *testing.T) {
	c := newURLCache(t)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "files/a", ""); ok {
		t.Fatal("empty cache must miss")
	}

	if err := c.Put(ctx, "files/a", "", "https://s3/a?sig=1", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := c.Put(ctx, "files/a", "thumb-200", "https://s3/a-thumb?sig=2", time.Minute); err != nil {
		t.Fatalf("put variant: %v", err)
	}

	url, ok := c.Get(ctx, "files/a", "")
	if !ok || url != "https://s3/a?sig=1" {
		t.Fatalf("get = (%q, %v)", url, ok)
	}

	url, ok = c.Get(ctx, "files/a", "thumb-200")
	if !ok || url != "https://s3/a-thumb?sig=2" {
		t.Fatalf("get variant = (%q, %v)", url, ok)
	}

	if _, ok := c.Get(ctx, "files/b", ""); ok {
		t.Fatal("other key must miss")
	}
}

// TestURLCacheExpiry 过期条目按未命中处理.
func TestURLCacheExpiry(t *testing.T) {
	c := newURLCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "files/exp", "", "https://s3/exp", 30*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, ok := c.Get(ctx, "files/exp", ""); !ok {
		t.Fatal("fresh entry must hit")
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get(ctx, "files/exp", ""); ok {
		t.Fatal("expired entry must miss")
	}
}

// TestURLCacheEvict 按存储键清除所有变体.
func TestURLCacheEvict(t *testing.T) {
	c := newURLCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "files/e", "", "u1", time.Minute)
	_ = c.Put(ctx, "files/e", "thumb-64", "u2", time.Minute)
	_ = c.Put(ctx, "files/keep", "", "u3", time.Minute)

	if err := c.Evict(ctx, "files/e"); err != nil {
		t.Fatalf("evict: %v", err)
	}

	if _, ok := c.Get(ctx, "files/e", ""); ok {
		t.Fatal("evicted original still present")
	}

	if _, ok := c.Get(ctx, "files/e", "thumb-64"); ok {
		t.Fatal("evicted variant still present")
	}

	if _, ok := c.Get(ctx, "files/keep", ""); !ok {
		t.Fatal("unrelated key was evicted")
	}
}

// TestURLCacheSweep 后台清扫只删过期条目.
func TestURLCacheSweep(t *testing.T) {
	c := newURLCache(t)
	ctx := context.Background()

	_ = c.Put(ctx, "files/s1", "", "u1", 10*time.Millisecond)
	_ = c.Put(ctx, "files/s2", "", "u2", time.Minute)

	time.Sleep(30 * time.Millisecond)

	if removed := c.EvictExpired(ctx); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, ok := c.Get(ctx, "files/s2", ""); !ok {
		t.Fatal("live entry swept")
	}
}
