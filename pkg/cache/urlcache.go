package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"

	"github.com/rshetty-99/marketvault/pkg/internal/storage/kv"
)

// urlKeyPrefix URL 缓存在 KV 中的键前缀，和其它缓存域隔离.
const urlKeyPrefix = "urlcache:"

// URLCache 预签名下载 URL 的缓存.键是存储键加变体（缩略图尺寸等），
// 值只是目录元数据的派生副本：丢了就重新签一个，永远不回写目录.
type URLCache interface {
	// Get 命中时返回 URL；过期条目视为未命中并顺手删除.
	Get(ctx context.Context, storageKey, variant string) (string, bool)
	// Put 写入 URL，ttl 必须短于预签名本身的有效期.
	Put(ctx context.Context, storageKey, variant, url string, ttl time.Duration) error
	// Evict 删除一个存储键的所有已知变体.
	Evict(ctx context.Context, storageKey string) error
	// EvictExpired 扫描并删除过期条目，返回删除数.由后台任务周期调用，
	// 补偿不支持原生 TTL 的 KV 后端.
	EvictExpired(ctx context.Context) int
}

// urlEntry 缓存条目，带自管理的过期时间与访问统计.
type urlEntry struct {
	URL            string    `json:"url"`
	ExpiresAt      time.Time `json:"expires_at"`
	AccessCount    int64     `json:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

type kvURLCache struct {
	store kv.KVStore
	now   func() time.Time
}

// NewURLCache 基于任意 KV 后端构建 URL 缓存.
func NewURLCache(store kv.KVStore) URLCache {
	return &kvURLCache{store: store, now: time.Now}
}

func urlKey(storageKey, variant string) string {
	if variant == "" {
		variant = "original"
	}

	return urlKeyPrefix + storageKey + "#" + variant
}

func (c *kvURLCache) Get(ctx context.Context, storageKey, variant string) (string, bool) {
	key := urlKey(storageKey, variant)

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return "", false
	}

	var e urlEntry
	if err := sonic.Unmarshal(raw, &e); err != nil {
		_ = c.store.Delete(ctx, key)
		return "", false
	}

	if !c.now().Before(e.ExpiresAt) {
		_ = c.store.Delete(ctx, key)
		return "", false
	}

	// 访问统计尽力而为，写失败不影响命中
	e.AccessCount++
	e.LastAccessedAt = c.now().UTC()

	if raw, err := sonic.Marshal(e); err == nil {
		_ = c.store.Set(ctx, key, raw, time.Until(e.ExpiresAt))
	}

	return e.URL, true
}

func (c *kvURLCache) Put(ctx context.Context, storageKey, variant, url string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	e := urlEntry{
		URL:            url,
		ExpiresAt:      c.now().UTC().Add(ttl),
		LastAccessedAt: c.now().UTC(),
	}

	raw, err := sonic.Marshal(e)
	if err != nil {
		return err
	}

	return c.store.Set(ctx, urlKey(storageKey, variant), raw, ttl)
}

func (c *kvURLCache) Evict(ctx context.Context, storageKey string) error {
	keys, err := c.store.Keys(ctx, urlKeyPrefix+storageKey+"#*")
	if err != nil {
		return err
	}

	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return err
		}
	}

	return nil
}

func (c *kvURLCache) EvictExpired(ctx context.Context) int {
	keys, err := c.store.Keys(ctx, urlKeyPrefix+"*")
	if err != nil {
		return 0
	}

	removed := 0

	for _, k := range keys {
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}

		var e urlEntry
		if err := sonic.Unmarshal(raw, &e); err != nil || !c.now().Before(e.ExpiresAt) {
			if c.store.Delete(ctx, k) == nil {
				removed++
			}
		}
	}

	return removed
}
