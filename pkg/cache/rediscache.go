package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backend for deployments that want one cache shared
// across processes instead of DiskCache's per-process files. It implements
// the same contract; TTL enforcement is delegated to Redis's own expiry
// rather than an in-memory LRU, since Redis already evicts on its own
// budget under memory pressure.
type RedisCache struct {
	redis  *redis.Client
	prefix string
	ctx    context.Context
}

// redisEntry is the JSON wire form of an Entry stored in Redis.
type redisEntry struct {
	Data            []byte  `json:"data"`
	ETag            string  `json:"etag"`
	ServerDate      int64   `json:"server_date"`
	LastModified    int64   `json:"last_modified"`
	TTL             int64   `json:"ttl"`
	SoftTTL         int64   `json:"soft_ttl"`
	ResponseHeaders Headers `json:"response_headers"`
}

// NewRedisCache creates a RedisCache. keyPrefix namespaces keys so several
// libraries can share one Redis instance.
func NewRedisCache(client *redis.Client, keyPrefix string) *RedisCache {
	if client == nil {
		panic("jus/cache: redis client cannot be nil")
	}
	return &RedisCache{redis: client, prefix: keyPrefix, ctx: context.Background()}
}

// Initialize is a no-op: Redis needs no directory scan or in-memory index.
func (c *RedisCache) Initialize() error { return nil }

func (c *RedisCache) redisKey(key string) string {
	return c.prefix + key
}

// Get returns the entry for key, or ok=false on a cache miss or a
// corrupted (unmarshalable) stored value, which is treated the same as a
// miss and removed.
func (c *RedisCache) Get(key string) (*Entry, bool) {
	data, err := c.redis.Get(c.ctx, c.redisKey(key)).Bytes()
	if err != nil {
		CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}

	var re redisEntry
	if err := json.Unmarshal(data, &re); err != nil {
		CacheErrors.WithLabelValues("redis", "get").Inc()
		c.redis.Del(c.ctx, c.redisKey(key))
		return nil, false
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &Entry{
		Data:            re.Data,
		ETag:            re.ETag,
		ServerDate:      re.ServerDate,
		LastModified:    re.LastModified,
		TTL:             re.TTL,
		SoftTTL:         re.SoftTTL,
		ResponseHeaders: re.ResponseHeaders,
	}, true
}

// Put stores entry with a Redis TTL derived from entry.TTL, so stale
// entries are reclaimed by Redis itself without an explicit eviction pass.
func (c *RedisCache) Put(key string, entry *Entry) error {
	ttl := time.Until(time.UnixMilli(entry.TTL))
	if ttl <= 0 {
		return nil
	}

	re := redisEntry{
		Data:            entry.Data,
		ETag:            entry.ETag,
		ServerDate:      entry.ServerDate,
		LastModified:    entry.LastModified,
		TTL:             entry.TTL,
		SoftTTL:         entry.SoftTTL,
		ResponseHeaders: entry.ResponseHeaders,
	}
	data, err := json.Marshal(re)
	if err != nil {
		return fmt.Errorf("jus/cache: marshal entry: %w", err)
	}
	if err := c.redis.Set(c.ctx, c.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("jus/cache: redis set: %w", err)
	}
	return nil
}

// Invalidate forces the next access to revalidate by zeroing SoftTTL on the
// stored entry. With fullExpire set the stored entry is deleted instead, so
// the next Get is a miss.
func (c *RedisCache) Invalidate(key string, fullExpire bool) error {
	entry, ok := c.Get(key)
	if !ok {
		return nil
	}
	entry.SoftTTL = 0
	if fullExpire {
		entry.TTL = 0
		return c.redis.Del(c.ctx, c.redisKey(key)).Err()
	}
	return c.Put(key, entry)
}

// Remove deletes the entry for key, if any.
func (c *RedisCache) Remove(key string) error {
	return c.redis.Del(c.ctx, c.redisKey(key)).Err()
}

// Clear deletes every entry under this cache's key prefix.
func (c *RedisCache) Clear() error {
	iter := c.redis.Scan(c.ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(c.ctx) {
		c.redis.Del(c.ctx, iter.Val())
	}
	return iter.Err()
}
