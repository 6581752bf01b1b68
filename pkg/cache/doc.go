// Package cache implements the HTTP response cache used by CacheDispatcher
// and NetworkDispatcher.
//
// Freshness and validators follow the usual HTTP rules: Cache-Control wins
// over Expires, no-store/no-cache means "don't cache at all", and
// must-revalidate pins the soft TTL to the hard TTL. An entry is fresh
// while now < SoftTTL, usable-while-refreshing while SoftTTL <= now < TTL,
// and expired once now >= TTL.
//
// Two backends implement the Cache contract:
//
//   - DiskCache: one file per entry, the stable binary layout from the
//     stable on-disk file format, with an in-memory LRU index and a
//     size-budget eviction pass on Put.
//   - RedisCache: JSON-encoded entries with a Redis TTL, for deployments
//     that want one cache shared across processes.
//
// # Basic usage
//
//	c := cache.NewDiskCache("/var/cache/jus", cache.DefaultMaxSizeBytes, cache.DefaultHysteresisFactor)
//	if err := c.Initialize(); err != nil {
//		// ...
//	}
//	entry, ok := c.Get("GET https://api.example.com/things")
package cache
