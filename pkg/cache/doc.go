// Package cache provides a Redis-backed page cache for fetch-proxy
// responses.
//
// Every request through the fetch proxy is billed against the account's
// credit balance, so usable pages are kept for a configurable TTL and
// served from Redis without spending another credit. Entries are keyed
// by target URL and render flag: a scripted render and a raw fetch of
// the same URL are different pages.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.Key{
//		TargetURL: "https://example.com/product/42",
//		RenderJS:  true,
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch through the proxy
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - proxyfetch_cache_hits_total{layer="redis"} - Cache hits
//   - proxyfetch_cache_misses_total - Cache misses
//   - proxyfetch_cache_written_bytes_total - Bytes written to the cache
//   - proxyfetch_cache_errors_total{operation} - Cache operation errors
package cache
