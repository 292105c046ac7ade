package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for page cache operations.
var (
	// CacheHits counts cache hits by layer.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_cache_hits_total",
		Help: "Total page cache hits by layer",
	}, []string{"layer"})

	// CacheMisses counts cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proxyfetch_cache_misses_total",
		Help: "Total page cache misses",
	})

	// CacheSize tracks bytes written to the cache by layer.
	CacheSize = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_cache_written_bytes_total",
		Help: "Total bytes written to the page cache by layer",
	}, []string{"layer"})

	// CacheErrors counts cache operation errors by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_cache_errors_total",
		Help: "Total page cache operation errors",
	}, []string{"operation"})
)
