package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend ("disk", "redis").
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jus_cache_hits_total",
			Help: "Total number of cache hits.",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses by backend.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jus_cache_misses_total",
			Help: "Total number of cache misses.",
		},
		[]string{"backend"},
	)

	// CacheSizeBytes tracks the current size of the disk cache.
	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jus_cache_size_bytes",
			Help: "Current size of the on-disk cache in bytes.",
		},
	)

	// CacheEvictions tracks LRU evictions from the disk cache.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jus_cache_evictions_total",
			Help: "Total number of entries evicted from the disk cache under size pressure.",
		},
	)

	// CacheErrors tracks cache operation errors by backend and operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jus_cache_errors_total",
			Help: "Total number of cache operation errors.",
		},
		[]string{"backend", "operation"},
	)
)
