// Package metrics is a pointer, not a registry: the counters and gauges it
// documents are defined with promauto in the packages that produce them
// (pkg/cache, pkg/retry) to avoid import cycles back into this package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry metrics are registered
// against via promauto in their owning packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - jus_cache_hits_total{backend} (Counter): cache hits by backend ("disk", "redis")
//   - jus_cache_misses_total{backend} (Counter): cache misses by backend
//   - jus_cache_size_bytes (Gauge): current on-disk cache size in bytes
//   - jus_cache_evictions_total (Counter): entries evicted from the disk cache under size pressure
//   - jus_cache_errors_total{backend, operation} (Counter): cache operation errors
//
// Retry Metrics (pkg/retry):
//   - jus_retries_total (Counter): retry attempts granted by a RetryPolicy
//   - jus_retry_exhausted_total (Counter): times a RetryPolicy ran out of attempts
//   - jus_retry_timeout_seconds (Histogram): per-attempt timeout handed to the transport
//
// Example Prometheus Queries:
//
//   # Cache hit rate
//   sum(rate(jus_cache_hits_total[5m])) /
//   (sum(rate(jus_cache_hits_total[5m])) + sum(rate(jus_cache_misses_total[5m])))
//
//   # Retry exhaustion rate
//   rate(jus_retry_exhausted_total[5m])
//
//   # Disk cache growth
//   deriv(jus_cache_size_bytes[10m])
