// Package metrics provides the centralized Prometheus metrics reference
// for proxyfetch. All metrics are defined in their respective packages
// (client, batch, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by proxyfetch.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Credit Metrics (pkg/ratelimit):
//   - proxyfetch_credits_remaining (Gauge): Paid request credits left on the account
//   - proxyfetch_credit_blocks_total (Counter): Requests blocked due to critical credit level
//
// Cache Metrics (pkg/cache):
//   - proxyfetch_cache_hits_total{layer="redis"} (Counter): Page cache hits by layer
//   - proxyfetch_cache_misses_total (Counter): Page cache misses
//   - proxyfetch_cache_written_bytes_total{layer="redis"} (Counter): Bytes written to the cache
//   - proxyfetch_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - proxyfetch_requests_total{status} (Counter): Proxy round-trips by HTTP status
//     (plus the synthetic statuses cache_hit, credit_blocked, transport_error)
//   - proxyfetch_request_duration_seconds (Histogram): Proxy round-trip duration
//   - proxyfetch_errors_total{class} (Counter): Attempt failures by class
//
// Batch/Retry Metrics (pkg/batch):
//   - proxyfetch_batches_total (Counter): Batches dispatched
//   - proxyfetch_batch_duration_seconds (Histogram): Wall-clock batch duration
//   - proxyfetch_batch_size_urls (Histogram): URLs per batch
//   - proxyfetch_results_total{class} (Counter): Finalized results by class
//   - proxyfetch_retries_total{error_class} (Counter): Retry attempts by error class
//   - proxyfetch_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - proxyfetch_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(proxyfetch_cache_hits_total[5m])) /
//   (sum(rate(proxyfetch_cache_hits_total[5m])) + sum(rate(proxyfetch_cache_misses_total[5m])))
//
//   # Credit Level
//   proxyfetch_credits_remaining < 200
//
//   # Failure Rate by Class
//   rate(proxyfetch_errors_total[5m])
//
//   # P95 Round-Trip Latency
//   histogram_quantile(0.95, rate(proxyfetch_request_duration_seconds_bucket[5m]))
