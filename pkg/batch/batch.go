package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/retailwatch/proxyfetch/pkg/client"
)

// Defaults for unspecified batch configuration.
const (
	DefaultConcurrency = 20
	DefaultMaxRetries  = 3
)

// Prometheus metrics for batch and retry operations.
var (
	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proxyfetch_batches_total",
		Help: "Total batches dispatched",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proxyfetch_batch_duration_seconds",
		Help:    "Wall-clock duration of full batches",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proxyfetch_batch_size_urls",
		Help:    "Number of URLs per batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	fetchResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_results_total",
		Help: "Finalized fetch results by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proxyfetch_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Config holds the batch fetcher configuration.
type Config struct {
	// Concurrency bounds simultaneously in-flight fetch workers.
	Concurrency int

	// MaxRetries is the retry budget per URL; a URL makes at most
	// MaxRetries+1 attempts.
	MaxRetries int

	// Retry tunes the backoff between attempts.
	Retry client.RetryConfig
}

// DefaultConfig returns a safe default batch configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: DefaultConcurrency,
		MaxRetries:  DefaultMaxRetries,
		Retry:       client.DefaultRetryConfig(),
	}
}

// Fetcher dispatches batches of page fetches through a shared proxy client.
type Fetcher struct {
	client *client.Client
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a batch fetcher on top of an existing proxy client.
// The client's lifetime is owned by the caller.
func NewFetcher(c *client.Client, cfg Config) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry = client.DefaultRetryConfig()
	}

	return &Fetcher{
		client: c,
		config: cfg,
		logger: log.With().Str("component", "batch-fetcher").Logger(),
	}
}

// FetchMany fetches every URL concurrently under the configured limiter
// and returns one result per input URL, in input order. It never returns
// an error: per-URL failures degrade that slot's result only. Duplicate
// URLs are independent requests with independent outcomes.
func (f *Fetcher) FetchMany(ctx context.Context, urls []string, opts client.Options) []Result {
	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return results
	}

	startTime := time.Now()
	batchesTotal.Inc()
	batchSize.Observe(float64(len(urls)))

	f.logger.Info().
		Int("urls", len(urls)).
		Int("concurrency", f.config.Concurrency).
		Int("max_retries", f.config.MaxRetries).
		Msg("Starting batch fetch")

	limiter := NewLimiter(f.config.Concurrency)
	var completed atomic.Int64

	var wg sync.WaitGroup
	for i, target := range urls {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					f.logger.Error().
						Str("url", target).
						Interface("panic", r).
						Msg("Fetch worker panicked")
					results[idx] = panicResult(target, r)
				}
			}()

			if err := limiter.Acquire(ctx); err != nil {
				results[idx] = cancelledResult(target, err)
				return
			}
			defer limiter.Release()

			results[idx] = f.fetchOne(ctx, target, opts)

			// Progress logging every 50 completions.
			if done := completed.Add(1); done%50 == 0 {
				f.logger.Info().
					Int64("fetched", done).
					Int("total", len(urls)).
					Msg("Batch progress")
			}
		}(i, target)
	}

	wg.Wait()

	duration := time.Since(startTime)
	batchDuration.Observe(duration.Seconds())

	failed := 0
	for _, r := range results {
		if !r.Usable() {
			failed++
		}
	}

	f.logger.Info().
		Int("urls", len(urls)).
		Int("failed", failed).
		Dur("duration", duration).
		Msg("Batch fetch complete")

	return results
}
