// Package batch implements concurrent batch fetching through the proxy
// client.
//
// Each input URL gets its own worker goroutine, bounded by a counting
// limiter. A worker holds its permit for its entire attempt/retry
// lifecycle and emits exactly one normalized result. Results come back
// in input order regardless of completion order.
//
// Example usage:
//
//	config := batch.DefaultConfig()
//	fetcher := batch.NewFetcher(proxyClient, config)
//	results := fetcher.FetchMany(ctx, urls, client.Options{RenderJS: true})
//
// The batch fetcher:
//   - Spawns one worker per URL (default limit 20 in flight)
//   - Retries transient failures with exponential backoff (default budget 3)
//   - Fails fast on auth and permission errors
//   - Collects results with progress logging
//   - Never fails the batch: per-URL errors degrade that slot only
package batch
