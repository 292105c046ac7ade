package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/retailwatch/proxyfetch/pkg/client"
)

// fetchOne drives a single URL through its full attempt/retry lifecycle
// and produces its normalized result. Failures never escape: every
// terminal state, including retry exhaustion and cancellation, becomes a
// Result field. The worker holds its limiter permit for the whole loop.
func (f *Fetcher) fetchOne(ctx context.Context, target string, opts client.Options) Result {
	result := Result{RequestURL: target}
	startTime := time.Now()

	// response_ms covers the whole lifecycle: all attempts plus the
	// backoff waits between them.
	defer func() {
		result.ResponseMS = time.Since(startTime).Milliseconds()
	}()

	for attempt := 1; ; attempt++ {
		resp, err := f.client.Fetch(ctx, target, opts)
		result.Attempts = attempt

		var class client.ErrorClass
		var failure string

		if err != nil {
			class = client.Classify(0, err)
			if class == client.ClassUnknown {
				failure = fmt.Sprintf("proxy exception: %T: %v", err, err)
			} else {
				failure = fmt.Sprintf("proxy %s error: %v", class, err)
			}
		} else {
			class = client.Classify(resp.StatusCode, nil)
			// Keep the last protocol-level outcome even on failure so
			// the caller sees which status exhausted the budget.
			result.StatusCode = resp.StatusCode
			result.FinalURL = resp.FinalURL
			failure = fmt.Sprintf("proxy error: HTTP %d", resp.StatusCode)
		}

		if class.Usable() {
			result.PageText = resp.Body
			result.Error = ""
			result.LastFailure = ""
			f.logger.Debug().
				Str("url", target).
				Int("status_code", resp.StatusCode).
				Int("attempt", attempt).
				Bool("cached", resp.Cached).
				Msg("Fetch finalized")
			fetchResultsTotal.WithLabelValues(string(class)).Inc()
			return result
		}

		if !client.ShouldRetry(class, attempt, f.config.MaxRetries) {
			result.Error = failure
			result.LastFailure = class
			if class.Retryable() {
				retryExhaustedTotal.WithLabelValues(string(class)).Inc()
			}
			f.logger.Warn().
				Str("url", target).
				Str("error_class", string(class)).
				Int("attempt", attempt).
				Msg("Fetch finalized with failure")
			fetchResultsTotal.WithLabelValues(string(class)).Inc()
			return result
		}

		delay := f.config.Retry.Delay(attempt)
		retriesTotal.WithLabelValues(string(class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())

		f.logger.Debug().
			Str("url", target).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying fetch after backoff")

		select {
		case <-ctx.Done():
			// Batch deadline hit mid-backoff: finalize the slot instead
			// of leaving it empty or hanging.
			result.Error = fmt.Sprintf("batch cancelled during backoff: %v", ctx.Err())
			result.LastFailure = client.ClassTimeout
			fetchResultsTotal.WithLabelValues(string(client.ClassTimeout)).Inc()
			return result
		case <-time.After(delay):
		}
	}
}

// panicResult converts a recovered worker panic into a terminal result so
// one URL's failure never aborts its siblings.
func panicResult(target string, recovered any) Result {
	return Result{
		RequestURL:  target,
		Attempts:    1,
		Error:       fmt.Sprintf("worker panic: %v", recovered),
		LastFailure: client.ClassUnknown,
	}
}

// cancelledResult marks a slot whose worker never got to run before the
// batch context expired.
func cancelledResult(target string, err error) Result {
	return Result{
		RequestURL:  target,
		Error:       fmt.Sprintf("batch cancelled before fetch: %v", err),
		LastFailure: client.ClassTimeout,
	}
}
