package client

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Common errors returned by the client.
var (
	// ErrMissingAPIKey is returned when a client is created without a credential.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrCreditsExhausted is returned when the shared credit tracker blocks
	// a request because the account is nearly out of paid credits.
	ErrCreditsExhausted = errors.New("proxy credits exhausted")
)

// ErrorClass is the classification of one fetch attempt's outcome. It is
// the single source of truth for retry eligibility: permanent failures are
// never retried, transient ones are retried up to the attempt budget, and
// the two success classes finalize immediately.
type ErrorClass string

const (
	// ClassSuccess represents a usable 2xx/3xx response.
	ClassSuccess ErrorClass = "success"

	// ClassNotFound represents HTTP 404/410. The page legitimately does
	// not exist; downstream parsing must see this state, not a failure.
	ClassNotFound ErrorClass = "not_found"

	// ClassAuth represents HTTP 401/402/403: bad credential or access
	// denial. Permanent - retrying wastes paid requests.
	ClassAuth ErrorClass = "auth_or_permission"

	// ClassRateLimitOrServer represents HTTP 429 and 5xx server errors.
	ClassRateLimitOrServer ErrorClass = "rate_limit_or_server"

	// ClassTimeout represents a request that exceeded its deadline.
	ClassTimeout ErrorClass = "timeout"

	// ClassNetwork represents connection resets, DNS failures, and the like.
	ClassNetwork ErrorClass = "network"

	// ClassUnknown represents any uncategorized failure, including
	// upstream statuses outside the closed classification set.
	ClassUnknown ErrorClass = "unknown"
)

// Retryable reports whether attempts failing with this class are worth
// retrying. Only transient classes qualify.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ClassRateLimitOrServer, ClassTimeout, ClassNetwork, ClassUnknown:
		return true
	default:
		return false
	}
}

// Usable reports whether this class finalizes the fetch as a success.
// A 404/410 counts: the definitive absence of a page is a usable answer.
func (c ErrorClass) Usable() bool {
	return c == ClassSuccess || c == ClassNotFound
}

// Classify maps a raw attempt outcome to its ErrorClass. Pass the HTTP
// status code with a nil error for protocol-level outcomes, or a non-nil
// error for transport-level failures (statusCode is ignored then).
func Classify(statusCode int, err error) ErrorClass {
	if err != nil {
		return classifyTransport(err)
	}

	switch {
	case statusCode == 401 || statusCode == 402 || statusCode == 403:
		return ClassAuth
	case statusCode == 404 || statusCode == 410:
		return ClassNotFound
	case statusCode == 429 || statusCode == 500 || statusCode == 502 ||
		statusCode == 503 || statusCode == 504:
		return ClassRateLimitOrServer
	case statusCode >= 200 && statusCode < 400:
		return ClassSuccess
	default:
		return ClassUnknown
	}
}

// classifyTransport distinguishes timeouts from other network failures.
func classifyTransport(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTimeout
	}
	if errors.Is(err, ErrCreditsExhausted) {
		return ClassRateLimitOrServer
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassNetwork
	}

	return ClassUnknown
}

// ProxyError represents a fetch-proxy failure with classification context.
type ProxyError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proxy %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("proxy %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProxyError) Unwrap() error {
	return e.Err
}
