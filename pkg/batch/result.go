package batch

import "github.com/retailwatch/proxyfetch/pkg/client"

// Result is the normalized per-URL record returned by FetchMany, one per
// input URL in input order, regardless of which path the fetch took.
type Result struct {
	// RequestURL echoes the input URL. Always set; this is the join key
	// back to the caller's batch.
	RequestURL string `json:"request_url"`

	// StatusCode is the upstream HTTP status of the final attempt. Zero
	// only when every attempt failed below the protocol layer.
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the URL actually served after redirects. Empty on
	// total failure.
	FinalURL string `json:"final_url,omitempty"`

	// PageText is the response body of a usable final attempt. A 404/410
	// body is kept so downstream parsing sees the page's absence.
	PageText string `json:"page_text,omitempty"`

	// Error is empty when the fetch is usable, otherwise a short
	// machine-readable failure description.
	Error string `json:"error,omitempty"`

	// Attempts is the number of network round-trips performed.
	Attempts int `json:"attempts"`

	// ResponseMS is the elapsed time across all attempts including
	// backoff waits, in milliseconds.
	ResponseMS int64 `json:"response_ms"`

	// LastFailure is the classification of the final attempt's failure,
	// empty on success.
	LastFailure client.ErrorClass `json:"last_exception_type,omitempty"`
}

// Usable reports whether downstream consumers may parse this result.
func (r Result) Usable() bool {
	return r.Error == ""
}
