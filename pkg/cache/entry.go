package cache

import (
	"time"
)

// Entry represents a cached page response.
type Entry struct {
	// PageText is the page body as served by the proxy.
	PageText string `json:"page_text"`

	// FinalURL is the URL actually served after redirects.
	FinalURL string `json:"final_url"`

	// StatusCode is the upstream HTTP status of the cached response.
	StatusCode int `json:"status_code"`

	// FetchedAt is when the page was fetched through the proxy.
	FetchedAt time.Time `json:"fetched_at"`

	// Expires is when the cache entry becomes stale.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
