// Package testutil provides testing utilities for the proxyfetch client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mock proxy response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockProxy is a configurable mock fetch-proxy server for testing. It
// reads the target from the "url" query parameter the way the real proxy
// does and serves a scripted response sequence per target, so tests can
// simulate e.g. [429, 200] for one URL while another keeps failing.
type MockProxy struct {
	server *httptest.Server
	mu     sync.Mutex

	sequences map[string][]MockResponse
	seqIndex  map[string]int

	// Tracking
	RequestCount int
	perURLCount  map[string]int
	inFlight     int
	maxInFlight  int
	lastQuery    map[string]string
}

// NewMockProxy creates a new mock proxy server.
func NewMockProxy() *MockProxy {
	mock := &MockProxy{
		sequences:   make(map[string][]MockResponse),
		seqIndex:    make(map[string]int),
		perURLCount: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the mock server URL, usable as the client's BaseURL.
func (m *MockProxy) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockProxy) Close() {
	m.server.Close()
}

// Reset clears all scripted sequences and tracking counters.
func (m *MockProxy) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences = make(map[string][]MockResponse)
	m.seqIndex = make(map[string]int)
	m.perURLCount = make(map[string]int)
	m.RequestCount = 0
	m.inFlight = 0
	m.maxInFlight = 0
	m.lastQuery = nil
}

// SetSequence scripts the responses for a target URL, served in order.
// Once the sequence is exhausted, the last response repeats.
func (m *MockProxy) SetSequence(target string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[target] = responses
	m.seqIndex[target] = 0
}

// SetResponse scripts a single repeating response for a target URL.
func (m *MockProxy) SetResponse(target string, resp MockResponse) {
	m.SetSequence(target, resp)
}

// GetRequestCount returns the total number of requests served.
func (m *MockProxy) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// GetURLRequestCount returns the number of requests served for one target.
func (m *MockProxy) GetURLRequestCount(target string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perURLCount[target]
}

// MaxInFlight returns the high-water mark of simultaneous requests.
func (m *MockProxy) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockProxy) LastQuery() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

func (m *MockProxy) handle(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")

	m.mu.Lock()
	m.RequestCount++
	m.perURLCount[target]++
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.lastQuery = make(map[string]string)
	for key := range r.URL.Query() {
		m.lastQuery[key] = r.URL.Query().Get(key)
	}

	resp, ok := m.nextResponseLocked(target)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if !ok {
		m.defaultHandler(w)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// nextResponseLocked advances the target's sequence. Callers hold m.mu.
func (m *MockProxy) nextResponseLocked(target string) (MockResponse, bool) {
	seq, ok := m.sequences[target]
	if !ok || len(seq) == 0 {
		return MockResponse{}, false
	}

	idx := m.seqIndex[target]
	if idx >= len(seq) {
		idx = len(seq) - 1
	} else {
		m.seqIndex[target] = idx + 1
	}

	return seq[idx], true
}

// defaultHandler serves a plain 200 page for unscripted targets.
func (m *MockProxy) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Credits-Remaining", "5000")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<html><body>ok</body></html>"))
}

// NewHealthyResponse creates a standard 200 OK page response.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type":        "text/html; charset=utf-8",
			"X-Credits-Remaining": "5000",
		},
	}
}

// NewNotFoundResponse creates a 404 response carrying the site's
// not-found page body.
func NewNotFoundResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       body,
		Headers: map[string]string{
			"Content-Type":        "text/html; charset=utf-8",
			"X-Credits-Remaining": "5000",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewAuthErrorResponse creates a 403 response, the proxy's signal for a
// bad credential or access denial.
func NewAuthErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"error": "Invalid API key"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
