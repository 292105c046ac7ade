// Package client provides the core fetch-proxy HTTP client with credit
// tracking, page caching, and error classification.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/retailwatch/proxyfetch/pkg/cache"
	"github.com/retailwatch/proxyfetch/pkg/ratelimit"
)

// DefaultBaseURL is the fetch-proxy API endpoint.
const DefaultBaseURL = "https://app.scrapingbee.com/api/v1/"

// Prometheus metrics for proxy client operations.
var (
	proxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_requests_total",
		Help: "Total fetch-proxy requests by status",
	}, []string{"status"})

	proxyRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proxyfetch_request_duration_seconds",
		Help:    "Fetch-proxy request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	proxyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proxyfetch_errors_total",
		Help: "Total fetch-proxy errors by class",
	}, []string{"class"})
)

// Client is the fetch-proxy API client. It performs exactly one network
// round-trip per Fetch call; retry orchestration lives in pkg/batch.
type Client struct {
	httpClient *http.Client
	credits    *ratelimit.Tracker
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// APIKey is the fetch-proxy credential. Required.
	APIKey string

	// BaseURL is the proxy endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Redis client for page caching and shared credit state.
	// Optional: when nil, caching and credit gating are disabled.
	Redis *redis.Client

	// Timeout is the per-attempt request deadline.
	Timeout time.Duration

	// MaxBodyBytes caps how much of a response body is read.
	// Zero means no cap.
	MaxBodyBytes int64

	// CacheTTL is how long successful page bodies are cached.
	// Zero disables caching even when Redis is configured.
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration for the given credential.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:   apiKey,
		BaseURL:  DefaultBaseURL,
		Timeout:  60 * time.Second,
		CacheTTL: 15 * time.Minute,
	}
}

// Options controls a single page fetch. Known provider options are typed;
// Params passes provider-specific extras through unmodified.
type Options struct {
	// RenderJS asks the proxy to execute client-side scripts before
	// capturing the page.
	RenderJS bool

	// Params are extra provider parameters merged into the query string.
	Params map[string]string
}

// Response is the normalized outcome of one proxy round-trip.
type Response struct {
	// StatusCode is the upstream HTTP status reported by the proxy.
	StatusCode int

	// Body is the page text.
	Body string

	// FinalURL is the URL actually served after redirects.
	FinalURL string

	// Cached is true when the response was served from the page cache
	// without spending a proxy credit.
	Cached bool
}

// New creates a new fetch-proxy client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger := log.With().Str("component", "proxy-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}

	if cfg.Redis != nil {
		c.credits = ratelimit.NewTracker(cfg.Redis, logger)
		if cfg.CacheTTL > 0 {
			c.cache = cache.NewManager(cfg.Redis)
		}
	}

	return c, nil
}

// proxyEnvelope is the JSON wrapper the proxy sometimes puts around the
// page text instead of returning it raw.
type proxyEnvelope struct {
	PageText    *string `json:"page_text"`
	ResolvedURL string  `json:"resolved_url"`
}

// Fetch performs one proxy round-trip for the target URL.
// A non-2xx upstream status is not an error here; callers classify the
// status themselves. An error return means the request never produced a
// usable HTTP response (network failure, timeout, credit block).
func (c *Client) Fetch(ctx context.Context, target string, opts Options) (*Response, error) {
	startTime := time.Now()
	defer func() {
		proxyRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	// Serve from cache when possible: every proxy request is billed.
	cacheKey := cache.Key{TargetURL: target, RenderJS: opts.RenderJS}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("url", target).Msg("Cache get error")
		}
		if entry != nil {
			c.logger.Debug().Str("url", target).Msg("Serving page from cache")
			proxyRequestsTotal.WithLabelValues("cache_hit").Inc()
			return &Response{
				StatusCode: entry.StatusCode,
				Body:       entry.PageText,
				FinalURL:   entry.FinalURL,
				Cached:     true,
			}, nil
		}
	}

	// Check credit state before spending a paid request.
	if c.credits != nil {
		allowed, err := c.credits.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Credit check failed, allowing request")
		} else if !allowed {
			proxyRequestsTotal.WithLabelValues("credit_blocked").Inc()
			return nil, ErrCreditsExhausted
		}
	}

	req, err := c.buildRequest(ctx, target, opts)
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}

	c.logger.Debug().
		Str("url", target).
		Bool("render_js", opts.RenderJS).
		Msg("Executing proxy request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := Classify(0, err)
		proxyErrorsTotal.WithLabelValues(string(class)).Inc()
		proxyRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if c.credits != nil {
		if err := c.credits.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update credit state from headers")
		}
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		class := Classify(0, err)
		proxyErrorsTotal.WithLabelValues(string(class)).Inc()
		return nil, fmt.Errorf("read proxy response body: %w", err)
	}

	proxyRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode >= 400 {
		class := Classify(resp.StatusCode, nil)
		proxyErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("url", target).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Proxy request returned error status")
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		FinalURL:   target,
	}

	if resolved := resp.Header.Get("X-Resolved-Url"); resolved != "" {
		result.FinalURL = resolved
	}

	// The proxy sometimes wraps the page in a JSON envelope.
	c.unwrapEnvelope(resp.Header, result)

	// Cache usable pages so repeat fetches stop costing credits.
	if c.cache != nil && resp.StatusCode >= 200 && resp.StatusCode < 400 {
		entry := &cache.Entry{
			PageText:   result.Body,
			FinalURL:   result.FinalURL,
			StatusCode: result.StatusCode,
			FetchedAt:  time.Now(),
			Expires:    time.Now().Add(c.config.CacheTTL),
		}
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Str("url", target).Msg("Failed to cache page")
		}
	}

	return result, nil
}

// buildRequest assembles the proxy GET request: credential, target URL,
// render flag, and pass-through extras.
func (c *Client) buildRequest(ctx context.Context, target string, opts Options) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("api_key", c.config.APIKey)
	q.Set("url", target)
	q.Set("render_js", strconv.FormatBool(opts.RenderJS))
	for key, value := range opts.Params {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()

	return req, nil
}

// readBody drains the response body, honoring the configured size cap.
func (c *Client) readBody(r io.Reader) (string, error) {
	if c.config.MaxBodyBytes > 0 {
		r = io.LimitReader(r, c.config.MaxBodyBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unwrapEnvelope replaces the body with the envelope's page text when the
// proxy returned a JSON wrapper instead of the raw page.
func (c *Client) unwrapEnvelope(headers http.Header, result *Response) {
	if ct := headers.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return
	}

	var envelope proxyEnvelope
	if err := json.Unmarshal([]byte(result.Body), &envelope); err != nil {
		return
	}
	if envelope.PageText == nil {
		return
	}

	result.Body = *envelope.PageText
	if envelope.ResolvedURL != "" {
		result.FinalURL = envelope.ResolvedURL
	}
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Timeout returns the configured per-attempt deadline.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}
