package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Header names the proxy uses to report credit state.
const (
	HeaderCreditsRemaining = "X-Credits-Remaining"
	HeaderCreditsReset     = "X-Credits-Reset"
)

// Prometheus metrics for credit tracking.
var (
	creditsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "proxyfetch_credits_remaining",
		Help: "Number of paid request credits remaining on the proxy account",
	})

	creditBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proxyfetch_credit_blocks_total",
		Help: "Total number of requests blocked due to critical credit level",
	})
)

// Tracker monitors proxy account credits and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new credit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current credit state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*CreditState, error) {
	remaining, err := t.redis.Get(ctx, RedisKeyCreditsRemaining).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get credits remaining: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, RedisKeyResetTimestamp).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	// If no state exists in Redis, return default healthy state
	if err == redis.Nil {
		t.logger.Debug().Msg("No credit state in Redis, returning default healthy state")
		return &CreditState{
			CreditsRemaining: CreditThresholdHealthy,
			ResetAt:          time.Now().Add(24 * time.Hour),
			LastUpdate:       time.Now(),
			IsHealthy:        true,
		}, nil
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &CreditState{
		CreditsRemaining: remaining,
		ResetAt:          time.Unix(resetTimestamp, 0),
		LastUpdate:       lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses proxy credit headers and updates Redis state.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderCreditsRemaining)
	if remainStr == "" {
		// Header not present - fine for providers that don't report credits
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderCreditsRemaining, err)
	}

	now := time.Now()
	state := &CreditState{
		CreditsRemaining: remain,
		LastUpdate:       now,
	}

	if resetStr := headers.Get(HeaderCreditsReset); resetStr != "" {
		resetSeconds, err := strconv.Atoi(resetStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderCreditsReset, err)
		}
		state.ResetAt = now.Add(time.Duration(resetSeconds) * time.Second)
	}
	state.UpdateHealth()

	// Store in Redis atomically
	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyCreditsRemaining, remain, 0)
	pipe.Set(ctx, RedisKeyResetTimestamp, state.ResetAt.Unix(), 0)

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("store credit state in redis: %w", err)
	}

	creditsRemaining.Set(float64(remain))

	logEvent := t.logger.Info()
	msg := "Proxy credit state updated"
	if state.NeedsCriticalBlock() {
		logEvent = t.logger.Error()
		msg = "Proxy credits CRITICAL - requests will be blocked"
	} else if state.NeedsWarning() {
		logEvent = t.logger.Warn()
		msg = "Proxy credits LOW"
	}
	logEvent.
		Int("credits_remaining", remain).
		Time("reset_at", state.ResetAt).
		Bool("is_healthy", state.IsHealthy).
		Msg(msg)

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on the
// current credit state. Returns false when the reserve is nearly spent.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get credit state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("credits_remaining", state.CreditsRemaining).
			Dur("until_reset", state.TimeUntilReset()).
			Msg("Proxy credits critical - blocking request")

		creditBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsWarning() {
		t.logger.Warn().
			Int("credits_remaining", state.CreditsRemaining).
			Msg("Proxy credits low")
	}

	return true, nil
}
