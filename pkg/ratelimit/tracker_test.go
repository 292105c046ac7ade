package ratelimit

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis creates a test Redis client for testing. Skips the test
// when no local Redis is available; the integration suite covers the
// containerized path.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func TestGetState_DefaultWhenEmpty(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, testLogger())
	ctx := context.Background()

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}

	if state.CreditsRemaining != CreditThresholdHealthy {
		t.Errorf("default CreditsRemaining = %d, want %d", state.CreditsRemaining, CreditThresholdHealthy)
	}
	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}
}

func TestUpdateFromHeaders(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, testLogger())
	ctx := context.Background()

	tests := []struct {
		name            string
		remainHeader    string
		resetHeader     string
		expectedRemain  int
		expectedHealthy bool
		shouldError     bool
	}{
		{
			name:            "healthy state",
			remainHeader:    "5000",
			resetHeader:     "86400",
			expectedRemain:  5000,
			expectedHealthy: true,
		},
		{
			name:            "low credits",
			remainHeader:    "100",
			resetHeader:     "3600",
			expectedRemain:  100,
			expectedHealthy: false,
		},
		{
			name:         "invalid remain header",
			remainHeader: "not-a-number",
			resetHeader:  "60",
			shouldError:  true,
		},
		{
			name:         "invalid reset header",
			remainHeader: "5000",
			resetHeader:  "soon",
			shouldError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set(HeaderCreditsRemaining, tt.remainHeader)
			headers.Set(HeaderCreditsReset, tt.resetHeader)

			err := tracker.UpdateFromHeaders(ctx, headers)
			if tt.shouldError {
				if err == nil {
					t.Error("UpdateFromHeaders() should have failed")
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}
			if state.CreditsRemaining != tt.expectedRemain {
				t.Errorf("CreditsRemaining = %d, want %d", state.CreditsRemaining, tt.expectedRemain)
			}
			if state.IsHealthy != tt.expectedHealthy {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expectedHealthy)
			}
		})
	}
}

func TestUpdateFromHeaders_MissingHeadersIgnored(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, testLogger())
	ctx := context.Background()

	// Providers that don't report credits simply don't update state.
	if err := tracker.UpdateFromHeaders(ctx, http.Header{}); err != nil {
		t.Errorf("UpdateFromHeaders() with no headers error = %v, want nil", err)
	}
}

func TestShouldAllowRequest(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, testLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		credits  int
		expected bool
	}{
		{"healthy credits allow", 5000, true},
		{"low credits still allow", 100, true},
		{"critical credits block", CreditThresholdCritical - 1, false},
		{"zero credits block", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set(HeaderCreditsRemaining, strconv.Itoa(tt.credits))
			headers.Set(HeaderCreditsReset, "3600")
			if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error = %v", err)
			}

			allowed, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.expected {
				t.Errorf("ShouldAllowRequest() with %d credits = %v, want %v",
					tt.credits, allowed, tt.expected)
			}
		})
	}
}
