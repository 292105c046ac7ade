package client

import (
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
	if !config.Jitter {
		t.Error("Jitter should be enabled by default")
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		class      ErrorClass
		attempt    int
		maxRetries int
		expected   bool
	}{
		{"transient within budget", ClassRateLimitOrServer, 1, 3, true},
		{"transient at budget edge", ClassRateLimitOrServer, 3, 3, true},
		{"transient over budget", ClassRateLimitOrServer, 4, 3, false},
		{"timeout within budget", ClassTimeout, 2, 3, true},
		{"network within budget", ClassNetwork, 1, 3, true},
		{"unknown within budget", ClassUnknown, 1, 3, true},
		{"auth never retries", ClassAuth, 1, 3, false},
		{"success never retries", ClassSuccess, 1, 3, false},
		{"not found never retries", ClassNotFound, 1, 3, false},
		{"zero retry budget", ClassTimeout, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldRetry(tt.class, tt.attempt, tt.maxRetries)
			if got != tt.expected {
				t.Errorf("ShouldRetry(%q, %d, %d) = %v, want %v",
					tt.class, tt.attempt, tt.maxRetries, got, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Delay_ExponentialGrowth(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // capped
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		got := config.Delay(tt.attempt)
		if got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestRetryConfig_Delay_Cap(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        3 * time.Second,
		BackoffMultiplier: 10.0,
		Jitter:            false,
	}

	if got := config.Delay(5); got != config.MaxBackoff {
		t.Errorf("Delay(5) = %v, want capped at %v", got, config.MaxBackoff)
	}
}

func TestRetryConfig_Delay_Jitter(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}

	// With +-20% jitter every delay lands in [800ms, 1200ms].
	allSame := true
	first := config.Delay(1)
	for i := 0; i < 20; i++ {
		d := config.Delay(1)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Errorf("Delay(1) = %v outside jitter range [800ms, 1200ms]", d)
		}
		if d != first {
			allSame = false
		}
	}

	if allSame {
		t.Log("Warning: all jittered delays identical - very unlucky or jitter broken")
	}
}

func TestRetryConfig_Delay_InvalidAttempt(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            false,
	}

	if got := config.Delay(0); got != 1*time.Second {
		t.Errorf("Delay(0) = %v, want clamped to initial backoff", got)
	}
	if got := config.Delay(-3); got != 1*time.Second {
		t.Errorf("Delay(-3) = %v, want clamped to initial backoff", got)
	}
}
