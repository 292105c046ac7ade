package ratelimit

import (
	"testing"
	"time"
)

func TestCreditState_NeedsCriticalBlock(t *testing.T) {
	tests := []struct {
		name     string
		credits  int
		expected bool
	}{
		{"healthy", 5000, false},
		{"warning level", 150, false},
		{"just above critical", CreditThresholdCritical, false},
		{"just below critical", CreditThresholdCritical - 1, true},
		{"zero credits", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &CreditState{CreditsRemaining: tt.credits}
			if got := state.NeedsCriticalBlock(); got != tt.expected {
				t.Errorf("NeedsCriticalBlock() with %d credits = %v, want %v",
					tt.credits, got, tt.expected)
			}
		})
	}
}

func TestCreditState_NeedsWarning(t *testing.T) {
	tests := []struct {
		name     string
		credits  int
		expected bool
	}{
		{"healthy", 5000, false},
		{"low but not critical", 100, true},
		{"just below warning", CreditThresholdWarning - 1, true},
		{"at warning threshold", CreditThresholdWarning, false},
		{"critical takes precedence", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &CreditState{CreditsRemaining: tt.credits}
			if got := state.NeedsWarning(); got != tt.expected {
				t.Errorf("NeedsWarning() with %d credits = %v, want %v",
					tt.credits, got, tt.expected)
			}
		})
	}
}

func TestCreditState_UpdateHealth(t *testing.T) {
	state := &CreditState{CreditsRemaining: CreditThresholdHealthy}
	state.UpdateHealth()
	if !state.IsHealthy {
		t.Error("state at healthy threshold should be healthy")
	}

	state.CreditsRemaining = CreditThresholdHealthy - 1
	state.UpdateHealth()
	if state.IsHealthy {
		t.Error("state below healthy threshold should not be healthy")
	}
}

func TestCreditState_TimeUntilReset(t *testing.T) {
	state := &CreditState{ResetAt: time.Now().Add(10 * time.Second)}
	if d := state.TimeUntilReset(); d <= 0 || d > 10*time.Second {
		t.Errorf("TimeUntilReset() = %v, want within (0, 10s]", d)
	}

	state.ResetAt = time.Now().Add(-1 * time.Minute)
	if d := state.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() for a past reset = %v, want 0", d)
	}
}

func TestCreditState_IsStale(t *testing.T) {
	state := &CreditState{LastUpdate: time.Now().Add(-2 * time.Hour)}
	if !state.IsStale(1 * time.Hour) {
		t.Error("state updated two hours ago should be stale after one hour")
	}
	if state.IsStale(3 * time.Hour) {
		t.Error("state updated two hours ago should not be stale within three hours")
	}
}
