// Package ratelimit tracks the fetch-proxy account's remaining request
// credits and gates dispatch before more paid calls are spent. The proxy
// reports credit state on every response via the X-Credits-Remaining and
// X-Credits-Reset headers; the state is shared across all processes using
// the same credential via Redis.
package ratelimit

import (
	"time"
)

// Redis keys for credit state storage.
const (
	RedisKeyCreditsRemaining = "proxyfetch:credits:remaining"
	RedisKeyResetTimestamp   = "proxyfetch:credits:reset_timestamp"
	RedisKeyLastUpdate       = "proxyfetch:credits:last_update"
)

// Thresholds for credit decisions.
const (
	// CreditThresholdCritical blocks all requests when remaining credits
	// fall below this value, keeping a reserve for manual runs.
	CreditThresholdCritical = 25

	// CreditThresholdWarning triggers warning logs when remaining
	// credits fall below this value.
	CreditThresholdWarning = 200

	// CreditThresholdHealthy indicates normal operation.
	CreditThresholdHealthy = 1000
)

// CreditState represents the current proxy account credit state.
// This state is shared across all client instances via Redis.
type CreditState struct {
	// CreditsRemaining is the number of paid requests left on the
	// account. Extracted from the X-Credits-Remaining header.
	CreditsRemaining int `json:"credits_remaining"`

	// ResetAt is when the credit window renews.
	// Calculated from the X-Credits-Reset header (seconds until reset).
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from a response.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when CreditsRemaining >= CreditThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *CreditState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked because
// the credit reserve is nearly spent.
func (s *CreditState) NeedsCriticalBlock() bool {
	return s.CreditsRemaining < CreditThresholdCritical
}

// NeedsWarning returns true if the account is low but still above the
// critical reserve.
func (s *CreditState) NeedsWarning() bool {
	return s.CreditsRemaining < CreditThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the credit window renews.
// Returns 0 if the reset time has already passed.
func (s *CreditState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current CreditsRemaining.
func (s *CreditState) UpdateHealth() {
	s.IsHealthy = s.CreditsRemaining >= CreditThresholdHealthy
}
