package batch

import "context"

// Limiter is a counting gate bounding the number of simultaneously
// in-flight fetch workers. A worker holds one permit for its entire
// attempt/retry sequence, so capacity means concurrent URLs in progress,
// not concurrent sockets.
type Limiter struct {
	permits chan struct{}
}

// NewLimiter creates a limiter with the given capacity. Non-positive
// capacities fall back to DefaultConcurrency.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = DefaultConcurrency
	}
	return &Limiter{
		permits: make(chan struct{}, capacity),
	}
}

// Acquire blocks until a permit is available or the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit. Must be called exactly once per successful
// Acquire.
func (l *Limiter) Release() {
	<-l.permits
}

// InFlight returns the number of permits currently held.
func (l *Limiter) InFlight() int {
	return len(l.permits)
}
