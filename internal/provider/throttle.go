package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces out requests to a single site.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows a burst of maxTokens requests, then one more per refillInterval.
func NewThrottle(maxTokens int, refillInterval time.Duration) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Every(refillInterval), maxTokens)}
}

// Wait blocks until a request may go out or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
