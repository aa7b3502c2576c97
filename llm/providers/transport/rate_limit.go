package transport

import (
	"context"
	"errors"
	"fmt"

	"research-writer/llm/providers/shared"

	"golang.org/x/time/rate"
)

// Limiter throttles calls to one upstream. A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter allows rps calls per second with the given burst. It returns nil
// when rps is not positive, which disables throttling.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a call may proceed. A wait that cannot finish before the
// context deadline fails immediately with ErrRateLimited; cancellation maps to
// ErrTimeout.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	err := l.limiter.Wait(ctx)
	if err == nil {
		return nil
	}

	code := shared.ErrRateLimited
	if ctxErr := ctx.Err(); ctxErr != nil {
		code = shared.ErrTimeout
		if errors.Is(ctxErr, context.Canceled) {
			code = shared.ErrUnavailable
		}
	}
	return &shared.ProviderError{
		Code:    code,
		Message: fmt.Sprintf("rate limiter: %v", err),
		Err:     err,
	}
}

// Limit returns the configured calls per second, zero when throttling is disabled.
func (l *Limiter) Limit() float64 {
	if l == nil {
		return 0
	}
	return float64(l.limiter.Limit())
}
