package throttle

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// Limiter enforces a fixed minimum interval between operations. One Limiter
// is shared by every caller that targets the same remote service, so parallel
// callers never exceed the aggregate rate of a sequential caller.
type Limiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// New creates a Limiter. The first Wait returns immediately and each
// following Wait returns at least interval after the previous one. A
// non-positive interval disables limiting.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Interval returns the configured minimum interval
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the next operation is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return goerr.Wrap(err, "rate limiter wait aborted", goerr.V("interval", l.interval.String()))
	}
	return nil
}
