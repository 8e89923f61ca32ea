package retry

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Policy describes how an operation is retried. It is shared by the link
// resolver and the downloader.
type Policy struct {
	// MaxAttempts is the upper bound of attempts including the first one.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Delay is waited after a failed attempt, except after the last one
	Delay time.Duration

	// Retryable decides whether a failed attempt may be retried. nil means
	// every error is retryable.
	Retryable func(err error) bool
}

// Attempt is passed to the retried operation. Number starts at 1.
type Attempt struct {
	Number int
	Last   bool
}

// Result tells how many attempts were used and the error of the last one
type Result struct {
	Attempts int
	Err      error
}

// Failed is a hook called after each failed attempt
type Failed func(attempt Attempt, err error)

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Do runs fn until it succeeds, the policy is exhausted or a non-retryable
// error occurs. The delay between attempts is interrupted by ctx; fn itself
// is never interrupted by Do.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt Attempt) error, onFailed ...Failed) Result {
	limit := p.attempts()

	var lastErr error
	for n := 1; n <= limit; n++ {
		attempt := Attempt{Number: n, Last: n == limit}
		err := fn(ctx, attempt)
		if err == nil {
			return Result{Attempts: n}
		}
		lastErr = err

		for _, hook := range onFailed {
			hook(attempt, err)
		}

		if attempt.Last || (p.Retryable != nil && !p.Retryable(err)) {
			return Result{Attempts: n, Err: err}
		}

		if err := sleep(ctx, p.Delay); err != nil {
			return Result{Attempts: n, Err: goerr.Wrap(err, "retry interrupted", goerr.V("last_error", lastErr.Error()))}
		}
	}

	return Result{Attempts: limit, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
