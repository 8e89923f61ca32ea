package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
)

// Dispatch executes a job asynchronously, detached from the cancellation of
// ctx. The logger of ctx is preserved. Panics are recovered and logged with
// their stack, and errors returned by the job are logged.
func Dispatch(ctx context.Context, job func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(newCtx).Error("panic in async job",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := job(newCtx); err != nil {
			ctxlog.From(newCtx).Error("error in async job", "error", err)
		}
	}()
}

// newBackgroundContext keeps values of ctx but drops its deadline and
// cancellation, so a job outlives the HTTP request that started it
func newBackgroundContext(ctx context.Context) context.Context {
	return ctxlog.With(context.WithoutCancel(ctx), ctxlog.From(ctx))
}
