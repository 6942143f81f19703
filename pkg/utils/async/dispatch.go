package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch runs handler in a new goroutine, detached from the caller's
// cancellation.
//
// Parameters:
//   - ctx: Original context (the logger is carried over, cancellation is not)
//   - handler: Function to execute asynchronously
//
// Errors and panics of handler are logged and never propagated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		if err := Recover(newCtx, handler); err != nil {
			ctxlog.From(newCtx).Error("error in async handler", "error", err)
		}
	}()
}

// Recover calls handler synchronously and converts a panic into an error.
// The panic value and the stack trace are logged at the point of recovery.
func Recover(ctx context.Context, handler func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			ctxlog.From(ctx).Error("panic in async handler",
				"recover", r,
				"stack", string(stack))
			err = goerr.New("panic in handler", goerr.V("recover", r))
		}
	}()

	return handler(ctx)
}

// newBackgroundContext creates a context that survives cancellation of ctx.
// The ctxlog logger is preserved.
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}
