package hostfuncs

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a ByteHandler.
type Middleware func(next ByteHandler) ByteHandler

// PanicRecoveryMiddleware turns a handler panic into an INTERNAL_ERROR
// response so the guest sees a reply instead of a trap.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = NewPanicError(r).ToJSON(), nil
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs each invocation at debug level and failures at
// warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			start := time.Now()
			resp, err := next(ctx, payload)
			if err != nil {
				logger.WarnContext(ctx, "host function failed",
					"function", FunctionName(ctx), "error", err)
			} else {
				logger.DebugContext(ctx, "host function",
					"function", FunctionName(ctx), "duration", time.Since(start))
			}
			return resp, err
		}
	}
}
