package probe

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/reglet-dev/permprobe/domain/errors"
)

// Middleware wraps a Body to add cross-cutting behavior. Middleware executes
// in FIFO order: the first registered wraps outermost.
type Middleware func(next Body) Body

// PanicRecovery converts a panicking body into an *errors.PanicError, which
// classifies as an unexpected failure of that probe only.
func PanicRecovery() Middleware {
	return func(next Body) Body {
		return func(ctx context.Context, env Env) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &errors.PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			return next(ctx, env)
		}
	}
}

// Logging logs every body execution at debug level.
func Logging(logger *slog.Logger) Middleware {
	return func(next Body) Body {
		return func(ctx context.Context, env Env) error {
			capability := "unknown"
			if pc, ok := ProbeContextFrom(ctx); ok {
				capability = pc.Capability()
			}
			start := time.Now()
			logger.DebugContext(ctx, "invoking probe", slog.String("capability", capability))

			err := next(ctx, env)

			logger.DebugContext(ctx, "probe body returned",
				slog.String("capability", capability),
				slog.Duration("duration", time.Since(start)),
				slog.String("kind", string(errors.KindOf(err))),
			)
			return err
		}
	}
}

func chain(body Body, mw []Middleware) Body {
	for i := len(mw) - 1; i >= 0; i-- {
		body = mw[i](body)
	}
	return body
}
