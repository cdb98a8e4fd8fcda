package hostfuncs

import "context"

type functionNameKey struct{}

// WithFunctionName records the invoked host function on ctx.
func WithFunctionName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, functionNameKey{}, name)
}

// FunctionName returns the host function being invoked, or "unknown".
func FunctionName(ctx context.Context) string {
	if name, ok := ctx.Value(functionNameKey{}).(string); ok {
		return name
	}
	return "unknown"
}
