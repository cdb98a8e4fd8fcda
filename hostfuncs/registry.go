package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// DefaultMaxRequestSize bounds a request read from guest memory.
const DefaultMaxRequestSize = 1 << 20

// HandlerRegistry is an immutable set of named host functions. Lookups need
// no locking.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	names    []string
}

type registryBuilder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	errors     []error
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryBuilder)

// NewRegistry builds a registry. Middleware wraps every handler, the first
// added outermost. A duplicate or empty name fails construction.
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{handlers: make(map[string]ByteHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	r := &HandlerRegistry{
		handlers: make(map[string]ByteHandler, len(b.handlers)),
		names:    make([]string, 0, len(b.handlers)),
	}
	for name, h := range b.handlers {
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		r.handlers[name] = h
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Invoke dispatches a call by name. An unknown name yields a NOT_FOUND
// error response rather than a Go error.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	h, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(name).ToJSON(), nil
	}
	return h(WithFunctionName(ctx, name), payload)
}

// Has reports whether name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *HandlerRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

func (b *registryBuilder) add(name string, h ByteHandler) {
	switch _, dup := b.handlers[name]; {
	case name == "":
		b.errors = append(b.errors, fmt.Errorf("handler name cannot be empty"))
	case dup:
		b.errors = append(b.errors, fmt.Errorf("duplicate handler name: %q", name))
	default:
		b.handlers[name] = h
	}
}

// WithByteHandler registers a raw handler.
func WithByteHandler(name string, h ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		b.add(name, h)
	}
}

// WithBundle registers every handler of a bundle.
func WithBundle(bundle Bundle) RegistryOption {
	return func(b *registryBuilder) {
		handlers := bundle.Handlers()
		names := make([]string, 0, len(handlers))
		for name := range handlers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.add(name, handlers[name])
		}
	}
}

// WithMiddleware appends middleware.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
