package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/permprobe/hostfuncs"
	"github.com/reglet-dev/permprobe/internal/abi"
)

// DefaultModuleName is the import module guests link host functions from.
const DefaultModuleName = "permprobe_host"

// AdapterConfig configures RegisterWithRuntime.
type AdapterConfig struct {
	ModuleName     string
	CustomHandlers []CustomHandler
	MaxRequestSize uint32
}

// CustomHandler is a host function outside the packed request/response
// convention.
type CustomHandler struct {
	Handler     api.GoModuleFunc
	Name        string
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName overrides DefaultModuleName.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize bounds requests read from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithCustomHandler adds a custom host function.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime instantiates a host module exporting every registry
// handler and custom handler.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range registry.Names() {
		name := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				stack[0] = handleCall(ctx, mod, stack[0], registry, name, cfg.MaxRequestSize)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(name)
	}
	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("instantiate host module %s: %w", cfg.ModuleName, err)
	}
	return nil
}

func handleCall(ctx context.Context, mod api.Module, packed uint64, registry *hostfuncs.HandlerRegistry, name string, limit uint32) uint64 {
	ptr, length := abi.UnpackPtrLen(packed)
	if length > limit {
		return WriteGuest(ctx, mod, hostfuncs.NewValidationError(
			fmt.Sprintf("request size %d exceeds maximum %d bytes", length, limit)).ToJSON())
	}

	request, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return WriteGuest(ctx, mod, hostfuncs.NewInternalError("request out of guest memory bounds").ToJSON())
	}

	response, err := registry.Invoke(ctx, name, request)
	if err != nil {
		slog.ErrorContext(ctx, "host function failed", "module", mod.Name(), "function", name, "error", err)
		return WriteGuest(ctx, mod, hostfuncs.NewInternalError(err.Error()).ToJSON())
	}
	return WriteGuest(ctx, mod, response)
}

// WriteGuest copies data into memory from the guest's allocate export and
// returns it packed. It returns 0 for empty data or on failure.
func WriteGuest(ctx context.Context, mod api.Module, data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	alloc := mod.ExportedFunction("allocate")
	if alloc == nil {
		slog.ErrorContext(ctx, "guest has no allocate export", "module", mod.Name())
		return 0
	}
	results, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		slog.ErrorContext(ctx, "guest allocate failed", "module", mod.Name(), "error", err)
		return 0
	}
	ptr := uint32(results[0])
	if ptr == 0 || !mod.Memory().Write(ptr, data) {
		slog.ErrorContext(ctx, "write to guest memory failed", "module", mod.Name())
		return 0
	}
	return abi.PackPtrLen(ptr, uint32(len(data)))
}

// ReadGuest copies a packed region out of guest memory.
func ReadGuest(mod api.Module, packed uint64) ([]byte, bool) {
	ptr, length := abi.UnpackPtrLen(packed)
	if length == 0 {
		return nil, true
	}
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
