package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/reglet-dev/permprobe/hostfuncs"
	hostmod "github.com/reglet-dev/permprobe/infrastructure/wazero"
)

// Required service exports.
const (
	ExportAllocate            = "allocate"
	ExportDeallocate          = "deallocate"
	ExportInterfaceDescriptor = "interface_descriptor"
	ExportTransact            = "transact"
)

var requiredExports = []string{ExportAllocate, ExportInterfaceDescriptor, ExportTransact}

// Executor hosts service modules in a single wazero runtime.
type Executor struct {
	runtime wazero.Runtime
	config  executorConfig
}

// NewExecutor creates the runtime and instantiates WASI and the host module.
// Guest execution is aborted when the calling context is done.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		reg, err := hostfuncs.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("create default registry: %w", err)
		}
		cfg.registry = reg
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(cfg.memoryLimitPages))

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}
	if err := hostmod.RegisterWithRuntime(ctx, rt, cfg.registry,
		hostmod.WithCustomHandler(hostmod.LogMessageHandler(cfg.logger)),
	); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("register host functions: %w", err)
	}

	return &Executor{runtime: rt, config: cfg}, nil
}

// Close releases the runtime and every loaded service.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadService compiles and instantiates a service module under name. The
// module's _initialize export, if any, runs first.
func (e *Executor) LoadService(ctx context.Context, name string, wasmBytes []byte) (*ServiceInstance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile service %s: %w", name, err)
	}

	exports := compiled.ExportedFunctions()
	for _, want := range requiredExports {
		if _, ok := exports[want]; !ok {
			_ = compiled.Close(ctx)
			return nil, fmt.Errorf("service %s: missing export %q", name, want)
		}
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize"))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("instantiate service %s: %w", name, err)
	}

	return &ServiceInstance{name: name, module: mod, compiled: compiled}, nil
}
