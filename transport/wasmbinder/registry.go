// Package wasmbinder serves reference services compiled to WebAssembly as a
// ports.ServiceRegistry. Each module file in a directory is one service,
// named after the file's base name.
package wasmbinder

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/host"
	"github.com/reglet-dev/permprobe/hostfuncs"
)

// DefaultPattern selects service modules in the directory.
const DefaultPattern = "*.wasm"

type registryConfig struct {
	platform ports.Platform
	grants   ports.GrantChecker
	logger   *slog.Logger
	pattern  string
}

// Option configures a Registry.
type Option func(*registryConfig)

// WithPlatform sets the platform facts services see.
func WithPlatform(p ports.Platform) Option {
	return func(c *registryConfig) {
		c.platform = p
	}
}

// WithGrants sets the grant checker services consult.
func WithGrants(g ports.GrantChecker) Option {
	return func(c *registryConfig) {
		c.grants = g
	}
}

// WithLogger sets the logger for service log records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// WithPattern overrides DefaultPattern. Doublestar syntax is accepted.
func WithPattern(pattern string) Option {
	return func(c *registryConfig) {
		c.pattern = pattern
	}
}

// Registry loads service modules on first lookup and reloads an instance
// that died.
type Registry struct {
	fsys     fs.FS
	executor *host.Executor
	files    map[string]string

	mu        sync.Mutex
	instances map[string]*host.ServiceInstance
}

var _ ports.ServiceRegistry = (*Registry)(nil)

// Open indexes the modules in dir and starts the executor. Platform and
// grants are required.
func Open(ctx context.Context, dir string, opts ...Option) (*Registry, error) {
	return OpenFS(ctx, os.DirFS(dir), opts...)
}

// OpenFS is Open over an arbitrary file system.
func OpenFS(ctx context.Context, fsys fs.FS, opts ...Option) (*Registry, error) {
	cfg := registryConfig{pattern: DefaultPattern, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.platform == nil || cfg.grants == nil {
		return nil, fmt.Errorf("wasmbinder: platform and grants are required")
	}

	matches, err := doublestar.Glob(fsys, cfg.pattern)
	if err != nil {
		return nil, fmt.Errorf("wasmbinder: glob %q: %w", cfg.pattern, err)
	}
	files := make(map[string]string, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(path.Base(m), path.Ext(m))
		if prev, dup := files[name]; dup {
			return nil, fmt.Errorf("wasmbinder: service %q defined by both %s and %s", name, prev, m)
		}
		files[name] = m
	}

	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithBundle(hostfuncs.DeviceBundle(cfg.platform, cfg.grants)),
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(cfg.logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("wasmbinder: %w", err)
	}
	executor, err := host.NewExecutor(ctx, host.WithHostFunctions(registry), host.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("wasmbinder: %w", err)
	}

	return &Registry{
		fsys:      fsys,
		executor:  executor,
		files:     files,
		instances: make(map[string]*host.ServiceInstance),
	}, nil
}

// Names returns the indexed service names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetService implements ports.ServiceRegistry.
func (r *Registry) GetService(ctx context.Context, name string) (ports.Binder, error) {
	file, ok := r.files[name]
	if !ok {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[name]; ok {
		if inst.Alive() {
			return inst, nil
		}
		_ = inst.Close(ctx)
		delete(r.instances, name)
	}

	wasmBytes, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("wasmbinder: read %s: %w", file, err)
	}
	inst, err := r.executor.LoadService(ctx, name, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("wasmbinder: %w", err)
	}
	r.instances[name] = inst
	return inst, nil
}

// Close releases every loaded service and the executor.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]*host.ServiceInstance)
	return r.executor.Close(ctx)
}
