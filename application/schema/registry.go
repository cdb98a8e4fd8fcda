package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

type registryConfig struct {
	strictMode bool
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{strictMode: true}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

// WithStrictMode controls whether registering a kind twice fails.
// Default is true.
func WithStrictMode(enabled bool) RegistryOption {
	return func(c *registryConfig) {
		c.strictMode = enabled
	}
}

// Registry is a concurrency-safe ports.SchemaRegistry.
type Registry struct {
	schemas sync.Map // kind -> schema JSON
	config  registryConfig
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{config: cfg}
}

// NewManifestRegistry returns a registry preloaded with the probe manifest
// schema under KindManifest.
func NewManifestRegistry() (ports.SchemaRegistry, error) {
	r := NewRegistry()
	if err := r.Register(KindManifest, &entities.ProbeManifest{}); err != nil {
		return nil, err
	}
	return r, nil
}

// Register reflects model into a schema stored under kind.
func (r *Registry) Register(kind string, model interface{}) error {
	if r.config.strictMode {
		if _, exists := r.schemas.Load(kind); exists {
			return fmt.Errorf("schema %q already registered", kind)
		}
	}

	data, err := json.Marshal(jsonschema.Reflect(model))
	if err != nil {
		return fmt.Errorf("failed to marshal schema for %s: %w", kind, err)
	}
	r.schemas.Store(kind, string(data))
	return nil
}

// GetSchema returns the schema registered under kind.
func (r *Registry) GetSchema(kind string) (string, bool) {
	v, ok := r.schemas.Load(kind)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// List returns the registered kinds in sorted order.
func (r *Registry) List() []string {
	var kinds []string
	r.schemas.Range(func(k, _ interface{}) bool {
		kinds = append(kinds, k.(string))
		return true
	})
	sort.Strings(kinds)
	return kinds
}

var _ ports.SchemaRegistry = (*Registry)(nil)
