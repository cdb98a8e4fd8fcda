package reference

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// Device is an immutable set of reference services plus the platform facts
// and grants of the caller. It implements ServiceRegistry, Platform and
// GrantChecker.
type Device struct {
	services map[string]*Service
	grants   *entities.GrantSet
	sdk      int
	uid      int

	mu      sync.Mutex
	lookups map[string]int
}

var (
	_ ports.ServiceRegistry = (*Device)(nil)
	_ ports.Platform        = (*Device)(nil)
	_ ports.GrantChecker    = (*Device)(nil)
)

type deviceBuilder struct {
	services map[string]*Service
	grants   *entities.GrantSet
	sdk      int
	uid      int
	errors   []error
}

// DeviceOption configures a Device.
type DeviceOption func(*deviceBuilder)

// WithSDKVersion sets the platform version. Defaults to 34.
func WithSDKVersion(sdk int) DeviceOption {
	return func(b *deviceBuilder) {
		b.sdk = sdk
	}
}

// WithCallerUID sets the caller identity. Defaults to 10001.
func WithCallerUID(uid int) DeviceOption {
	return func(b *deviceBuilder) {
		b.uid = uid
	}
}

// WithGrants sets the capabilities the caller holds.
func WithGrants(capabilities ...string) DeviceOption {
	return func(b *deviceBuilder) {
		b.grants = entities.NewGrantSet(capabilities...)
	}
}

// WithService registers a service under its name.
func WithService(s *Service) DeviceOption {
	return func(b *deviceBuilder) {
		if _, exists := b.services[s.name]; exists {
			b.errors = append(b.errors, fmt.Errorf("duplicate service name: %q", s.name))
			return
		}
		b.services[s.name] = s
	}
}

// NewDevice creates a Device. Returns an error if a service name is
// registered twice.
func NewDevice(opts ...DeviceOption) (*Device, error) {
	b := &deviceBuilder{
		services: make(map[string]*Service),
		grants:   entities.NewGrantSet(),
		sdk:      34,
		uid:      10001,
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	d := &Device{
		services: b.services,
		grants:   b.grants,
		sdk:      b.sdk,
		uid:      b.uid,
		lookups:  make(map[string]int),
	}
	for _, s := range d.services {
		s.device = d
	}
	return d, nil
}

// GetService implements ports.ServiceRegistry.
func (d *Device) GetService(ctx context.Context, name string) (ports.Binder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.lookups[name]++
	d.mu.Unlock()

	s, ok := d.services[name]
	if !ok {
		return nil, nil
	}
	return s, nil
}

// Service returns the registered service, for assertions.
func (d *Device) Service(name string) *Service {
	return d.services[name]
}

// Names returns the registered service names, sorted.
func (d *Device) Names() []string {
	names := make([]string, 0, len(d.services))
	for n := range d.services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookups returns how many times name was resolved.
func (d *Device) Lookups(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups[name]
}

// SDKVersion implements ports.Platform.
func (d *Device) SDKVersion() int {
	return d.sdk
}

// CallerUID implements ports.Platform.
func (d *Device) CallerUID() int {
	return d.uid
}

// IsGranted implements ports.GrantChecker.
func (d *Device) IsGranted(ctx context.Context, capability string) (bool, error) {
	return d.holds(capability), nil
}

func (d *Device) holds(capability string) bool {
	return d.grants.Has(capability)
}

// Grants returns a copy of the caller's grants.
func (d *Device) Grants() *entities.GrantSet {
	return d.grants.Clone()
}

// Codes returns the per-descriptor transaction codes of every service.
func (d *Device) Codes() map[string]map[string]uint32 {
	out := make(map[string]map[string]uint32, len(d.services))
	for _, s := range d.services {
		out[s.descriptor] = s.Codes()
	}
	return out
}
