// Package probe holds the probe data model, the catalog, and the runner that
// executes a catalog against one platform and classifies every outcome.
package probe

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Body performs exactly one privileged-operation attempt. It returns nil when
// the call completed, the call's error otherwise, or an errors.BypassError to
// skip the call deliberately.
type Body func(ctx context.Context, env Env) error

// Env is what a body may consult and call while it runs.
type Env interface {
	// Version is the current platform version.
	Version() int

	// CallerUID is the identity the prober runs as.
	CallerUID() int

	// Granted reports whether the caller holds capability.
	Granted(ctx context.Context, capability string) (bool, error)

	// Transact performs a raw call.
	Transact(ctx context.Context, call entities.CallDescriptor) entities.CallResult

	// TransactBinder performs a raw call on a binder already in hand.
	TransactBinder(ctx context.Context, b ports.Binder, call entities.CallDescriptor) entities.CallResult

	// Reflect invokes a named method on a handle already in hand.
	Reflect(target any, method string, paramTypes []reflect.Type, args ...any) entities.CallResult

	// Handle returns a typed service handle obtained through ordinary means.
	Handle(ctx context.Context, name string) (any, error)
}

// Spec is one catalog entry. It is immutable once registered.
type Spec struct {
	Body Body `validate:"required"`

	// Capability is the guarded capability identifier.
	Capability string `validate:"required"`

	// Label is a human-readable name.
	Label string

	// BypassIfGranted, when set, is the hazard reason: the call must not be
	// attempted while the caller holds Capability.
	BypassIfGranted string

	// Ignore, when set, skips the probe with this reason.
	Ignore string

	// Requires lists capabilities that must be granted for the probe to run.
	Requires []string

	// Range is the inclusive platform version interval the probe applies to.
	Range entities.VersionRange

	// Timeout overrides the runner's default watchdog.
	Timeout time.Duration `validate:"gte=0"`
}

// Validate checks the spec is well formed.
func (s Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("probe %q: %w", s.Capability, err)
	}
	if !s.Range.Valid() {
		return fmt.Errorf("probe %q: invalid version range %s", s.Capability, s.Range)
	}
	return nil
}

// AppliesTo reports whether the probe runs on platform version v.
func (s Spec) AppliesTo(v int) bool {
	return s.Range.Contains(v)
}

// Name returns the label, falling back to the capability.
func (s Spec) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Capability
}
