package probe

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/policy"
)

// Catalog is an immutable, ordered collection of probes. The declared order
// is the execution order.
type Catalog struct {
	specs []Spec
}

type catalogBuilder struct {
	specs      []Spec
	middleware []Middleware
	errors     []error
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogBuilder)

// WithProbe appends a probe.
func WithProbe(spec Spec) CatalogOption {
	return func(b *catalogBuilder) {
		b.specs = append(b.specs, spec)
	}
}

// WithProbes appends probes in order.
func WithProbes(specs ...Spec) CatalogOption {
	return func(b *catalogBuilder) {
		b.specs = append(b.specs, specs...)
	}
}

// WithMiddleware adds middleware applied to every body. A nil middleware
// fails the build.
func WithMiddleware(mw ...Middleware) CatalogOption {
	return func(b *catalogBuilder) {
		for i, m := range mw {
			if m == nil {
				b.errors = append(b.errors, fmt.Errorf("middleware %d is nil", len(b.middleware)+i))
			}
		}
		b.middleware = append(b.middleware, mw...)
	}
}

// NewCatalog builds a catalog. It fails if a spec is invalid or if two specs
// for the same capability and label have overlapping version ranges.
func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	b := &catalogBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	if err := stdErrors.Join(b.errors...); err != nil {
		return nil, err
	}

	specs := make([]Spec, 0, len(b.specs))
	for i, s := range b.specs {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		for _, prev := range specs {
			if prev.Capability == s.Capability && prev.Label == s.Label && overlaps(prev, s) {
				return nil, fmt.Errorf("catalog entry %d: duplicate probe %q for %s", i, s.Name(), s.Range)
			}
		}
		s.Requires = append([]string(nil), s.Requires...)
		s.Body = chain(s.Body, b.middleware)
		specs = append(specs, s)
	}
	return &Catalog{specs: specs}, nil
}

func overlaps(a, b Spec) bool {
	if a.Range.Max != entities.Unbounded && a.Range.Max < b.Range.Min {
		return false
	}
	if b.Range.Max != entities.Unbounded && b.Range.Max < a.Range.Min {
		return false
	}
	return true
}

// Len returns the number of probes.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// Specs returns the probes in declaration order.
func (c *Catalog) Specs() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Applicable returns the probes whose range contains version, in order.
func (c *Catalog) Applicable(version int) []Spec {
	var out []Spec
	for _, s := range c.specs {
		if s.AppliesTo(version) {
			out = append(out, s)
		}
	}
	return out
}

// Select returns a catalog holding only the probes sel allows.
func (c *Catalog) Select(sel *policy.Selection) *Catalog {
	out := &Catalog{}
	for _, s := range c.specs {
		if sel.Allows(s.Capability) {
			out.specs = append(out.specs, s)
		}
	}
	return out
}
