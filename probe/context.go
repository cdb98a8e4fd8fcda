package probe

import "context"

// ProbeContext wraps the context a body runs under with the identity of the
// probe, for middleware.
type ProbeContext interface {
	context.Context

	// Capability returns the capability of the running probe.
	Capability() string

	// Label returns the label of the running probe.
	Label() string
}

type probeContext struct {
	context.Context
	capability string
	label      string
}

func (c *probeContext) Capability() string { return c.capability }

func (c *probeContext) Label() string { return c.label }

// NewProbeContext wraps ctx with the identity of spec.
func NewProbeContext(ctx context.Context, spec Spec) ProbeContext {
	return &probeContext{Context: ctx, capability: spec.Capability, label: spec.Label}
}

// ProbeContextFrom returns ctx as a ProbeContext when it is one.
func ProbeContextFrom(ctx context.Context) (ProbeContext, bool) {
	pc, ok := ctx.(ProbeContext)
	return pc, ok
}
