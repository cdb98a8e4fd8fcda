package probe

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/policy"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/invoke"
)

// DefaultTimeout is the watchdog applied to probes without their own.
const DefaultTimeout = 10 * time.Second

// Result pairs a probe with its outcome.
type Result struct {
	Err      error
	Spec     Spec
	Outcome  entities.Outcome
	Duration time.Duration
}

// runnerConfig holds configuration for the Runner.
type runnerConfig struct {
	logger          *slog.Logger
	session         *invoke.Session
	platform        ports.Platform
	grants          ports.GrantChecker
	handles         HandleProvider
	selection       *policy.Selection
	handlers        []ports.OutcomeHandler
	defaultTimeout  time.Duration
	acceptDangerous bool
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{
		logger:         slog.Default(),
		defaultTimeout: DefaultTimeout,
	}
}

// RunnerOption configures the Runner.
type RunnerOption func(*runnerConfig)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(c *runnerConfig) {
		c.logger = l
	}
}

// WithSession sets the raw call session bodies transact through.
func WithSession(s *invoke.Session) RunnerOption {
	return func(c *runnerConfig) {
		c.session = s
	}
}

// WithPlatform sets the platform facts exposed to bodies.
func WithPlatform(p ports.Platform) RunnerOption {
	return func(c *runnerConfig) {
		c.platform = p
	}
}

// WithGrantChecker sets the grant checker used by the bypass gates.
func WithGrantChecker(g ports.GrantChecker) RunnerOption {
	return func(c *runnerConfig) {
		c.grants = g
	}
}

// WithHandles sets the typed handle provider.
func WithHandles(h HandleProvider) RunnerOption {
	return func(c *runnerConfig) {
		c.handles = h
	}
}

// WithSelection restricts the run to capabilities sel allows.
func WithSelection(sel *policy.Selection) RunnerOption {
	return func(c *runnerConfig) {
		c.selection = sel
	}
}

// WithOutcomeHandler adds a handler notified after every probe.
func WithOutcomeHandler(h ports.OutcomeHandler) RunnerOption {
	return func(c *runnerConfig) {
		c.handlers = append(c.handlers, h)
	}
}

// WithDefaultTimeout sets the watchdog for probes without their own.
func WithDefaultTimeout(d time.Duration) RunnerOption {
	return func(c *runnerConfig) {
		c.defaultTimeout = d
	}
}

// WithAcceptDangerous disables the hazard gate: hazard-declaring probes run
// even when the capability is granted.
func WithAcceptDangerous(accept bool) RunnerOption {
	return func(c *runnerConfig) {
		c.acceptDangerous = accept
	}
}

// Runner executes a catalog one probe at a time.
type Runner struct {
	config runnerConfig
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{config: cfg}
}

// Run executes every probe of catalog applicable to version, in catalog
// order, each completing before the next starts. Inapplicable probes are
// omitted. Every applicable probe yields exactly one result; no probe
// failure stops the run.
func (r *Runner) Run(ctx context.Context, catalog *Catalog, version int) []Result {
	env := &runEnv{cfg: &r.config, version: version}
	var results []Result

	for _, spec := range catalog.specs {
		if !spec.AppliesTo(version) || !r.config.selection.Allows(spec.Capability) {
			continue
		}

		start := time.Now()
		raw, err := r.runOne(ctx, spec, env)
		outcome := policy.Classify(raw)
		res := Result{Spec: spec, Outcome: outcome, Duration: time.Since(start), Err: err}
		results = append(results, res)

		r.log(ctx, res)
		for _, h := range r.config.handlers {
			h.OnOutcome(spec.Capability, outcome)
		}
	}
	return results
}

// runOne applies the gates, then executes the body under the watchdog.
func (r *Runner) runOne(ctx context.Context, spec Spec, env *runEnv) (entities.RawOutcome, error) {
	if spec.Ignore != "" {
		return entities.RawOutcome{Bypassed: true, Reason: spec.Ignore}, nil
	}

	// Grant queries get the same deadline as the body.
	gctx, cancel := context.WithTimeout(ctx, r.timeout(spec))
	defer cancel()

	for _, req := range spec.Requires {
		ok, err := env.Granted(gctx, req)
		if err != nil || !ok {
			return entities.RawOutcome{
				Bypassed: true,
				Reason:   fmt.Sprintf("required capability %s is not granted", entities.NormalizeCapability(req)),
			}, nil
		}
	}

	granted, gerr := env.Granted(gctx, spec.Capability)
	if spec.BypassIfGranted != "" && !r.config.acceptDangerous {
		if gerr != nil {
			return entities.RawOutcome{
				Bypassed: true,
				Reason:   fmt.Sprintf("grant status unknown (%v): %s", gerr, spec.BypassIfGranted),
			}, nil
		}
		if granted {
			return entities.RawOutcome{Bypassed: true, Reason: spec.BypassIfGranted, Granted: true}, nil
		}
	}

	err := r.execute(ctx, spec, env)
	if reason, ok := errors.BypassReason(err); ok {
		return entities.RawOutcome{Bypassed: true, Reason: reason, Granted: granted}, nil
	}
	return entities.RawOutcome{
		Failure: errors.KindOf(err),
		Detail:  detail(err),
		Granted: granted,
	}, err
}

// execute runs the body in its own goroutine under a deadline. A body that
// ignores its context is abandoned when the deadline passes.
func (r *Runner) execute(ctx context.Context, spec Spec, env Env) error {
	timeout := r.timeout(spec)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	pctx := NewProbeContext(cctx, spec)

	body := PanicRecovery()(spec.Body)
	done := make(chan error, 1)
	go func() {
		done <- body(pctx, env)
	}()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		if stdErrors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return errors.Timeout(spec.Capability, timeout)
		}
		return fmt.Errorf("session ended: %w", ctx.Err())
	}
}

func (r *Runner) timeout(spec Spec) time.Duration {
	if spec.Timeout > 0 {
		return spec.Timeout
	}
	return r.config.defaultTimeout
}

func (r *Runner) log(ctx context.Context, res Result) {
	attrs := []slog.Attr{
		slog.String("capability", res.Spec.Capability),
		slog.String("verdict", string(res.Outcome.Verdict)),
		slog.Duration("duration", res.Duration),
	}
	if res.Outcome.Cause != "" {
		attrs = append(attrs, slog.String("cause", string(res.Outcome.Cause)))
	}
	if res.Outcome.Reason != "" {
		attrs = append(attrs, slog.String("reason", res.Outcome.Reason))
	}

	switch {
	case res.Outcome.Defect:
		attrs = append(attrs, slog.Any("error", res.Err))
		r.config.logger.LogAttrs(ctx, slog.LevelError, "probe defect: call does not match the wire contract", attrs...)
	case res.Outcome.Finding():
		r.config.logger.LogAttrs(ctx, slog.LevelWarn, "guarded operation reachable", attrs...)
	default:
		r.config.logger.LogAttrs(ctx, slog.LevelInfo, "probe complete", attrs...)
	}
}

func detail(err error) string {
	if err == nil {
		return ""
	}
	var ce *errors.CallError
	if stdErrors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return strings.TrimSpace(err.Error())
}
