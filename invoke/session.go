package invoke

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/wireformat"
)

// ErrSessionClosed is returned by calls made after Close.
var ErrSessionClosed = stdErrors.New("invoke: session closed")

// sessionConfig holds configuration for a Session.
type sessionConfig struct {
	logger *slog.Logger
	table  ports.TransactionTable
	format wireformat.TokenFormat
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		logger: slog.Default(),
		format: wireformat.TokenFormatFor(0),
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

// WithLogger sets the logger used for resolution and transact tracing.
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = l
	}
}

// WithTransactionTable sets the table used to resolve transaction codes and
// service aliases.
func WithTransactionTable(t ports.TransactionTable) SessionOption {
	return func(c *sessionConfig) {
		c.table = t
	}
}

// WithSDKVersion selects the interface-token layout of platform version sdk.
func WithSDKVersion(sdk int) SessionOption {
	return func(c *sessionConfig) {
		c.format = wireformat.TokenFormatFor(sdk)
	}
}

// WithTokenFormat sets the interface-token layout explicitly.
func WithTokenFormat(f wireformat.TokenFormat) SessionOption {
	return func(c *sessionConfig) {
		c.format = f
	}
}

// serviceHandle is a resolved, cached transport reference.
type serviceHandle struct {
	binder      ports.Binder
	verified    map[string]bool // interface descriptors already asserted
	unavailable bool
}

// Session is the raw call invoker for one probing session. It owns the
// service handle cache: a name is resolved once and reused, failed
// resolutions are retried on the next call, and a name explicitly marked
// unavailable stays unavailable until the session ends. Resolution of one
// name is serialized; calls for different names may proceed concurrently.
type Session struct {
	registry ports.ServiceRegistry
	config   sessionConfig
	group    singleflight.Group

	mu      sync.Mutex
	handles map[string]*serviceHandle
	closed  bool
}

// NewSession creates a Session resolving services through registry.
func NewSession(registry ports.ServiceRegistry, opts ...SessionOption) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session{
		registry: registry,
		config:   cfg,
		handles:  make(map[string]*serviceHandle),
	}
}

// Invoke performs one raw call: resolve the service, assert its interface,
// select the transaction code, encode, transact and decode the reply.
func (s *Session) Invoke(ctx context.Context, d entities.CallDescriptor) entities.CallResult {
	start := time.Now()
	res := s.invoke(ctx, d)

	s.config.logger.DebugContext(ctx, "raw call",
		slog.String("call", d.String()),
		slog.String("kind", string(res.Kind)),
		slog.Duration("duration", time.Since(start)),
	)
	return res
}

func (s *Session) invoke(ctx context.Context, d entities.CallDescriptor) entities.CallResult {
	name := d.Service
	if s.config.table != nil {
		name = s.config.table.ServiceName(d.Service)
	}

	binder, err := s.resolve(ctx, name)
	if err != nil {
		return errors.Result(nil, err)
	}

	if err := s.assertIdentity(ctx, name, binder, d.Descriptor); err != nil {
		return errors.Result(nil, err)
	}
	return s.transact(ctx, name, binder, d, true)
}

// InvokeBinder performs one raw call on a binder already in hand, such as
// one returned by another service. Resolution and the handle cache are
// skipped; the interface is asserted on every call.
func (s *Session) InvokeBinder(ctx context.Context, b ports.Binder, d entities.CallDescriptor) entities.CallResult {
	start := time.Now()
	res := s.invokeBinder(ctx, b, d)

	s.config.logger.DebugContext(ctx, "raw call on held binder",
		slog.String("call", d.String()),
		slog.String("kind", string(res.Kind)),
		slog.Duration("duration", time.Since(start)),
	)
	return res
}

func (s *Session) invokeBinder(ctx context.Context, b ports.Binder, d entities.CallDescriptor) entities.CallResult {
	if b == nil {
		return errors.Result(nil, errors.NullTarget(d.String()))
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return errors.Result(nil, ErrSessionClosed)
	}

	name := d.Service
	if name == "" {
		name = d.Descriptor
	}
	got, err := b.InterfaceDescriptor(ctx)
	if err != nil {
		return errors.Result(nil, s.transportError(ctx, name, d.String(), err, false))
	}
	if got != "" && got != d.Descriptor {
		return errors.Result(nil, errors.DescriptorMismatch(name, d.Descriptor, got))
	}
	return s.transact(ctx, name, b, d, false)
}

// transact selects the code, encodes, transmits and decodes. cached reports
// whether binder came from the session cache.
func (s *Session) transact(ctx context.Context, name string, binder ports.Binder, d entities.CallDescriptor, cached bool) entities.CallResult {
	call := d.String()

	code, err := s.code(d)
	if err != nil {
		return errors.Result(nil, errors.MalformedEncoding(call, err))
	}

	payload, err := wireformat.EncodeCall(d.Descriptor, s.config.format, d.Args)
	if err != nil {
		return errors.Result(nil, errors.MalformedEncoding(call, err))
	}

	reply, err := binder.Transact(ctx, code, payload, d.Flags)
	if err != nil {
		return errors.Result(nil, s.transportError(ctx, name, call, err, cached))
	}

	value, ex, err := wireformat.DecodeReply(reply, d.Returns)
	if err != nil {
		return errors.Result(nil, errors.MalformedEncoding(call, err))
	}
	if ex != nil {
		return errors.Result(nil, exceptionError(call, name, d.Descriptor, ex))
	}
	return entities.Succeeded(value)
}

// resolve returns the cached handle for name or asks the registry once.
func (s *Session) resolve(ctx context.Context, name string) (ports.Binder, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if h, ok := s.handles[name]; ok {
		s.mu.Unlock()
		if h.unavailable {
			return nil, errors.ServiceUnavailable(name, fmt.Errorf("marked unavailable for this session"))
		}
		return h.binder, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(name, func() (any, error) {
		b, err := s.registry.GetService(ctx, name)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, errors.ServiceUnavailable(name, nil)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return nil, ErrSessionClosed
		}
		s.handles[name] = &serviceHandle{binder: b, verified: make(map[string]bool)}
		return b, nil
	})
	if err != nil {
		switch errors.KindOf(err) {
		case entities.FailureServiceUnavailable, entities.FailureTimeout:
			return nil, err
		}
		if stdErrors.Is(err, ErrSessionClosed) {
			return nil, err
		}
		return nil, errors.ServiceUnavailable(name, err)
	}

	s.config.logger.DebugContext(ctx, "resolved service", slog.String("service", name))
	return v.(ports.Binder), nil
}

func (s *Session) assertIdentity(ctx context.Context, name string, b ports.Binder, want string) error {
	s.mu.Lock()
	h := s.handles[name]
	verified := h != nil && h.verified[want]
	s.mu.Unlock()
	if verified {
		return nil
	}

	got, err := b.InterfaceDescriptor(ctx)
	if err != nil {
		return s.transportError(ctx, name, name+":"+want, err, true)
	}
	// An empty descriptor means the service does not report one; the remote
	// stub still checks the token on transact.
	if got != "" && got != want {
		return errors.DescriptorMismatch(name, want, got)
	}

	s.mu.Lock()
	if h != nil {
		h.verified[want] = true
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) code(d entities.CallDescriptor) (uint32, error) {
	if d.Code != 0 {
		return d.Code, nil
	}
	if s.config.table == nil {
		return 0, fmt.Errorf("no transaction code for %s.%s and no table loaded", d.Descriptor, d.Method)
	}
	code, ok := s.config.table.Code(d.Descriptor, d.Method)
	if !ok {
		return 0, fmt.Errorf("no transaction code for %s.%s", d.Descriptor, d.Method)
	}
	return code, nil
}

// transportError maps a failed transport call onto the taxonomy. A dead
// cached handle is dropped so the next call resolves again.
func (s *Session) transportError(ctx context.Context, name, call string, err error, cached bool) error {
	if ctxErr := ctx.Err(); stdErrors.Is(ctxErr, context.DeadlineExceeded) {
		return &errors.CallError{Kind: entities.FailureTimeout, Call: call, Err: err}
	}
	if stdErrors.Is(err, errors.ErrDeadObject) {
		if cached {
			s.Invalidate(name)
		}
		return errors.ServiceUnavailable(name, err)
	}
	var ce *errors.CallError
	if stdErrors.As(err, &ce) {
		return err
	}
	if errors.KindOf(err) == entities.FailureTimeout {
		return &errors.CallError{Kind: entities.FailureTimeout, Call: call, Err: err}
	}
	return &errors.CallError{Kind: entities.FailureRemoteFault, Call: call, Category: "transport", Err: err}
}

func exceptionError(call, service, descriptor string, ex *wireformat.Exception) error {
	switch {
	case ex.IsDescriptorMismatch():
		return errors.DescriptorMismatch(service, descriptor, ex.Message)
	case ex.IsSecurity():
		return errors.AccessDenied(call, ex.Message)
	default:
		e := errors.RemoteFault(call, ex.Code.Category(), ex.Message)
		e.Code = ex.ServiceError
		return e
	}
}

// MarkUnavailable records that name must not be resolved again in this session.
func (s *Session) MarkUnavailable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[name] = &serviceHandle{unavailable: true}
}

// Invalidate drops the cached handle for name.
func (s *Session) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[name]; ok && !h.unavailable {
		delete(s.handles, name)
	}
}

// Cached reports whether a live handle for name is cached.
func (s *Session) Cached(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	return ok && !h.unavailable
}

// Close drops every cached handle. Later calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles = make(map[string]*serviceHandle)
	s.closed = true
	return nil
}
