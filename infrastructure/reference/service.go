package reference

import (
	"context"
	"fmt"
	"sync"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/wireformat"
)

// Method describes one remote method of a reference service.
type Method struct {
	// Fault, when set, is raised after the permission check passes.
	Fault *wireformat.Exception

	Name string

	// Permission is the capability the caller must hold; empty for none.
	Permission string

	// Params is the argument layout the stub decodes.
	Params []entities.TypedArgument

	// Returns is the value replied on success. The zero value replies void.
	Returns entities.TypedArgument

	Code uint32

	// Hang blocks the call until the caller's context is done.
	Hang bool
}

// Service is a reference remote service. It is safe for concurrent use.
type Service struct {
	device     *Device
	authorize  Authorizer
	methods    map[uint32]Method
	name       string
	descriptor string

	mu       sync.Mutex
	calls    map[string]int
	received map[string][][]entities.TypedArgument
}

var _ ports.Binder = (*Service)(nil)

// Authorizer decides whether the caller holds a capability.
type Authorizer func(ctx context.Context, capability string) bool

// NewService creates a service. Methods without a code are numbered
// sequentially from 1 in declaration order.
func NewService(name, descriptor string, methods ...Method) *Service {
	s := &Service{
		name:       name,
		descriptor: descriptor,
		methods:    make(map[uint32]Method, len(methods)),
		calls:      make(map[string]int),
		received:   make(map[string][][]entities.TypedArgument),
	}
	for i, m := range methods {
		if m.Code == 0 {
			m.Code = uint32(i + 1)
		}
		s.methods[m.Code] = m
	}
	return s
}

// WithAuthorizer replaces the device grant lookup used for permission
// checks and returns s.
func (s *Service) WithAuthorizer(fn Authorizer) *Service {
	s.authorize = fn
	return s
}

// Name returns the registered service name.
func (s *Service) Name() string {
	return s.name
}

// Descriptor returns the interface descriptor.
func (s *Service) Descriptor() string {
	return s.descriptor
}

// Codes returns the method-name to transaction-code mapping.
func (s *Service) Codes() map[string]uint32 {
	out := make(map[string]uint32, len(s.methods))
	for code, m := range s.methods {
		out[m.Name] = code
	}
	return out
}

// InterfaceDescriptor implements ports.Binder.
func (s *Service) InterfaceDescriptor(ctx context.Context) (string, error) {
	return s.descriptor, nil
}

// Transact implements ports.Binder. It decodes the payload with the device's
// token format, checks the interface and the method's permission, and
// replies with the method's fault or return value.
func (s *Service) Transact(ctx context.Context, code uint32, data []byte, flags uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := wireformat.NewReader(data)
	desc, err := r.ReadInterfaceToken(s.format())
	if err != nil {
		return nil, fmt.Errorf("reference: %s: bad interface token: %w", s.name, err)
	}
	if desc != s.descriptor {
		return wireformat.EncodeException(&wireformat.Exception{
			Code:    wireformat.ExSecurity,
			Message: fmt.Sprintf("Binder invocation to an incorrect interface: %s", desc),
		}), nil
	}

	m, ok := s.methods[code]
	if !ok {
		return wireformat.EncodeException(&wireformat.Exception{
			Code:    wireformat.ExUnsupportedOperation,
			Message: fmt.Sprintf("unknown transaction code %d", code),
		}), nil
	}

	args, err := r.ReadArgs(m.Params)
	if err != nil {
		return wireformat.EncodeException(&wireformat.Exception{
			Code:    wireformat.ExBadParcelable,
			Message: err.Error(),
		}), nil
	}
	if r.Remaining() != 0 {
		return wireformat.EncodeException(&wireformat.Exception{
			Code:    wireformat.ExBadParcelable,
			Message: fmt.Sprintf("%d unread bytes", r.Remaining()),
		}), nil
	}

	s.record(m.Name, args)

	if m.Permission != "" && !s.holds(ctx, m.Permission) {
		return wireformat.EncodeException(&wireformat.Exception{
			Code: wireformat.ExSecurity,
			Message: fmt.Sprintf("uid %d does not have %s",
				s.callerUID(), entities.NormalizeCapability(m.Permission)),
		}), nil
	}

	if m.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if m.Fault != nil {
		return wireformat.EncodeException(m.Fault), nil
	}
	return wireformat.EncodeReply(m.Returns)
}

func (s *Service) format() wireformat.TokenFormat {
	if s.device == nil {
		return wireformat.TokenFormatFor(0)
	}
	return wireformat.TokenFormatFor(s.device.SDKVersion())
}

func (s *Service) holds(ctx context.Context, capability string) bool {
	if s.authorize != nil {
		return s.authorize(ctx, capability)
	}
	return s.device != nil && s.device.holds(capability)
}

func (s *Service) callerUID() int {
	if s.device == nil {
		return -1
	}
	return s.device.CallerUID()
}

func (s *Service) record(method string, args []entities.TypedArgument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
	s.received[method] = append(s.received[method], args)
}

// Calls returns how many decoded calls reached method.
func (s *Service) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of decoded calls across all methods.
func (s *Service) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Received returns the decoded argument lists of every call to method.
func (s *Service) Received(method string) [][]entities.TypedArgument {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]entities.TypedArgument, len(s.received[method]))
	copy(out, s.received[method])
	return out
}
