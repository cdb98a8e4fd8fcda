package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/ports"
	hostmod "github.com/reglet-dev/permprobe/infrastructure/wazero"
	"github.com/reglet-dev/permprobe/internal/abi"
)

// ServiceInstance is a loaded service module. Calls are serialized; a trap
// or an aborted call leaves the instance dead.
type ServiceInstance struct {
	module   api.Module
	compiled wazero.CompiledModule
	name     string

	mu         sync.Mutex
	descriptor string
	dead       bool
}

var _ ports.Binder = (*ServiceInstance)(nil)

// Name returns the module name.
func (s *ServiceInstance) Name() string {
	return s.name
}

// Alive reports whether the instance can still take calls.
func (s *ServiceInstance) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dead
}

// InterfaceDescriptor implements ports.Binder. The result is cached.
func (s *ServiceInstance) InterfaceDescriptor(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.descriptor != "" {
		return s.descriptor, nil
	}
	if s.dead {
		return "", fmt.Errorf("%w: service %s", errors.ErrDeadObject, s.name)
	}

	results, err := s.module.ExportedFunction(ExportInterfaceDescriptor).Call(ctx)
	if err != nil {
		return "", s.fail(ctx, err)
	}
	data, err := s.take(ctx, results)
	if err != nil {
		return "", err
	}
	s.descriptor = string(data)
	return s.descriptor, nil
}

// Transact implements ports.Binder.
func (s *ServiceInstance) Transact(ctx context.Context, code uint32, data []byte, flags uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return nil, fmt.Errorf("%w: service %s", errors.ErrDeadObject, s.name)
	}

	var packed uint64
	if len(data) > 0 {
		packed = hostmod.WriteGuest(ctx, s.module, data)
		if packed == 0 {
			return nil, fmt.Errorf("service %s: cannot place %d byte request in guest memory", s.name, len(data))
		}
		defer s.release(ctx, packed)
	}

	results, err := s.module.ExportedFunction(ExportTransact).Call(ctx, uint64(code), packed, uint64(flags))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.take(ctx, results)
}

// Close releases the module.
func (s *ServiceInstance) Close(ctx context.Context) error {
	s.mu.Lock()
	s.dead = true
	s.mu.Unlock()

	err := s.module.Close(ctx)
	if cerr := s.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// fail marks the instance dead. A call cut short by ctx reports the context
// error; anything else is a dead object.
func (s *ServiceInstance) fail(ctx context.Context, err error) error {
	s.dead = true
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: service %s: %v", errors.ErrDeadObject, s.name, err)
}

// take copies a packed result out of guest memory and releases it.
func (s *ServiceInstance) take(ctx context.Context, results []uint64) ([]byte, error) {
	if len(results) == 0 || results[0] == 0 {
		return nil, fmt.Errorf("service %s: empty reply", s.name)
	}
	data, ok := hostmod.ReadGuest(s.module, results[0])
	s.release(ctx, results[0])
	if !ok {
		return nil, fmt.Errorf("service %s: reply out of guest memory bounds", s.name)
	}
	return data, nil
}

func (s *ServiceInstance) release(ctx context.Context, packed uint64) {
	dealloc := s.module.ExportedFunction(ExportDeallocate)
	if dealloc == nil {
		return
	}
	ptr, length := abi.UnpackPtrLen(packed)
	_, _ = dealloc.Call(ctx, uint64(ptr), uint64(length))
}
