package probe

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/invoke"
)

// HandleProvider supplies typed service handles to bodies.
type HandleProvider interface {
	Handle(ctx context.Context, name string) (any, error)
}

// HandleFunc adapts a function to HandleProvider.
type HandleFunc func(ctx context.Context, name string) (any, error)

// Handle implements HandleProvider.
func (f HandleFunc) Handle(ctx context.Context, name string) (any, error) {
	return f(ctx, name)
}

// errNoSession is returned by Transact when the runner has no raw call session.
var errNoSession = fmt.Errorf("no raw call session configured")

// runEnv is the Env handed to bodies by the Runner.
type runEnv struct {
	cfg     *runnerConfig
	version int
}

var _ Env = (*runEnv)(nil)

func (e *runEnv) Version() int {
	return e.version
}

func (e *runEnv) CallerUID() int {
	if e.cfg.platform == nil {
		return -1
	}
	return e.cfg.platform.CallerUID()
}

func (e *runEnv) Granted(ctx context.Context, capability string) (bool, error) {
	if e.cfg.grants == nil {
		return false, nil
	}
	return e.cfg.grants.IsGranted(ctx, entities.NormalizeCapability(capability))
}

func (e *runEnv) Transact(ctx context.Context, call entities.CallDescriptor) entities.CallResult {
	if e.cfg.session == nil {
		return entities.Failed(entities.FailureUnexpected, errNoSession)
	}
	return e.cfg.session.Invoke(ctx, call)
}

func (e *runEnv) TransactBinder(ctx context.Context, b ports.Binder, call entities.CallDescriptor) entities.CallResult {
	if e.cfg.session == nil {
		return entities.Failed(entities.FailureUnexpected, errNoSession)
	}
	return e.cfg.session.InvokeBinder(ctx, b, call)
}

func (e *runEnv) Reflect(target any, method string, paramTypes []reflect.Type, args ...any) entities.CallResult {
	return invoke.Reflective{}.Invoke(target, method, paramTypes, args...)
}

func (e *runEnv) Handle(ctx context.Context, name string) (any, error) {
	if e.cfg.handles == nil {
		return nil, errors.ServiceUnavailable(name, fmt.Errorf("no typed handles configured"))
	}
	return e.cfg.handles.Handle(ctx, name)
}
