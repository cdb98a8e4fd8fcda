package invoke

import (
	"context"
	"reflect"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
)

// Invocable is one privileged call, ready to run. The two variants share one
// result contract so probes and the classifier need not know which ran.
type Invocable interface {
	Invoke(ctx context.Context) entities.CallResult
	String() string
}

var (
	_ Invocable = TypedReflective{}
	_ Invocable = RawTransaction{}
)

// TypedReflective calls a named method on a bound object handle.
type TypedReflective struct {
	Target     any
	Method     string
	ParamTypes []reflect.Type
	Args       []any
}

// Invoke runs the call unless ctx is already done.
func (t TypedReflective) Invoke(ctx context.Context) entities.CallResult {
	if err := ctx.Err(); err != nil {
		return errors.Result(nil, err)
	}
	return Reflective{}.Invoke(t.Target, t.Method, t.ParamTypes, t.Args...)
}

func (t TypedReflective) String() string {
	return describe(t.Target, t.Method)
}

// RawTransaction sends a hand-encoded call through a Session.
type RawTransaction struct {
	Session *Session
	Call    entities.CallDescriptor
}

// Invoke runs the call.
func (r RawTransaction) Invoke(ctx context.Context) entities.CallResult {
	return r.Session.Invoke(ctx, r.Call)
}

func (r RawTransaction) String() string {
	return r.Call.String()
}
