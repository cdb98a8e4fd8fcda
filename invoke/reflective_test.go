package invoke_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/invoke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PackageManager is the surface a caller gets through ordinary means.
type PackageManager interface {
	GetPackageName() string
}

type packageManager struct {
	denied bool
}

func (p *packageManager) GetPackageName() string { return "com.example" }

// FreeStorage is outside the PackageManager interface.
func (p *packageManager) FreeStorage(ctx context.Context, volume string, size int64) (int64, error) {
	if p.denied {
		return 0, errors.AccessDenied("PackageManager.freeStorage", "needs CLEAR_APP_CACHE")
	}
	return size, nil
}

func (p *packageManager) Crash() error {
	return fmt.Errorf("boom")
}

func (p *packageManager) Pair() (string, int) {
	return "a", 1
}

func (p *packageManager) SetObserver(o fmt.Stringer) error {
	return nil
}

func handle(denied bool) PackageManager {
	return &packageManager{denied: denied}
}

var freeStorageSig = []reflect.Type{invoke.TypeOf[context.Context](), invoke.TypeOf[string](), invoke.TypeOf[int64]()}

func TestReflective_NonInterfaceMethod(t *testing.T) {
	res := invoke.Reflective{}.Invoke(handle(false), "freeStorage", freeStorageSig,
		context.Background(), "internal", int64(4096))

	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, int64(4096), res.Value)
}

func TestReflective_ErrorPropagatesUnwrapped(t *testing.T) {
	res := invoke.Reflective{}.Invoke(handle(true), "FreeStorage", freeStorageSig,
		context.Background(), "internal", int64(1))

	assert.Equal(t, entities.FailureAccessDenied, res.Kind)
	var ce *errors.CallError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, "needs CLEAR_APP_CACHE", ce.Message)

	res = invoke.Reflective{}.Invoke(handle(false), "crash", nil)
	assert.Equal(t, entities.FailureUnexpected, res.Kind)
	assert.EqualError(t, res.Err, "boom")
}

func TestReflective_NullTarget(t *testing.T) {
	var pm *packageManager

	tests := []struct {
		name   string
		target any
	}{
		{"nil interface", nil},
		{"typed nil", pm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := invoke.Reflective{}.Invoke(tt.target, "GetPackageName", nil)
			assert.Equal(t, entities.FailureNullTarget, res.Kind)
			assert.NotEqual(t, entities.FailureAccessDenied, res.Kind)
		})
	}
}

func TestReflective_SignatureMismatch(t *testing.T) {
	tests := []struct {
		name   string
		method string
		sig    []reflect.Type
		args   []any
	}{
		{"arity", "FreeStorage", freeStorageSig, []any{context.Background(), "x"}},
		{"unknown method", "wipe", nil, nil},
		{"wrong param type", "FreeStorage",
			[]reflect.Type{invoke.TypeOf[context.Context](), invoke.TypeOf[string](), invoke.TypeOf[int32]()},
			[]any{context.Background(), "x", int32(1)}},
		{"wrong arg value", "FreeStorage", freeStorageSig, []any{context.Background(), "x", 1}},
		{"nil scalar", "FreeStorage", freeStorageSig, []any{context.Background(), nil, int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := invoke.Reflective{}.Invoke(handle(false), tt.method, tt.sig, tt.args...)
			assert.Equal(t, entities.FailureMalformedEncoding, res.Kind)
		})
	}
}

func TestReflective_Results(t *testing.T) {
	res := invoke.Reflective{}.Invoke(handle(false), "Pair", nil)
	require.True(t, res.OK())
	assert.Equal(t, []any{"a", 1}, res.Value)

	res = invoke.Reflective{}.Invoke(handle(false), "SetObserver",
		[]reflect.Type{invoke.TypeOf[fmt.Stringer]()}, nil)
	require.True(t, res.OK())
	assert.Nil(t, res.Value)
}

func TestTypedReflective_Invocable(t *testing.T) {
	var inv invoke.Invocable = invoke.TypedReflective{
		Target:     handle(false),
		Method:     "getPackageName",
		ParamTypes: nil,
	}

	assert.Equal(t, "invoke_test.packageManager.getPackageName", inv.String())
	res := inv.Invoke(context.Background())
	require.True(t, res.OK())
	assert.Equal(t, "com.example", res.Value)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, inv.Invoke(ctx).OK())
}
