package wasmbinder_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/internal/testutil"
	"github.com/reglet-dev/permprobe/invoke"
	"github.com/reglet-dev/permprobe/transport/wasmbinder"
)

const powerDescriptor = "android.os.IPowerManager"

func open(t *testing.T, fsys fstest.MapFS, opts ...wasmbinder.Option) *wasmbinder.Registry {
	t.Helper()
	opts = append([]wasmbinder.Option{
		wasmbinder.WithPlatform(testutil.StaticPlatform{SDK: 34, UID: 10001}),
		wasmbinder.WithGrants(testutil.GrantFunc(func(context.Context, string) (bool, error) { return false, nil })),
	}, opts...)
	r, err := wasmbinder.OpenFS(context.Background(), fsys, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestOpenFS_RequiresCollaborators(t *testing.T) {
	_, err := wasmbinder.OpenFS(context.Background(), fstest.MapFS{})
	assert.ErrorContains(t, err, "platform and grants are required")
}

func TestRegistry_Names(t *testing.T) {
	r := open(t, fstest.MapFS{
		"power.wasm": {Data: testutil.ServiceModule(powerDescriptor)},
		"alarm.wasm": {Data: testutil.ServiceModule("android.app.IAlarmManager")},
		"README.md":  {Data: []byte("ignored")},
		"sub/x.wasm": {Data: testutil.EmptyModule()},
	})
	assert.Equal(t, []string{"alarm", "power"}, r.Names())

	r = open(t, fstest.MapFS{
		"power.wasm": {Data: testutil.ServiceModule(powerDescriptor)},
		"sub/x.wasm": {Data: testutil.EmptyModule()},
	}, wasmbinder.WithPattern("**/*.wasm"))
	assert.Equal(t, []string{"power", "x"}, r.Names())
}

func TestRegistry_GetService(t *testing.T) {
	ctx := context.Background()
	r := open(t, fstest.MapFS{"power.wasm": {Data: testutil.ServiceModule(powerDescriptor)}})

	b, err := r.GetService(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = r.GetService(ctx, "power")
	require.NoError(t, err)
	require.NotNil(t, b)

	again, err := r.GetService(ctx, "power")
	require.NoError(t, err)
	assert.Same(t, b, again)

	desc, err := b.InterfaceDescriptor(ctx)
	require.NoError(t, err)
	assert.Equal(t, powerDescriptor, desc)
}

func TestRegistry_ReloadsDeadService(t *testing.T) {
	ctx := context.Background()
	r := open(t, fstest.MapFS{"power.wasm": {Data: testutil.ServiceModule(powerDescriptor)}})

	b, err := r.GetService(ctx, "power")
	require.NoError(t, err)
	_, err = b.Transact(ctx, testutil.WasmCodeTrap, nil, 0)
	require.ErrorIs(t, err, errors.ErrDeadObject)

	fresh, err := r.GetService(ctx, "power")
	require.NoError(t, err)
	assert.NotSame(t, b, fresh)
	_, err = fresh.Transact(ctx, 1, nil, 0)
	assert.NoError(t, err)
}

func TestRegistry_BrokenModule(t *testing.T) {
	r := open(t, fstest.MapFS{"broken.wasm": {Data: testutil.EmptyModule()}})
	_, err := r.GetService(context.Background(), "broken")
	assert.ErrorContains(t, err, "missing export")
}

func TestRegistry_RawInvoke(t *testing.T) {
	ctx := context.Background()
	r := open(t, fstest.MapFS{"power.wasm": {Data: testutil.ServiceModule(powerDescriptor)}})

	session := invoke.NewSession(r, invoke.WithSDKVersion(34))
	defer session.Close()

	res := session.Invoke(ctx, entities.CallDescriptor{
		Service:    "power",
		Descriptor: powerDescriptor,
		Method:     "goToSleep",
		Code:       1,
	})
	assert.True(t, res.OK(), "%v", res.Err)
}
