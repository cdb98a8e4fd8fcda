package hostfuncs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/permprobe/hostfuncs"
	"github.com/reglet-dev/permprobe/infrastructure/reference"
)

func deviceRegistry(t *testing.T) *hostfuncs.HandlerRegistry {
	t.Helper()
	d, err := reference.NewDevice(reference.WithSDKVersion(29), reference.WithCallerUID(10050), reference.WithGrants("DUMP"))
	require.NoError(t, err)

	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(hostfuncs.DeviceBundle(d, d)))
	require.NoError(t, err)
	return reg
}

func TestDeviceBundle_CheckPermission(t *testing.T) {
	reg := deviceRegistry(t)

	for capability, want := range map[string]bool{
		"android.permission.DUMP": true,
		"DUMP":                    true,
		"REBOOT":                  false,
	} {
		req, _ := json.Marshal(hostfuncs.CheckPermissionRequest{Capability: capability})
		raw, err := reg.Invoke(context.Background(), hostfuncs.FuncCheckPermission, req)
		require.NoError(t, err)

		var resp hostfuncs.CheckPermissionResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		assert.Nil(t, resp.Error)
		assert.Equal(t, want, resp.Granted, capability)
		assert.Equal(t, 10050, resp.UID)
	}
}

func TestDeviceBundle_CheckPermissionValidation(t *testing.T) {
	raw, err := deviceRegistry(t).Invoke(context.Background(), hostfuncs.FuncCheckPermission, []byte(`{}`))
	require.NoError(t, err)

	var resp hostfuncs.CheckPermissionResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Error)
}

func TestDeviceBundle_MalformedRequest(t *testing.T) {
	_, err := deviceRegistry(t).Invoke(context.Background(), hostfuncs.FuncCheckPermission, []byte(`{`))
	assert.Error(t, err)
}

func TestDeviceBundle_PlatformInfo(t *testing.T) {
	raw, err := deviceRegistry(t).Invoke(context.Background(), hostfuncs.FuncPlatformInfo, nil)
	require.NoError(t, err)

	var resp hostfuncs.PlatformInfoResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, hostfuncs.PlatformInfoResponse{SDKVersion: 29, CallerUID: 10050}, resp)
}

type failingGrants struct{}

func (failingGrants) IsGranted(context.Context, string) (bool, error) {
	return false, errors.New("snapshot unreadable")
}

func TestCheckPermission_GrantError(t *testing.T) {
	d, err := reference.NewDevice()
	require.NoError(t, err)

	resp := hostfuncs.CheckPermission(context.Background(), d, failingGrants{},
		hostfuncs.CheckPermissionRequest{Capability: "REBOOT"})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "snapshot unreadable")
	assert.False(t, resp.Granted)
}
