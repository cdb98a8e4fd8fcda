//go:build wasip1

package hostfuncs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reglet-dev/permprobe/internal/abi"
)

//go:wasmimport permprobe_host check_permission
//nolint:revive // snake_case matches the import name
func host_check_permission(requestPacked uint64) uint64

//go:wasmimport permprobe_host platform_info
//nolint:revive // snake_case matches the import name
func host_platform_info(requestPacked uint64) uint64

// GuestCheckPermission asks the host whether the caller holds capability.
func GuestCheckPermission(capability string) (bool, error) {
	var resp CheckPermissionResponse
	if err := callHost(host_check_permission, CheckPermissionRequest{Capability: capability}, &resp); err != nil {
		return false, err
	}
	if resp.Error != nil {
		return false, fmt.Errorf("%s: %s", resp.Error.Error, resp.Error.Message)
	}
	return resp.Granted, nil
}

// GuestPlatformInfo fetches the platform facts from the host.
func GuestPlatformInfo() (PlatformInfoResponse, error) {
	var resp PlatformInfoResponse
	err := callHost(host_platform_info, struct{}{}, &resp)
	return resp, err
}

func callHost(fn func(uint64) uint64, req, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal host request: %w", err)
	}
	in := abi.PtrFromBytes(payload)
	defer abi.DeallocatePacked(in)

	out := fn(in)
	if out == 0 {
		return errors.New("host returned no data")
	}
	data := abi.BytesFromPtr(out)
	abi.DeallocatePacked(out)

	var hostErr ErrorResponse
	if json.Unmarshal(data, &hostErr) == nil && hostErr.Code != 0 {
		return fmt.Errorf("%s: %s", hostErr.Error, hostErr.Message)
	}
	return json.Unmarshal(data, resp)
}
