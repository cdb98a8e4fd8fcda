package hostfuncs

import (
	"context"

	"github.com/reglet-dev/permprobe/domain/ports"
)

// Host function names of the device bundle.
const (
	FuncCheckPermission = "check_permission"
	FuncPlatformInfo    = "platform_info"
)

// Bundle is a set of related host functions.
type Bundle interface {
	Handlers() map[string]ByteHandler
}

type staticBundle map[string]ByteHandler

func (b staticBundle) Handlers() map[string]ByteHandler { return b }

// CheckPermissionRequest asks whether the calling identity holds a capability.
type CheckPermissionRequest struct {
	Capability string `json:"capability"`
}

// CheckPermissionResponse answers a CheckPermissionRequest.
type CheckPermissionResponse struct {
	Error   *ErrorResponse `json:"error,omitempty"`
	UID     int            `json:"uid"`
	Granted bool           `json:"granted"`
}

// PlatformInfoResponse carries the platform facts.
type PlatformInfoResponse struct {
	SDKVersion int `json:"sdk_version"`
	CallerUID  int `json:"caller_uid"`
}

// DeviceBundle exposes platform facts and grant checks to sandboxed
// services, which use them to enforce their own permissions.
func DeviceBundle(platform ports.Platform, grants ports.GrantChecker) Bundle {
	return staticBundle{
		FuncCheckPermission: NewJSONHandler(func(ctx context.Context, req CheckPermissionRequest) CheckPermissionResponse {
			return CheckPermission(ctx, platform, grants, req)
		}),
		FuncPlatformInfo: NewJSONHandler(func(context.Context, struct{}) PlatformInfoResponse {
			return PlatformInfoResponse{SDKVersion: platform.SDKVersion(), CallerUID: platform.CallerUID()}
		}),
	}
}

// CheckPermission performs the grant check for one request.
func CheckPermission(ctx context.Context, platform ports.Platform, grants ports.GrantChecker, req CheckPermissionRequest) CheckPermissionResponse {
	resp := CheckPermissionResponse{UID: platform.CallerUID()}
	if req.Capability == "" {
		e := NewValidationError("capability is required")
		resp.Error = &e
		return resp
	}
	ok, err := grants.IsGranted(ctx, req.Capability)
	if err != nil {
		e := NewInternalError(err.Error())
		resp.Error = &e
		return resp
	}
	resp.Granted = ok
	return resp
}
