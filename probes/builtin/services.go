// Package builtin is a small library of representative probe bodies, the
// reference services they target, and the manifest and transaction tables
// that tie them together.
package builtin

import (
	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/infrastructure/reference"
)

// Interface descriptors.
const (
	PowerDescriptor     = "android.os.IPowerManager"
	StatusBarDescriptor = "com.android.internal.statusbar.IStatusBarService"
	WifiDescriptor      = "android.net.wifi.IWifiManager"
	ActivityDescriptor  = "android.app.IActivityManager"
)

// Registered service names.
const (
	PowerService     = "power"
	StatusBarService = "statusbar"
	WifiService      = "wifi"
	ActivityService  = "activity"
)

// ShellPackage is the calling package reported by bodies.
const ShellPackage = "com.android.shell"

// WifiPackageArgSince is the first version whose setWifiEnabled takes the
// calling package.
const WifiPackageArgSince = 26

// NewPower returns the reference power service. reboot never returns while
// the caller holds REBOOT.
func NewPower() *reference.Service {
	return reference.NewService(PowerService, PowerDescriptor,
		reference.Method{Name: "isInteractive", Returns: entities.Bool(true)},
		reference.Method{Name: "goToSleep", Permission: "DEVICE_POWER",
			Params: []entities.TypedArgument{entities.Int64(0), entities.Int32(0), entities.Int32(0)}},
		reference.Method{Name: "wakeUp", Permission: "DEVICE_POWER",
			Params: []entities.TypedArgument{entities.Int64(0), entities.Int32(0), entities.String(""), entities.String("")}},
		reference.Method{Name: "reboot", Permission: "REBOOT", Hang: true,
			Params: []entities.TypedArgument{entities.Bool(false), entities.String(""), entities.Bool(false)}},
	)
}

// NewStatusBar returns the reference status bar service.
func NewStatusBar() *reference.Service {
	return reference.NewService(StatusBarService, StatusBarDescriptor,
		reference.Method{Name: "expandNotificationsPanel", Permission: "EXPAND_STATUS_BAR"},
		reference.Method{Name: "collapsePanels", Permission: "EXPAND_STATUS_BAR"},
		reference.Method{Name: "disable", Permission: "STATUS_BAR",
			Params: []entities.TypedArgument{entities.Int32(0), entities.Reference(""), entities.String("")}},
	)
}

// NewWifi returns the reference wifi service as it looks on version sdk.
func NewWifi(sdk int) *reference.Service {
	params := []entities.TypedArgument{entities.Bool(false)}
	if sdk >= WifiPackageArgSince {
		params = []entities.TypedArgument{entities.String(""), entities.Bool(false)}
	}
	return reference.NewService(WifiService, WifiDescriptor,
		reference.Method{Name: "getWifiEnabledState", Returns: entities.Int32(3)},
		reference.Method{Name: "setWifiEnabled", Permission: "CHANGE_WIFI_STATE", Params: params, Returns: entities.Bool(true)},
	)
}

// NewActivity returns the reference activity service.
func NewActivity() *reference.Service {
	return reference.NewService(ActivityService, ActivityDescriptor,
		reference.Method{Name: "getCurrentUserId", Returns: entities.Int32(0)},
		reference.Method{Name: "forceStopPackage", Permission: "FORCE_STOP_PACKAGES",
			Params: []entities.TypedArgument{entities.String(""), entities.Int32(0)}},
		reference.Method{Name: "clearApplicationUserData", Permission: "CLEAR_APP_USER_DATA",
			Params:  []entities.TypedArgument{entities.String(""), entities.Bool(false), entities.Reference(""), entities.Int32(0)},
			Returns: entities.Bool(true)},
	)
}

// NewReferenceDevice returns a device on version sdk hosting every
// reference service.
func NewReferenceDevice(sdk int, opts ...reference.DeviceOption) (*reference.Device, error) {
	base := []reference.DeviceOption{
		reference.WithSDKVersion(sdk),
		reference.WithService(NewPower()),
		reference.WithService(NewStatusBar()),
		reference.WithService(NewWifi(sdk)),
		reference.WithService(NewActivity()),
	}
	return reference.NewDevice(append(base, opts...)...)
}
