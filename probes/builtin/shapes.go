package builtin

import (
	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/probe"
)

// Capabilities probed through version-dependent call forms.
const (
	CapChangeWifiState = entities.PermissionPrefix + "CHANGE_WIFI_STATE"
	CapStatusBar       = entities.PermissionPrefix + "STATUS_BAR"
)

// Shapes holds the call forms that changed across platform versions.
var Shapes = probe.Shapes{
	{
		Capability: CapChangeWifiState,
		Range:      entities.Between(0, WifiPackageArgSince-1),
		Call: entities.CallDescriptor{
			Service: WifiService, Descriptor: WifiDescriptor, Method: "setWifiEnabled",
			Args:    []entities.TypedArgument{entities.Bool(false)},
			Returns: entities.ArgBool,
		},
	},
	{
		Capability: CapChangeWifiState,
		Range:      entities.Since(WifiPackageArgSince),
		Call: entities.CallDescriptor{
			Service: WifiService, Descriptor: WifiDescriptor, Method: "setWifiEnabled",
			Args:    []entities.TypedArgument{entities.String(ShellPackage), entities.Bool(false)},
			Returns: entities.ArgBool,
		},
	},
	{
		Capability: CapStatusBar,
		Range:      entities.AnyVersion(),
		Call: entities.CallDescriptor{
			Service: StatusBarService, Descriptor: StatusBarDescriptor, Method: "disable",
			Args: []entities.TypedArgument{entities.Int32(0), entities.Reference("permprobe"), entities.String(ShellPackage)},
		},
	},
}
