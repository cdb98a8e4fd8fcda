package builtin

import (
	"context"
	"reflect"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/invoke"
	"github.com/reglet-dev/permprobe/probe"
)

// Body names referenced by manifests.
const (
	BodyGoToSleep                = "power.goToSleep"
	BodyWakeUp                   = "power.wakeUp"
	BodyReboot                   = "power.reboot"
	BodyExpandNotifications      = "statusbar.expandNotificationsPanel"
	BodyCollapsePanels           = "statusbar.collapsePanels"
	BodyDisableStatusBar         = "statusbar.disable"
	BodySetWifiEnabled           = "wifi.setWifiEnabled"
	BodyForceStopPackage         = "activity.forceStopPackage"
	BodyClearApplicationUserData = "activity.clearApplicationUserData"
)

var forceStopSignature = []reflect.Type{
	invoke.TypeOf[context.Context](),
	invoke.TypeOf[string](),
	invoke.TypeOf[int32](),
}

// Bodies returns every built-in body by name.
func Bodies() probe.Bodies {
	return probe.Bodies{
		BodyGoToSleep: raw(entities.CallDescriptor{
			Service: PowerService, Descriptor: PowerDescriptor, Method: "goToSleep",
			Args: []entities.TypedArgument{entities.Int64(0), entities.Int32(0), entities.Int32(0)},
		}),
		BodyWakeUp: raw(entities.CallDescriptor{
			Service: PowerService, Descriptor: PowerDescriptor, Method: "wakeUp",
			Args: []entities.TypedArgument{entities.Int64(0), entities.Int32(0), entities.String("permprobe"), entities.String(ShellPackage)},
		}),
		BodyReboot: raw(entities.CallDescriptor{
			Service: PowerService, Descriptor: PowerDescriptor, Method: "reboot",
			Args: []entities.TypedArgument{entities.Bool(false), entities.String("permprobe"), entities.Bool(false)},
		}),
		BodyExpandNotifications: raw(entities.CallDescriptor{
			Service: StatusBarService, Descriptor: StatusBarDescriptor, Method: "expandNotificationsPanel",
		}),
		BodyCollapsePanels: raw(entities.CallDescriptor{
			Service: StatusBarService, Descriptor: StatusBarDescriptor, Method: "collapsePanels",
		}),
		BodyDisableStatusBar: shaped(CapStatusBar),
		BodySetWifiEnabled:   shaped(CapChangeWifiState),
		BodyForceStopPackage: forceStopPackage,
		BodyClearApplicationUserData: raw(entities.CallDescriptor{
			Service: ActivityService, Descriptor: ActivityDescriptor, Method: "clearApplicationUserData",
			Args: []entities.TypedArgument{
				entities.String(ShellPackage), entities.Bool(false), entities.NullReference(), entities.Int32(0),
			},
			Returns: entities.ArgBool,
		}),
	}
}

func raw(call entities.CallDescriptor) probe.Body {
	return func(ctx context.Context, env probe.Env) error {
		return env.Transact(ctx, call).Err
	}
}

// shaped selects the call form of capability for the running version.
func shaped(capability string) probe.Body {
	return func(ctx context.Context, env probe.Env) error {
		call, ok := Shapes.Select(capability, env.Version())
		if !ok {
			return errors.Bypassf("no call form of %s for sdk %d", capability, env.Version())
		}
		return env.Transact(ctx, call).Err
	}
}

// forceStopPackage goes through the typed activity proxy by reflection.
func forceStopPackage(ctx context.Context, env probe.Env) error {
	am, err := env.Handle(ctx, ActivityService)
	if err != nil {
		return err
	}
	return env.Reflect(am, "forceStopPackage", forceStopSignature, ctx, ShellPackage, int32(0)).Err
}
