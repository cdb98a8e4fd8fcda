package builtin

import (
	"context"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/probe"
)

// Transactor performs raw calls. *invoke.Session implements it.
type Transactor interface {
	Invoke(ctx context.Context, call entities.CallDescriptor) entities.CallResult
}

// ActivityManager is a typed proxy to the activity service.
type ActivityManager struct {
	t Transactor
}

// GetCurrentUserID returns the foreground user.
func (m *ActivityManager) GetCurrentUserID(ctx context.Context) (int32, error) {
	v, err := m.t.Invoke(ctx, entities.CallDescriptor{
		Service: ActivityService, Descriptor: ActivityDescriptor, Method: "getCurrentUserId",
		Returns: entities.ArgInt32,
	}).Unwrap()
	if err != nil {
		return 0, err
	}
	id, _ := v.(int32)
	return id, nil
}

// ForceStopPackage stops every process of pkg for userID.
func (m *ActivityManager) ForceStopPackage(ctx context.Context, pkg string, userID int32) error {
	return m.t.Invoke(ctx, entities.CallDescriptor{
		Service: ActivityService, Descriptor: ActivityDescriptor, Method: "forceStopPackage",
		Args: []entities.TypedArgument{entities.String(pkg), entities.Int32(userID)},
	}).Err
}

// PowerManager is a typed proxy to the power service.
type PowerManager struct {
	t Transactor
}

// IsInteractive reports whether the device is awake.
func (m *PowerManager) IsInteractive(ctx context.Context) (bool, error) {
	v, err := m.t.Invoke(ctx, entities.CallDescriptor{
		Service: PowerService, Descriptor: PowerDescriptor, Method: "isInteractive",
		Returns: entities.ArgBool,
	}).Unwrap()
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// Handles returns the typed proxies bodies may obtain. An unknown name
// yields a nil handle.
func Handles(t Transactor) probe.HandleProvider {
	return probe.HandleFunc(func(_ context.Context, name string) (any, error) {
		switch name {
		case ActivityService:
			return &ActivityManager{t: t}, nil
		case PowerService:
			return &PowerManager{t: t}, nil
		default:
			return nil, nil
		}
	})
}
