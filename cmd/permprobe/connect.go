package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/permprobe/application/config"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/infrastructure/grantstore"
	"github.com/reglet-dev/permprobe/infrastructure/reference"
	"github.com/reglet-dev/permprobe/probes/builtin"
	"github.com/reglet-dev/permprobe/transport/grpcbinder"
	"github.com/reglet-dev/permprobe/transport/wasmbinder"
)

// device is a connected platform: where services are looked up, what the
// platform reports about itself, and what the caller holds.
type device struct {
	registry ports.ServiceRegistry
	platform ports.Platform
	grants   ports.GrantChecker
	close    func(ctx context.Context) error
}

type staticPlatform struct {
	sdk int
	uid int
}

func (p staticPlatform) SDKVersion() int { return p.sdk }
func (p staticPlatform) CallerUID() int  { return p.uid }

func grantStore(cfg *config.SessionConfig) *grantstore.FileStore {
	if cfg.GrantsPath == "" {
		return grantstore.NewFileStore()
	}
	return grantstore.NewFileStore(grantstore.WithPath(cfg.GrantsPath))
}

// connect reaches the device the session config names.
func connect(ctx context.Context, cfg *config.SessionConfig, logger *slog.Logger) (*device, error) {
	store := grantStore(cfg)

	switch cfg.Transport.Kind {
	case config.TransportGRPC:
		client, err := grpcbinder.Dial(cfg.Transport.Address, grpcbinder.WithCallTimeout(cfg.DefaultTimeout))
		if err != nil {
			return nil, err
		}
		platform, err := client.Platform(ctx)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("query agent platform: %w", err)
		}
		var grants ports.GrantChecker = client
		if cfg.GrantsPath != "" {
			grants = grantstore.NewChecker(store)
		}
		return &device{
			registry: client,
			platform: platform,
			grants:   grants,
			close:    func(context.Context) error { return client.Close() },
		}, nil

	case config.TransportWasm:
		platform := staticPlatform{sdk: cfg.LocalSDKVersion(), uid: cfg.CallerUID}
		grants := grantstore.NewChecker(store)
		reg, err := wasmbinder.Open(ctx, cfg.Transport.ModuleDir,
			wasmbinder.WithPlatform(platform),
			wasmbinder.WithGrants(grants),
			wasmbinder.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened service modules", slog.Any("services", reg.Names()))
		return &device{registry: reg, platform: platform, grants: grants, close: reg.Close}, nil

	default:
		held, err := store.Load()
		if err != nil {
			return nil, err
		}
		d, err := builtin.NewReferenceDevice(cfg.LocalSDKVersion(),
			reference.WithCallerUID(cfg.CallerUID),
			reference.WithGrants(held.Capabilities...),
		)
		if err != nil {
			return nil, err
		}
		return &device{
			registry: d,
			platform: d,
			grants:   d,
			close:    func(context.Context) error { return nil },
		}, nil
	}
}
