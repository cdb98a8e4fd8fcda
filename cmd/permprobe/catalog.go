package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/reglet-dev/permprobe/application/config"
	"github.com/reglet-dev/permprobe/application/loader"
	"github.com/reglet-dev/permprobe/application/schema"
	"github.com/reglet-dev/permprobe/application/validation"
	"github.com/reglet-dev/permprobe/infrastructure/transacts"
	"github.com/reglet-dev/permprobe/probe"
	"github.com/reglet-dev/permprobe/probes/builtin"
)

// loadCatalog renders, validates and binds the probe manifest for version.
// Without a manifest path the built-in probes are used.
func loadCatalog(cfg *config.SessionConfig, version int, logger *slog.Logger) (*probe.Catalog, error) {
	raw := builtin.Manifest()
	if cfg.ManifestPath != "" {
		data, err := os.ReadFile(cfg.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		raw = data
	}

	registry, err := schema.NewManifestRegistry()
	if err != nil {
		return nil, err
	}
	l := loader.NewLoader(loader.WithValidator(validation.NewManifestValidator(registry)))
	manifest, err := l.LoadManifest(raw, loader.TemplateData(version, cfg.Vars))
	if err != nil {
		return nil, err
	}

	specs, err := probe.Bind(manifest, builtin.Bodies())
	if err != nil {
		return nil, err
	}
	return probe.NewCatalog(
		probe.WithProbes(specs...),
		probe.WithMiddleware(probe.Logging(logger)),
	)
}

// loadTable reads the transaction table for version from the configured
// directory, or from the built-in tables. The built-in tables describe the
// reference device, whose codes do not move between versions, so they always
// fall back.
func loadTable(cfg *config.SessionConfig, version int, logger *slog.Logger) (*transacts.Table, error) {
	opts := []transacts.LoaderOption{transacts.WithLogger(logger)}
	if cfg.TablesDir == "" {
		opts = append(opts, transacts.WithFS(builtin.Tables()), transacts.WithFallback())
	} else if cfg.TableFallback {
		opts = append(opts, transacts.WithFallback())
	}
	return transacts.Load(cfg.TablesDir, version, opts...)
}
