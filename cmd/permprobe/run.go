package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/reglet-dev/permprobe/application/config"
	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/policy"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/infrastructure/prompter"
	"github.com/reglet-dev/permprobe/invoke"
	"github.com/reglet-dev/permprobe/probe"
	"github.com/reglet-dev/permprobe/probes/builtin"
	"github.com/reglet-dev/permprobe/report"
)

// errProbeDefects is returned when a run recorded probe defects.
var errProbeDefects = errors.New("probe defects recorded")

type runFlags struct {
	sdk             int
	acceptDangerous bool
	yes             bool
	quiet           bool
	include         []string
	exclude         []string
	manifest        string
	report          string
	tableFallback   bool
}

func newRunCmd(g *globalFlags, s streams) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the probe catalog against a device",
		Long: `Connects to the configured device, runs every applicable probe one at a time
and writes the session report. Exits non-zero when a probe defect was recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			return runSession(cmd.Context(), cfg, f, s, prompter.NewCliPrompter(s.in, s.errOut))
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.sdk, "sdk", 0, "platform version override")
	fl.BoolVar(&f.acceptDangerous, "accept-dangerous", false, "run hazard probes even when the capability is granted")
	fl.BoolVarP(&f.yes, "yes", "y", false, "do not ask before running hazard probes")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print per-probe outcomes")
	fl.StringSliceVar(&f.include, "include", nil, "capability glob to include (repeatable)")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "capability glob to exclude (repeatable)")
	fl.StringVar(&f.manifest, "manifest", "", "probe manifest (defaults to the built-in probes)")
	fl.StringVarP(&f.report, "report", "o", "", "report file (defaults to stdout)")
	fl.BoolVar(&f.tableFallback, "table-fallback", false, "use the nearest earlier transaction table when none matches the platform version")
	return cmd
}

// apply overlays explicitly set flags on cfg and revalidates it.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.SessionConfig) error {
	fl := cmd.Flags()
	if fl.Changed("sdk") {
		cfg.SDKVersion = f.sdk
	}
	if fl.Changed("accept-dangerous") {
		cfg.AcceptDangerous = f.acceptDangerous
	}
	if fl.Changed("include") {
		cfg.Include = f.include
	}
	if fl.Changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if fl.Changed("table-fallback") {
		cfg.TableFallback = f.tableFallback
	}
	if f.manifest != "" {
		cfg.ManifestPath = f.manifest
	}
	if f.report != "" {
		cfg.ReportPath = f.report
	}
	return cfg.Validate()
}

func runSession(ctx context.Context, cfg *config.SessionConfig, f *runFlags, s streams, prompt ports.HazardPrompter) error {
	logger, err := newLogger(cfg, s.errOut)
	if err != nil {
		return err
	}

	dev, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dev.close(context.Background()); cerr != nil {
			logger.Warn("failed to close device", slog.Any("error", cerr))
		}
	}()

	version := cfg.SDKVersion
	if version == 0 {
		version = dev.platform.SDKVersion()
	}

	table, err := loadTable(cfg, version, logger)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg, version, logger)
	if err != nil {
		return err
	}
	selection := cfg.Selection()

	accept := cfg.AcceptDangerous
	if accept && !f.yes {
		if accept, err = confirmHazards(ctx, catalog, version, selection, dev.grants, prompt); err != nil {
			return err
		}
		if !accept {
			logger.Info("hazard probes declined; they stay gated")
		}
	}

	session := invoke.NewSession(dev.registry,
		invoke.WithLogger(logger),
		invoke.WithTransactionTable(table),
		invoke.WithSDKVersion(version),
	)
	defer func() { _ = session.Close() }()

	opts := []probe.RunnerOption{
		probe.WithLogger(logger),
		probe.WithSession(session),
		probe.WithPlatform(dev.platform),
		probe.WithGrantChecker(dev.grants),
		probe.WithHandles(builtin.Handles(session)),
		probe.WithSelection(selection),
		probe.WithDefaultTimeout(cfg.DefaultTimeout),
		probe.WithAcceptDangerous(accept),
	}
	if !f.quiet {
		opts = append(opts, probe.WithOutcomeHandler(&policy.StderrOutcomeHandler{Out: s.errOut}))
	}

	id := uuid.New()
	started := time.Now().UTC()
	logger.Info("probe session started",
		slog.String("session", id.String()),
		slog.Int("sdk", version),
		slog.Int("probes", catalog.Len()),
	)
	results := probe.NewRunner(opts...).Run(ctx, catalog, version)

	rep, err := report.Build(id, version, started, results)
	if err != nil {
		return err
	}
	if table.SDK != version {
		rep.TableSDK = table.SDK
	}
	if cfg.ReportPath != "" {
		if err := report.WriteFile(cfg.ReportPath, rep); err != nil {
			return err
		}
		logger.Info("report written", slog.String("path", cfg.ReportPath))
	} else if err := report.Write(s.out, rep); err != nil {
		return err
	}

	logger.Info("probe session finished",
		slog.Int("total", rep.Summary.Total),
		slog.Int("findings", rep.Summary.Findings),
		slog.Int("defects", rep.Summary.Defects),
	)
	if rep.Summary.Defects > 0 {
		return fmt.Errorf("%w: %d", errProbeDefects, rep.Summary.Defects)
	}
	return nil
}

// confirmHazards asks before running hazard probes whose capability is
// granted. Nothing is asked when no such probe applies.
func confirmHazards(ctx context.Context, catalog *probe.Catalog, version int, sel *policy.Selection,
	grants ports.GrantChecker, prompt ports.HazardPrompter) (bool, error) {
	var hazards []entities.Hazard
	for _, spec := range catalog.Select(sel).Applicable(version) {
		if spec.BypassIfGranted == "" {
			continue
		}
		if ok, err := grants.IsGranted(ctx, spec.Capability); err != nil || !ok {
			continue
		}
		hazards = append(hazards, entities.Hazard{Capability: spec.Capability, Reason: spec.BypassIfGranted})
	}
	if len(hazards) == 0 {
		return true, nil
	}
	if !prompt.IsInteractive() {
		return false, errors.New("hazard probes need confirmation: pass --yes to run them unattended")
	}
	return prompt.ConfirmHazards(hazards)
}
