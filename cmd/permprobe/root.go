package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/permprobe/application/config"
	"github.com/reglet-dev/permprobe/log"
)

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd(s streams) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "permprobe",
		Short: "Probe platform access-control enforcement",
		Long: `permprobe attempts privileged platform operations the caller should not be
allowed to perform and reports, per guarded capability, whether the platform
enforced the check.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "session config file (YAML)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: text, json")

	root.AddCommand(
		newRunCmd(g, s),
		newListCmd(g, s),
		newSchemaCmd(s),
		newTransactsCmd(g, s),
		newAgentCmd(g, s),
		newVerifyCmd(s),
	)
	return root
}

// loadConfig reads the session config, or the defaults when none is given,
// and applies the logging overrides.
func (g *globalFlags) loadConfig() (*config.SessionConfig, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to the error stream so reports
// written to stdout stay parseable.
func newLogger(cfg *config.SessionConfig, w io.Writer) (*slog.Logger, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := log.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return log.Setup(w, log.WithLevel(level), log.WithFormat(format)), nil
}
